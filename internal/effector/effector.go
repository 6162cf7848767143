// Package effector is the boundary to real moderation side effects. Calls
// may fail (permissions, missing target) and there is no rollback; callers
// report per-target outcomes and never unwind bookkeeping that already
// committed.
package effector

import (
	"context"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// Outcome is the effector's per-call result. A failed call is data, not a
// pipeline error.
type Outcome struct {
	Success bool
	Message string
}

type Effector interface {
	Execute(ctx context.Context, kind models.ActionKind, scopeID, targetUserID string, params map[string]string) Outcome
}
