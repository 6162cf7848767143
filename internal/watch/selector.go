package watch

import (
	"context"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// TrustReader is the slice of the ledger the selector needs.
type TrustReader interface {
	GetScore(userID string) *models.TrustScore
}

// matchesTarget resolves the selector lazily for one user. Filter predicates
// short-circuit on the first failure; directory errors fail closed (no
// match) rather than guessing.
func (r *Registry) matchesTarget(ctx context.Context, w *models.WatchConfig, userID string, now time.Time) bool {
	if w.Target.Explicit() {
		for _, id := range w.Target.UserIDs {
			if id == userID {
				return true
			}
		}
		return false
	}

	f := w.Target.Filter
	if f == nil {
		return false
	}
	for _, excluded := range f.ExcludeUserIDs {
		if excluded == userID {
			return false
		}
	}

	if f.TrustBelow > 0 || f.TrustAbove > 0 {
		score := r.trust.GetScore(userID).Score
		if f.TrustBelow > 0 && score >= f.TrustBelow {
			return false
		}
		if f.TrustAbove > 0 && score <= f.TrustAbove {
			return false
		}
	}

	if f.HasRole != "" || f.MissingRole != "" || f.MaxAccountDays > 0 {
		member, err := r.dir.Member(ctx, w.ScopeID, userID)
		if err != nil || member == nil {
			if err != nil {
				logging.Debug("selector member lookup failed for %s: %v", userID, err)
			}
			return false
		}
		if f.HasRole != "" && !member.HasRole(f.HasRole) {
			return false
		}
		if f.MissingRole != "" && member.HasRole(f.MissingRole) {
			return false
		}
		if f.MaxAccountDays > 0 && member.AccountAgeDays(now) > float64(f.MaxAccountDays) {
			return false
		}
	}

	return true
}
