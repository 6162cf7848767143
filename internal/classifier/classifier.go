// Package classifier wraps the external content-classification service. The
// engine treats it as a black box that may fail or time out; every caller is
// expected to have a local fallback.
package classifier

import (
	"context"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// Classifier is the boundary contract. Classify must respect ctx deadlines;
// a timeout is reported as an error, never a hang.
type Classifier interface {
	Classify(ctx context.Context, content string, conditionType models.ConditionType) (*models.Classification, error)
}
