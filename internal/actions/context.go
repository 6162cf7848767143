package actions

import "github.com/BecasLan/BecasScore-sub005/internal/models"

// RuntimeContext carries the values action conditions can reference. Every
// field is a pure snapshot taken before evaluation; condition checks perform
// no lookups of their own.
type RuntimeContext struct {
	ScopeID        string
	UserID         string
	TrustScore     float64
	ViolationCount int
	AccountAgeDays float64
	MessageCount   int
	Reason         string
}

// Lookup resolves a condition field against the snapshot. The bool reports
// whether the field is known.
func (rc RuntimeContext) Lookup(field models.ConditionField) (float64, bool) {
	switch field {
	case models.FieldTrustScore:
		return rc.TrustScore, true
	case models.FieldViolationCount:
		return float64(rc.ViolationCount), true
	case models.FieldAccountAgeDays:
		return rc.AccountAgeDays, true
	case models.FieldMessageCount:
		return float64(rc.MessageCount), true
	default:
		return 0, false
	}
}
