package trust

import (
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// RedemptionPolicy tunes how low-trust users can claw score back.
type RedemptionPolicy struct {
	// Ceiling is the score at or above which redemption is refused.
	Ceiling float64
	// MaxToxicity is the highest toxicity still counted as clean behavior.
	MaxToxicity float64
	// CleanPoints / HelpfulPoints are the per-signal awards, PerCallCap the
	// additive bound for one check.
	CleanPoints   float64
	HelpfulPoints float64
	PerCallCap    float64
}

func DefaultRedemptionPolicy() RedemptionPolicy {
	return RedemptionPolicy{
		Ceiling:       60,
		MaxToxicity:   0.2,
		CleanPoints:   2,
		HelpfulPoints: 3,
		PerCallCap:    5,
	}
}

// CheckRedemption awards small positive deltas for sustained good behavior.
// Only users below the ceiling and not permanently locked are eligible; the
// award is additive and capped per call so redemption is always gradual.
func (l *Ledger) CheckRedemption(userID string, signal models.RedemptionSignal, policy RedemptionPolicy) models.RedemptionResult {
	// Hold the user stripe across the eligibility check and the award so two
	// concurrent checks at the ceiling cannot both be granted.
	l.locks.Lock(userID)
	defer l.locks.Unlock(userID)

	current := l.loadLocked(userID)
	if current.PermanentlyLocked || current.Score >= policy.Ceiling {
		return models.RedemptionResult{Granted: false, NewScore: current.Score}
	}

	points := 0.0
	if signal.Toxicity <= policy.MaxToxicity && signal.MessageCount > 0 {
		points += policy.CleanPoints
		if signal.WasHelpful {
			points += policy.HelpfulPoints
		}
	}
	if points > policy.PerCallCap {
		points = policy.PerCallCap
	}
	if points == 0 {
		return models.RedemptionResult{Granted: false, NewScore: current.Score}
	}

	updated := l.applyDeltaLocked(userID, points, "redemption", "positive behavior streak")
	return models.RedemptionResult{
		Granted:  true,
		Points:   points,
		NewScore: updated.Score,
	}
}
