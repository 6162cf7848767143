package trust

import (
	"context"
	"strings"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
)

// DecayPolicy controls the inactivity sweep.
type DecayPolicy struct {
	// GraceDays of inactivity before any decay applies.
	GraceDays float64
	// RatePerDay is the score movement per inactive day past grace.
	RatePerDay float64
}

// ApplyDecay nudges every inactive, unlocked score toward the neutral
// default. The approach is monotonic: movement is capped at the remaining
// distance, so a score never crosses 50 and never oscillates. Locked users
// are untouched.
func (l *Ledger) ApplyDecay(now time.Time, policy DecayPolicy) int {
	if policy.RatePerDay <= 0 {
		return 0
	}

	decayed := 0
	for _, userID := range l.decayCandidates() {
		if l.decayOne(userID, now, policy) {
			decayed++
		}
	}
	metrics.Global().DecaySweeps.Add(1)
	return decayed
}

func (l *Ledger) decayOne(userID string, now time.Time, policy DecayPolicy) bool {
	l.locks.Lock(userID)
	defer l.locks.Unlock(userID)

	ts := l.loadLocked(userID)
	if ts.PermanentlyLocked || ts.Score == models.DefaultScore {
		return false
	}

	grace := time.Duration(policy.GraceDays * 24 * float64(time.Hour))
	decayStart := ts.LastUpdated.Add(grace)
	if ref, ok := l.decayRef.Load(userID); ok {
		if t := ref.(time.Time); t.After(decayStart) {
			decayStart = t
		}
	}
	if !now.After(decayStart) {
		return false
	}

	elapsedDays := now.Sub(decayStart).Hours() / 24
	amount := policy.RatePerDay * elapsedDays
	remaining := models.DefaultScore - ts.Score
	if remaining < 0 {
		remaining = -remaining
		amount = -amount
	}
	if amount > remaining {
		amount = remaining
	} else if amount < -remaining {
		amount = -remaining
	}
	if amount == 0 {
		return false
	}

	ts.Score = models.ClampScore(ts.Score + amount)
	ts.Level = models.LevelForScore(ts.Score)
	ts.History = append(ts.History, models.TrustEvent{
		UserID:    userID,
		Timestamp: now,
		Delta:     amount,
		Reason:    "inactivity_decay",
	})
	if len(ts.History) > models.MaxTrustHistory {
		ts.History = ts.History[len(ts.History)-models.MaxTrustHistory:]
	}
	// LastUpdated is deliberately left alone: decay is not activity.
	l.decayRef.Store(userID, now)

	l.persistLocked(ts)
	return true
}

// decayCandidates merges in-memory users with users persisted by earlier
// runs so a restart does not exempt anyone from decay.
func (l *Ledger) decayCandidates() []string {
	seen := make(map[string]struct{})
	for _, id := range l.UserIDs() {
		seen[id] = struct{}{}
	}

	if l.st != nil {
		stored, err := l.st.ListPrefix(context.Background(), store.TrustKeyPrefix)
		if err != nil {
			metrics.Global().StoreErrors.Add(1)
			logging.Warn("decay candidate scan failed: %v", err)
		} else {
			for key := range stored {
				seen[strings.TrimPrefix(key, store.TrustKeyPrefix)] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}
