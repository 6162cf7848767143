package trust

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
	"github.com/BecasLan/BecasScore-sub005/pkg/util"
)

// Ledger owns every TrustScore. All mutation is funneled through ApplyDelta
// and SetPermanentFloor so the clamp, lock and history invariants hold in one
// place. Same-user mutations serialize on a striped key mutex.
type Ledger struct {
	locks  *util.KeyMutex
	scores *scoreMap
	st     store.Store

	// decayRef remembers when each user last decayed so repeated sweeps do
	// not re-apply the same span.
	decayRef sync.Map

	// publish fans completed TrustEvents out to subscribers. May be nil.
	publish func(models.TrustEvent)
}

func NewLedger(st store.Store, publish func(models.TrustEvent)) *Ledger {
	return &Ledger{
		locks:   util.NewKeyMutex(256),
		scores:  newScoreMap(),
		st:      st,
		publish: publish,
	}
}

// GetScore returns a copy of the user's trust record, creating the default
// neutral record on first lookup.
func (l *Ledger) GetScore(userID string) *models.TrustScore {
	l.locks.Lock(userID)
	defer l.locks.Unlock(userID)

	ts := l.loadLocked(userID)
	return cloneScore(ts)
}

// ApplyDelta mutates the user's score by delta, clamped to [0,100]. For a
// permanently locked user a positive delta is a silent no-op that returns the
// unchanged record; negative deltas still apply.
func (l *Ledger) ApplyDelta(userID string, delta float64, reason, context string) *models.TrustScore {
	l.locks.Lock(userID)
	defer l.locks.Unlock(userID)

	return l.applyDeltaLocked(userID, delta, reason, context)
}

// applyDeltaLocked does the actual mutation. Caller holds the user stripe.
func (l *Ledger) applyDeltaLocked(userID string, delta float64, reason, context string) *models.TrustScore {
	now := time.Now()
	ts := l.loadLocked(userID)

	if ts.PermanentlyLocked && delta > 0 {
		return cloneScore(ts)
	}

	ts.Score = models.ClampScore(ts.Score + delta)
	if ts.PermanentlyLocked {
		ts.Score = models.MinScore
	}
	ts.Level = models.LevelForScore(ts.Score)
	ts.LastUpdated = now

	event := models.TrustEvent{
		UserID:    userID,
		Timestamp: now,
		Delta:     delta,
		Reason:    reason,
		Context:   context,
	}
	ts.History = append(ts.History, event)
	if len(ts.History) > models.MaxTrustHistory {
		ts.History = ts.History[len(ts.History)-models.MaxTrustHistory:]
	}

	metrics.Global().TrustDeltas.Add(1)
	l.persistLocked(ts)
	if l.publish != nil {
		l.publish(event)
	}
	return cloneScore(ts)
}

// SetPermanentFloor forces the score to 0 and blocks every future increase.
// There is no reverse operation.
func (l *Ledger) SetPermanentFloor(userID, reason string) *models.TrustScore {
	l.locks.Lock(userID)
	defer l.locks.Unlock(userID)

	now := time.Now()
	ts := l.loadLocked(userID)

	delta := models.MinScore - ts.Score
	ts.Score = models.MinScore
	ts.Level = models.LevelDangerous
	ts.PermanentlyLocked = true
	ts.LastUpdated = now

	event := models.TrustEvent{
		UserID:    userID,
		Timestamp: now,
		Delta:     delta,
		Reason:    reason,
		Context:   "permanent_floor",
	}
	ts.History = append(ts.History, event)
	if len(ts.History) > models.MaxTrustHistory {
		ts.History = ts.History[len(ts.History)-models.MaxTrustHistory:]
	}

	metrics.Global().TrustDeltas.Add(1)
	l.persistLocked(ts)
	if l.publish != nil {
		l.publish(event)
	}
	return cloneScore(ts)
}

// UserIDs snapshots the ids currently resident in memory. Used by the decay
// sweep so it never holds the ledger-wide view while mutating.
func (l *Ledger) UserIDs() []string {
	return l.scores.ids()
}

// loadLocked resolves the live record for userID, pulling it from the store
// or creating the neutral default. Caller holds the user stripe.
func (l *Ledger) loadLocked(userID string) *models.TrustScore {
	if ts := l.scores.get(userID); ts != nil {
		return ts
	}

	if l.st != nil {
		raw, err := l.st.Get(context.Background(), store.TrustKey(userID))
		if err == nil {
			var ts models.TrustScore
			if err := json.Unmarshal(raw, &ts); err == nil {
				l.scores.put(userID, &ts)
				return &ts
			}
			logging.Warn("corrupt trust record for %s, recreating: %v", userID, err)
		} else if err != store.ErrNotFound {
			metrics.Global().StoreErrors.Add(1)
			logging.Warn("trust load failed for %s: %v", userID, err)
		}
	}

	ts := models.NewTrustScore(userID, time.Now())
	l.scores.put(userID, ts)
	return ts
}

// persistLocked is best effort: the in-memory mutation already took effect,
// write failures only cost durability.
func (l *Ledger) persistLocked(ts *models.TrustScore) {
	if l.st == nil {
		return
	}
	raw, err := json.Marshal(ts)
	if err != nil {
		logging.Error("trust marshal failed for %s: %v", ts.UserID, err)
		return
	}
	if err := l.st.Put(context.Background(), store.TrustKey(ts.UserID), raw, 0); err != nil {
		metrics.Global().StoreErrors.Add(1)
		logging.Warn("trust persist failed for %s: %v", ts.UserID, err)
	}
}

func cloneScore(ts *models.TrustScore) *models.TrustScore {
	out := *ts
	out.History = make([]models.TrustEvent, len(ts.History))
	copy(out.History, ts.History)
	return &out
}
