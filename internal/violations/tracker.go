// Package violations keeps per-(watch, user) violation counters with the
// time-windowed hard reset the escalation ladder is built on.
package violations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
	"github.com/BecasLan/BecasScore-sub005/pkg/util"
)

type Tracker struct {
	locks   *util.KeyMutex
	records map[string]*models.ViolationRecord
	mapMu   mapGuard
	st      store.Store
}

func NewTracker(st store.Store) *Tracker {
	return &Tracker{
		locks:   util.NewKeyMutex(256),
		records: make(map[string]*models.ViolationRecord),
		st:      st,
	}
}

// Record registers one violation. If the reset window lapsed since the first
// violation the record restarts at count 1 — intentional amnesia, not decay.
func (t *Tracker) Record(watchID, userID string, evidence models.Evidence, resetAfterHours float64) *models.ViolationRecord {
	key := store.ViolationKey(watchID, userID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	now := evidence.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	rec := t.loadLocked(key, watchID, userID)
	if rec == nil || rec.WindowExpired(now, resetAfterHours) {
		rec = &models.ViolationRecord{
			WatchID:        watchID,
			UserID:         userID,
			Count:          1,
			FirstViolation: now,
			LastViolation:  now,
			History:        []models.Evidence{evidence},
		}
	} else {
		rec.Count++
		rec.LastViolation = now
		rec.History = append(rec.History, evidence)
		if len(rec.History) > models.MaxEvidenceHistory {
			rec.History = rec.History[len(rec.History)-models.MaxEvidenceHistory:]
		}
	}

	t.mapMu.Lock()
	t.records[key] = rec
	t.mapMu.Unlock()

	metrics.Global().ViolationsTracked.Add(1)
	t.persist(key, rec)
	return cloneRecord(rec)
}

// Get returns the current record or nil when the pair has no violations.
func (t *Tracker) Get(watchID, userID string) *models.ViolationRecord {
	key := store.ViolationKey(watchID, userID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	rec := t.loadLocked(key, watchID, userID)
	if rec == nil {
		return nil
	}
	return cloneRecord(rec)
}

// Purge drops every record belonging to a watch. Called when the watch is
// cancelled or expires.
func (t *Tracker) Purge(watchID string) {
	prefix := store.ViolationKeyPrefix + watchID + ":"

	t.mapMu.Lock()
	for key := range t.records {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(t.records, key)
		}
	}
	t.mapMu.Unlock()

	if t.st == nil {
		return
	}
	stored, err := t.st.ListPrefix(context.Background(), prefix)
	if err != nil {
		metrics.Global().StoreErrors.Add(1)
		logging.Warn("violation purge scan failed for %s: %v", watchID, err)
		return
	}
	for key := range stored {
		if err := t.st.Delete(context.Background(), key); err != nil {
			logging.Warn("violation purge delete failed for %s: %v", key, err)
		}
	}
}

func (t *Tracker) loadLocked(key, watchID, userID string) *models.ViolationRecord {
	t.mapMu.Lock()
	rec := t.records[key]
	t.mapMu.Unlock()
	if rec != nil {
		return rec
	}

	if t.st == nil {
		return nil
	}
	raw, err := t.st.Get(context.Background(), key)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.Global().StoreErrors.Add(1)
			logging.Warn("violation load failed for %s/%s: %v", watchID, userID, err)
		}
		return nil
	}

	var loaded models.ViolationRecord
	if err := json.Unmarshal(raw, &loaded); err != nil {
		logging.Warn("corrupt violation record %s, dropping: %v", key, err)
		return nil
	}
	t.mapMu.Lock()
	t.records[key] = &loaded
	t.mapMu.Unlock()
	return &loaded
}

func (t *Tracker) persist(key string, rec *models.ViolationRecord) {
	if t.st == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		logging.Error("violation marshal failed for %s: %v", key, err)
		return
	}
	if err := t.st.Put(context.Background(), key, raw, 0); err != nil {
		metrics.Global().StoreErrors.Add(1)
		logging.Warn("violation persist failed for %s: %v", key, err)
	}
}

func cloneRecord(rec *models.ViolationRecord) *models.ViolationRecord {
	out := *rec
	out.History = make([]models.Evidence, len(rec.History))
	copy(out.History, rec.History)
	return &out
}
