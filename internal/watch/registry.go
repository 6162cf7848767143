// Package watch holds active monitoring rules, matches behavioral events
// against them and expires rules past their TTL.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BecasLan/BecasScore-sub005/internal/conditions"
	"github.com/BecasLan/BecasScore-sub005/internal/directory"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
)

var ErrWatchNotFound = errors.New("watch not found")

// TriggerHandler receives every condition trigger. The watch passed in is a
// snapshot copy; mutating it has no effect on the registry.
type TriggerHandler func(ctx context.Context, w models.WatchConfig, trigger models.TriggerEvent)

type Registry struct {
	mu      sync.RWMutex
	watches map[string]*models.WatchConfig

	conds *conditions.Evaluator
	dir   directory.Directory
	trust TrustReader
	st    store.Store

	onTrigger TriggerHandler
	onRemove  func(watchID string)
}

func NewRegistry(conds *conditions.Evaluator, dir directory.Directory, trust TrustReader, st store.Store) *Registry {
	return &Registry{
		watches: make(map[string]*models.WatchConfig),
		conds:   conds,
		dir:     dir,
		trust:   trust,
		st:      st,
	}
}

// SetTriggerHandler wires the escalation/action path. Must be called before
// events flow.
func (r *Registry) SetTriggerHandler(h TriggerHandler) {
	r.onTrigger = h
}

// SetRemoveHandler is called for every watch dropped by cancel or expiry,
// after it left the active set.
func (r *Registry) SetRemoveHandler(h func(watchID string)) {
	r.onRemove = h
}

// Create validates and activates a watch, assigning its id.
func (r *Registry) Create(cfg models.WatchConfig) (string, error) {
	now := time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	if err := validateConfig(&cfg, now); err != nil {
		return "", err
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.Active = true
	cfg.TriggerCount = 0

	r.mu.Lock()
	r.watches[cfg.ID] = &cfg
	r.mu.Unlock()

	r.persist(&cfg)
	logging.Info("watch %s created in scope %s, %d conditions, expires %s",
		cfg.ID, cfg.ScopeID, len(cfg.Conditions), cfg.ExpiresAt.Format(time.RFC3339))
	return cfg.ID, nil
}

// Cancel deactivates and removes a watch. The active flip is what in-flight
// OnEvent calls observe, so cancellation wins over late triggers.
func (r *Registry) Cancel(watchID string) bool {
	r.mu.Lock()
	w, ok := r.watches[watchID]
	if ok {
		w.Active = false
		delete(r.watches, watchID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.dropPersisted(watchID)
	if r.onRemove != nil {
		r.onRemove(watchID)
	}
	logging.Info("watch %s cancelled", watchID)
	return true
}

// Get returns a snapshot copy of one watch.
func (r *Registry) Get(watchID string) (*models.WatchConfig, error) {
	r.mu.RLock()
	w, ok := r.watches[watchID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrWatchNotFound
	}
	out := *w
	return &out, nil
}

// OnEvent runs one behavioral event through every active watch in scope and
// returns the triggers produced. The condition evaluator observes the event
// exactly once regardless of how many watches match.
func (r *Registry) OnEvent(ctx context.Context, event models.BehaviorEvent) []models.TriggerEvent {
	metrics.Global().EventsSeen.Add(1)

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	r.conds.Observe(event.UserID, event.Content, now)

	candidates := r.snapshotScope(event.ScopeID, now)

	var triggers []models.TriggerEvent
	for _, w := range candidates {
		if !r.matchesTarget(ctx, w, event.UserID, now) {
			continue
		}

		for _, cond := range w.Conditions {
			result := r.conds.Check(ctx, event.UserID, event.Content, cond)
			if !result.Triggered {
				continue
			}

			trigger := models.TriggerEvent{
				WatchID:       w.ID,
				ScopeID:       w.ScopeID,
				UserID:        event.UserID,
				ConditionType: cond.Type,
				Evidence:      result.Evidence,
				Confidence:    result.Confidence,
				Timestamp:     now,
			}
			triggers = append(triggers, trigger)
			metrics.Global().Triggers.Add(1)

			// Re-check active right before acting: a cancel that landed
			// while conditions were evaluating must win.
			if r.stillActive(w.ID) && r.onTrigger != nil {
				r.bumpTriggerCount(w.ID)
				r.onTrigger(ctx, *w, trigger)
			}
		}
	}
	return triggers
}

// SweepExpired drops watches whose TTL passed. Safe to run concurrently
// with OnEvent and with itself; a second sweep with nothing new to expire is
// a no-op.
func (r *Registry) SweepExpired(now time.Time) int {
	r.mu.Lock()
	var expired []string
	for id, w := range r.watches {
		if w.Expired(now) {
			w.Active = false
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(r.watches, id)
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.dropPersisted(id)
		if r.onRemove != nil {
			r.onRemove(id)
		}
		logging.Info("watch %s expired", id)
	}

	metrics.Global().ExpirySweeps.Add(1)
	metrics.Global().WatchesExpired.Add(int64(len(expired)))
	return len(expired)
}

// LoadPersisted restores still-live watches from the store at startup.
func (r *Registry) LoadPersisted(ctx context.Context) int {
	if r.st == nil {
		return 0
	}
	stored, err := r.st.ListPrefix(ctx, store.WatchKeyPrefix)
	if err != nil {
		metrics.Global().StoreErrors.Add(1)
		logging.Warn("watch reload failed: %v", err)
		return 0
	}

	now := time.Now()
	loaded := 0
	for key, raw := range stored {
		var w models.WatchConfig
		if err := json.Unmarshal(raw, &w); err != nil {
			logging.Warn("corrupt persisted watch %s, skipping: %v", key, err)
			continue
		}
		if w.Expired(now) || !w.Active {
			r.dropPersisted(w.ID)
			continue
		}
		r.mu.Lock()
		r.watches[w.ID] = &w
		r.mu.Unlock()
		loaded++
	}
	if loaded > 0 {
		logging.Info("restored %d persisted watches", loaded)
	}
	return loaded
}

// snapshotScope copies the active watches for a scope so OnEvent never holds
// the registry lock across classifier calls. Expired-but-unswept watches
// stop matching here.
func (r *Registry) snapshotScope(scopeID string, now time.Time) []*models.WatchConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.WatchConfig, 0, len(r.watches))
	for _, w := range r.watches {
		if w.ScopeID != scopeID || !w.Active || w.Expired(now) {
			continue
		}
		snapshot := *w
		out = append(out, &snapshot)
	}
	return out
}

func (r *Registry) stillActive(watchID string) bool {
	r.mu.RLock()
	w, ok := r.watches[watchID]
	active := ok && w.Active
	r.mu.RUnlock()
	return active
}

func (r *Registry) bumpTriggerCount(watchID string) {
	r.mu.Lock()
	w, ok := r.watches[watchID]
	if !ok {
		r.mu.Unlock()
		return
	}
	w.TriggerCount++
	snapshot := *w
	r.mu.Unlock()

	// Re-persist so the count survives a restart.
	r.persist(&snapshot)
}

func (r *Registry) persist(w *models.WatchConfig) {
	if r.st == nil {
		return
	}
	raw, err := json.Marshal(w)
	if err != nil {
		logging.Error("watch marshal failed for %s: %v", w.ID, err)
		return
	}
	ttl := time.Until(w.ExpiresAt)
	if err := r.st.Put(context.Background(), store.WatchKey(w.ID), raw, ttl); err != nil {
		metrics.Global().StoreErrors.Add(1)
		logging.Warn("watch persist failed for %s: %v", w.ID, err)
	}
}

func (r *Registry) dropPersisted(watchID string) {
	if r.st == nil {
		return
	}
	if err := r.st.Delete(context.Background(), store.WatchKey(watchID)); err != nil {
		logging.Warn("watch delete failed for %s: %v", watchID, err)
	}
}
