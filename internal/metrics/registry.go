package metrics

import "sync/atomic"

// Registry is the engine's counter set. All counters are monotonically
// increasing and safe for concurrent use.
type Registry struct {
	EventsSeen        atomic.Int64
	ConditionsChecked atomic.Int64
	ClassifierCalls   atomic.Int64
	ClassifierErrors  atomic.Int64
	Triggers          atomic.Int64
	ViolationsTracked atomic.Int64
	ActionsPerformed  atomic.Int64
	ActionsSkipped    atomic.Int64
	ActionsFailed     atomic.Int64
	TrustDeltas       atomic.Int64
	DecaySweeps       atomic.Int64
	ExpirySweeps      atomic.Int64
	WatchesExpired    atomic.Int64
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
	StoreErrors       atomic.Int64
}

// Snapshot is a point-in-time copy for the exporter.
type Snapshot struct {
	EventsSeen        int64 `json:"events_seen"`
	ConditionsChecked int64 `json:"conditions_checked"`
	ClassifierCalls   int64 `json:"classifier_calls"`
	ClassifierErrors  int64 `json:"classifier_errors"`
	Triggers          int64 `json:"triggers"`
	ViolationsTracked int64 `json:"violations_tracked"`
	ActionsPerformed  int64 `json:"actions_performed"`
	ActionsSkipped    int64 `json:"actions_skipped"`
	ActionsFailed     int64 `json:"actions_failed"`
	TrustDeltas       int64 `json:"trust_deltas"`
	DecaySweeps       int64 `json:"decay_sweeps"`
	ExpirySweeps      int64 `json:"expiry_sweeps"`
	WatchesExpired    int64 `json:"watches_expired"`
	CacheHits         int64 `json:"cache_hits"`
	CacheMisses       int64 `json:"cache_misses"`
	StoreErrors       int64 `json:"store_errors"`
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		EventsSeen:        r.EventsSeen.Load(),
		ConditionsChecked: r.ConditionsChecked.Load(),
		ClassifierCalls:   r.ClassifierCalls.Load(),
		ClassifierErrors:  r.ClassifierErrors.Load(),
		Triggers:          r.Triggers.Load(),
		ViolationsTracked: r.ViolationsTracked.Load(),
		ActionsPerformed:  r.ActionsPerformed.Load(),
		ActionsSkipped:    r.ActionsSkipped.Load(),
		ActionsFailed:     r.ActionsFailed.Load(),
		TrustDeltas:       r.TrustDeltas.Load(),
		DecaySweeps:       r.DecaySweeps.Load(),
		ExpirySweeps:      r.ExpirySweeps.Load(),
		WatchesExpired:    r.WatchesExpired.Load(),
		CacheHits:         r.CacheHits.Load(),
		CacheMisses:       r.CacheMisses.Load(),
		StoreErrors:       r.StoreErrors.Load(),
	}
}

var globalRegistry = &Registry{}

// Global returns the process-wide registry.
func Global() *Registry {
	return globalRegistry
}
