package models

import "time"

// TargetSelector names either an explicit user set or a declarative filter.
// Exactly one of the two forms must be populated.
type TargetSelector struct {
	UserIDs []string      `json:"user_ids,omitempty"`
	Filter  *TargetFilter `json:"filter,omitempty"`
}

// TargetFilter is evaluated lazily against the current member snapshot.
// Zero-valued bounds are inactive.
type TargetFilter struct {
	TrustBelow     float64  `json:"trust_below,omitempty"`
	TrustAbove     float64  `json:"trust_above,omitempty"`
	HasRole        string   `json:"has_role,omitempty"`
	MissingRole    string   `json:"missing_role,omitempty"`
	MaxAccountDays int      `json:"max_account_days,omitempty"`
	ExcludeUserIDs []string `json:"exclude_user_ids,omitempty"`
}

// Explicit reports whether the selector names users directly.
func (s *TargetSelector) Explicit() bool {
	return len(s.UserIDs) > 0
}

// EscalationStage maps a cumulative violation count to an action.
type EscalationStage struct {
	ViolationCount int               `json:"violation_count"`
	Kind           ActionKind        `json:"kind"`
	Parameters     map[string]string `json:"parameters,omitempty"`
	Description    string            `json:"description,omitempty"`
}

// EscalationConfig is the ladder attached to a watch. Stages are kept sorted
// ascending by ViolationCount; thresholds are unique (enforced at creation).
type EscalationConfig struct {
	Stages          []EscalationStage `json:"stages"`
	ResetAfterHours float64           `json:"reset_after_hours,omitempty"`
}

// WatchConfig is one active monitoring rule.
type WatchConfig struct {
	ID           string              `json:"id"`
	ScopeID      string              `json:"scope_id"`
	CreatedAt    time.Time           `json:"created_at"`
	ExpiresAt    time.Time           `json:"expires_at"`
	Target       TargetSelector      `json:"target"`
	Conditions   []WatchCondition    `json:"conditions"`
	Actions      []ConditionalAction `json:"actions"`
	Escalation   *EscalationConfig   `json:"escalation,omitempty"`
	TriggerCount int64               `json:"trigger_count"`
	Active       bool                `json:"active"`
}

// Expired reports whether the watch TTL has passed.
func (w *WatchConfig) Expired(now time.Time) bool {
	return now.After(w.ExpiresAt)
}
