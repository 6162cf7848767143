package models

import "time"

// BehaviorEvent is one observed user action with its content, the unit the
// engine is invoked on.
type BehaviorEvent struct {
	EventID   string    `json:"event_id"`
	ScopeID   string    `json:"scope_id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggerEvent is emitted whenever a watch condition fires for a user. It is
// the append-only record handed to downstream consumers.
type TriggerEvent struct {
	WatchID       string        `json:"watch_id"`
	ScopeID       string        `json:"scope_id"`
	UserID        string        `json:"user_id"`
	ConditionType ConditionType `json:"condition_type"`
	Evidence      string        `json:"evidence"`
	Confidence    float64       `json:"confidence"`
	Timestamp     time.Time     `json:"timestamp"`
}
