package models

import "time"

// MaxEvidenceHistory bounds the per-record evidence ring.
const MaxEvidenceHistory = 20

// Evidence is one captured trigger excerpt.
type Evidence struct {
	Timestamp     time.Time     `json:"timestamp"`
	ConditionType ConditionType `json:"condition_type"`
	Excerpt       string        `json:"excerpt"`
	Confidence    float64       `json:"confidence"`
}

// ViolationRecord tracks repeat triggers for one user under one watch.
// Keyed by (WatchID, UserID).
type ViolationRecord struct {
	WatchID        string     `json:"watch_id"`
	UserID         string     `json:"user_id"`
	Count          int        `json:"count"`
	FirstViolation time.Time  `json:"first_violation"`
	LastViolation  time.Time  `json:"last_violation"`
	History        []Evidence `json:"history"`
}

// WindowExpired reports whether the reset window has lapsed since the first
// violation. A zero resetAfterHours disables the window.
func (r *ViolationRecord) WindowExpired(now time.Time, resetAfterHours float64) bool {
	if resetAfterHours <= 0 {
		return false
	}
	return now.Sub(r.FirstViolation) > time.Duration(resetAfterHours*float64(time.Hour))
}
