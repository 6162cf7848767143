// Package directory provides read-only member lookups for target-selector
// filters: role membership and account join time.
package directory

import (
	"context"
	"time"
)

// Member is the slice of directory data the selector needs.
type Member struct {
	UserID   string
	RoleIDs  []string
	JoinedAt time.Time
	IsBot    bool
}

type Directory interface {
	// Member returns nil when the user is not present in the scope.
	Member(ctx context.Context, scopeID, userID string) (*Member, error)
}

// HasRole reports role membership.
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// AccountAgeDays is derived from the snowflake creation time carried in
// JoinedAt's fallback; callers treat zero JoinedAt as unknown.
func (m *Member) AccountAgeDays(now time.Time) float64 {
	if m.JoinedAt.IsZero() {
		return 0
	}
	return now.Sub(m.JoinedAt).Hours() / 24
}
