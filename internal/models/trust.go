package models

import "time"

type TrustLevel uint8

const (
	LevelDangerous TrustLevel = iota
	LevelCautious
	LevelNeutral
	LevelTrusted
	LevelExemplary
)

const (
	// DefaultScore is the neutral starting score for unknown users and the
	// target the decay sweep converges toward.
	DefaultScore = 50.0

	MinScore = 0.0
	MaxScore = 100.0

	// MaxTrustHistory bounds the per-user event ring. Oldest entries are
	// evicted past this.
	MaxTrustHistory = 100
)

// TrustScore is the globally scoped reputation record for one user. It is
// never deleted, only decayed; mutation goes through the ledger.
type TrustScore struct {
	UserID            string       `json:"user_id"`
	Score             float64      `json:"score"`
	Level             TrustLevel   `json:"level"`
	History           []TrustEvent `json:"history"`
	LastUpdated       time.Time    `json:"last_updated"`
	JoinedAt          time.Time    `json:"joined_at"`
	PermanentlyLocked bool         `json:"permanently_locked"`
}

// TrustEvent is one append-only entry in a user's trust history.
type TrustEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Delta     float64   `json:"delta"`
	Reason    string    `json:"reason"`
	Context   string    `json:"context,omitempty"`
}

// LevelForScore maps a score onto the five fixed bands.
func LevelForScore(score float64) TrustLevel {
	switch {
	case score < 20:
		return LevelDangerous
	case score < 40:
		return LevelCautious
	case score < 60:
		return LevelNeutral
	case score < 80:
		return LevelTrusted
	default:
		return LevelExemplary
	}
}

func ClampScore(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func (l TrustLevel) String() string {
	switch l {
	case LevelDangerous:
		return "dangerous"
	case LevelCautious:
		return "cautious"
	case LevelNeutral:
		return "neutral"
	case LevelTrusted:
		return "trusted"
	case LevelExemplary:
		return "exemplary"
	default:
		return "unknown"
	}
}

func NewTrustScore(userID string, now time.Time) *TrustScore {
	return &TrustScore{
		UserID:      userID,
		Score:       DefaultScore,
		Level:       LevelForScore(DefaultScore),
		History:     make([]TrustEvent, 0, 8),
		LastUpdated: now,
		JoinedAt:    now,
	}
}
