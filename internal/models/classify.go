package models

// Classification is the verdict of the external classifier for one piece of
// content under one condition type.
type Classification struct {
	Verdict    bool    `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// RedemptionSignal summarizes the behavior sample used for redemption checks.
type RedemptionSignal struct {
	Toxicity     float64 `json:"toxicity"`
	WasHelpful   bool    `json:"was_helpful"`
	CleanStreak  int     `json:"clean_streak"`
	MessageCount int     `json:"message_count"`
}

// RedemptionResult reports whether redemption was granted and how much.
type RedemptionResult struct {
	Granted  bool    `json:"granted"`
	Points   float64 `json:"points"`
	NewScore float64 `json:"new_score"`
}
