package models

// ConditionType is the closed set of watch condition kinds. Each maps to a
// handler registered once at startup; unknown types are rejected at watch
// creation.
type ConditionType string

const (
	ConditionToxicity       ConditionType = "toxicity"
	ConditionThreat         ConditionType = "threat"
	ConditionSpam           ConditionType = "spam"
	ConditionLinkSpam       ConditionType = "link_spam"
	ConditionKeyword        ConditionType = "keyword"
	ConditionSentimentTrend ConditionType = "sentiment_trend"
	ConditionImpersonation  ConditionType = "impersonation"
)

// WatchCondition is pure configuration, no mutable state.
type WatchCondition struct {
	Type        ConditionType `json:"type"`
	Threshold   float64       `json:"threshold,omitempty"`
	Keywords    []string      `json:"keywords,omitempty"`
	Description string        `json:"description,omitempty"`
}

// ConditionResult is the uniform outcome of a condition check.
type ConditionResult struct {
	Triggered  bool    `json:"triggered"`
	Evidence   string  `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// KnownConditionType reports whether t is part of the closed set.
func KnownConditionType(t ConditionType) bool {
	switch t {
	case ConditionToxicity, ConditionThreat, ConditionSpam, ConditionLinkSpam,
		ConditionKeyword, ConditionSentimentTrend, ConditionImpersonation:
		return true
	}
	return false
}
