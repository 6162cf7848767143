package models

// ActionKind is the closed set of enforcement actions the effector can
// execute.
type ActionKind string

const (
	ActionWarn       ActionKind = "warn"
	ActionTimeout    ActionKind = "timeout"
	ActionKick       ActionKind = "kick"
	ActionBan        ActionKind = "ban"
	ActionRemoveRole ActionKind = "remove_role"
	ActionAddRole    ActionKind = "add_role"
	ActionAnnounce   ActionKind = "announce"
	ActionNone       ActionKind = "none"
)

func KnownActionKind(k ActionKind) bool {
	switch k {
	case ActionWarn, ActionTimeout, ActionKick, ActionBan,
		ActionRemoveRole, ActionAddRole, ActionAnnounce, ActionNone:
		return true
	}
	return false
}

// ConditionField selects which runtime value an ActionCondition compares.
type ConditionField string

const (
	FieldTrustScore     ConditionField = "trust_score"
	FieldViolationCount ConditionField = "violation_count"
	FieldAccountAgeDays ConditionField = "account_age_days"
	FieldMessageCount   ConditionField = "message_count"
	FieldAlways         ConditionField = "always"
)

type CompareOp string

const (
	OpGT  CompareOp = ">"
	OpLT  CompareOp = "<"
	OpGTE CompareOp = ">="
	OpLTE CompareOp = "<="
	OpEQ  CompareOp = "=="
	OpNEQ CompareOp = "!="
)

// ActionCondition gates a ConditionalAction on a runtime value.
type ActionCondition struct {
	Field ConditionField `json:"field"`
	Op    CompareOp      `json:"op,omitempty"`
	Value float64        `json:"value,omitempty"`
}

// ConditionalAction is a binary tree node. When Condition fails and
// ElseAction is nil the evaluator skips, it does not fall through.
type ConditionalAction struct {
	Kind       ActionKind         `json:"kind"`
	Parameters map[string]string  `json:"parameters,omitempty"`
	Condition  *ActionCondition   `json:"condition,omitempty"`
	ElseAction *ConditionalAction `json:"else_action,omitempty"`
}

// ExecutionStatus tells callers what the action evaluator did with a node.
type ExecutionStatus uint8

const (
	ExecutionPerformed ExecutionStatus = iota
	ExecutionSkipped
	ExecutionFailed
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionPerformed:
		return "performed"
	case ExecutionSkipped:
		return "skipped"
	case ExecutionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExecutionResult is the per-target outcome of one resolved action.
type ExecutionResult struct {
	Status  ExecutionStatus `json:"status"`
	Kind    ActionKind      `json:"kind"`
	UserID  string          `json:"user_id"`
	Message string          `json:"message,omitempty"`
}
