package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// ErrInvalidConfig wraps every validation failure so callers can reject the
// whole watch in one branch. A watch is never partially applied.
var ErrInvalidConfig = errors.New("invalid watch config")

func validateConfig(cfg *models.WatchConfig, now time.Time) error {
	if cfg.ScopeID == "" {
		return fmt.Errorf("%w: scope id required", ErrInvalidConfig)
	}
	if !cfg.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expiry must be in the future", ErrInvalidConfig)
	}
	if len(cfg.Conditions) == 0 {
		return fmt.Errorf("%w: at least one condition required", ErrInvalidConfig)
	}
	for i, cond := range cfg.Conditions {
		if !models.KnownConditionType(cond.Type) {
			return fmt.Errorf("%w: unknown condition type %q at index %d", ErrInvalidConfig, cond.Type, i)
		}
		if cond.Type == models.ConditionKeyword && len(cond.Keywords) == 0 {
			return fmt.Errorf("%w: keyword condition without keywords at index %d", ErrInvalidConfig, i)
		}
	}

	if !cfg.Target.Explicit() && cfg.Target.Filter == nil {
		return fmt.Errorf("%w: target selector is empty", ErrInvalidConfig)
	}
	if cfg.Target.Explicit() && cfg.Target.Filter != nil {
		return fmt.Errorf("%w: target selector has both ids and filter", ErrInvalidConfig)
	}

	if len(cfg.Actions) == 0 && cfg.Escalation == nil {
		return fmt.Errorf("%w: watch has no actions and no escalation", ErrInvalidConfig)
	}
	for i := range cfg.Actions {
		if err := validateAction(&cfg.Actions[i], 0); err != nil {
			return fmt.Errorf("%w: action %d: %v", ErrInvalidConfig, i, err)
		}
	}

	if cfg.Escalation != nil {
		if err := validateEscalation(cfg.Escalation); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

const maxActionDepth = 8

func validateAction(action *models.ConditionalAction, depth int) error {
	if depth > maxActionDepth {
		return fmt.Errorf("else chain deeper than %d", maxActionDepth)
	}
	if !models.KnownActionKind(action.Kind) {
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
	if action.Condition != nil {
		if err := validateActionCondition(action.Condition); err != nil {
			return err
		}
	}
	if action.ElseAction != nil {
		if action.Condition == nil {
			return fmt.Errorf("else branch without a condition")
		}
		return validateAction(action.ElseAction, depth+1)
	}
	return nil
}

func validateActionCondition(cond *models.ActionCondition) error {
	switch cond.Field {
	case models.FieldAlways:
		return nil
	case models.FieldTrustScore, models.FieldViolationCount,
		models.FieldAccountAgeDays, models.FieldMessageCount:
	default:
		return fmt.Errorf("unknown condition field %q", cond.Field)
	}
	switch cond.Op {
	case models.OpGT, models.OpLT, models.OpGTE, models.OpLTE, models.OpEQ, models.OpNEQ:
		return nil
	default:
		return fmt.Errorf("unknown operator %q", cond.Op)
	}
}

// validateEscalation rejects unsorted or duplicate thresholds up front so
// resolution never has to tie-break.
func validateEscalation(esc *models.EscalationConfig) error {
	if len(esc.Stages) == 0 {
		return fmt.Errorf("escalation config without stages")
	}
	if esc.ResetAfterHours < 0 {
		return fmt.Errorf("negative reset window")
	}

	prev := 0
	for i, stage := range esc.Stages {
		if stage.ViolationCount < 1 {
			return fmt.Errorf("stage %d has threshold below 1", i)
		}
		if i > 0 && stage.ViolationCount == prev {
			return fmt.Errorf("duplicate escalation threshold %d", stage.ViolationCount)
		}
		if i > 0 && stage.ViolationCount < prev {
			return fmt.Errorf("escalation stages not sorted ascending")
		}
		if !models.KnownActionKind(stage.Kind) {
			return fmt.Errorf("stage %d has unknown action kind %q", i, stage.Kind)
		}
		prev = stage.ViolationCount
	}
	return nil
}
