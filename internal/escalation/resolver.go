// Package escalation maps a cumulative violation count onto the watch's
// escalation ladder.
package escalation

import (
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// Resolve returns the highest stage whose threshold is satisfied by
// violationCount, or nil when the count is below the first threshold or no
// ladder is configured. Stages are sorted ascending with unique thresholds
// (enforced at watch creation), so a single forward scan suffices.
func Resolve(cfg *models.EscalationConfig, violationCount int) *models.EscalationStage {
	if cfg == nil || len(cfg.Stages) == 0 {
		return nil
	}

	var matched *models.EscalationStage
	for i := range cfg.Stages {
		stage := &cfg.Stages[i]
		if stage.ViolationCount > violationCount {
			break
		}
		matched = stage
	}
	if matched == nil {
		return nil
	}

	out := *matched
	return &out
}

// StageAction converts a resolved stage into the action tree form the
// conditional evaluator executes. Stages carry no conditions; they resolved
// already.
func StageAction(stage *models.EscalationStage) models.ConditionalAction {
	return models.ConditionalAction{
		Kind:       stage.Kind,
		Parameters: stage.Parameters,
	}
}
