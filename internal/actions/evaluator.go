// Package actions walks conditional action trees and submits the selected
// action to the enforcement effector.
package actions

import (
	"context"

	"github.com/BecasLan/BecasScore-sub005/internal/effector"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

type Evaluator struct {
	eff effector.Effector
}

func NewEvaluator(eff effector.Effector) *Evaluator {
	return &Evaluator{eff: eff}
}

// Evaluate resolves one tree node. A failing condition recurses into the
// else branch when present and otherwise skips — skipping is a result, not
// an error. Effector failures are surfaced in the result and logged; they do
// not roll back trust or violation state.
func (e *Evaluator) Evaluate(ctx context.Context, action models.ConditionalAction, rc RuntimeContext) models.ExecutionResult {
	if action.Condition != nil && !EvalCondition(*action.Condition, rc) {
		if action.ElseAction != nil {
			return e.Evaluate(ctx, *action.ElseAction, rc)
		}
		metrics.Global().ActionsSkipped.Add(1)
		return models.ExecutionResult{
			Status: models.ExecutionSkipped,
			Kind:   action.Kind,
			UserID: rc.UserID,
		}
	}

	return e.execute(ctx, action, rc)
}

func (e *Evaluator) execute(ctx context.Context, action models.ConditionalAction, rc RuntimeContext) models.ExecutionResult {
	if action.Kind == models.ActionNone {
		metrics.Global().ActionsSkipped.Add(1)
		return models.ExecutionResult{
			Status: models.ExecutionSkipped,
			Kind:   action.Kind,
			UserID: rc.UserID,
		}
	}

	params := action.Parameters
	if rc.Reason != "" {
		params = withReason(params, rc.Reason)
	}

	outcome := e.eff.Execute(ctx, action.Kind, rc.ScopeID, rc.UserID, params)
	if !outcome.Success {
		metrics.Global().ActionsFailed.Add(1)
		logging.Warn("enforcement %s failed for %s in %s: %s", action.Kind, rc.UserID, rc.ScopeID, outcome.Message)
		return models.ExecutionResult{
			Status:  models.ExecutionFailed,
			Kind:    action.Kind,
			UserID:  rc.UserID,
			Message: outcome.Message,
		}
	}

	metrics.Global().ActionsPerformed.Add(1)
	return models.ExecutionResult{
		Status:  models.ExecutionPerformed,
		Kind:    action.Kind,
		UserID:  rc.UserID,
		Message: outcome.Message,
	}
}

// EvalCondition applies one ActionCondition against the runtime snapshot.
// `always` short-circuits without a lookup; unknown fields or operators
// evaluate false.
func EvalCondition(cond models.ActionCondition, rc RuntimeContext) bool {
	if cond.Field == models.FieldAlways {
		return true
	}

	value, ok := rc.Lookup(cond.Field)
	if !ok {
		logging.Warn("unknown action condition field %q", cond.Field)
		return false
	}

	switch cond.Op {
	case models.OpGT:
		return value > cond.Value
	case models.OpLT:
		return value < cond.Value
	case models.OpGTE:
		return value >= cond.Value
	case models.OpLTE:
		return value <= cond.Value
	case models.OpEQ:
		return value == cond.Value
	case models.OpNEQ:
		return value != cond.Value
	default:
		logging.Warn("unknown action condition operator %q", cond.Op)
		return false
	}
}

func withReason(params map[string]string, reason string) map[string]string {
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if _, exists := out["reason"]; !exists {
		out["reason"] = reason
	}
	return out
}
