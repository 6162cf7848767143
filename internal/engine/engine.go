package engine

import (
	"context"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/actions"
	"github.com/BecasLan/BecasScore-sub005/internal/audit"
	"github.com/BecasLan/BecasScore-sub005/internal/conditions"
	"github.com/BecasLan/BecasScore-sub005/internal/config"
	"github.com/BecasLan/BecasScore-sub005/internal/directory"
	"github.com/BecasLan/BecasScore-sub005/internal/dispatch"
	"github.com/BecasLan/BecasScore-sub005/internal/escalation"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/streams"
	"github.com/BecasLan/BecasScore-sub005/internal/trust"
	"github.com/BecasLan/BecasScore-sub005/internal/violations"
)

// Engine routes confirmed triggers through violation tracking, escalation
// resolution and action dispatch, and settles the trust consequences.
type Engine struct {
	cfg        config.EngineConfig
	ledger     *trust.Ledger
	tracker    *violations.Tracker
	conds      *conditions.Evaluator
	dir        directory.Directory
	queue      *dispatch.Queue
	bus        *streams.Bus
	auditLog   *audit.Log
	redemption trust.RedemptionPolicy
}

func New(cfg config.EngineConfig, ledger *trust.Ledger, tracker *violations.Tracker, conds *conditions.Evaluator, dir directory.Directory, queue *dispatch.Queue, bus *streams.Bus, auditLog *audit.Log) *Engine {
	policy := trust.DefaultRedemptionPolicy()
	if cfg.RedemptionCeiling > 0 {
		policy.Ceiling = cfg.RedemptionCeiling
	}
	return &Engine{
		cfg:        cfg,
		ledger:     ledger,
		tracker:    tracker,
		conds:      conds,
		dir:        dir,
		queue:      queue,
		bus:        bus,
		auditLog:   auditLog,
		redemption: policy,
	}
}

// HandleTrigger is the registry's trigger callback. It records the
// violation, resolves which action applies and enqueues the enforcement job
// with a runtime snapshot taken here, not at execution time.
func (e *Engine) HandleTrigger(ctx context.Context, w models.WatchConfig, trigger models.TriggerEvent) {
	if e.auditLog != nil {
		e.auditLog.Trigger(trigger)
	}
	e.bus.PublishTrigger(trigger)

	evidence := models.Evidence{
		Timestamp:     trigger.Timestamp,
		ConditionType: trigger.ConditionType,
		Excerpt:       trigger.Evidence,
		Confidence:    trigger.Confidence,
	}
	resetAfter := 0.0
	if w.Escalation != nil {
		resetAfter = w.Escalation.ResetAfterHours
	}
	record := e.tracker.Record(w.ID, trigger.UserID, evidence, resetAfter)

	e.applyCorePenalty(trigger)

	pending := e.resolveActions(&w, record.Count)
	if len(pending) == 0 {
		logging.Debug("trigger on watch %s for %s below first escalation stage", w.ID, trigger.UserID)
		return
	}

	rc := e.snapshotRuntime(ctx, trigger, record.Count)
	for i := range pending {
		job := &dispatch.Job{
			Priority:  pending[i].priority,
			WatchID:   w.ID,
			Action:    pending[i].action,
			Runtime:   rc,
			Timestamp: time.Now().UnixNano(),
		}
		if !e.queue.Enqueue(job) {
			metrics.Global().ActionsFailed.Add(1)
			logging.Error("dispatch queue full, dropped %s for %s", pending[i].action.Kind, trigger.UserID)
		}
	}
}

type pendingAction struct {
	action   *models.ConditionalAction
	priority dispatch.JobPriority
}

// resolveActions picks the escalation stage for the current count when a
// ladder exists, otherwise the watch's direct action list.
func (e *Engine) resolveActions(w *models.WatchConfig, violationCount int) []pendingAction {
	if w.Escalation != nil {
		stage := escalation.Resolve(w.Escalation, violationCount)
		if stage == nil {
			return nil
		}
		act := escalation.StageAction(stage)
		return []pendingAction{{action: &act, priority: dispatch.PriorityHigh}}
	}

	pending := make([]pendingAction, 0, len(w.Actions))
	for i := range w.Actions {
		pending = append(pending, pendingAction{action: &w.Actions[i], priority: dispatch.PriorityNormal})
	}
	return pending
}

// applyCorePenalty docks trust for condition types that reflect direct harm.
// Heuristic-only conditions leave the score to the watch's own actions.
func (e *Engine) applyCorePenalty(trigger models.TriggerEvent) {
	switch trigger.ConditionType {
	case models.ConditionToxicity, models.ConditionThreat, models.ConditionImpersonation:
	default:
		return
	}
	penalty := -e.cfg.CoreViolationPenalty * trigger.Confidence
	if penalty == 0 {
		return
	}
	e.ledger.ApplyDelta(trigger.UserID, penalty, string(trigger.ConditionType)+"_violation", trigger.Evidence)
}

func (e *Engine) snapshotRuntime(ctx context.Context, trigger models.TriggerEvent, violationCount int) actions.RuntimeContext {
	rc := actions.RuntimeContext{
		ScopeID:        trigger.ScopeID,
		UserID:         trigger.UserID,
		ViolationCount: violationCount,
		MessageCount:   e.conds.RecentMessageCount(trigger.UserID),
		Reason:         string(trigger.ConditionType) + ": " + trigger.Evidence,
	}
	rc.TrustScore = e.ledger.GetScore(trigger.UserID).Score

	if e.dir != nil {
		if member, err := e.dir.Member(ctx, trigger.ScopeID, trigger.UserID); err == nil {
			rc.AccountAgeDays = member.AccountAgeDays(time.Now())
		} else {
			logging.Warn("member lookup failed for %s/%s: %v", trigger.ScopeID, trigger.UserID, err)
		}
	}
	return rc
}

// HandleResult is the dispatch pool's completion callback. A performed ban
// locks the target's trust to the permanent floor.
func (e *Engine) HandleResult(watchID string, rc actions.RuntimeContext, result models.ExecutionResult) {
	if result.Status == models.ExecutionPerformed && result.Kind == models.ActionBan {
		e.ledger.SetPermanentFloor(rc.UserID, "banned under watch "+watchID)
	}
}

// HandleWatchRemoved drops violation state when a watch is cancelled or
// expires, so a recreated watch starts counting from zero.
func (e *Engine) HandleWatchRemoved(watchID string) {
	e.tracker.Purge(watchID)
}

// Redeem evaluates positive-behavior credit for a user.
func (e *Engine) Redeem(userID string, signal models.RedemptionSignal) models.RedemptionResult {
	return e.ledger.CheckRedemption(userID, signal, e.redemption)
}
