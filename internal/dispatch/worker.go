package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/actions"
	"github.com/BecasLan/BecasScore-sub005/internal/audit"
	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

const jobTimeout = 15 * time.Second

// Pool drains the queue with a fixed set of workers. Each job is one
// conditional-action evaluation against the runtime snapshot captured when
// the trigger fired.
type Pool struct {
	queue     *Queue
	evaluator *actions.Evaluator
	cooldowns *CooldownManager
	auditLog  *audit.Log
	onResult  func(watchID string, rc actions.RuntimeContext, result models.ExecutionResult)

	workers   int
	stop      chan struct{}
	wg        sync.WaitGroup
	heartbeat func(name string)
}

func NewPool(queue *Queue, evaluator *actions.Evaluator, cooldowns *CooldownManager, auditLog *audit.Log, workers int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{
		queue:     queue,
		evaluator: evaluator,
		cooldowns: cooldowns,
		auditLog:  auditLog,
		workers:   workers,
		stop:      make(chan struct{}),
	}
}

// SetResultHandler installs a callback invoked after every evaluated job.
// The engine uses it to stream execution results and settle trust penalties.
func (p *Pool) SetResultHandler(fn func(watchID string, rc actions.RuntimeContext, result models.ExecutionResult)) {
	p.onResult = fn
}

// SetHeartbeat installs the liveness callback the watchdog polls.
func (p *Pool) SetHeartbeat(fn func(name string)) {
	p.heartbeat = fn
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runLoop(i)
	}
	logging.Info("dispatch pool started with %d workers", p.workers)
}

func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
}

func (p *Pool) runLoop(workerID int) {
	defer p.wg.Done()

	for {
		job, ok := p.queue.Dequeue(p.stop)
		if !ok {
			return
		}
		if p.heartbeat != nil {
			p.heartbeat("dispatch")
		}
		p.executeJob(workerID, job)
	}
}

func (p *Pool) executeJob(workerID int, job *Job) {
	rc := job.Runtime

	if !p.cooldowns.CanExecute(rc.ScopeID, rc.UserID, job.Action.Kind) {
		remaining := p.cooldowns.RemainingCooldown(rc.ScopeID, rc.UserID, job.Action.Kind)
		logging.Debug("worker %d: %s for %s on cooldown (%s left)", workerID, job.Action.Kind, rc.UserID, remaining)
		result := models.ExecutionResult{
			Status:  models.ExecutionSkipped,
			Kind:    job.Action.Kind,
			UserID:  rc.UserID,
			Message: "cooldown active",
		}
		metrics.Global().ActionsSkipped.Add(1)
		p.finish(job, rc, result)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	result := p.evaluator.Evaluate(ctx, *job.Action, rc)
	cancel()

	if result.Status == models.ExecutionPerformed {
		p.cooldowns.RecordExecution(rc.ScopeID, rc.UserID, result.Kind)
	}
	p.finish(job, rc, result)
}

func (p *Pool) finish(job *Job, rc actions.RuntimeContext, result models.ExecutionResult) {
	if p.auditLog != nil {
		p.auditLog.Enforcement(job.WatchID, result)
	}
	if p.onResult != nil {
		p.onResult(job.WatchID, rc, result)
	}
}
