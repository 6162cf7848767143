package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub005/internal/actions"
	"github.com/BecasLan/BecasScore-sub005/internal/conditions"
	"github.com/BecasLan/BecasScore-sub005/internal/config"
	"github.com/BecasLan/BecasScore-sub005/internal/dispatch"
	"github.com/BecasLan/BecasScore-sub005/internal/effector"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
	"github.com/BecasLan/BecasScore-sub005/internal/streams"
	"github.com/BecasLan/BecasScore-sub005/internal/trust"
	"github.com/BecasLan/BecasScore-sub005/internal/violations"
	"github.com/BecasLan/BecasScore-sub005/internal/watch"
)

type capturedCall struct {
	Kind   models.ActionKind
	UserID string
	Params map[string]string
}

type captureEffector struct {
	mu    sync.Mutex
	calls []capturedCall
}

func (c *captureEffector) Execute(_ context.Context, kind models.ActionKind, _, targetUserID string, params map[string]string) effector.Outcome {
	c.mu.Lock()
	c.calls = append(c.calls, capturedCall{Kind: kind, UserID: targetUserID, Params: params})
	c.mu.Unlock()
	return effector.Outcome{Success: true, Message: string(kind) + " executed"}
}

func (c *captureEffector) kinds() []models.ActionKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ActionKind, len(c.calls))
	for i, call := range c.calls {
		out[i] = call.Kind
	}
	return out
}

type harness struct {
	registry *watch.Registry
	ledger   *trust.Ledger
	tracker  *violations.Tracker
	engine   *Engine
	pool     *dispatch.Pool
	eff      *captureEffector
	bus      *streams.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st := store.NewMemoryStore()
	ledger := trust.NewLedger(st, nil)
	tracker := violations.NewTracker(st)
	conds := conditions.NewEvaluator(nil, time.Second)
	registry := watch.NewRegistry(conds, nil, ledger, st)

	eff := &captureEffector{}
	queue := dispatch.NewQueue(64)
	bus := streams.NewBus(64)
	// Single worker keeps enforcement ordering deterministic.
	pool := dispatch.NewPool(queue, actions.NewEvaluator(eff), dispatch.NewCooldownManager(0), nil, 1)

	cfg := config.EngineConfig{
		DecayGraceDays:       7,
		DecayRatePerDay:      0.5,
		RedemptionCeiling:    60,
		CoreViolationPenalty: 5,
	}
	eng := New(cfg, ledger, tracker, conds, nil, queue, bus, nil)
	registry.SetTriggerHandler(eng.HandleTrigger)
	registry.SetRemoveHandler(eng.HandleWatchRemoved)
	pool.SetResultHandler(eng.HandleResult)
	pool.Start()

	t.Cleanup(func() {
		pool.Stop()
		bus.Close()
	})

	return &harness{
		registry: registry,
		ledger:   ledger,
		tracker:  tracker,
		engine:   eng,
		pool:     pool,
		eff:      eff,
		bus:      bus,
	}
}

func escalationWatch() models.WatchConfig {
	return models.WatchConfig{
		ScopeID:   "g1",
		ExpiresAt: time.Now().Add(time.Hour),
		Target:    models.TargetSelector{UserIDs: []string{"u1"}},
		Conditions: []models.WatchCondition{
			{Type: models.ConditionToxicity, Keywords: []string{"forbidden"}},
		},
		Escalation: &models.EscalationConfig{
			Stages: []models.EscalationStage{
				{ViolationCount: 1, Kind: models.ActionWarn},
				{ViolationCount: 3, Kind: models.ActionTimeout, Parameters: map[string]string{"duration_seconds": "600"}},
				{ViolationCount: 5, Kind: models.ActionBan},
			},
			ResetAfterHours: 24,
		},
	}
}

func (h *harness) sendMessages(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		event := models.BehaviorEvent{
			EventID:   "m" + string(rune('0'+i)),
			ScopeID:   "g1",
			UserID:    "u1",
			ChannelID: "c1",
			Content:   "that is forbidden",
			Timestamp: time.Now(),
		}
		h.registry.OnEvent(context.Background(), event)
	}
}

func TestEscalationLadderEndToEnd(t *testing.T) {
	h := newHarness(t)
	id, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	h.sendMessages(t, 5)

	require.Eventually(t, func() bool {
		return len(h.eff.kinds()) == 5
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []models.ActionKind{
		models.ActionWarn,
		models.ActionWarn,
		models.ActionTimeout,
		models.ActionTimeout,
		models.ActionBan,
	}, h.eff.kinds())

	h.eff.mu.Lock()
	timeoutCall := h.eff.calls[2]
	h.eff.mu.Unlock()
	assert.Equal(t, "600", timeoutCall.Params["duration_seconds"])

	rec := h.tracker.Get(id, "u1")
	require.NotNil(t, rec)
	assert.Equal(t, 5, rec.Count)
}

func TestBanLocksTrustToPermanentFloor(t *testing.T) {
	h := newHarness(t)
	_, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	h.sendMessages(t, 5)

	require.Eventually(t, func() bool {
		ts := h.ledger.GetScore("u1")
		return ts.PermanentlyLocked && ts.Score == models.MinScore
	}, 2*time.Second, 10*time.Millisecond)

	// Redemption after the floor is refused outright.
	res := h.engine.Redeem("u1", models.RedemptionSignal{Toxicity: 0, MessageCount: 100})
	assert.False(t, res.Granted)
}

func TestCoreViolationDocksTrust(t *testing.T) {
	h := newHarness(t)
	_, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	h.sendMessages(t, 3)

	// Keyword fallback fires at 0.6 confidence; penalty 5 * 0.6 per trigger.
	ts := h.ledger.GetScore("u1")
	assert.InDelta(t, 50-3*3.0, ts.Score, 0.0001)

	negatives := 0
	for _, e := range ts.History {
		if e.Delta < 0 {
			negatives++
		}
	}
	assert.Equal(t, 3, negatives)
}

func TestBelowFirstStageDoesNothing(t *testing.T) {
	h := newHarness(t)

	cfg := escalationWatch()
	cfg.Escalation.Stages = []models.EscalationStage{
		{ViolationCount: 3, Kind: models.ActionTimeout},
	}
	_, err := h.registry.Create(cfg)
	require.NoError(t, err)

	h.sendMessages(t, 2)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, h.eff.kinds())
}

func TestWindowResetRestartsLadder(t *testing.T) {
	h := newHarness(t)
	id, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	now := time.Now()
	trigger := func(ts time.Time) {
		event := models.BehaviorEvent{
			EventID:   "m",
			ScopeID:   "g1",
			UserID:    "u1",
			ChannelID: "c1",
			Content:   "that is forbidden",
			Timestamp: ts,
		}
		h.registry.OnEvent(context.Background(), event)
	}

	trigger(now)
	trigger(now.Add(time.Hour))
	// Past the 24h window: the count restarts at 1 instead of reaching 3.
	trigger(now.Add(25 * time.Hour))

	rec := h.tracker.Get(id, "u1")
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Count)
}

func TestWatchRemovalPurgesViolations(t *testing.T) {
	h := newHarness(t)
	id, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	h.sendMessages(t, 2)
	require.NotNil(t, h.tracker.Get(id, "u1"))

	require.True(t, h.registry.Cancel(id))
	assert.Nil(t, h.tracker.Get(id, "u1"))
}

func TestDirectActionsRunWithoutEscalation(t *testing.T) {
	h := newHarness(t)

	cfg := escalationWatch()
	cfg.Escalation = nil
	cfg.Actions = []models.ConditionalAction{
		{
			Kind:      models.ActionBan,
			Condition: &models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 20},
			ElseAction: &models.ConditionalAction{
				Kind: models.ActionWarn,
			},
		},
	}
	_, err := h.registry.Create(cfg)
	require.NoError(t, err)

	h.sendMessages(t, 1)

	require.Eventually(t, func() bool {
		return len(h.eff.kinds()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	// Trust is near neutral, so the else branch warns instead of banning.
	assert.Equal(t, models.ActionWarn, h.eff.kinds()[0])
}

func TestViolationMetricCountsEachTriggerOnce(t *testing.T) {
	h := newHarness(t)
	_, err := h.registry.Create(escalationWatch())
	require.NoError(t, err)

	before := metrics.Global().ViolationsTracked.Load()
	h.sendMessages(t, 3)
	assert.Equal(t, before+3, metrics.Global().ViolationsTracked.Load())
}
