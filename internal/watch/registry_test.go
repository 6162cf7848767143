package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub005/internal/conditions"
	"github.com/BecasLan/BecasScore-sub005/internal/directory"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/store"
	"github.com/BecasLan/BecasScore-sub005/internal/trust"
)

type fakeDirectory struct {
	members map[string]*directory.Member
}

func (f *fakeDirectory) Member(_ context.Context, _, userID string) (*directory.Member, error) {
	return f.members[userID], nil
}

type triggerRecorder struct {
	mu       sync.Mutex
	triggers []models.TriggerEvent
	removed  []string
}

func (tr *triggerRecorder) onTrigger(_ context.Context, _ models.WatchConfig, t models.TriggerEvent) {
	tr.mu.Lock()
	tr.triggers = append(tr.triggers, t)
	tr.mu.Unlock()
}

func (tr *triggerRecorder) onRemove(watchID string) {
	tr.mu.Lock()
	tr.removed = append(tr.removed, watchID)
	tr.mu.Unlock()
}

func newTestRegistry(t *testing.T, st store.Store) (*Registry, *triggerRecorder) {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	conds := conditions.NewEvaluator(nil, time.Second)
	ledger := trust.NewLedger(store.NewMemoryStore(), nil)
	dir := &fakeDirectory{members: map[string]*directory.Member{}}

	r := NewRegistry(conds, dir, ledger, st)
	rec := &triggerRecorder{}
	r.SetTriggerHandler(rec.onTrigger)
	r.SetRemoveHandler(rec.onRemove)
	return r, rec
}

func keywordWatch(userIDs ...string) models.WatchConfig {
	return models.WatchConfig{
		ScopeID:   "g1",
		ExpiresAt: time.Now().Add(time.Hour),
		Target:    models.TargetSelector{UserIDs: userIDs},
		Conditions: []models.WatchCondition{
			{Type: models.ConditionKeyword, Keywords: []string{"forbidden"}},
		},
		Actions: []models.ConditionalAction{{Kind: models.ActionWarn}},
	}
}

func messageFrom(userID, content string) models.BehaviorEvent {
	return models.BehaviorEvent{
		EventID:   "m1",
		ScopeID:   "g1",
		UserID:    userID,
		ChannelID: "c1",
		Content:   content,
		Timestamp: time.Now(),
	}
}

func TestCreateAssignsIDAndActivates(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	id, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	w, err := r.Get(id)
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.Zero(t, w.TriggerCount)
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	cfg := keywordWatch("u1")
	cfg.Conditions = nil
	_, err := r.Create(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOnEventFiresForMatchingUser(t *testing.T) {
	r, rec := newTestRegistry(t, nil)
	id, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)

	triggers := r.OnEvent(context.Background(), messageFrom("u1", "this is forbidden content"))
	require.Len(t, triggers, 1)
	assert.Equal(t, id, triggers[0].WatchID)
	assert.Equal(t, models.ConditionKeyword, triggers[0].ConditionType)
	require.Len(t, rec.triggers, 1)

	w, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.TriggerCount)
}

func TestOnEventIgnoresNonTargetUser(t *testing.T) {
	r, rec := newTestRegistry(t, nil)
	_, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)

	triggers := r.OnEvent(context.Background(), messageFrom("u2", "this is forbidden content"))
	assert.Empty(t, triggers)
	assert.Empty(t, rec.triggers)
}

func TestOnEventIgnoresCleanContent(t *testing.T) {
	r, rec := newTestRegistry(t, nil)
	_, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)

	triggers := r.OnEvent(context.Background(), messageFrom("u1", "perfectly fine message"))
	assert.Empty(t, triggers)
	assert.Empty(t, rec.triggers)
}

func TestOnEventIgnoresOtherScopes(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	_, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)

	event := messageFrom("u1", "forbidden")
	event.ScopeID = "g2"
	assert.Empty(t, r.OnEvent(context.Background(), event))
}

func TestFilterSelectorMatchesByTrustBand(t *testing.T) {
	st := store.NewMemoryStore()
	conds := conditions.NewEvaluator(nil, time.Second)
	ledger := trust.NewLedger(store.NewMemoryStore(), nil)
	dir := &fakeDirectory{members: map[string]*directory.Member{}}
	r := NewRegistry(conds, dir, ledger, st)
	rec := &triggerRecorder{}
	r.SetTriggerHandler(rec.onTrigger)

	ledger.ApplyDelta("lowtrust", -30, "violation", "") // 20
	ledger.ApplyDelta("hightrust", 30, "praise", "")    // 80

	cfg := keywordWatch()
	cfg.Target = models.TargetSelector{Filter: &models.TargetFilter{TrustBelow: 40}}
	_, err := r.Create(cfg)
	require.NoError(t, err)

	assert.Len(t, r.OnEvent(context.Background(), messageFrom("lowtrust", "forbidden")), 1)
	assert.Empty(t, r.OnEvent(context.Background(), messageFrom("hightrust", "forbidden")))
}

func TestFilterSelectorExcludedUsers(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	cfg := keywordWatch()
	cfg.Target = models.TargetSelector{Filter: &models.TargetFilter{
		TrustBelow:     100,
		ExcludeUserIDs: []string{"mod1"},
	}}
	_, err := r.Create(cfg)
	require.NoError(t, err)

	assert.Empty(t, r.OnEvent(context.Background(), messageFrom("mod1", "forbidden")))
	assert.Len(t, r.OnEvent(context.Background(), messageFrom("u9", "forbidden")), 1)
}

func TestCancelStopsMatchingAndNotifies(t *testing.T) {
	r, rec := newTestRegistry(t, nil)
	id, err := r.Create(keywordWatch("u1"))
	require.NoError(t, err)

	require.True(t, r.Cancel(id))
	assert.Empty(t, r.OnEvent(context.Background(), messageFrom("u1", "forbidden")))
	assert.Equal(t, []string{id}, rec.removed)

	_, err = r.Get(id)
	assert.ErrorIs(t, err, ErrWatchNotFound)

	// Second cancel is a no-op.
	assert.False(t, r.Cancel(id))
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	r, rec := newTestRegistry(t, nil)

	cfg := keywordWatch("u1")
	cfg.ExpiresAt = time.Now().Add(time.Minute)
	id, err := r.Create(cfg)
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Minute)
	assert.Equal(t, 1, r.SweepExpired(later))
	assert.Equal(t, 0, r.SweepExpired(later))
	assert.Equal(t, []string{id}, rec.removed)
}

func TestExpiredWatchStopsMatchingBeforeSweep(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	cfg := keywordWatch("u1")
	cfg.ExpiresAt = time.Now().Add(50 * time.Millisecond)
	_, err := r.Create(cfg)
	require.NoError(t, err)

	event := messageFrom("u1", "forbidden")
	event.Timestamp = time.Now().Add(time.Minute)
	assert.Empty(t, r.OnEvent(context.Background(), event))
}

func TestLoadPersistedRestoresLiveWatches(t *testing.T) {
	st := store.NewMemoryStore()
	r1, _ := newTestRegistry(t, st)
	id, err := r1.Create(keywordWatch("u1"))
	require.NoError(t, err)

	r2, rec2 := newTestRegistry(t, st)
	assert.Equal(t, 1, r2.LoadPersisted(context.Background()))

	triggers := r2.OnEvent(context.Background(), messageFrom("u1", "forbidden"))
	require.Len(t, triggers, 1)
	assert.Equal(t, id, triggers[0].WatchID)
	_ = rec2
}

func TestLoadPersistedSkipsCancelled(t *testing.T) {
	st := store.NewMemoryStore()
	r1, _ := newTestRegistry(t, st)
	id, err := r1.Create(keywordWatch("u1"))
	require.NoError(t, err)
	r1.Cancel(id)

	r2, _ := newTestRegistry(t, st)
	assert.Zero(t, r2.LoadPersisted(context.Background()))
}

func TestTriggerCountSurvivesRestart(t *testing.T) {
	st := store.NewMemoryStore()
	r1, _ := newTestRegistry(t, st)
	id, err := r1.Create(keywordWatch("u1"))
	require.NoError(t, err)

	r1.OnEvent(context.Background(), messageFrom("u1", "forbidden"))
	r1.OnEvent(context.Background(), messageFrom("u1", "forbidden"))

	r2, _ := newTestRegistry(t, st)
	require.Equal(t, 1, r2.LoadPersisted(context.Background()))
	w, err := r2.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), w.TriggerCount)
}
