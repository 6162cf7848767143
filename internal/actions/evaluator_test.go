package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub005/internal/effector"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

type recordedCall struct {
	Kind   models.ActionKind
	UserID string
	Params map[string]string
}

// fakeEffector records every execution and answers with a scripted outcome.
type fakeEffector struct {
	calls   []recordedCall
	failAll bool
}

func (f *fakeEffector) Execute(_ context.Context, kind models.ActionKind, _, targetUserID string, params map[string]string) effector.Outcome {
	f.calls = append(f.calls, recordedCall{Kind: kind, UserID: targetUserID, Params: params})
	if f.failAll {
		return effector.Outcome{Success: false, Message: "missing permissions"}
	}
	return effector.Outcome{Success: true, Message: string(kind) + " executed"}
}

func runtimeWith(trust float64) RuntimeContext {
	return RuntimeContext{
		ScopeID:        "g1",
		UserID:         "u1",
		TrustScore:     trust,
		ViolationCount: 2,
		AccountAgeDays: 30,
		MessageCount:   5,
	}
}

func TestEvaluateUnconditionalAction(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	res := e.Evaluate(context.Background(), models.ConditionalAction{Kind: models.ActionWarn}, runtimeWith(50))

	assert.Equal(t, models.ExecutionPerformed, res.Status)
	assert.Equal(t, models.ActionWarn, res.Kind)
	require.Len(t, fake.calls, 1)
}

func TestEvaluateConditionPasses(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	action := models.ConditionalAction{
		Kind:      models.ActionTimeout,
		Condition: &models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 50},
	}

	res := e.Evaluate(context.Background(), action, runtimeWith(30))
	assert.Equal(t, models.ExecutionPerformed, res.Status)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, models.ActionTimeout, fake.calls[0].Kind)
}

func TestEvaluateFailedConditionTakesElseBranch(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	// Ban users below 50, warn everyone else.
	action := models.ConditionalAction{
		Kind:      models.ActionBan,
		Condition: &models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 50},
		ElseAction: &models.ConditionalAction{
			Kind:      models.ActionWarn,
			Condition: &models.ActionCondition{Field: models.FieldAlways},
		},
	}

	res := e.Evaluate(context.Background(), action, runtimeWith(70))
	assert.Equal(t, models.ExecutionPerformed, res.Status)
	assert.Equal(t, models.ActionWarn, res.Kind)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, models.ActionWarn, fake.calls[0].Kind)
}

func TestEvaluateFailedConditionWithoutElseSkips(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	action := models.ConditionalAction{
		Kind:      models.ActionKick,
		Condition: &models.ActionCondition{Field: models.FieldViolationCount, Op: models.OpGTE, Value: 5},
	}

	res := e.Evaluate(context.Background(), action, runtimeWith(50))
	assert.Equal(t, models.ExecutionSkipped, res.Status)
	assert.Empty(t, fake.calls)
}

func TestEvaluateNestedElseChain(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	action := models.ConditionalAction{
		Kind:      models.ActionBan,
		Condition: &models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 20},
		ElseAction: &models.ConditionalAction{
			Kind:      models.ActionTimeout,
			Condition: &models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 40},
			ElseAction: &models.ConditionalAction{
				Kind: models.ActionWarn,
			},
		},
	}

	res := e.Evaluate(context.Background(), action, runtimeWith(30))
	assert.Equal(t, models.ActionTimeout, res.Kind)
	assert.Equal(t, models.ExecutionPerformed, res.Status)

	res = e.Evaluate(context.Background(), action, runtimeWith(90))
	assert.Equal(t, models.ActionWarn, res.Kind)
}

func TestEvaluateNoneActionSkips(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	res := e.Evaluate(context.Background(), models.ConditionalAction{Kind: models.ActionNone}, runtimeWith(50))
	assert.Equal(t, models.ExecutionSkipped, res.Status)
	assert.Empty(t, fake.calls)
}

func TestEvaluateEffectorFailureSurfaces(t *testing.T) {
	fake := &fakeEffector{failAll: true}
	e := NewEvaluator(fake)

	res := e.Evaluate(context.Background(), models.ConditionalAction{Kind: models.ActionBan}, runtimeWith(10))
	assert.Equal(t, models.ExecutionFailed, res.Status)
	assert.Equal(t, "missing permissions", res.Message)
}

func TestEvaluateInjectsReasonParameter(t *testing.T) {
	fake := &fakeEffector{}
	e := NewEvaluator(fake)

	rc := runtimeWith(50)
	rc.Reason = "toxicity: slur detected"

	e.Evaluate(context.Background(), models.ConditionalAction{Kind: models.ActionWarn}, rc)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "toxicity: slur detected", fake.calls[0].Params["reason"])
}

func TestEvalCondition(t *testing.T) {
	rc := runtimeWith(42)

	cases := []struct {
		cond models.ActionCondition
		want bool
	}{
		{models.ActionCondition{Field: models.FieldAlways}, true},
		{models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpLT, Value: 50}, true},
		{models.ActionCondition{Field: models.FieldTrustScore, Op: models.OpGT, Value: 50}, false},
		{models.ActionCondition{Field: models.FieldViolationCount, Op: models.OpGTE, Value: 2}, true},
		{models.ActionCondition{Field: models.FieldAccountAgeDays, Op: models.OpLTE, Value: 30}, true},
		{models.ActionCondition{Field: models.FieldMessageCount, Op: models.OpEQ, Value: 5}, true},
		{models.ActionCondition{Field: models.FieldMessageCount, Op: models.OpNEQ, Value: 5}, false},
		{models.ActionCondition{Field: "unknown_field", Op: models.OpGT, Value: 0}, false},
		{models.ActionCondition{Field: models.FieldTrustScore, Op: "~", Value: 0}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EvalCondition(tc.cond, rc), "%+v", tc.cond)
	}
}
