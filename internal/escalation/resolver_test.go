package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

func ladder() *models.EscalationConfig {
	return &models.EscalationConfig{
		Stages: []models.EscalationStage{
			{ViolationCount: 1, Kind: models.ActionWarn},
			{ViolationCount: 3, Kind: models.ActionTimeout, Parameters: map[string]string{"duration_seconds": "600"}},
			{ViolationCount: 5, Kind: models.ActionBan},
		},
		ResetAfterHours: 24,
	}
}

func TestResolvePicksHighestSatisfiedStage(t *testing.T) {
	cfg := ladder()

	cases := []struct {
		count int
		want  models.ActionKind
	}{
		{1, models.ActionWarn},
		{2, models.ActionWarn},
		{3, models.ActionTimeout},
		{4, models.ActionTimeout},
		{5, models.ActionBan},
		{9, models.ActionBan},
	}
	for _, tc := range cases {
		stage := Resolve(cfg, tc.count)
		require.NotNil(t, stage, "count %d", tc.count)
		assert.Equal(t, tc.want, stage.Kind, "count %d", tc.count)
	}
}

func TestResolveBelowFirstThreshold(t *testing.T) {
	cfg := &models.EscalationConfig{
		Stages: []models.EscalationStage{
			{ViolationCount: 3, Kind: models.ActionTimeout},
		},
	}
	assert.Nil(t, Resolve(cfg, 1))
	assert.Nil(t, Resolve(cfg, 2))
}

func TestResolveNilOrEmptyLadder(t *testing.T) {
	assert.Nil(t, Resolve(nil, 5))
	assert.Nil(t, Resolve(&models.EscalationConfig{}, 5))
}

func TestResolveReturnsCopy(t *testing.T) {
	cfg := ladder()
	stage := Resolve(cfg, 3)
	require.NotNil(t, stage)

	stage.Kind = models.ActionBan
	assert.Equal(t, models.ActionTimeout, cfg.Stages[1].Kind)
}

func TestStageActionCarriesParameters(t *testing.T) {
	stage := Resolve(ladder(), 4)
	require.NotNil(t, stage)

	act := StageAction(stage)
	assert.Equal(t, models.ActionTimeout, act.Kind)
	assert.Equal(t, "600", act.Parameters["duration_seconds"])
	assert.Nil(t, act.Condition)
	assert.Nil(t, act.ElseAction)
}
