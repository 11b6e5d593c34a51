package services

import (
	"context"
	"testing"

	"leadflow-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchStageEntry(t *testing.T) {
	f := newFixture(t)
	stageA := f.stage("A")
	stageB := f.stage("B")
	want := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageA, MessageTemplate: "a"})
	f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageB, MessageTemplate: "b"})
	f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageTimeout, StageID: stageA, TimeoutMinutes: intPtr(5), MessageTemplate: "t"})

	rules, err := f.engine.Matcher.MatchStageEntry(context.Background(), stageA)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, want.ID, rules[0].ID)
}

func TestMatchTimeoutIsExact(t *testing.T) {
	f := newFixture(t)
	stageID := f.stage("Proposal")
	f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageTimeout, StageID: stageID, TimeoutMinutes: intPtr(30), MessageTemplate: "30"})
	sixty := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageTimeout, StageID: stageID, TimeoutMinutes: intPtr(60), MessageTemplate: "60"})

	ctx := context.Background()
	rules, err := f.engine.Matcher.MatchTimeout(ctx, stageID, 60)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, sixty.ID, rules[0].ID)

	for _, minutes := range []int{59, 61, 45} {
		rules, err := f.engine.Matcher.MatchTimeout(ctx, stageID, minutes)
		require.NoError(t, err)
		assert.Empty(t, rules, "minutes=%d", minutes)
	}

	rules, err = f.engine.Matcher.MatchTimeout(ctx, uuid.New(), 60)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestMatcherIgnoresInactiveRules(t *testing.T) {
	f := newFixture(t)
	stageID := f.stage("New")
	inactive := models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, MessageTemplate: "x"}
	require.NoError(t, f.engine.CreateRule(context.Background(), &inactive))

	rules, err := f.engine.Matcher.MatchStageEntry(context.Background(), stageID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
