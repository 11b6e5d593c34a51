package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchConcurrentCallsSendOnce(t *testing.T) {
	f := newFixture(t)
	f.sender.delay = 5 * time.Millisecond
	stageID := f.stage("New")
	leadID := f.lead("Maria", "11999990000", nil)
	f.enter(t, leadID, stageID)
	rule := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, MessageTemplate: "Hi {{leadName}}"})

	const n = 25
	outcomes := make([]DispatchOutcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = f.engine.Dispatcher.Dispatch(context.Background(), rule, leadID)
		}()
	}
	wg.Wait()

	sent := 0
	for _, o := range outcomes {
		if o == OutcomeSent {
			sent++
		} else {
			assert.Equal(t, OutcomeAlreadySent, o)
		}
	}
	assert.Equal(t, 1, sent)
	assert.Len(t, f.sender.Calls(), 1)
	assert.Len(t, f.store.Deliveries(), 1)
}

func TestDispatchRendersAndSendsToStoredPhone(t *testing.T) {
	f := newFixture(t)
	productID := f.product("Solar")
	stageID := f.stage("Proposal")
	leadID := f.lead("Maria", "(11) 99999-0000", &productID)
	f.enter(t, leadID, stageID)
	rule := f.rule(t, models.WhatsAppEvent{
		TriggerType:     models.TriggerStageEntry,
		StageID:         stageID,
		MessageTemplate: "Hi {{leadName}}, your {{productName}} is in {{stageName}}",
	})

	outcome := f.engine.Dispatcher.Dispatch(context.Background(), rule, leadID)

	require.Equal(t, OutcomeSent, outcome)
	calls := f.sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "(11) 99999-0000", calls[0].Recipient)
	assert.Equal(t, "Hi Maria, your Solar is in Proposal", calls[0].Body)

	rec := f.store.Deliveries()[0]
	assert.Equal(t, leadID, rec.LeadID)
	assert.Equal(t, rule.ID, rec.EventID)
	assert.True(t, rec.SentAt.Equal(baseTime))
}

func TestDispatchLeadNotFound(t *testing.T) {
	f := newFixture(t)
	stageID := f.stage("New")
	rule := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, MessageTemplate: "hi"})

	outcome := f.engine.Dispatcher.Dispatch(context.Background(), rule, uuid.New())

	assert.Equal(t, OutcomeLeadNotFound, outcome)
	assert.Empty(t, f.sender.Calls())
	assert.Empty(t, f.store.Deliveries())
}

func TestDispatchTransportFailureLeavesEventRetriable(t *testing.T) {
	f := newFixture(t)
	stageID := f.stage("New")
	leadID := f.lead("Maria", "11999990000", nil)
	f.enter(t, leadID, stageID)
	rule := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, MessageTemplate: "hi"})

	f.sender.setFailAll("recipient unreachable")
	outcome := f.engine.Dispatcher.Dispatch(context.Background(), rule, leadID)
	assert.Equal(t, OutcomeTransportFailed, outcome)
	assert.Empty(t, f.store.Deliveries())

	f.sender.setFailAll("")
	outcome = f.engine.Dispatcher.Dispatch(context.Background(), rule, leadID)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Len(t, f.sender.Calls(), 2)
	assert.Len(t, f.store.Deliveries(), 1)
}

type releaseFailingStore struct {
	*repository.Memory
}

func (releaseFailingStore) DeleteDelivery(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("connection reset")
}

func TestDispatchReportsStrandedClaim(t *testing.T) {
	f := newFixture(t)
	stageID := f.stage("New")
	leadID := f.lead("Maria", "11999990000", nil)
	rule := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, MessageTemplate: "hi"})

	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)
	store := releaseFailingStore{Memory: f.store}
	dispatcher := NewDispatcher(store, NewDeliveryTracker(store, f.clock.Now, log), f.sender, log)

	f.sender.setFailAll("recipient unreachable")
	outcome := dispatcher.Dispatch(context.Background(), rule, leadID)

	assert.Equal(t, OutcomeTransportFailed, outcome)
	assert.Len(t, f.store.Deliveries(), 1)

	var found map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "delivery_release_failed" {
			found = entry
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "ERROR", found["level"])
	assert.Equal(t, leadID.String(), found["lead_id"])
	assert.Equal(t, rule.ID.String(), found["event_id"])
	assert.Equal(t, "connection reset", found["error"])
}

func TestDispatchProductScopedRule(t *testing.T) {
	f := newFixture(t)
	solar := f.product("Solar")
	insurance := f.product("Insurance")
	stageID := f.stage("New")
	solarLead := f.lead("A", "1", &solar)
	insuranceLead := f.lead("B", "2", &insurance)
	noProductLead := f.lead("C", "3", nil)
	rule := f.rule(t, models.WhatsAppEvent{TriggerType: models.TriggerStageEntry, StageID: stageID, ProductID: &solar, MessageTemplate: "hi"})

	ctx := context.Background()
	assert.Equal(t, OutcomeSent, f.engine.Dispatcher.Dispatch(ctx, rule, solarLead))
	assert.Equal(t, OutcomeNotApplicable, f.engine.Dispatcher.Dispatch(ctx, rule, insuranceLead))
	assert.Equal(t, OutcomeNotApplicable, f.engine.Dispatcher.Dispatch(ctx, rule, noProductLead))
	assert.Len(t, f.sender.Calls(), 1)
}

func TestDeliveryTrackerClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leadID, ruleID := uuid.New(), uuid.New()

	claimed, err := f.engine.Tracker.Claim(ctx, leadID, ruleID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = f.engine.Tracker.Claim(ctx, leadID, ruleID)
	require.NoError(t, err)
	assert.False(t, claimed)

	sent, err := f.engine.Tracker.WasSent(ctx, leadID, ruleID)
	require.NoError(t, err)
	assert.True(t, sent)

	require.NoError(t, f.engine.Tracker.Release(ctx, leadID, ruleID))
	sent, err = f.engine.Tracker.WasSent(ctx, leadID, ruleID)
	require.NoError(t, err)
	assert.False(t, sent)
}
