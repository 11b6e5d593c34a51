package services

import (
	"context"
	"errors"

	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/repository"

	"github.com/google/uuid"
)

// DeliveryTracker is the (lead, rule) idempotency ledger. The unique insert
// in Claim is the only thing that serializes concurrent dispatches.
type DeliveryTracker struct {
	store DeliveryStore
	now   Clock
	log   *logger.Logger
}

func NewDeliveryTracker(store DeliveryStore, now Clock, log *logger.Logger) *DeliveryTracker {
	return &DeliveryTracker{store: store, now: now, log: log}
}

func (t *DeliveryTracker) WasSent(ctx context.Context, leadID, ruleID uuid.UUID) (bool, error) {
	return t.store.DeliveryExists(ctx, leadID, ruleID)
}

// Claim records the delivery. It returns false, nil when another caller
// already holds the pair.
func (t *DeliveryTracker) Claim(ctx context.Context, leadID, ruleID uuid.UUID) (bool, error) {
	err := t.store.InsertDelivery(ctx, &models.SentWhatsAppMessage{
		LeadID:  leadID,
		EventID: ruleID,
		SentAt:  t.now(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		t.log.Info("delivery_already_recorded", "lead_id", leadID, "event_id", ruleID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release drops a claim whose send failed so the event can fire again.
func (t *DeliveryTracker) Release(ctx context.Context, leadID, ruleID uuid.UUID) error {
	return t.store.DeleteDelivery(ctx, leadID, ruleID)
}
