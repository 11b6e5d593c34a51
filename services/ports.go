package services

import (
	"context"
	"time"

	"leadflow-backend/models"

	"github.com/google/uuid"
)

// Getters return (nil, nil) when the row does not exist.

type LeadStore interface {
	GetLeadView(ctx context.Context, leadID uuid.UUID) (*models.LeadView, error)
	GetProductName(ctx context.Context, productID uuid.UUID) (*string, error)
	// MoveLeadToStage closes the lead's open interval and opens a new one on
	// stageID. moved is false when the lead already sits in stageID.
	MoveLeadToStage(ctx context.Context, leadID, stageID uuid.UUID, at time.Time) (moved bool, err error)
	// ListStagnantLeads returns leads with an open interval on stageID that
	// was entered at or before cutoff.
	ListStagnantLeads(ctx context.Context, stageID uuid.UUID, cutoff time.Time) ([]uuid.UUID, error)
}

type RuleStore interface {
	ListActiveRules(ctx context.Context, triggerType string, stageID *uuid.UUID) ([]models.WhatsAppEvent, error)
	CreateRule(ctx context.Context, rule *models.WhatsAppEvent) error
	ListRules(ctx context.Context) ([]models.WhatsAppEvent, error)
}

type DeliveryStore interface {
	DeliveryExists(ctx context.Context, leadID, eventID uuid.UUID) (bool, error)
	// InsertDelivery returns repository.ErrDuplicate when the pair already exists.
	InsertDelivery(ctx context.Context, rec *models.SentWhatsAppMessage) error
	DeleteDelivery(ctx context.Context, leadID, eventID uuid.UUID) error
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.ScheduledReminder) error
	GetReminder(ctx context.Context, id uuid.UUID) (*models.ScheduledReminder, error)
	ListReminders(ctx context.Context, status string, limit int) ([]models.ScheduledReminder, error)
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.ScheduledReminder, error)
	// ClaimReminder moves the row to sending if its status is one of from.
	// Exactly one concurrent caller gets true.
	ClaimReminder(ctx context.Context, id uuid.UUID, from ...string) (bool, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkReminderFailed(ctx context.Context, id uuid.UUID, errText string) error
	NextPendingReminder(ctx context.Context) (*models.ScheduledReminder, error)
	CountRemindersByStatus(ctx context.Context, status string) (int64, error)

	InsertReminderLog(ctx context.Context, l *models.ReminderLog) error
	ListReminderLogs(ctx context.Context, limit int) ([]models.ReminderLog, error)
	CountLogsSentBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	LeadStore
	RuleStore
	DeliveryStore
	ReminderStore
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time
