package repository

import (
	"context"
	"errors"
	"time"

	"leadflow-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gorm is the relational store. Timestamps are written and compared in UTC.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (r *Gorm) DB() *gorm.DB {
	return r.db
}

func (r *Gorm) GetLeadView(ctx context.Context, leadID uuid.UUID) (*models.LeadView, error) {
	var view models.LeadView
	result := r.db.WithContext(ctx).
		Table("leads AS l").
		Select(`l.id, l.name, l.phone, l.product_id, p.name AS product_name,
			l.current_stage_id AS stage_id, s.name AS stage_name`).
		Joins("LEFT JOIN products p ON p.id = l.product_id").
		Joins("LEFT JOIN stages s ON s.id = l.current_stage_id").
		Where("l.id = ?", leadID).
		Limit(1).
		Scan(&view)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &view, nil
}

func (r *Gorm) GetProductName(ctx context.Context, productID uuid.UUID) (*string, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Select("id", "name").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product.Name, nil
}

// MoveLeadToStage runs in one transaction. The partial unique index on open
// intervals rejects a concurrent move that would leave two open rows.
func (r *Gorm) MoveLeadToStage(ctx context.Context, leadID, stageID uuid.UUID, at time.Time) (bool, error) {
	at = at.UTC()
	moved := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead models.Lead
		if err := tx.Select("id").First(&lead, "id = ?", leadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var stages int64
		if err := tx.Model(&models.Stage{}).Where("id = ?", stageID).Count(&stages).Error; err != nil {
			return err
		}
		if stages == 0 {
			return ErrNotFound
		}

		var open models.LeadStageHistory
		err := tx.Where("lead_id = ? AND exited_at IS NULL", leadID).First(&open).Error
		switch {
		case err == nil:
			if open.StageID == stageID {
				return nil
			}
			if err := tx.Model(&models.LeadStageHistory{}).
				Where("id = ?", open.ID).
				Update("exited_at", at).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Create(&models.LeadStageHistory{
			LeadID:    leadID,
			StageID:   stageID,
			EnteredAt: at,
		}).Error; err != nil {
			return translate(err)
		}

		if err := tx.Model(&models.Lead{}).
			Where("id = ?", leadID).
			Updates(map[string]interface{}{"current_stage_id": stageID, "updated_at": at}).Error; err != nil {
			return err
		}

		moved = true
		return nil
	})

	return moved, err
}

func (r *Gorm) ListStagnantLeads(ctx context.Context, stageID uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.LeadStageHistory{}).
		Where("stage_id = ? AND exited_at IS NULL AND entered_at <= ?", stageID, cutoff.UTC()).
		Pluck("lead_id", &ids).Error
	return ids, err
}

func (r *Gorm) ListActiveRules(ctx context.Context, triggerType string, stageID *uuid.UUID) ([]models.WhatsAppEvent, error) {
	query := r.db.WithContext(ctx).Where("is_active = ? AND trigger_type = ?", true, triggerType)
	if stageID != nil {
		query = query.Where("stage_id = ?", *stageID)
	}

	var rules []models.WhatsAppEvent
	err := query.Find(&rules).Error
	return rules, err
}

func (r *Gorm) CreateRule(ctx context.Context, rule *models.WhatsAppEvent) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *Gorm) ListRules(ctx context.Context) ([]models.WhatsAppEvent, error) {
	var rules []models.WhatsAppEvent
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rules).Error
	return rules, err
}

func (r *Gorm) DeliveryExists(ctx context.Context, leadID, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SentWhatsAppMessage{}).
		Where("lead_id = ? AND event_id = ?", leadID, eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *Gorm) InsertDelivery(ctx context.Context, rec *models.SentWhatsAppMessage) error {
	rec.SentAt = rec.SentAt.UTC()
	return translate(r.db.WithContext(ctx).Create(rec).Error)
}

func (r *Gorm) DeleteDelivery(ctx context.Context, leadID, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lead_id = ? AND event_id = ?", leadID, eventID).
		Delete(&models.SentWhatsAppMessage{}).Error
}

func (r *Gorm) CreateReminder(ctx context.Context, reminder *models.ScheduledReminder) error {
	reminder.ScheduledAt = reminder.ScheduledAt.UTC()
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *Gorm) GetReminder(ctx context.Context, id uuid.UUID) (*models.ScheduledReminder, error) {
	var reminder models.ScheduledReminder
	err := r.db.WithContext(ctx).First(&reminder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *Gorm) ListReminders(ctx context.Context, status string, limit int) ([]models.ScheduledReminder, error) {
	query := r.db.WithContext(ctx).Order("scheduled_at ASC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reminders []models.ScheduledReminder
	err := query.Find(&reminders).Error
	return reminders, err
}

func (r *Gorm) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.ScheduledReminder, error) {
	var reminders []models.ScheduledReminder
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.ReminderPending, now.UTC()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

func (r *Gorm) ClaimReminder(ctx context.Context, id uuid.UUID, from ...string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledReminder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     models.ReminderSending,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Gorm) MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.updateReminder(ctx, id, map[string]interface{}{
		"status":     models.ReminderSent,
		"sent_at":    sentAt.UTC(),
		"error":      nil,
		"updated_at": time.Now().UTC(),
	})
}

func (r *Gorm) MarkReminderFailed(ctx context.Context, id uuid.UUID, errText string) error {
	return r.updateReminder(ctx, id, map[string]interface{}{
		"status":     models.ReminderFailed,
		"error":      errText,
		"updated_at": time.Now().UTC(),
	})
}

// updateReminder never touches a sent row.
func (r *Gorm) updateReminder(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledReminder{}).
		Where("id = ? AND status <> ?", id, models.ReminderSent).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Gorm) NextPendingReminder(ctx context.Context) (*models.ScheduledReminder, error) {
	var reminder models.ScheduledReminder
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ReminderPending).
		Order("scheduled_at ASC").
		First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *Gorm) CountRemindersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScheduledReminder{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *Gorm) InsertReminderLog(ctx context.Context, l *models.ReminderLog) error {
	if l.SentAt != nil {
		sentAt := l.SentAt.UTC()
		l.SentAt = &sentAt
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Gorm) ListReminderLogs(ctx context.Context, limit int) ([]models.ReminderLog, error) {
	var logs []models.ReminderLog
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

func (r *Gorm) CountLogsSentBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReminderLog{}).
		Where("status = ? AND sent_at >= ? AND sent_at < ?", models.ReminderSent, from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
