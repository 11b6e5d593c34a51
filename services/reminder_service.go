// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow-backend/apperr"
	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/repository"
	"leadflow-backend/transport"
	"leadflow-backend/utils"

	"github.com/google/uuid"
)

const (
	previewLength  = 100
	dueBatchSize   = 100
	listLimitUpper = 500
)

// ReminderQueue delivers a reminder at its scheduled time. It is optional;
// the periodic due scan catches anything the queue misses.
type ReminderQueue interface {
	ScheduleReminder(ctx context.Context, reminderID uuid.UUID, runAt time.Time) error
}

type ReminderService struct {
	store       ReminderStore
	leads       LeadStore
	transport   transport.Sender
	queue       ReminderQueue
	now         Clock
	countryCode string
	loc         *time.Location
	log         *logger.Logger
}

type ReminderConfig struct {
	CountryCode string
	Location    *time.Location
}

func NewReminderService(store ReminderStore, leads LeadStore, sender transport.Sender, now Clock, cfg ReminderConfig, log *logger.Logger) *ReminderService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		store:       store,
		leads:       leads,
		transport:   sender,
		now:         now,
		countryCode: cfg.CountryCode,
		loc:         loc,
		log:         log,
	}
}

// SetQueue attaches the delayed-delivery queue.
func (s *ReminderService) SetQueue(q ReminderQueue) {
	s.queue = q
}

type ScheduleReminderInput struct {
	LeadID          uuid.UUID
	ProductID       *uuid.UUID
	StageID         *uuid.UUID
	DelayValue      int
	DelayUnit       string
	Mode            string
	MessageTemplate string
	Instance        string
	// From is the base the delay counts from. Defaults to now.
	From *time.Time
}

// Schedule stores a pending reminder due at From + delay.
func (s *ReminderService) Schedule(ctx context.Context, in ScheduleReminderInput) (*models.ScheduledReminder, error) {
	if in.DelayValue < 0 {
		return nil, apperr.Validation("delay must not be negative")
	}
	switch in.DelayUnit {
	case models.DelayMinutes, models.DelayHours, models.DelayDays:
	default:
		return nil, apperr.Validation(fmt.Sprintf("invalid delay unit: %s", in.DelayUnit))
	}
	if in.Mode == "" {
		in.Mode = models.ModeOnce
	}
	if in.Mode != models.ModeOnce && in.Mode != models.ModeRecurring {
		return nil, apperr.Validation(fmt.Sprintf("invalid mode: %s", in.Mode))
	}
	if in.Mode == models.ModeRecurring && in.DelayValue == 0 {
		return nil, apperr.Validation("recurring reminders need a positive delay")
	}

	lead, err := s.leads.GetLeadView(ctx, in.LeadID)
	if err != nil {
		return nil, apperr.Internal("failed to load lead", err)
	}
	if lead == nil {
		return nil, apperr.NotFound("lead not found")
	}

	base := s.now()
	if in.From != nil {
		base = *in.From
	}

	reminder := &models.ScheduledReminder{
		LeadID:          in.LeadID,
		ProductID:       in.ProductID,
		StageID:         in.StageID,
		DelayValue:      in.DelayValue,
		DelayUnit:       in.DelayUnit,
		Mode:            in.Mode,
		MessageTemplate: in.MessageTemplate,
		Instance:        in.Instance,
		Status:          models.ReminderPending,
		ScheduledAt:     base.Add(models.DelayDuration(in.DelayValue, in.DelayUnit)),
	}
	if err := s.store.CreateReminder(ctx, reminder); err != nil {
		return nil, apperr.Internal("failed to create reminder", err)
	}

	s.enqueue(ctx, reminder)
	return reminder, nil
}

func (s *ReminderService) enqueue(ctx context.Context, r *models.ScheduledReminder) {
	if s.queue == nil {
		return
	}
	if err := s.queue.ScheduleReminder(ctx, r.ID, r.ScheduledAt); err != nil {
		s.log.Warn("reminder_enqueue_failed", "reminder_id", r.ID, "error", err)
	}
}

// AdHocReminder is a manual send that has no scheduled row behind it.
type AdHocReminder struct {
	LeadID          uuid.UUID
	ProductID       *uuid.UUID
	MessageTemplate string
	Instance        string
}

type SendNowRequest struct {
	ReminderID *uuid.UUID
	AdHoc      *AdHocReminder
}

type SendOutcome struct {
	ReminderID        *uuid.UUID `json:"reminderId,omitempty"`
	LogID             uuid.UUID  `json:"logId"`
	Status            string     `json:"status"`
	Message           string     `json:"message"`
	ProviderMessageID string     `json:"providerMessageId,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// SendNow is the manual override. A transport failure is still recorded
// and then returned as a TransportFailure carrying the provider's text.
func (s *ReminderService) SendNow(ctx context.Context, req SendNowRequest) (*SendOutcome, error) {
	switch {
	case req.ReminderID != nil:
		reminder, err := s.store.GetReminder(ctx, *req.ReminderID)
		if err != nil {
			return nil, apperr.Internal("failed to load reminder", err)
		}
		if reminder == nil {
			return nil, apperr.NotFound("reminder not found")
		}
		return s.deliver(ctx, reminder, true)
	case req.AdHoc != nil:
		return s.deliver(ctx, &models.ScheduledReminder{
			LeadID:          req.AdHoc.LeadID,
			ProductID:       req.AdHoc.ProductID,
			MessageTemplate: req.AdHoc.MessageTemplate,
			Instance:        req.AdHoc.Instance,
			Mode:            models.ModeOnce,
			Status:          models.ReminderPending,
			ScheduledAt:     s.now(),
		}, true)
	}
	return nil, apperr.Validation("reminderId or ad hoc parameters are required")
}

// SendScheduled is the automated path. Only pending rows are sent.
func (s *ReminderService) SendScheduled(ctx context.Context, id uuid.UUID) (*SendOutcome, error) {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load reminder", err)
	}
	if reminder == nil {
		return nil, apperr.NotFound("reminder not found")
	}
	if reminder.Status != models.ReminderPending {
		return nil, apperr.AlreadyProcessed(fmt.Sprintf("reminder is %s", reminder.Status))
	}
	return s.deliver(ctx, reminder, false)
}

// Location is the timezone used for day boundaries in stats and labels.
func (s *ReminderService) Location() *time.Location {
	return s.loc
}

type DueSummary struct {
	Due    int `json:"due"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendDue sends every pending reminder whose time has come. Failures are
// only visible in the reminder logs; the pass never stops early.
func (s *ReminderService) SendDue(ctx context.Context) DueSummary {
	var summary DueSummary

	due, err := s.store.ListDueReminders(ctx, s.now(), dueBatchSize)
	if err != nil {
		s.log.DatabaseError("list due reminders", err)
		return summary
	}
	summary.Due = len(due)

	for i := range due {
		out, err := s.deliver(ctx, &due[i], false)
		switch {
		case err == nil:
			summary.Sent++
		case out != nil:
			summary.Failed++
		default:
			s.log.Warn("reminder_skipped", "reminder_id", due[i].ID, "error", err)
		}
	}

	s.log.Info("due_reminders_processed", "due", summary.Due, "sent", summary.Sent, "failed", summary.Failed)
	return summary
}

// deliver is the single send path shared by manual and automated sends.
// A row with a zero ID is an ad hoc send and is never written back.
func (s *ReminderService) deliver(ctx context.Context, r *models.ScheduledReminder, manual bool) (*SendOutcome, error) {
	log := s.log.WithContext(ctx).With("reminder_id", r.ID, "lead_id", r.LeadID, "manual", manual)
	persisted := r.ID != uuid.Nil

	if r.Status == models.ReminderSent {
		return nil, apperr.AlreadyProcessed("reminder already sent")
	}

	lead, err := s.leads.GetLeadView(ctx, r.LeadID)
	if err != nil {
		return nil, apperr.Internal("failed to load lead", err)
	}
	if lead == nil {
		return nil, apperr.NotFound("lead not found")
	}

	var productName *string
	if r.ProductID != nil {
		productName, err = s.leads.GetProductName(ctx, *r.ProductID)
		if err != nil {
			return nil, apperr.Internal("failed to load product", err)
		}
	}

	phone := utils.WithCountryCode(lead.Phone, s.countryCode)
	message := ResolveTemplate(r.MessageTemplate, TemplateContext{
		LeadName:    lead.Name,
		LeadPhone:   phone,
		ProductName: productName,
		StageName:   lead.StageName,
	})

	if persisted {
		claimed, err := s.store.ClaimReminder(ctx, r.ID, claimableStatuses(manual)...)
		if err != nil {
			return nil, apperr.Internal("failed to claim reminder", err)
		}
		if !claimed {
			log.Debug("reminder_claim_lost")
			return nil, apperr.AlreadyProcessed("reminder is already being sent or was sent")
		}
	}

	channel := r.Instance
	if channel == "" {
		channel = transport.ChannelWhatsApp
	}
	result := s.transport.Send(ctx, transport.Message{Recipient: phone, Body: message, Channel: channel})

	now := s.now()
	entry := &models.ReminderLog{
		LeadID:         r.LeadID,
		ProductID:      r.ProductID,
		ScheduledAt:    &r.ScheduledAt,
		MessagePreview: utils.Truncate(message, previewLength),
		IsManual:       manual,
	}
	outcome := &SendOutcome{Message: message, ProviderMessageID: result.ProviderMessageID}
	if persisted {
		id := r.ID
		entry.ReminderID = &id
		outcome.ReminderID = &id
	}

	if result.Success {
		entry.Status = models.ReminderSent
		entry.SentAt = &now
		if persisted {
			if err := s.store.MarkReminderSent(ctx, r.ID, now); err != nil {
				s.logMarkError(log, "mark reminder sent", err)
			}
		}
	} else {
		errText := result.Error
		entry.Status = models.ReminderFailed
		entry.Error = &errText
		if persisted {
			if err := s.store.MarkReminderFailed(ctx, r.ID, errText); err != nil {
				s.logMarkError(log, "mark reminder failed", err)
			}
		}
	}

	if err := s.store.InsertReminderLog(ctx, entry); err != nil {
		log.DatabaseError("insert reminder log", err)
	}
	outcome.LogID = entry.ID
	outcome.Status = entry.Status

	if !result.Success {
		log.Error("reminder_send_failed", "error", result.Error)
		outcome.Error = result.Error
		return outcome, apperr.TransportFailure(result.Error)
	}

	log.Info("reminder_sent", "provider_message_id", result.ProviderMessageID)
	if persisted && r.Mode == models.ModeRecurring {
		s.reschedule(ctx, r, now)
	}
	return outcome, nil
}

// claimableStatuses lists the states a send may start from. A manual send
// may retry a failed reminder; automated paths only take pending ones.
func claimableStatuses(manual bool) []string {
	if manual {
		return []string{models.ReminderPending, models.ReminderFailed}
	}
	return []string{models.ReminderPending}
}

func (s *ReminderService) logMarkError(log *logger.Logger, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("reminder_status_unchanged", "operation", op, "reason", "row missing or already sent")
		return
	}
	log.DatabaseError(op, err)
}

// reschedule queues the next occurrence of a recurring reminder.
func (s *ReminderService) reschedule(ctx context.Context, r *models.ScheduledReminder, sentAt time.Time) {
	next := &models.ScheduledReminder{
		LeadID:          r.LeadID,
		ProductID:       r.ProductID,
		StageID:         r.StageID,
		DelayValue:      r.DelayValue,
		DelayUnit:       r.DelayUnit,
		Mode:            r.Mode,
		MessageTemplate: r.MessageTemplate,
		Instance:        r.Instance,
		Status:          models.ReminderPending,
		ScheduledAt:     sentAt.Add(r.Delay()),
	}
	if err := s.store.CreateReminder(ctx, next); err != nil {
		s.log.DatabaseError("reschedule recurring reminder", err)
		return
	}
	s.enqueue(ctx, next)
}

func (s *ReminderService) List(ctx context.Context, status string, limit int) ([]models.ScheduledReminder, error) {
	reminders, err := s.store.ListReminders(ctx, status, clampLimit(limit))
	if err != nil {
		return nil, apperr.Internal("failed to list reminders", err)
	}
	return reminders, nil
}

func (s *ReminderService) Logs(ctx context.Context, limit int) ([]models.ReminderLog, error) {
	logs, err := s.store.ListReminderLogs(ctx, clampLimit(limit))
	if err != nil {
		return nil, apperr.Internal("failed to list reminder logs", err)
	}
	return logs, nil
}

type NextReminder struct {
	ID            uuid.UUID `json:"id"`
	LeadID        uuid.UUID `json:"leadId"`
	LeadName      string    `json:"leadName"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	TimeRemaining string    `json:"timeRemaining"`
}

type ReminderStats struct {
	Pending   int64         `json:"pending"`
	SentToday int64         `json:"sentToday"`
	Next      *NextReminder `json:"nextReminder"`
}

// Stats counts pending reminders, reminders sent during the current calendar
// day in the deployment timezone, and describes the next one due.
func (s *ReminderService) Stats(ctx context.Context) (*ReminderStats, error) {
	now := s.now()

	pending, err := s.store.CountRemindersByStatus(ctx, models.ReminderPending)
	if err != nil {
		return nil, apperr.Internal("failed to count pending reminders", err)
	}

	from, to := utils.DayBounds(now, s.loc)
	sentToday, err := s.store.CountLogsSentBetween(ctx, from, to)
	if err != nil {
		return nil, apperr.Internal("failed to count sent reminders", err)
	}

	stats := &ReminderStats{Pending: pending, SentToday: sentToday}

	next, err := s.store.NextPendingReminder(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load next reminder", err)
	}
	if next != nil {
		item := &NextReminder{
			ID:            next.ID,
			LeadID:        next.LeadID,
			ScheduledAt:   next.ScheduledAt,
			TimeRemaining: utils.FormatTimeRemaining(next.ScheduledAt.Sub(now)),
		}
		if lead, err := s.leads.GetLeadView(ctx, next.LeadID); err == nil && lead != nil {
			item.LeadName = lead.Name
		}
		stats.Next = item
	}

	return stats, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 50
	}
	if limit > listLimitUpper {
		return listLimitUpper
	}
	return limit
}
