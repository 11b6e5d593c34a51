package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadflow-backend/apperr"
	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/repository"
	"leadflow-backend/transport"

	"github.com/google/uuid"
)

// Engine is the surface the rest of the application calls. Every entry
// point is safe to call redundantly and concurrently.
type Engine struct {
	Matcher    *TriggerMatcher
	Tracker    *DeliveryTracker
	Dispatcher *Dispatcher
	Scanner    *TimeoutScanner
	Reminders  *ReminderService

	store Store
	now   Clock
	log   *logger.Logger
}

type EngineConfig struct {
	ScanConcurrency int
	Reminder        ReminderConfig
}

func NewEngine(store Store, sender transport.Sender, now Clock, cfg EngineConfig, log *logger.Logger) *Engine {
	matcher := NewTriggerMatcher(store)
	tracker := NewDeliveryTracker(store, now, log)
	dispatcher := NewDispatcher(store, tracker, sender, log)

	return &Engine{
		Matcher:    matcher,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Scanner:    NewTimeoutScanner(matcher, store, dispatcher, now, cfg.ScanConcurrency, log),
		Reminders:  NewReminderService(store, store, sender, now, cfg.Reminder, log),
		store:      store,
		now:        now,
		log:        log,
	}
}

type TriggerSummary struct {
	LeadID   uuid.UUID                  `json:"leadId"`
	StageID  uuid.UUID                  `json:"stageId"`
	Moved    bool                       `json:"moved"`
	Outcomes map[string]DispatchOutcome `json:"outcomes"`
}

// OnStageEntry dispatches every active stage_entry rule for stageID.
func (e *Engine) OnStageEntry(ctx context.Context, leadID, stageID uuid.UUID) TriggerSummary {
	summary := TriggerSummary{LeadID: leadID, StageID: stageID, Outcomes: map[string]DispatchOutcome{}}

	rules, err := e.Matcher.MatchStageEntry(ctx, stageID)
	if err != nil {
		e.log.DatabaseError("match stage entry", err)
		return summary
	}
	for _, rule := range rules {
		summary.Outcomes[rule.ID.String()] = e.Dispatcher.Dispatch(ctx, rule, leadID)
	}
	return summary
}

// ChangeStage moves the lead and fires the entry rules of the new stage.
// Moving a lead to the stage it already occupies does nothing.
func (e *Engine) ChangeStage(ctx context.Context, leadID, stageID uuid.UUID) (TriggerSummary, error) {
	moved, err := e.store.MoveLeadToStage(ctx, leadID, stageID, e.now())
	if errors.Is(err, repository.ErrNotFound) {
		return TriggerSummary{}, apperr.NotFound("lead or stage not found")
	}
	if err != nil {
		return TriggerSummary{}, apperr.Internal("failed to move lead", err).WithOp("change stage")
	}
	if !moved {
		return TriggerSummary{LeadID: leadID, StageID: stageID, Outcomes: map[string]DispatchOutcome{}}, nil
	}

	summary := e.OnStageEntry(ctx, leadID, stageID)
	summary.Moved = true
	return summary, nil
}

// OnStageTimeout is for callers that track per-lead timers: it fires the
// rules whose threshold equals minutes exactly.
func (e *Engine) OnStageTimeout(ctx context.Context, leadID, stageID uuid.UUID, minutes int) TriggerSummary {
	summary := TriggerSummary{LeadID: leadID, StageID: stageID, Outcomes: map[string]DispatchOutcome{}}

	rules, err := e.Matcher.MatchTimeout(ctx, stageID, minutes)
	if err != nil {
		e.log.DatabaseError("match timeout", err)
		return summary
	}
	for _, rule := range rules {
		summary.Outcomes[rule.ID.String()] = e.Dispatcher.Dispatch(ctx, rule, leadID)
	}
	return summary
}

func (e *Engine) OnTimeoutScanTick(ctx context.Context) ScanSummary {
	return e.Scanner.Scan(ctx)
}

func (e *Engine) SendReminderNow(ctx context.Context, req SendNowRequest) (*SendOutcome, error) {
	return e.Reminders.SendNow(ctx, req)
}

// CreateRule validates and stores an event rule. Templates with unknown
// variables are rejected here, never at send time.
func (e *Engine) CreateRule(ctx context.Context, rule *models.WhatsAppEvent) error {
	switch rule.TriggerType {
	case models.TriggerStageEntry:
		if rule.TimeoutMinutes != nil {
			return apperr.Validation("timeoutMinutes is only allowed for stage_timeout rules")
		}
	case models.TriggerStageTimeout:
		if rule.TimeoutMinutes == nil || *rule.TimeoutMinutes <= 0 {
			return apperr.Validation("timeoutMinutes is required for stage_timeout rules")
		}
	default:
		return apperr.Validation("invalid trigger type")
	}

	if v := ValidateTemplate(rule.MessageTemplate); !v.Valid {
		return apperr.Validation("unknown template variables: " + strings.Join(v.Unknown, ", "))
	}

	if err := e.store.CreateRule(ctx, rule); err != nil {
		return apperr.Internal("failed to create rule", err).WithOp("create rule")
	}
	return nil
}

func (e *Engine) ListRules(ctx context.Context) ([]models.WhatsAppEvent, error) {
	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list rules", err)
	}
	return rules, nil
}

// SendDueReminders is the periodic reminder pass.
func (e *Engine) SendDueReminders(ctx context.Context) DueSummary {
	return e.Reminders.SendDue(ctx)
}

func (e *Engine) Now() time.Time {
	return e.now()
}
