package scheduler

import (
	"context"
	"fmt"

	"leadflow-backend/apperr"
	"leadflow-backend/logger"
	"leadflow-backend/services"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type ReminderSender interface {
	SendScheduled(ctx context.Context, id uuid.UUID) (*services.SendOutcome, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	reminders ReminderSender
	log       *logger.Logger
}

func NewWorker(redisURL, queue string, concurrency int, reminders ReminderSender, log *logger.Logger) (*Worker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		reminders: reminders,
		log:       log,
	}

	mux.HandleFunc(TaskReminderDue, w.handleReminderDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleReminderDue sends a pending reminder. Outcomes already written to
// the reminder log (sent elsewhere, transport failure) are not retried; only
// storage errors are.
func (w *Worker) handleReminderDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReminderDuePayload(task)
	if err != nil {
		return fmt.Errorf("parse reminder payload: %v: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.ReminderID)
	if err != nil {
		return fmt.Errorf("parse reminder id: %v: %w", err, asynq.SkipRetry)
	}

	_, err = w.reminders.SendScheduled(ctx, id)
	if err == nil {
		return nil
	}

	switch apperr.GetKind(err) {
	case apperr.KindAlreadyProcessed, apperr.KindNotFound:
		w.log.Debug("reminder_task_skipped", "reminder_id", id, "reason", err.Error())
		return nil
	case apperr.KindTransportFailure:
		return nil
	}
	return err
}
