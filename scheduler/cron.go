package scheduler

import (
	"context"
	"time"

	"leadflow-backend/logger"
	"leadflow-backend/services"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single scan so a hung provider cannot pile up ticks.
const jobTimeout = 5 * time.Minute

// Jobs is the periodic work the engine exposes.
type Jobs interface {
	OnTimeoutScanTick(ctx context.Context) services.ScanSummary
	SendDueReminders(ctx context.Context) services.DueSummary
}

type Cron struct {
	c    *cron.Cron
	jobs Jobs
	log  *logger.Logger
}

// NewCron registers the timeout scan and the due-reminder scan. An empty
// schedule disables that job. Overlapping runs of the same job are skipped.
func NewCron(jobs Jobs, timeoutSchedule, reminderSchedule string, log *logger.Logger) (*Cron, error) {
	cl := cronLogger{log: log}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	s := &Cron{c: c, jobs: jobs, log: log}

	if timeoutSchedule != "" {
		if _, err := c.AddFunc(timeoutSchedule, s.runTimeoutScan); err != nil {
			return nil, err
		}
	}
	if reminderSchedule != "" {
		if _, err := c.AddFunc(reminderSchedule, s.runReminderScan); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Cron) Start() {
	s.c.Start()
	s.log.Info("scheduler_started", "jobs", len(s.c.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Cron) Stop() {
	<-s.c.Stop().Done()
}

func (s *Cron) runTimeoutScan() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.jobs.OnTimeoutScanTick(ctx)
}

func (s *Cron) runReminderScan() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.jobs.SendDueReminders(ctx)
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
