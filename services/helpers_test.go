package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/repository"
	"leadflow-backend/transport"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeSender records every message. Recipients listed in failFor get a
// failed result with the mapped error text.
type fakeSender struct {
	mu      sync.Mutex
	calls   []transport.Message
	failFor map[string]string
	failAll string
	delay   time.Duration
}

func (f *fakeSender) Send(_ context.Context, msg transport.Message) transport.Result {
	f.mu.Lock()
	f.calls = append(f.calls, msg)
	n := len(f.calls)
	errText := f.failAll
	if e, ok := f.failFor[msg.Recipient]; ok {
		errText = e
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if errText != "" {
		return transport.Result{Success: false, Error: errText}
	}
	return transport.Delivered(fmt.Sprintf("msg-%d", n))
}

func (f *fakeSender) Calls() []transport.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transport.Message, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSender) setFailAll(errText string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = errText
}

type fakeQueue struct {
	mu    sync.Mutex
	runAt map[uuid.UUID]time.Time
}

func (q *fakeQueue) ScheduleReminder(_ context.Context, id uuid.UUID, runAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.runAt == nil {
		q.runAt = map[uuid.UUID]time.Time{}
	}
	q.runAt[id] = runAt
	return nil
}

type fixture struct {
	store  *repository.Memory
	sender *fakeSender
	clock  *fakeClock
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  repository.NewMemory(),
		sender: &fakeSender{},
		clock:  &fakeClock{t: baseTime},
	}
	f.engine = NewEngine(f.store, f.sender, f.clock.Now, EngineConfig{
		ScanConcurrency: 4,
		Reminder:        ReminderConfig{CountryCode: "55", Location: time.UTC},
	}, logger.Nop())
	return f
}

func (f *fixture) stage(name string) uuid.UUID {
	return f.store.PutStage(models.Stage{Name: name}).ID
}

func (f *fixture) product(name string) uuid.UUID {
	return f.store.PutProduct(models.Product{Name: name}).ID
}

func (f *fixture) lead(name, phone string, productID *uuid.UUID) uuid.UUID {
	return f.store.PutLead(models.Lead{Name: name, Phone: phone, ProductID: productID}).ID
}

// enter moves the lead into stage at the current clock without firing rules.
func (f *fixture) enter(t *testing.T, leadID, stageID uuid.UUID) {
	t.Helper()
	_, err := f.store.MoveLeadToStage(context.Background(), leadID, stageID, f.clock.Now())
	require.NoError(t, err)
}

func (f *fixture) rule(t *testing.T, rule models.WhatsAppEvent) models.WhatsAppEvent {
	t.Helper()
	rule.IsActive = true
	require.NoError(t, f.engine.CreateRule(context.Background(), &rule))
	return rule
}

func intPtr(n int) *int { return &n }
