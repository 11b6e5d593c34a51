package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadflow-backend/models"

	"github.com/google/uuid"
)

type deliveryKey struct {
	lead  uuid.UUID
	event uuid.UUID
}

// Memory is a mutex-guarded store for single-process deployments and tests.
// The deliveries map keyed by (lead, event) plays the role of the unique
// index.
type Memory struct {
	mu         sync.Mutex
	products   map[uuid.UUID]models.Product
	stages     map[uuid.UUID]models.Stage
	leads      map[uuid.UUID]models.Lead
	history    []models.LeadStageHistory
	rules      []models.WhatsAppEvent
	deliveries map[deliveryKey]models.SentWhatsAppMessage
	reminders  map[uuid.UUID]models.ScheduledReminder
	logs       []models.ReminderLog
}

func NewMemory() *Memory {
	return &Memory{
		products:   map[uuid.UUID]models.Product{},
		stages:     map[uuid.UUID]models.Stage{},
		leads:      map[uuid.UUID]models.Lead{},
		deliveries: map[deliveryKey]models.SentWhatsAppMessage{},
		reminders:  map[uuid.UUID]models.ScheduledReminder{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Seeding helpers for the CRM-owned reference data.

func (m *Memory) PutProduct(p models.Product) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&p.ID)
	m.products[p.ID] = p
	return p
}

func (m *Memory) PutStage(s models.Stage) models.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&s.ID)
	m.stages[s.ID] = s
	return s
}

func (m *Memory) PutLead(l models.Lead) models.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&l.ID)
	m.leads[l.ID] = l
	return l
}

func (m *Memory) DeleteLead(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leads, id)
}

// History returns a copy of the lead's stage intervals in insertion order.
func (m *Memory) History(leadID uuid.UUID) []models.LeadStageHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LeadStageHistory
	for _, h := range m.history {
		if h.LeadID == leadID {
			out = append(out, h)
		}
	}
	return out
}

func (m *Memory) Deliveries() []models.SentWhatsAppMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SentWhatsAppMessage, 0, len(m.deliveries))
	for _, d := range m.deliveries {
		out = append(out, d)
	}
	return out
}

// LeadStore

func (m *Memory) GetLeadView(_ context.Context, leadID uuid.UUID) (*models.LeadView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[leadID]
	if !ok {
		return nil, nil
	}
	view := &models.LeadView{
		ID:        lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		ProductID: lead.ProductID,
		StageID:   lead.CurrentStageID,
	}
	if lead.ProductID != nil {
		if p, ok := m.products[*lead.ProductID]; ok {
			name := p.Name
			view.ProductName = &name
		}
	}
	if lead.CurrentStageID != nil {
		if s, ok := m.stages[*lead.CurrentStageID]; ok {
			name := s.Name
			view.StageName = &name
		}
	}
	return view, nil
}

func (m *Memory) GetProductName(_ context.Context, productID uuid.UUID) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	name := p.Name
	return &name, nil
}

func (m *Memory) MoveLeadToStage(_ context.Context, leadID, stageID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[leadID]
	if !ok {
		return false, ErrNotFound
	}
	if _, ok := m.stages[stageID]; !ok {
		return false, ErrNotFound
	}

	for i := range m.history {
		h := &m.history[i]
		if h.LeadID != leadID || !h.Open() {
			continue
		}
		if h.StageID == stageID {
			return false, nil
		}
		exited := at
		h.ExitedAt = &exited
	}

	m.history = append(m.history, models.LeadStageHistory{
		ID:        uuid.New(),
		LeadID:    leadID,
		StageID:   stageID,
		EnteredAt: at,
	})

	lead.CurrentStageID = &stageID
	lead.UpdatedAt = at
	m.leads[leadID] = lead
	return true, nil
}

func (m *Memory) ListStagnantLeads(_ context.Context, stageID uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []uuid.UUID
	for _, h := range m.history {
		if h.StageID == stageID && h.Open() && !h.EnteredAt.After(cutoff) {
			out = append(out, h.LeadID)
		}
	}
	return out, nil
}

// RuleStore

func (m *Memory) ListActiveRules(_ context.Context, triggerType string, stageID *uuid.UUID) ([]models.WhatsAppEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.WhatsAppEvent
	for _, r := range m.rules {
		if !r.IsActive || r.TriggerType != triggerType {
			continue
		}
		if stageID != nil && r.StageID != *stageID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) CreateRule(_ context.Context, rule *models.WhatsAppEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&rule.ID)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *Memory) ListRules(_ context.Context) ([]models.WhatsAppEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.WhatsAppEvent, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

// DeliveryStore

func (m *Memory) DeliveryExists(_ context.Context, leadID, eventID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.deliveries[deliveryKey{leadID, eventID}]
	return ok, nil
}

func (m *Memory) InsertDelivery(_ context.Context, rec *models.SentWhatsAppMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := deliveryKey{rec.LeadID, rec.EventID}
	if _, ok := m.deliveries[key]; ok {
		return ErrDuplicate
	}
	ensureID(&rec.ID)
	m.deliveries[key] = *rec
	return nil
}

func (m *Memory) DeleteDelivery(_ context.Context, leadID, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deliveries, deliveryKey{leadID, eventID})
	return nil
}

// ReminderStore

func (m *Memory) CreateReminder(_ context.Context, r *models.ScheduledReminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&r.ID)
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.reminders[r.ID] = *r
	return nil
}

func (m *Memory) GetReminder(_ context.Context, id uuid.UUID) (*models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) sortedReminders(keep func(models.ScheduledReminder) bool) []models.ScheduledReminder {
	var out []models.ScheduledReminder
	for _, r := range m.reminders {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (m *Memory) ListReminders(_ context.Context, status string, limit int) ([]models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedReminders(func(r models.ScheduledReminder) bool {
		return status == "" || r.Status == status
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ListDueReminders(_ context.Context, now time.Time, limit int) ([]models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedReminders(func(r models.ScheduledReminder) bool {
		return r.Status == models.ReminderPending && !r.ScheduledAt.After(now)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ClaimReminder(_ context.Context, id uuid.UUID, from ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if r.Status == status {
			r.Status = models.ReminderSending
			r.UpdatedAt = time.Now()
			m.reminders[id] = r
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) MarkReminderSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok || r.Status == models.ReminderSent {
		return ErrNotFound
	}
	r.Status = models.ReminderSent
	r.SentAt = &sentAt
	r.Error = nil
	r.UpdatedAt = time.Now()
	m.reminders[id] = r
	return nil
}

func (m *Memory) MarkReminderFailed(_ context.Context, id uuid.UUID, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok || r.Status == models.ReminderSent {
		return ErrNotFound
	}
	r.Status = models.ReminderFailed
	r.Error = &errText
	r.UpdatedAt = time.Now()
	m.reminders[id] = r
	return nil
}

func (m *Memory) NextPendingReminder(_ context.Context) (*models.ScheduledReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedReminders(func(r models.ScheduledReminder) bool {
		return r.Status == models.ReminderPending
	})
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (m *Memory) CountRemindersByStatus(_ context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reminders {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *Memory) InsertReminderLog(_ context.Context, l *models.ReminderLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&l.ID)
	l.CreatedAt = time.Now()
	m.logs = append(m.logs, *l)
	return nil
}

// ListReminderLogs returns the newest logs first.
func (m *Memory) ListReminderLogs(_ context.Context, limit int) ([]models.ReminderLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ReminderLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		out = append(out, m.logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) CountLogsSentBetween(_ context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, l := range m.logs {
		if l.Status != models.ReminderSent || l.SentAt == nil {
			continue
		}
		if !l.SentAt.Before(from) && l.SentAt.Before(to) {
			n++
		}
	}
	return n, nil
}
