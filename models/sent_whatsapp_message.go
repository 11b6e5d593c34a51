package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SentWhatsAppMessage marks that an event rule already fired for a lead.
// The (lead_id, event_id) unique index is what serializes concurrent sends.
type SentWhatsAppMessage struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LeadID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sent_lead_event,priority:1" json:"leadId"`
	EventID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sent_lead_event,priority:2" json:"eventId"`
	SentAt  time.Time `gorm:"not null" json:"sentAt"`
}

func (SentWhatsAppMessage) TableName() string { return "sent_whatsapp_messages" }

func (m *SentWhatsAppMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
