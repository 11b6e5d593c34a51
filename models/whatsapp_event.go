// models/whatsapp_event.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TriggerStageEntry   = "stage_entry"
	TriggerStageTimeout = "stage_timeout"
)

// WhatsAppEvent is an event rule: when a lead enters StageID (stage_entry) or
// stays there for TimeoutMinutes (stage_timeout), MessageTemplate is sent once.
type WhatsAppEvent struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ProductID       *uuid.UUID `gorm:"type:uuid;index" json:"productId,omitempty"`
	TriggerType     string     `gorm:"type:varchar(20);not null;index" json:"triggerType"`
	StageID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"stageId"`
	TimeoutMinutes  *int       `json:"timeoutMinutes,omitempty"`
	MessageTemplate string     `gorm:"type:text;not null" json:"messageTemplate"`
	IsActive        bool       `gorm:"not null;index" json:"isActive"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (WhatsAppEvent) TableName() string { return "whatsapp_events" }

func (e *WhatsAppEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// Threshold returns the configured timeout, or zero for stage_entry rules.
func (e WhatsAppEvent) Threshold() int {
	if e.TimeoutMinutes == nil {
		return 0
	}
	return *e.TimeoutMinutes
}
