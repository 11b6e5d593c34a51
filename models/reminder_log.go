// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderLog is written once per delivery attempt and never updated.
type ReminderLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	LeadID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"leadId"`
	ProductID      *uuid.UUID `gorm:"type:uuid;index" json:"productId,omitempty"`
	ReminderID     *uuid.UUID `gorm:"type:uuid;index" json:"reminderId,omitempty"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	SentAt         *time.Time `gorm:"index" json:"sentAt,omitempty"`
	Status         string     `gorm:"type:varchar(20);index" json:"status"` // sent, failed, pending
	MessagePreview string     `gorm:"type:varchar(100)" json:"messagePreview"`
	Error          *string    `gorm:"type:text" json:"error,omitempty"`
	IsManual       bool       `json:"isManual"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
