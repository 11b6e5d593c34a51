// models/scheduled_reminder.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderPending = "pending"
	ReminderSending = "sending" // claimed by one sender, transport call in flight
	ReminderSent    = "sent"
	ReminderFailed  = "failed"
)

const (
	ModeOnce      = "once"
	ModeRecurring = "recurring"
)

const (
	DelayMinutes = "minutes"
	DelayHours   = "hours"
	DelayDays    = "days"
)

type ScheduledReminder struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	LeadID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"leadId"`
	ProductID       *uuid.UUID `gorm:"type:uuid;index" json:"productId,omitempty"`
	StageID         *uuid.UUID `gorm:"type:uuid" json:"stageId,omitempty"`
	DelayValue      int        `gorm:"not null" json:"delayValue"`
	DelayUnit       string     `gorm:"type:varchar(10);not null" json:"delayUnit"` // minutes, hours, days
	Mode            string     `gorm:"type:varchar(10);not null" json:"mode"`      // once, recurring
	MessageTemplate string     `gorm:"type:text;not null" json:"messageTemplate"`
	Instance        string     `gorm:"type:varchar(50)" json:"instance"` // whatsapp, sms
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`
	ScheduledAt     time.Time  `gorm:"not null;index" json:"scheduledAt"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	Error           *string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (r *ScheduledReminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// Delay converts DelayValue/DelayUnit into a duration. Unknown units yield 0.
func (r ScheduledReminder) Delay() time.Duration {
	return DelayDuration(r.DelayValue, r.DelayUnit)
}

func DelayDuration(value int, unit string) time.Duration {
	switch unit {
	case DelayMinutes:
		return time.Duration(value) * time.Minute
	case DelayHours:
		return time.Duration(value) * time.Hour
	case DelayDays:
		return time.Duration(value) * 24 * time.Hour
	}
	return 0
}
