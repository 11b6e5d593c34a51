package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStageHistory is one interval a lead spent in a stage. The partial
// unique index allows a single open interval (exited_at IS NULL) per lead.
type LeadStageHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	LeadID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_lead_open_interval,where:exited_at IS NULL" json:"leadId"`
	StageID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"stageId"`
	EnteredAt time.Time  `gorm:"not null;index" json:"enteredAt"`
	ExitedAt  *time.Time `json:"exitedAt,omitempty"`
}

func (LeadStageHistory) TableName() string { return "lead_stage_history" }

func (h *LeadStageHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}

// Open reports whether the lead is still in this stage.
func (h LeadStageHistory) Open() bool {
	return h.ExitedAt == nil
}
