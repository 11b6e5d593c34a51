package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is owned by the surrounding CRM. The engine only moves it between
// stages.
type Lead struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Phone          string     `gorm:"not null" json:"phone"`
	ProductID      *uuid.UUID `gorm:"type:uuid;index" json:"productId,omitempty"`
	CurrentStageID *uuid.UUID `gorm:"type:uuid;index" json:"currentStageId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	Product      *Product `gorm:"foreignKey:ProductID" json:"-"`
	CurrentStage *Stage   `gorm:"foreignKey:CurrentStageID" json:"-"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// LeadView is a lead joined with the names of its current product and stage,
// as captured at read time.
type LeadView struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	ProductID   *uuid.UUID
	ProductName *string
	StageID     *uuid.UUID
	StageName   *string
}
