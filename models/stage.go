package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Stage struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Position int       `gorm:"not null;index" json:"position"`
}

func (s *Stage) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
