package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PortfolioImage struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	URL     string `gorm:"not null"`
	Caption string
	Style   string `gorm:"default:'General'"`

	gorm.Model
}

func (p *PortfolioImage) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
