package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TattooHistoryRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Date         time.Time `gorm:"index;not null"`
	Zone         string    // body placement
	SizeCm       float64
	Price        float64 `gorm:"type:decimal(10,2);default:0.0"`
	Ink          string
	HealingWeeks int
	CareProducts string
	Images       JSONB `gorm:"type:jsonb;default:'{}'"`

	gorm.Model
}

func (t *TattooHistoryRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
