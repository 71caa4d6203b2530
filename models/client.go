package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SalonID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_salon_client_phone,priority:1"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name string `gorm:"not null"`
	// Unique within a salon, not across salons
	Phone     string `gorm:"not null;uniqueIndex:idx_salon_client_phone,priority:2"`
	Email     string
	Birthday  *time.Time
	Notes     string
	LastVisit *time.Time
	IsActive  bool `gorm:"default:true"`

	Appointments  []Appointment         `gorm:"foreignKey:ClientID"`
	TattooHistory []TattooHistoryRecord `gorm:"foreignKey:ClientID"`

	gorm.Model
}
