package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID        uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"` // assigned artist
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	StartsAt time.Time `gorm:"index;not null"`
	EndsAt   time.Time `gorm:"not null"`
	Status   string    `gorm:"type:varchar(20);default:'pending'"`

	Description string
	Price       float64 `gorm:"type:decimal(10,2);default:0.0"`
	Notes       string

	Salon  Salon  `gorm:"foreignKey:SalonID"`
	Client Client `gorm:"foreignKey:ClientID"`
	User   User   `gorm:"foreignKey:UserID"`

	gorm.Model
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
