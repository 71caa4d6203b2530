package models

import (
	"github.com/google/uuid"
)

type Salon struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name    string    `gorm:"not null"`
	Address string
	Email   string

	// Denormalized copy of PlanDetails.CurrentTier, kept in sync by PlanService.
	CurrentTier string `gorm:"type:varchar(20);default:'free'"`

	WorkingHours JSONB `gorm:"type:jsonb;default:'{}'"`
	SMSReminders bool  `gorm:"default:false"`

	Users           []User           `gorm:"foreignKey:SalonID"`
	Clients         []Client         `gorm:"foreignKey:SalonID"`
	Appointments    []Appointment    `gorm:"foreignKey:SalonID"`
	PortfolioImages []PortfolioImage `gorm:"foreignKey:SalonID"`
}
