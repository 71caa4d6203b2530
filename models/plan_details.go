package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan statuses
const (
	PlanActive  = "active"
	PlanExpired = "expired"
)

// PlanDetails holds the quota and feature set for one salon. Everything
// except SalonID, Status and EndDate is a function of CurrentTier via the
// plan catalog; PlanService.RepairPlan re-derives drifted fields.
type PlanDetails struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	CurrentTier string     `gorm:"type:varchar(20);not null;default:'free'"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active'"`
	EndDate     *time.Time // nil = never expires

	MaxAppointments    int `gorm:"not null"` // per month, -1 = unlimited
	MaxClients         int `gorm:"not null"`
	MaxStaff           int `gorm:"not null"`
	MaxPortfolioImages int `gorm:"not null"`

	HasAdvancedStats  bool `gorm:"default:false"`
	HasEmailReminders bool `gorm:"default:false"`
	HasCustomBranding bool `gorm:"default:false"`
	HasAPIAccess      bool `gorm:"default:false"`

	MonthlyPrice float64 `gorm:"type:decimal(10,2);default:0.0"`

	gorm.Model
}

func (p *PlanDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
