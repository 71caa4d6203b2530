package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowUpRequest is created at most once per appointment. Token is
// generated on first creation and never rotated; SentAt is the durable
// marker that the healing follow-up email went out.
type FollowUpRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	SalonID       uuid.UUID `gorm:"type:uuid;index;not null"`

	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	SentAt    *time.Time

	Submission *FollowUpSubmission `gorm:"foreignKey:FollowUpRequestID"`

	gorm.Model
}

func (f *FollowUpRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}

// FollowUpSubmission is the client's healing feedback. Its presence
// short-circuits any further follow-up sending for the appointment.
type FollowUpSubmission struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	FollowUpRequestID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	Rating  int `gorm:"not null"`
	Comment string
	Photos  JSONB `gorm:"type:jsonb;default:'{}'"`

	gorm.Model
}

func (s *FollowUpSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
