// services/reminder_service.go
package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"inkstudio-backend/models"
	"inkstudio-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// ReminderService sends day-before appointment reminders over SMS and
// sweeps out dead follow-up rows. Reminders are gated on the salon's plan
// carrying the reminders feature and on the salon opting in.
type ReminderService struct {
	db     *gorm.DB
	client *twilio.RestClient
	limits *LimitService
}

func NewReminderService(db *gorm.DB) *ReminderService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		limits: NewLimitService(db),
	}
}

func (s *ReminderService) StartScheduler() {
	c := cron.New()

	// Daily at 9 AM: remind tomorrow's confirmed appointments
	c.AddFunc("0 9 * * *", s.SendDailyReminders)

	// Nightly: drop follow-up requests that expired without ever being sent
	c.AddFunc("30 3 * * *", s.PurgeExpiredFollowUps)

	c.Start()
	log.Println("Reminder scheduler started")
}

func (s *ReminderService) SendDailyReminders() {
	log.Println("Starting daily reminder processing...")

	var salons []models.Salon
	if err := s.db.Find(&salons, "sms_reminders = ?", true).Error; err != nil {
		log.Printf("Failed to fetch salons: %v", err)
		return
	}

	for _, salon := range salons {
		enabled, err := s.limits.HasFeature(salon.ID, FeatureEmailReminders)
		if err != nil {
			log.Printf("Salon %s: Failed to check reminder feature: %v", salon.ID, err)
			continue
		}
		if !enabled {
			continue
		}
		s.ProcessSalonReminders(&salon)
	}

	log.Println("Daily reminder processing completed")
}

func (s *ReminderService) ProcessSalonReminders(salon *models.Salon) {
	tomorrow := utils.BeginningOfDay(time.Now().AddDate(0, 0, 1))
	dayAfter := tomorrow.AddDate(0, 0, 1)

	var appointments []models.Appointment
	err := s.db.Preload("Client").Preload("User").
		Where("salon_id = ? AND status = ? AND starts_at >= ? AND starts_at < ?",
			salon.ID, models.AppointmentConfirmed, tomorrow, dayAfter).
		Find(&appointments).Error
	if err != nil {
		log.Printf("Salon %s: Failed to fetch tomorrow's appointments: %v", salon.ID, err)
		return
	}

	for _, appt := range appointments {
		if appt.Client.Phone == "" {
			continue
		}

		message := fmt.Sprintf(
			"Hi %s, a reminder from %s: your tattoo session with %s is tomorrow at %s. See you there!",
			appt.Client.Name, salon.Name, appt.User.Name, appt.StartsAt.Format("15:04"),
		)

		params := &twilioApi.CreateMessageParams{}
		params.SetTo(appt.Client.Phone)
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
		params.SetBody(message)

		resp, err := s.client.Api.CreateMessage(params)
		if err != nil {
			log.Printf("Failed to send reminder to %s: %v", appt.Client.Phone, err)
			continue
		}
		if resp.Sid != nil {
			log.Printf("Reminder sent to %s, SID: %s", appt.Client.Phone, *resp.Sid)
		} else {
			log.Printf("Reminder sent to %s, but no SID returned", appt.Client.Phone)
		}
	}
}

// PurgeExpiredFollowUps removes follow-up requests whose window closed
// before the email ever went out. Sent requests stay for history.
func (s *ReminderService) PurgeExpiredFollowUps() {
	result := s.db.Where("expires_at < ? AND sent_at IS NULL", time.Now()).
		Delete(&models.FollowUpRequest{})
	if result.Error != nil {
		log.Printf("Failed to purge expired follow-ups: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Purged %d expired follow-up requests", result.RowsAffected)
	}
}
