package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"inkstudio-backend/jobqueue"
	"inkstudio-backend/mailer"
	"inkstudio-backend/models"
	"inkstudio-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// FollowUpExpiry is how long a follow-up link stays valid past the
	// appointment's end.
	FollowUpExpiry = 14 * 24 * time.Hour

	FollowUpMaxRetries = 3

	// DefaultFollowUpDelayMinutes is applied when FOLLOWUP_DELAY_MINUTES
	// is unset: two days of healing before we ask how it's going.
	DefaultFollowUpDelayMinutes = 2880
)

// Enqueuer is the deferred-task broker collaborator.
type Enqueuer interface {
	Enqueue(jobType jobqueue.JobType, payload map[string]interface{}, opts jobqueue.EnqueueOptions) (*jobqueue.Job, error)
}

// FollowUpStore is the persistence surface the handler needs. Kept narrow
// so tests can swap in a fake.
type FollowUpStore interface {
	// GetAppointment loads an appointment with Client, User and Salon.
	GetAppointment(id uuid.UUID) (*models.Appointment, error)
	// GetRequestByAppointment returns (nil, nil) when no request exists.
	GetRequestByAppointment(appointmentID uuid.UUID) (*models.FollowUpRequest, error)
	CreateRequest(req *models.FollowUpRequest) error
	MarkSent(req *models.FollowUpRequest, at time.Time) error
}

// FollowUpService schedules and handles healing follow-up emails.
type FollowUpService struct {
	store   FollowUpStore
	queue   Enqueuer
	mailer  mailer.Mailer
	baseURL string
	delay   time.Duration
}

func NewFollowUpService(db *gorm.DB, queue Enqueuer, m mailer.Mailer) *FollowUpService {
	delayMinutes := DefaultFollowUpDelayMinutes
	if env := os.Getenv("FOLLOWUP_DELAY_MINUTES"); env != "" {
		if v, err := strconv.Atoi(env); err == nil && v >= 0 {
			delayMinutes = v
		}
	}

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &FollowUpService{
		store:   &gormFollowUpStore{db: db},
		queue:   queue,
		mailer:  m,
		baseURL: baseURL,
		delay:   time.Duration(delayMinutes) * time.Minute,
	}
}

// NewFollowUpServiceWith wires explicit collaborators (used by tests).
func NewFollowUpServiceWith(store FollowUpStore, queue Enqueuer, m mailer.Mailer, baseURL string, delay time.Duration) *FollowUpService {
	return &FollowUpService{store: store, queue: queue, mailer: m, baseURL: baseURL, delay: delay}
}

// ScheduleFollowUp enqueues the healing follow-up for an appointment. The
// idempotency key is derived from the appointment ID, so scheduling the
// same appointment twice before the job fires collapses to one task.
func (s *FollowUpService) ScheduleFollowUp(appointmentID uuid.UUID, end time.Time) (*jobqueue.Job, error) {
	payload := jobqueue.FollowUpEmailJobPayload{AppointmentID: appointmentID.String()}

	return s.queue.Enqueue(jobqueue.JobTypeFollowUpEmail, payload.ToMap(), jobqueue.EnqueueOptions{
		Delay:          followUpDelay(end, s.delay, time.Now()),
		IdempotencyKey: FollowUpKey(appointmentID),
		MaxRetries:     FollowUpMaxRetries,
	})
}

// HandleJob adapts the queue's delivery to HandleFollowUp. Registered for
// jobqueue.JobTypeFollowUpEmail.
func (s *FollowUpService) HandleJob(ctx context.Context, job *jobqueue.Job) error {
	payload, err := jobqueue.FollowUpEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid follow-up payload: %w", err)
	}

	appointmentID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return fmt.Errorf("invalid appointment ID in payload: %w", err)
	}

	return s.HandleFollowUp(ctx, appointmentID)
}

// HandleFollowUp performs the follow-up send for one appointment. Safe to
// re-enter: a request row is created at most once (token never rotated)
// and SentAt is the durable marker that the email went out. Missing or
// non-confirmed appointments terminate without error so the broker does
// not retry them.
func (s *FollowUpService) HandleFollowUp(ctx context.Context, appointmentID uuid.UUID) error {
	appt, err := s.store.GetAppointment(appointmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[FollowUp] Appointment %s not found, skipping", appointmentID)
		return nil
	}
	if err != nil {
		return err
	}

	if appt.Client.ID == uuid.Nil {
		log.Printf("[FollowUp] Appointment %s has no client, skipping", appointmentID)
		return nil
	}

	if appt.Status != models.AppointmentConfirmed {
		log.Printf("[FollowUp] Appointment %s status is %q, skipping", appointmentID, appt.Status)
		return nil
	}

	req, err := s.store.GetRequestByAppointment(appointmentID)
	if err != nil {
		return err
	}
	if alreadyHandled(req) {
		log.Printf("[FollowUp] Appointment %s already handled, skipping", appointmentID)
		return nil
	}

	if req == nil {
		token, err := utils.GenerateOpaqueToken()
		if err != nil {
			return err
		}
		req = &models.FollowUpRequest{
			AppointmentID: appointmentID,
			SalonID:       appt.SalonID,
			Token:         token,
			ExpiresAt:     appt.EndsAt.Add(FollowUpExpiry),
		}
		if err := s.store.CreateRequest(req); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// Lost the creation race: use the winner's row and its token
			req, err = s.store.GetRequestByAppointment(appointmentID)
			if err != nil {
				return err
			}
			if alreadyHandled(req) {
				return nil
			}
		}
	}

	salonName, artistName := displayNames(appt)
	subject, body := followUpEmail(salonName, artistName, appt.Client.Name, followUpURL(s.baseURL, req.Token))

	if appt.Client.Email == "" {
		log.Printf("[FollowUp] Client %s has no email address, skipping", appt.Client.ID)
		return nil
	}

	if err := s.mailer.Send(appt.Client.Email, subject, body); err != nil {
		log.Printf("[FollowUp] Failed to send follow-up for appointment %s: %v", appointmentID, err)
		return err
	}

	return s.store.MarkSent(req, time.Now())
}

// FollowUpKey derives the broker idempotency key for an appointment. Same
// appointment, same key, always.
func FollowUpKey(appointmentID uuid.UUID) string {
	return "followup:" + appointmentID.String()
}

// followUpDelay clamps the wait until end+after to zero: overdue
// follow-ups fire immediately.
func followUpDelay(end time.Time, after time.Duration, now time.Time) time.Duration {
	d := end.Add(after).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func followUpURL(baseURL, token string) string {
	return baseURL + "/follow-up/" + token
}

// alreadyHandled reports whether a request has been sent or answered.
func alreadyHandled(req *models.FollowUpRequest) bool {
	return req != nil && (req.SentAt != nil || req.Submission != nil)
}

// displayNames resolves salon and artist labels with graceful fallbacks.
func displayNames(appt *models.Appointment) (string, string) {
	salonName := appt.Salon.Name
	if salonName == "" {
		salonName = "the studio"
	}
	artistName := appt.User.Name
	if artistName == "" {
		artistName = "your artist"
	}
	return salonName, artistName
}

func followUpEmail(salonName, artistName, clientName, url string) (string, string) {
	subject := fmt.Sprintf("How is your tattoo healing? A check-in from %s", salonName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>%s from %s would love to hear how your new tattoo is healing. "+
			"Share a quick update (and a photo if you like):</p>"+
			"<p><a href=\"%s\">%s</a></p>"+
			"<p>The link is valid for 14 days.</p>",
		clientName, artistName, salonName, url, url,
	)
	return subject, body
}

// gormFollowUpStore is the production FollowUpStore.
type gormFollowUpStore struct {
	db *gorm.DB
}

func (s *gormFollowUpStore) GetAppointment(id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.Preload("Client").Preload("User").Preload("Salon").
		First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *gormFollowUpStore) GetRequestByAppointment(appointmentID uuid.UUID) (*models.FollowUpRequest, error) {
	var req models.FollowUpRequest
	err := s.db.Preload("Submission").
		Where("appointment_id = ?", appointmentID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *gormFollowUpStore) CreateRequest(req *models.FollowUpRequest) error {
	return s.db.Create(req).Error
}

func (s *gormFollowUpStore) MarkSent(req *models.FollowUpRequest, at time.Time) error {
	req.SentAt = &at
	return s.db.Model(req).Update("sent_at", at).Error
}
