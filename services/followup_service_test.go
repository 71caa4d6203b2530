package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkstudio-backend/jobqueue"
	"inkstudio-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeEnqueuer struct {
	jobType jobqueue.JobType
	payload map[string]interface{}
	opts    jobqueue.EnqueueOptions
	err     error
	calls   int
}

func (f *fakeEnqueuer) Enqueue(jobType jobqueue.JobType, payload map[string]interface{}, opts jobqueue.EnqueueOptions) (*jobqueue.Job, error) {
	f.calls++
	f.jobType = jobType
	f.payload = payload
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &jobqueue.Job{ID: "job-1", Type: jobType, Payload: payload}, nil
}

type fakeMailer struct {
	to      string
	subject string
	body    string
	err     error
	sends   int
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sends++
	f.to = to
	f.subject = subject
	f.body = body
	return f.err
}

// fakeFollowUpStore serves GetRequestByAppointment results in order, one
// per call, so the creation-race path can be exercised.
type fakeFollowUpStore struct {
	appt      *models.Appointment
	apptErr   error
	reqs      []*models.FollowUpRequest
	reqErr    error
	createErr error
	created   *models.FollowUpRequest
	sent      *models.FollowUpRequest
	sentAt    time.Time
}

func (f *fakeFollowUpStore) GetAppointment(id uuid.UUID) (*models.Appointment, error) {
	if f.apptErr != nil {
		return nil, f.apptErr
	}
	return f.appt, nil
}

func (f *fakeFollowUpStore) GetRequestByAppointment(appointmentID uuid.UUID) (*models.FollowUpRequest, error) {
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	if len(f.reqs) == 0 {
		return nil, nil
	}
	req := f.reqs[0]
	f.reqs = f.reqs[1:]
	return req, nil
}

func (f *fakeFollowUpStore) CreateRequest(req *models.FollowUpRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = req
	return nil
}

func (f *fakeFollowUpStore) MarkSent(req *models.FollowUpRequest, at time.Time) error {
	f.sent = req
	f.sentAt = at
	req.SentAt = &at
	return nil
}

func confirmedAppointment() *models.Appointment {
	return &models.Appointment{
		ID:      uuid.New(),
		SalonID: uuid.New(),
		Status:  models.AppointmentConfirmed,
		EndsAt:  time.Now().Add(-48 * time.Hour),
		Salon:   models.Salon{Name: "Black Lotus Ink"},
		User:    models.User{Name: "Mara"},
		Client: models.Client{
			ID:    uuid.New(),
			Name:  "Jon",
			Email: "jon@example.com",
		},
	}
}

func newTestFollowUpService(store FollowUpStore, m *fakeMailer) *FollowUpService {
	return NewFollowUpServiceWith(store, &fakeEnqueuer{}, m, "https://studio.example.com", 48*time.Hour)
}

func TestScheduleFollowUp(t *testing.T) {
	t.Run("enqueues with the appointment-derived idempotency key", func(t *testing.T) {
		queue := &fakeEnqueuer{}
		svc := NewFollowUpServiceWith(&fakeFollowUpStore{}, queue, &fakeMailer{}, "https://studio.example.com", 48*time.Hour)

		apptID := uuid.New()
		end := time.Now().Add(2 * time.Hour)
		_, err := svc.ScheduleFollowUp(apptID, end)
		require.NoError(t, err)

		assert.Equal(t, 1, queue.calls)
		assert.Equal(t, jobqueue.JobTypeFollowUpEmail, queue.jobType)
		assert.Equal(t, FollowUpKey(apptID), queue.opts.IdempotencyKey)
		assert.Equal(t, FollowUpMaxRetries, queue.opts.MaxRetries)
		assert.Equal(t, apptID.String(), queue.payload["appointment_id"])

		// End is 2h out, healing delay 48h: roughly 50h until delivery
		assert.InDelta(t, (50 * time.Hour).Seconds(), queue.opts.Delay.Seconds(), 5)
	})

	t.Run("enqueue failure propagates", func(t *testing.T) {
		queue := &fakeEnqueuer{err: errors.New("redis down")}
		svc := NewFollowUpServiceWith(&fakeFollowUpStore{}, queue, &fakeMailer{}, "https://studio.example.com", 48*time.Hour)

		_, err := svc.ScheduleFollowUp(uuid.New(), time.Now())
		assert.Error(t, err)
	})
}

func TestFollowUpDelay(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("future fire time keeps the full wait", func(t *testing.T) {
		end := now.Add(time.Hour)
		assert.Equal(t, 49*time.Hour, followUpDelay(end, 48*time.Hour, now))
	})

	t.Run("overdue fire time clamps to zero", func(t *testing.T) {
		end := now.Add(-72 * time.Hour)
		assert.Equal(t, time.Duration(0), followUpDelay(end, 48*time.Hour, now))
	})
}

func TestFollowUpKey(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "followup:"+id.String(), FollowUpKey(id))
	assert.Equal(t, FollowUpKey(id), FollowUpKey(id))
}

func TestHandleFollowUp(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the email and marks the request sent", func(t *testing.T) {
		appt := confirmedAppointment()
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		err := svc.HandleFollowUp(ctx, appt.ID)
		require.NoError(t, err)

		require.NotNil(t, store.created)
		assert.Equal(t, appt.ID, store.created.AppointmentID)
		assert.Equal(t, appt.SalonID, store.created.SalonID)
		assert.NotEmpty(t, store.created.Token)
		assert.Equal(t, appt.EndsAt.Add(FollowUpExpiry), store.created.ExpiresAt)

		assert.Equal(t, 1, m.sends)
		assert.Equal(t, "jon@example.com", m.to)
		assert.Contains(t, m.subject, "Black Lotus Ink")
		assert.Contains(t, m.body, "Mara")
		assert.Contains(t, m.body, "https://studio.example.com/follow-up/"+store.created.Token)

		require.NotNil(t, store.sent)
		assert.Equal(t, store.created, store.sent)
	})

	t.Run("missing appointment terminates without error", func(t *testing.T) {
		store := &fakeFollowUpStore{apptErr: gorm.ErrRecordNotFound}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		err := svc.HandleFollowUp(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, m.sends)
	})

	t.Run("other load failures propagate for retry", func(t *testing.T) {
		store := &fakeFollowUpStore{apptErr: errors.New("connection reset")}
		svc := newTestFollowUpService(store, &fakeMailer{})

		err := svc.HandleFollowUp(ctx, uuid.New())
		assert.Error(t, err)
	})

	t.Run("appointment without a client is skipped", func(t *testing.T) {
		appt := confirmedAppointment()
		appt.Client = models.Client{}
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Zero(t, m.sends)
		assert.Nil(t, store.created)
	})

	t.Run("non-confirmed statuses are skipped", func(t *testing.T) {
		for _, status := range []string{
			models.AppointmentPending,
			models.AppointmentCompleted,
			models.AppointmentCancelled,
		} {
			appt := confirmedAppointment()
			appt.Status = status
			store := &fakeFollowUpStore{appt: appt}
			m := &fakeMailer{}
			svc := newTestFollowUpService(store, m)

			require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
			assert.Zero(t, m.sends, "status %s must not send", status)
		}
	})

	t.Run("already sent request is a no-op", func(t *testing.T) {
		appt := confirmedAppointment()
		sentAt := time.Now().Add(-time.Hour)
		store := &fakeFollowUpStore{
			appt: appt,
			reqs: []*models.FollowUpRequest{{AppointmentID: appt.ID, Token: "tok", SentAt: &sentAt}},
		}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Zero(t, m.sends)
		assert.Nil(t, store.created)
	})

	t.Run("answered request is a no-op", func(t *testing.T) {
		appt := confirmedAppointment()
		store := &fakeFollowUpStore{
			appt: appt,
			reqs: []*models.FollowUpRequest{{
				AppointmentID: appt.ID,
				Token:         "tok",
				Submission:    &models.FollowUpSubmission{Rating: 5},
			}},
		}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Zero(t, m.sends)
	})

	t.Run("existing unsent request keeps its token", func(t *testing.T) {
		appt := confirmedAppointment()
		existing := &models.FollowUpRequest{AppointmentID: appt.ID, Token: "original-token"}
		store := &fakeFollowUpStore{appt: appt, reqs: []*models.FollowUpRequest{existing}}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))

		assert.Nil(t, store.created, "no second request may be created")
		assert.Equal(t, 1, m.sends)
		assert.Contains(t, m.body, "/follow-up/original-token")
	})

	t.Run("lost creation race uses the winner's token", func(t *testing.T) {
		appt := confirmedAppointment()
		winner := &models.FollowUpRequest{AppointmentID: appt.ID, Token: "winner-token"}
		store := &fakeFollowUpStore{
			appt:      appt,
			reqs:      []*models.FollowUpRequest{nil, winner},
			createErr: gorm.ErrDuplicatedKey,
		}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Equal(t, 1, m.sends)
		assert.Contains(t, m.body, "/follow-up/winner-token")
	})

	t.Run("lost race against an already handled winner is a no-op", func(t *testing.T) {
		appt := confirmedAppointment()
		sentAt := time.Now()
		winner := &models.FollowUpRequest{AppointmentID: appt.ID, Token: "w", SentAt: &sentAt}
		store := &fakeFollowUpStore{
			appt:      appt,
			reqs:      []*models.FollowUpRequest{nil, winner},
			createErr: gorm.ErrDuplicatedKey,
		}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Zero(t, m.sends)
	})

	t.Run("client without email is skipped after request creation", func(t *testing.T) {
		appt := confirmedAppointment()
		appt.Client.Email = ""
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Zero(t, m.sends)
		assert.Nil(t, store.sent)
	})

	t.Run("send failure propagates and nothing is marked sent", func(t *testing.T) {
		appt := confirmedAppointment()
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{err: errors.New("smtp timeout")}
		svc := newTestFollowUpService(store, m)

		err := svc.HandleFollowUp(ctx, appt.ID)
		assert.Error(t, err)
		assert.Nil(t, store.sent)
	})

	t.Run("fallback names when salon and artist are unnamed", func(t *testing.T) {
		appt := confirmedAppointment()
		appt.Salon.Name = ""
		appt.User.Name = ""
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		require.NoError(t, svc.HandleFollowUp(ctx, appt.ID))
		assert.Contains(t, m.subject, "the studio")
		assert.Contains(t, m.body, "your artist")
	})
}

func TestHandleJob(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a malformed appointment ID", func(t *testing.T) {
		svc := newTestFollowUpService(&fakeFollowUpStore{}, &fakeMailer{})

		job := &jobqueue.Job{
			Type:    jobqueue.JobTypeFollowUpEmail,
			Payload: map[string]interface{}{"appointment_id": "not-a-uuid"},
		}
		assert.Error(t, svc.HandleJob(ctx, job))
	})

	t.Run("dispatches a well-formed payload", func(t *testing.T) {
		appt := confirmedAppointment()
		store := &fakeFollowUpStore{appt: appt}
		m := &fakeMailer{}
		svc := newTestFollowUpService(store, m)

		payload := jobqueue.FollowUpEmailJobPayload{AppointmentID: appt.ID.String()}
		job := &jobqueue.Job{Type: jobqueue.JobTypeFollowUpEmail, Payload: payload.ToMap()}

		require.NoError(t, svc.HandleJob(ctx, job))
		assert.Equal(t, 1, m.sends)
	})
}
