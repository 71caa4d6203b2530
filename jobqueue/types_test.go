package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 3}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp timeout", job.ErrorMsg)
}

func TestMarkAsRetryingConsumesAttempts(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 3}

	for i := 1; i <= 3; i++ {
		assert.True(t, job.IsRetryable())
		job.MarkAsRetrying()
		assert.Equal(t, JobStatusRetrying, job.Status)
		assert.Equal(t, i, job.RetryCount)
	}

	assert.False(t, job.IsRetryable())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, (&Job{RetryCount: 0, MaxRetries: 3}).IsRetryable())
	assert.True(t, (&Job{RetryCount: 2, MaxRetries: 3}).IsRetryable())
	assert.False(t, (&Job{RetryCount: 3, MaxRetries: 3}).IsRetryable())
	assert.False(t, (&Job{RetryCount: 0, MaxRetries: 0}).IsRetryable())
}

func TestFollowUpEmailJobPayload(t *testing.T) {
	t.Run("roundtrips through a map", func(t *testing.T) {
		payload := FollowUpEmailJobPayload{AppointmentID: "0c26ffab-4f27-4f53-9a3b-111111111111"}

		m := payload.ToMap()
		assert.Equal(t, payload.AppointmentID, m["appointment_id"])

		parsed, err := FollowUpEmailJobPayloadFromMap(m)
		require.NoError(t, err)
		assert.Equal(t, payload.AppointmentID, parsed.AppointmentID)
	})

	t.Run("missing key yields an empty ID", func(t *testing.T) {
		parsed, err := FollowUpEmailJobPayloadFromMap(map[string]interface{}{})
		require.NoError(t, err)
		assert.Empty(t, parsed.AppointmentID)
	})
}

func TestJobSettings(t *testing.T) {
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, time.Minute, RetryBaseDelay)
	assert.Equal(t, 24*time.Hour, JobTTL)
}
