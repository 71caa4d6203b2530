package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeFollowUpEmail JobType = "followup_email"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID             string                 `json:"id"`
	Type           JobType                `json:"type"`
	Status         JobStatus              `json:"status"`
	Payload        map[string]interface{} `json:"payload"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	RunAt          time.Time              `json:"run_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	ProcessedAt    *time.Time             `json:"processed_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg       string                 `json:"error_msg,omitempty"`
	RetryCount     int                    `json:"retry_count"`
	MaxRetries     int                    `json:"max_retries"`
}

func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.ProcessedAt = &now
	j.UpdatedAt = now
}

func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

func (j *Job) MarkAsFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMsg = errMsg
	j.UpdatedAt = time.Now()
}

// MarkAsRetrying consumes one retry attempt.
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.RetryCount++
	j.UpdatedAt = time.Now()
}

// IsRetryable reports whether the job has attempts left
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// FollowUpEmailJobPayload contains the payload for healing follow-up email jobs
type FollowUpEmailJobPayload struct {
	AppointmentID string `json:"appointment_id"`
}

// ToMap converts the payload to a map for storage
func (p FollowUpEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"appointment_id": p.AppointmentID,
	}
}

// FromMap creates a payload from a map
func FollowUpEmailJobPayloadFromMap(data map[string]interface{}) (*FollowUpEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload FollowUpEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}
