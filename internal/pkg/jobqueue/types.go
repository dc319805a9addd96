package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeNotificationEmail JobType = "notification_email"
	JobTypeAutoReplyEmail    JobType = "auto_reply_email"
	JobTypeWebhookDispatch   JobType = "webhook_dispatch"
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

// Job represents a background notification job
type Job struct {
	ID           string                 `json:"id"`
	Type         JobType                `json:"type"`
	Status       JobStatus              `json:"status"`
	Payload      map[string]interface{} `json:"payload"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	ScheduledFor time.Time              `json:"scheduled_for"`
	ProcessedAt  *time.Time             `json:"processed_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg     string                 `json:"error_msg,omitempty"`
	RetryCount   int                    `json:"retry_count"`
	MaxRetries   int                    `json:"max_retries"`
}

// FormSnapshot carries the form state a job needs, frozen at enqueue time so
// later form edits do not change in-flight notifications.
type FormSnapshot struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	EndpointSlug string            `json:"endpoint_slug"`
	FieldLabels  map[string]string `json:"field_labels,omitempty"`
	FieldOrder   []string          `json:"field_order,omitempty"`
}

// SubmissionSnapshot carries the submission state a job needs.
type SubmissionSnapshot struct {
	ID        uint                   `json:"id"`
	Name      string                 `json:"name,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// EmailJobPayload is shared by owner-notification and auto-reply jobs.
type EmailJobPayload struct {
	Submission SubmissionSnapshot `json:"submission"`
	Form       FormSnapshot       `json:"form"`
	Recipient  string             `json:"recipient"`
}

// ToMap converts the payload to a map for storage
func (p EmailJobPayload) ToMap() map[string]interface{} {
	return toMap(p)
}

// EmailJobPayloadFromMap creates a payload from a map
func EmailJobPayloadFromMap(data map[string]interface{}) (*EmailJobPayload, error) {
	var payload EmailJobPayload
	if err := fromMap(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// WebhookJobPayload contains the payload for webhook dispatch jobs
type WebhookJobPayload struct {
	Submission SubmissionSnapshot `json:"submission"`
	Form       FormSnapshot       `json:"form"`
	URL        string             `json:"url"`
	Secret     string             `json:"secret,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p WebhookJobPayload) ToMap() map[string]interface{} {
	return toMap(p)
}

// WebhookJobPayloadFromMap creates a payload from a map
func WebhookJobPayloadFromMap(data map[string]interface{}) (*WebhookJobPayload, error) {
	var payload WebhookJobPayload
	if err := fromMap(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func toMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

func fromMap(data map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, out)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// IsEligible reports whether the job may run now.
func (j *Job) IsEligible(now time.Time) bool {
	return !j.ScheduledFor.After(now) && j.RetryCount < j.MaxRetries
}

// BackoffDelay returns how long to wait before the next attempt: 2^attempts
// seconds after each failed attempt.
func (j *Job) BackoffDelay() time.Duration {
	return time.Duration(1<<uint(j.RetryCount)) * time.Second
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying and sets the next
// eligible execution time.
func (j *Job) MarkAsRetrying() {
	now := time.Now()
	j.Status = JobStatusRetrying
	j.UpdatedAt = now
	j.ScheduledFor = now.Add(j.BackoffDelay())
}
