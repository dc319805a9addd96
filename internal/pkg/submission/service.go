package submission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
	"github.com/formgate/formgate/app/repository"
	"github.com/formgate/formgate/internal/pkg/env"
	"github.com/formgate/formgate/internal/pkg/jobqueue"
	"github.com/formgate/formgate/internal/pkg/ratelimit"
	"github.com/formgate/formgate/internal/pkg/spam"
)

// duplicateWindow is the trailing window for the multiple-submission policy.
const duplicateWindow = 60 * time.Minute

// JobEnqueuer is the slice of the job queue the intake path needs.
type JobEnqueuer interface {
	EnqueueJob(jobType jobqueue.JobType, payload map[string]interface{}) (*jobqueue.Job, error)
}

// Request is one public submission attempt. Extra carries top-level body keys
// outside the documented schema; bots often echo the honeypot field there, so
// they feed the spam evaluation but are never persisted.
type Request struct {
	FormData  map[string]interface{}
	Extra     map[string]interface{}
	Name      string
	Email     string
	Honeypot  string
	IP        string
	UserAgent string
}

// Result is a persisted submission plus the rate-limit decision backing the
// response headers.
type Result struct {
	Submission *models.Submission
	RateLimit  *ratelimit.Decision
}

// Service runs the submission intake pipeline: resolve form, validate
// payload, spam checks, duplicate policy, persist, schedule side effects.
type Service struct {
	forms       repository.FormRepository
	submissions repository.SubmissionRepository
	evaluator   *spam.Evaluator
	jobs        JobEnqueuer
	now         func() time.Time
}

// NewService creates an intake service.
func NewService(forms repository.FormRepository, submissions repository.SubmissionRepository, evaluator *spam.Evaluator, jobs JobEnqueuer) *Service {
	return &Service{
		forms:       forms,
		submissions: submissions,
		evaluator:   evaluator,
		jobs:        jobs,
		now:         time.Now,
	}
}

// Submit processes one submission to the form behind slug. Errors are typed
// (NotFoundError, InactiveError, ValidationError, SpamError, DuplicateError)
// so the controller can map them to stable HTTP statuses.
func (s *Service) Submit(ctx context.Context, slug string, req Request) (*Result, error) {
	form, err := s.forms.GetByEndpointSlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("failed to resolve form %q: %w", slug, err)
	}
	if !form.IsActive {
		return nil, &InactiveError{Slug: slug}
	}

	if err := validateFormData(form, req.FormData); err != nil {
		return nil, err
	}

	var decision *ratelimit.Decision
	if form.Settings.SpamProtection.Enabled {
		cfg := s.spamConfig(form)
		res := s.evaluator.Evaluate(ctx, evaluationPayload(req, cfg.HoneypotField), req.IP, strconv.FormatUint(uint64(form.ID), 10), cfg)
		decision = res.RateLimit
		if !res.Valid {
			return nil, &SpamError{Kind: res.Kind, Reason: res.Reason, RateLimit: res.RateLimit}
		}
	}

	if !form.Settings.AllowMultipleSubmissions {
		// The duplicate lookup is per IP across all forms, not per form.
		// That mirrors the observed upstream behavior; see DESIGN.md.
		count, err := s.submissions.CountByIPSince(req.IP, s.now().Add(-duplicateWindow))
		if err != nil {
			return nil, fmt.Errorf("duplicate check failed: %w", err)
		}
		if count > 0 {
			return nil, &DuplicateError{}
		}
	}

	sub := &models.Submission{
		FormID:    form.ID,
		Name:      req.Name,
		Email:     req.Email,
		Payload:   models.SubmissionPayload(req.FormData),
		Status:    models.SUBMISSION_STATUS_NEW,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.submissions.Create(sub); err != nil {
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	// Side effects are best effort: a notification that cannot be scheduled
	// is logged and swallowed, never rolled back into the submitter's face.
	s.scheduleSideEffects(form, sub)

	return &Result{Submission: sub, RateLimit: decision}, nil
}

// spamConfig assembles the evaluator config from form settings plus the
// process-wide captcha secret.
func (s *Service) spamConfig(form *models.Form) spam.Config {
	settings := form.Settings.SpamProtection
	return spam.Config{
		HoneypotField:    settings.HoneypotFieldName(),
		RateLimitPerIP:   settings.RateLimit.PerIP,
		RateLimitPerForm: settings.RateLimit.PerForm,
		WindowMinutes:    settings.RateLimit.WindowMinutes,
		EnableRecaptcha:  settings.EnableRecaptcha,
		RecaptchaSecret:  env.GetEnv("CAPTCHA_SECRET", ""),
	}
}

// evaluationPayload merges extra body keys and the body-level honeypot value
// into the form data so the evaluator sees all sources under the configured
// field name.
func evaluationPayload(req Request, honeypotField string) map[string]interface{} {
	payload := make(map[string]interface{}, len(req.FormData)+len(req.Extra)+1)
	for k, v := range req.FormData {
		payload[k] = v
	}
	for k, v := range req.Extra {
		payload[k] = v
	}
	if req.Honeypot != "" && honeypotField != "" {
		payload[honeypotField] = req.Honeypot
	}
	return payload
}

func (s *Service) scheduleSideEffects(form *models.Form, sub *models.Submission) {
	snapshot := formSnapshot(form)
	subSnapshot := submissionSnapshot(sub)

	if form.Settings.RequireEmailNotification && form.Settings.NotificationEmail != "" {
		payload := jobqueue.EmailJobPayload{
			Submission: subSnapshot,
			Form:       snapshot,
			Recipient:  form.Settings.NotificationEmail,
		}
		if _, err := s.jobs.EnqueueJob(jobqueue.JobTypeNotificationEmail, payload.ToMap()); err != nil {
			log.Errorf("[Submission] failed to schedule owner notification for submission %d: %v", sub.ID, err)
		}
	}

	if sub.Email != "" {
		payload := jobqueue.EmailJobPayload{
			Submission: subSnapshot,
			Form:       snapshot,
			Recipient:  sub.Email,
		}
		if _, err := s.jobs.EnqueueJob(jobqueue.JobTypeAutoReplyEmail, payload.ToMap()); err != nil {
			log.Errorf("[Submission] failed to schedule auto-reply for submission %d: %v", sub.ID, err)
		}
	}

	if form.Settings.WebhookURL != "" {
		payload := jobqueue.WebhookJobPayload{
			Submission: subSnapshot,
			Form:       snapshot,
			URL:        form.Settings.WebhookURL,
			Secret:     form.Settings.WebhookSecret,
		}
		if _, err := s.jobs.EnqueueJob(jobqueue.JobTypeWebhookDispatch, payload.ToMap()); err != nil {
			log.Errorf("[Submission] failed to schedule webhook for submission %d: %v", sub.ID, err)
		}
	}
}

func formSnapshot(form *models.Form) jobqueue.FormSnapshot {
	labels := make(map[string]string, len(form.Settings.Fields))
	order := make([]string, 0, len(form.Settings.Fields))
	for _, field := range form.Settings.Fields {
		labels[field.ID] = field.Label
		order = append(order, field.ID)
	}
	return jobqueue.FormSnapshot{
		ID:           form.ID,
		Name:         form.Name,
		Description:  form.Description,
		EndpointSlug: form.EndpointSlug,
		FieldLabels:  labels,
		FieldOrder:   order,
	}
}

func submissionSnapshot(sub *models.Submission) jobqueue.SubmissionSnapshot {
	return jobqueue.SubmissionSnapshot{
		ID:        sub.ID,
		Name:      sub.Name,
		Email:     sub.Email,
		Payload:   sub.Payload,
		CreatedAt: sub.CreatedAt,
	}
}
