package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
	"github.com/formgate/formgate/internal/pkg/captcha"
	"github.com/formgate/formgate/internal/pkg/jobqueue"
	"github.com/formgate/formgate/internal/pkg/ratelimit"
	"github.com/formgate/formgate/internal/pkg/spam"
)

type mockFormRepo struct {
	forms map[string]*models.Form
	err   error
}

func (m *mockFormRepo) Create(form *models.Form) error { return nil }

func (m *mockFormRepo) GetByID(id uint) (*models.Form, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormRepo) GetByUserID(uint) ([]models.Form, error) { return nil, nil }
func (m *mockFormRepo) Update(form *models.Form) error          { return nil }
func (m *mockFormRepo) Delete(id uint) error                    { return nil }
func (m *mockFormRepo) Count() (int64, error)                   { return 0, nil }

func (m *mockFormRepo) GetByEndpointSlug(slug string) (*models.Form, error) {
	if m.err != nil {
		return nil, m.err
	}
	form, ok := m.forms[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return form, nil
}

type mockSubmissionRepo struct {
	created   []*models.Submission
	ipCount   int64
	createErr error
	countErr  error
}

func (m *mockSubmissionRepo) Create(sub *models.Submission) error {
	if m.createErr != nil {
		return m.createErr
	}
	sub.ID = uint(len(m.created) + 1)
	sub.CreatedAt = time.Now()
	m.created = append(m.created, sub)
	return nil
}

func (m *mockSubmissionRepo) GetByID(id uint) (*models.Submission, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockSubmissionRepo) GetByFormID(uint, int, int) ([]models.Submission, error) {
	return nil, nil
}
func (m *mockSubmissionRepo) CountByFormID(uint) (int64, error) { return 0, nil }
func (m *mockSubmissionRepo) CountByIPSince(ip string, since time.Time) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.ipCount, nil
}
func (m *mockSubmissionRepo) UpdateStatus(uint, string) error { return nil }
func (m *mockSubmissionRepo) Delete(uint) error               { return nil }

type mockEnqueuer struct {
	jobs []jobqueue.JobType
	err  error
}

func (m *mockEnqueuer) EnqueueJob(jobType jobqueue.JobType, payload map[string]interface{}) (*jobqueue.Job, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.jobs = append(m.jobs, jobType)
	return &jobqueue.Job{ID: "test", Type: jobType, Payload: payload}, nil
}

func contactForm() *models.Form {
	return &models.Form{
		ID:           3,
		UserID:       1,
		Name:         "Contact Us",
		EndpointSlug: "contact",
		IsActive:     true,
		Settings: models.FormSettings{
			Fields: []models.FormField{
				{ID: "email", Type: models.FIELD_EMAIL, Label: "Email", Required: true},
				{ID: "message", Type: models.FIELD_TEXTAREA, Label: "Message", Required: true},
			},
			AllowMultipleSubmissions: true,
		},
	}
}

func newTestService(form *models.Form) (*Service, *mockSubmissionRepo, *mockEnqueuer) {
	forms := &mockFormRepo{forms: map[string]*models.Form{}}
	if form != nil {
		forms.forms[form.EndpointSlug] = form
	}
	subs := &mockSubmissionRepo{}
	jobs := &mockEnqueuer{}
	evaluator := spam.NewEvaluator(
		ratelimit.NewLimiter(ratelimit.NewMemoryCounterStore()),
		captcha.NewVerifierWithURL("http://127.0.0.1:0/unused"),
	)
	return NewService(forms, subs, evaluator, jobs), subs, jobs
}

func validRequest() Request {
	return Request{
		FormData: map[string]interface{}{
			"email":   "alice@example.com",
			"message": "hello",
		},
		Name:      "Alice",
		Email:     "alice@example.com",
		IP:        "203.0.113.7",
		UserAgent: "test-agent",
	}
}

func TestSubmit_Success(t *testing.T) {
	svc, subs, _ := newTestService(contactForm())

	res, err := svc.Submit(context.Background(), "contact", validRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Submission)

	assert.Equal(t, uint(3), res.Submission.FormID)
	assert.Equal(t, models.SUBMISSION_STATUS_NEW, res.Submission.Status)
	assert.Equal(t, "203.0.113.7", res.Submission.IP)
	assert.Equal(t, "hello", res.Submission.Payload["message"])
	require.Len(t, subs.created, 1)
}

func TestSubmit_UnknownSlug(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.Submit(context.Background(), "nope", validRequest())
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Slug)
}

func TestSubmit_InactiveForm(t *testing.T) {
	form := contactForm()
	form.IsActive = false
	svc, subs, _ := newTestService(form)

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	var inactive *InactiveError
	require.ErrorAs(t, err, &inactive)
	assert.Empty(t, subs.created)
}

func TestSubmit_MissingRequiredFieldNamesLabel(t *testing.T) {
	svc, _, _ := newTestService(contactForm())

	req := validRequest()
	req.FormData = map[string]interface{}{}

	_, err := svc.Submit(context.Background(), "contact", req)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Email", validation.Field)
}

func TestSubmit_InvalidEmailRejected(t *testing.T) {
	svc, _, _ := newTestService(contactForm())

	req := validRequest()
	req.FormData["email"] = "not-an-email"

	_, err := svc.Submit(context.Background(), "contact", req)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Email", validation.Field)
}

func TestSubmit_HoneypotBlocked(t *testing.T) {
	form := contactForm()
	form.Settings.SpamProtection = models.SpamProtectionSettings{Enabled: true}
	svc, subs, jobs := newTestService(form)

	req := validRequest()
	req.Honeypot = "http://spam.example.com"

	_, err := svc.Submit(context.Background(), "contact", req)
	var spamErr *SpamError
	require.ErrorAs(t, err, &spamErr)
	assert.Equal(t, spam.KindHoneypot, spamErr.Kind)
	assert.Empty(t, subs.created)
	assert.Empty(t, jobs.jobs)
}

func TestSubmit_HoneypotInExtraBodyKeys(t *testing.T) {
	form := contactForm()
	form.Settings.SpamProtection = models.SpamProtectionSettings{Enabled: true}
	svc, _, _ := newTestService(form)

	req := validRequest()
	req.Extra = map[string]interface{}{"website": "http://spam.example.com"}

	_, err := svc.Submit(context.Background(), "contact", req)
	var spamErr *SpamError
	require.ErrorAs(t, err, &spamErr)
	assert.Equal(t, spam.KindHoneypot, spamErr.Kind)
}

func TestSubmit_HoneypotInFormData(t *testing.T) {
	form := contactForm()
	form.Settings.SpamProtection = models.SpamProtectionSettings{Enabled: true}
	svc, _, _ := newTestService(form)

	req := validRequest()
	req.FormData["website"] = "filled by a bot"

	_, err := svc.Submit(context.Background(), "contact", req)
	var spamErr *SpamError
	require.ErrorAs(t, err, &spamErr)
	assert.Equal(t, spam.KindHoneypot, spamErr.Kind)
}

func TestSubmit_RateLimitBlocked(t *testing.T) {
	form := contactForm()
	form.Settings.SpamProtection = models.SpamProtectionSettings{
		Enabled:   true,
		RateLimit: models.RateLimitSettings{PerIP: 2, PerForm: 50, WindowMinutes: 60},
	}
	svc, subs, _ := newTestService(form)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), "contact", validRequest())
		require.NoError(t, err)
	}

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	var spamErr *SpamError
	require.ErrorAs(t, err, &spamErr)
	assert.Equal(t, spam.KindRateLimit, spamErr.Kind)
	require.NotNil(t, spamErr.RateLimit)
	assert.False(t, spamErr.RateLimit.Allowed)
	assert.Positive(t, spamErr.RateLimit.RetryAfter)
	assert.Len(t, subs.created, 2)
}

func TestSubmit_DuplicateBlocked(t *testing.T) {
	form := contactForm()
	form.Settings.AllowMultipleSubmissions = false
	svc, subs, _ := newTestService(form)
	subs.ipCount = 1

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Empty(t, subs.created)
}

func TestSubmit_DuplicateAllowedWhenMultipleEnabled(t *testing.T) {
	form := contactForm()
	form.Settings.AllowMultipleSubmissions = true
	svc, subs, _ := newTestService(form)
	subs.ipCount = 5

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	require.NoError(t, err)
	assert.Len(t, subs.created, 1)
}

func TestSubmit_SideEffectsScheduled(t *testing.T) {
	form := contactForm()
	form.Settings.RequireEmailNotification = true
	form.Settings.NotificationEmail = "owner@example.com"
	form.Settings.WebhookURL = "https://hooks.example.com/submit"
	form.Settings.WebhookSecret = "hook-secret"
	svc, _, jobs := newTestService(form)

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	require.NoError(t, err)

	// Owner notification, auto-reply (submitter gave an email), webhook.
	assert.Equal(t, []jobqueue.JobType{
		jobqueue.JobTypeNotificationEmail,
		jobqueue.JobTypeAutoReplyEmail,
		jobqueue.JobTypeWebhookDispatch,
	}, jobs.jobs)
}

func TestSubmit_NoAutoReplyWithoutSubmitterEmail(t *testing.T) {
	form := contactForm()
	form.Settings.Fields = []models.FormField{
		{ID: "message", Type: models.FIELD_TEXTAREA, Label: "Message", Required: true},
	}
	form.Settings.WebhookURL = "https://hooks.example.com/submit"
	svc, _, jobs := newTestService(form)

	req := Request{
		FormData: map[string]interface{}{"message": "hello"},
		IP:       "203.0.113.7",
	}
	_, err := svc.Submit(context.Background(), "contact", req)
	require.NoError(t, err)

	assert.Equal(t, []jobqueue.JobType{jobqueue.JobTypeWebhookDispatch}, jobs.jobs)
}

func TestSubmit_EnqueueFailureDoesNotFailSubmission(t *testing.T) {
	form := contactForm()
	form.Settings.WebhookURL = "https://hooks.example.com/submit"
	svc, subs, jobs := newTestService(form)
	jobs.err = errors.New("redis down")

	res, err := svc.Submit(context.Background(), "contact", validRequest())
	require.NoError(t, err)
	assert.NotNil(t, res.Submission)
	assert.Len(t, subs.created, 1)
}

func TestSubmit_PersistenceFailureSurfaces(t *testing.T) {
	svc, subs, jobs := newTestService(contactForm())
	subs.createErr = errors.New("db gone")

	_, err := svc.Submit(context.Background(), "contact", validRequest())
	require.Error(t, err)
	assert.Empty(t, jobs.jobs)
}

func TestFormSnapshot(t *testing.T) {
	form := contactForm()
	snap := formSnapshot(form)

	assert.Equal(t, uint(3), snap.ID)
	assert.Equal(t, "Contact Us", snap.Name)
	assert.Equal(t, "contact", snap.EndpointSlug)
	assert.Equal(t, []string{"email", "message"}, snap.FieldOrder)
	assert.Equal(t, "Message", snap.FieldLabels["message"])
}
