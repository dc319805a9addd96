package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *Form {
	return &Form{
		Name: "Contact",
		Settings: FormSettings{
			Fields: []FormField{
				{ID: "email", Type: FIELD_EMAIL, Label: "Email", Required: true},
				{ID: "message", Type: FIELD_TEXTAREA, Label: "Message"},
			},
		},
	}
}

func TestFormValidate(t *testing.T) {
	assert.NoError(t, validForm().Validate())
}

func TestFormValidate_RejectsDuplicateFieldIDs(t *testing.T) {
	form := validForm()
	form.Settings.Fields = append(form.Settings.Fields, FormField{ID: "email", Type: FIELD_TEXT})

	err := form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestFormValidate_RejectsUnknownFieldType(t *testing.T) {
	form := validForm()
	form.Settings.Fields[0].Type = "date"

	err := form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestFormValidate_RejectsEmptyFieldID(t *testing.T) {
	form := validForm()
	form.Settings.Fields[0].ID = "  "

	assert.Error(t, form.Validate())
}

func TestFormValidate_RequiresName(t *testing.T) {
	form := validForm()
	form.Name = ""

	assert.Error(t, form.Validate())
}

func TestFormSettingsRoundTrip(t *testing.T) {
	settings := FormSettings{
		Fields: []FormField{
			{ID: "email", Type: FIELD_EMAIL, Label: "Email", Required: true},
			{ID: "topic", Type: FIELD_SELECT, Options: []string{"sales", "support"}},
		},
		AllowMultipleSubmissions: true,
		NotificationEmail:        "owner@example.com",
		WebhookURL:               "https://hooks.example.com/x",
		SpamProtection: SpamProtectionSettings{
			Enabled:       true,
			HoneypotField: "url",
			RateLimit:     RateLimitSettings{PerIP: 5, PerForm: 20, WindowMinutes: 30},
		},
	}

	value, err := settings.Value()
	require.NoError(t, err)

	var decoded FormSettings
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, settings, decoded)
}

func TestFormSettingsScan_Nil(t *testing.T) {
	var settings FormSettings
	require.NoError(t, settings.Scan(nil))
	assert.Empty(t, settings.Fields)
}

func TestHoneypotFieldName(t *testing.T) {
	assert.Equal(t, "website", SpamProtectionSettings{}.HoneypotFieldName())
	assert.Equal(t, "url", SpamProtectionSettings{HoneypotField: "url"}.HoneypotFieldName())
	assert.Equal(t, "website", SpamProtectionSettings{HoneypotField: "  "}.HoneypotFieldName())
}

func TestGenerateEndpointSlug(t *testing.T) {
	form := validForm()
	form.GenerateEndpointSlug()

	assert.Len(t, form.EndpointSlug, 32)
	assert.NotContains(t, form.EndpointSlug, "-")

	other := validForm()
	other.GenerateEndpointSlug()
	assert.NotEqual(t, form.EndpointSlug, other.EndpointSlug)
}

func TestFieldByID(t *testing.T) {
	form := validForm()

	field := form.FieldByID("message")
	require.NotNil(t, field)
	assert.Equal(t, FIELD_TEXTAREA, field.Type)

	assert.Nil(t, form.FieldByID("missing"))
}
