package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Field types accepted in a form schema.
const (
	FIELD_TEXT     = "text"
	FIELD_TEXTAREA = "textarea"
	FIELD_EMAIL    = "email"
	FIELD_NUMBER   = "number"
	FIELD_SELECT   = "select"
	FIELD_CHECKBOX = "checkbox"
)

// DefaultHoneypotField is used when spam protection enables the honeypot
// without naming a field.
const DefaultHoneypotField = "website"

// FormField describes one input in a form's declared schema.
type FormField struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Label      string   `json:"label"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	Validation string   `json:"validation,omitempty"`
}

// RateLimitSettings holds per-form sliding-window budgets. Zero values fall
// back to process-wide defaults.
type RateLimitSettings struct {
	PerIP         int `json:"per_ip"`
	PerForm       int `json:"per_form"`
	WindowMinutes int `json:"window_minutes"`
}

// SpamProtectionSettings configures the layered spam checks for one form.
type SpamProtectionSettings struct {
	Enabled         bool              `json:"enabled"`
	HoneypotField   string            `json:"honeypot_field,omitempty"`
	EnableRecaptcha bool              `json:"enable_recaptcha"`
	RateLimit       RateLimitSettings `json:"rate_limit"`
}

// FormSettings is the per-form configuration document stored as a JSON column.
type FormSettings struct {
	Fields                   []FormField            `json:"fields"`
	AllowMultipleSubmissions bool                   `json:"allow_multiple_submissions"`
	RequireEmailNotification bool                   `json:"require_email_notification"`
	NotificationEmail        string                 `json:"notification_email,omitempty"`
	WebhookURL               string                 `json:"webhook_url,omitempty"`
	WebhookSecret            string                 `json:"webhook_secret,omitempty"`
	SpamProtection           SpamProtectionSettings `json:"spam_protection"`
}

// Value implements the driver.Valuer interface
func (s FormSettings) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (s *FormSettings) Scan(value interface{}) error {
	if value == nil {
		*s = FormSettings{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	return json.Unmarshal(bytes, s)
}

type Form struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index" json:"user_id"`
	Name         string         `gorm:"type:varchar(200)" json:"name" validate:"required,min=1,max=200"`
	Description  string         `gorm:"type:text" json:"description" validate:"max=2000"`
	EndpointSlug string         `gorm:"uniqueIndex;type:varchar(64)" json:"endpoint_slug"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	Settings     FormSettings   `gorm:"type:json" json:"settings"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Validate checks struct tags plus schema-level invariants (unique field IDs,
// known field types).
func (f *Form) Validate() error {
	v := validator.New()
	if err := v.Struct(f); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(f.Settings.Fields))
	for _, field := range f.Settings.Fields {
		if strings.TrimSpace(field.ID) == "" {
			return errors.New("form field is missing an id")
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("duplicate form field id %q", field.ID)
		}
		seen[field.ID] = struct{}{}

		switch field.Type {
		case FIELD_TEXT, FIELD_TEXTAREA, FIELD_EMAIL, FIELD_NUMBER, FIELD_SELECT, FIELD_CHECKBOX:
		default:
			return fmt.Errorf("form field %q has unknown type %q", field.ID, field.Type)
		}
	}
	return nil
}

// FieldByID returns the schema field with the given id, or nil.
func (f *Form) FieldByID(id string) *FormField {
	for i := range f.Settings.Fields {
		if f.Settings.Fields[i].ID == id {
			return &f.Settings.Fields[i]
		}
	}
	return nil
}

// HoneypotFieldName returns the configured honeypot field name, falling back
// to the conventional default.
func (s SpamProtectionSettings) HoneypotFieldName() string {
	if strings.TrimSpace(s.HoneypotField) != "" {
		return s.HoneypotField
	}
	return DefaultHoneypotField
}

// GenerateEndpointSlug assigns a fresh public slug. Uniqueness is enforced by
// the database index; collisions on 32 hex chars are not a practical concern.
func (f *Form) GenerateEndpointSlug() {
	f.EndpointSlug = strings.ReplaceAll(uuid.New().String(), "-", "")
}
