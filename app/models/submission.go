package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	SUBMISSION_STATUS_NEW       = "new"
	SUBMISSION_STATUS_READ      = "read"
	SUBMISSION_STATUS_RESPONDED = "responded"
	SUBMISSION_STATUS_SPAM      = "spam"
)

// SubmissionPayload is the free-form field-id -> value map stored as JSON.
type SubmissionPayload map[string]interface{}

// Value implements the driver.Valuer interface
func (p SubmissionPayload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (p *SubmissionPayload) Scan(value interface{}) error {
	if value == nil {
		*p = SubmissionPayload{}
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
	return json.Unmarshal(bytes, p)
}

type Submission struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	FormID    uint              `gorm:"index;not null" json:"form_id"`
	Form      *Form             `gorm:"foreignKey:FormID" json:"-"`
	Name      string            `gorm:"type:varchar(200)" json:"name,omitempty"`
	Email     string            `gorm:"type:varchar(200)" json:"email,omitempty"`
	Payload   SubmissionPayload `gorm:"type:json" json:"payload"`
	Status    string            `gorm:"type:varchar(20);default:'new';index" json:"status"`
	IP        string            `gorm:"type:varchar(45);index" json:"-"`
	UserAgent string            `gorm:"type:varchar(250)" json:"-"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

// IsValidSubmissionStatus reports whether s is one of the allowed states.
func IsValidSubmissionStatus(s string) bool {
	switch s {
	case SUBMISSION_STATUS_NEW, SUBMISSION_STATUS_READ, SUBMISSION_STATUS_RESPONDED, SUBMISSION_STATUS_SPAM:
		return true
	}
	return false
}
