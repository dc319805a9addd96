package repository

import (
	"time"

	"github.com/formgate/formgate/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// FormRepository defines the interface for form-related database operations
type FormRepository interface {
	Create(form *models.Form) error
	GetByID(id uint) (*models.Form, error)
	GetByEndpointSlug(slug string) (*models.Form, error)
	GetByUserID(userID uint) ([]models.Form, error)
	Update(form *models.Form) error
	Delete(id uint) error
	Count() (int64, error)
}

// SubmissionRepository defines the interface for submission-related database operations
type SubmissionRepository interface {
	Create(submission *models.Submission) error
	GetByID(id uint) (*models.Submission, error)
	GetByFormID(formID uint, offset, limit int) ([]models.Submission, error)
	CountByFormID(formID uint) (int64, error)
	// CountByIPSince counts submissions from the given IP since the cutoff
	// across all forms. The lookup is intentionally not scoped to a single
	// form; see the duplicate-prevention note in DESIGN.md.
	CountByIPSince(ip string, since time.Time) (int64, error)
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
}
