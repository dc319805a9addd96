package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
)

// submissionRepository implements the SubmissionRepository interface
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository instance
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create creates a new submission in the database
func (r *submissionRepository) Create(submission *models.Submission) error {
	return r.db.Create(submission).Error
}

// GetByID retrieves a submission by its ID
func (r *submissionRepository) GetByID(id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// GetByFormID retrieves a paginated list of submissions for a form
func (r *submissionRepository) GetByFormID(formID uint, offset, limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Where("form_id = ?", formID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

// CountByFormID returns the number of submissions for a form
func (r *submissionRepository) CountByFormID(formID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).Where("form_id = ?", formID).Count(&count).Error
	return count, err
}

// CountByIPSince counts submissions from an IP since the cutoff, across all
// forms (the duplicate-prevention window is global per IP).
func (r *submissionRepository) CountByIPSince(ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).
		Where("ip = ? AND created_at >= ?", ip, since).
		Count(&count).Error
	return count, err
}

// UpdateStatus updates only the status column of a submission
func (r *submissionRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Submission{}).Where("id = ?", id).Update("status", status).Error
}

// Delete soft deletes a submission by its ID
func (r *submissionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Submission{}, id).Error
}
