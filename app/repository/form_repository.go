package repository

import (
	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
)

// formRepository implements the FormRepository interface
type formRepository struct {
	db *gorm.DB
}

// NewFormRepository creates a new form repository instance
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

// Create creates a new form in the database
func (r *formRepository) Create(form *models.Form) error {
	return r.db.Create(form).Error
}

// GetByID retrieves a form by its ID
func (r *formRepository) GetByID(id uint) (*models.Form, error) {
	var form models.Form
	err := r.db.First(&form, id).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// GetByEndpointSlug retrieves a form by its public endpoint slug
func (r *formRepository) GetByEndpointSlug(slug string) (*models.Form, error) {
	var form models.Form
	err := r.db.Where("endpoint_slug = ?", slug).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// GetByUserID retrieves all forms owned by a user
func (r *formRepository) GetByUserID(userID uint) ([]models.Form, error) {
	var forms []models.Form
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&forms).Error
	return forms, err
}

// Update updates an existing form in the database
func (r *formRepository) Update(form *models.Form) error {
	return r.db.Save(form).Error
}

// Delete soft deletes a form by its ID
func (r *formRepository) Delete(id uint) error {
	return r.db.Delete(&models.Form{}, id).Error
}

// Count returns the total number of forms
func (r *formRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Form{}).Count(&count).Error
	return count, err
}
