package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
	"github.com/formgate/formgate/app/repository"
	"github.com/formgate/formgate/internal/pkg/middleware"
)

// FormRequest is the create/update body for a form.
type FormRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	IsActive    *bool               `json:"is_active"`
	Settings    models.FormSettings `json:"settings"`
}

// HandleCreateForm processes POST /api/v1/forms.
func HandleCreateForm(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var body FormRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	form := &models.Form{
		UserID:      userID,
		Name:        body.Name,
		Description: body.Description,
		IsActive:    true,
		Settings:    body.Settings,
	}
	if body.IsActive != nil {
		form.IsActive = *body.IsActive
	}
	form.GenerateEndpointSlug()

	if err := form.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetFormRepository().Create(form); err != nil {
		log.Errorf("[Forms] failed to create form for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create form"})
	}

	return c.Status(fiber.StatusCreated).JSON(form)
}

// HandleListForms processes GET /api/v1/forms.
func HandleListForms(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	forms, err := repository.GetGlobalFactory().GetFormRepository().GetByUserID(userID)
	if err != nil {
		log.Errorf("[Forms] failed to list forms for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list forms"})
	}

	return c.JSON(fiber.Map{"forms": forms, "total": len(forms)})
}

// HandleGetForm processes GET /api/v1/forms/:id.
func HandleGetForm(c *fiber.Ctx) error {
	form, err := ownedForm(c)
	if form == nil {
		return err
	}
	return c.JSON(form)
}

// HandleUpdateForm processes PUT /api/v1/forms/:id.
func HandleUpdateForm(c *fiber.Ctx) error {
	form, err := ownedForm(c)
	if form == nil {
		return err
	}

	var body FormRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	if body.Name != "" {
		form.Name = body.Name
	}
	form.Description = body.Description
	form.Settings = body.Settings
	if body.IsActive != nil {
		form.IsActive = *body.IsActive
	}

	if err := form.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetFormRepository().Update(form); err != nil {
		log.Errorf("[Forms] failed to update form %d: %v", form.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update form"})
	}

	return c.JSON(form)
}

// HandleDeleteForm processes DELETE /api/v1/forms/:id.
func HandleDeleteForm(c *fiber.Ctx) error {
	form, err := ownedForm(c)
	if form == nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetFormRepository().Delete(form.ID); err != nil {
		log.Errorf("[Forms] failed to delete form %d: %v", form.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete form"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ownedForm resolves the :id param to a form owned by the authenticated user.
// On failure it writes the error response itself and returns a nil form, so
// handlers bail by returning the write result.
func ownedForm(c *fiber.Ctx) (*models.Form, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid form id"})
	}

	form, err := repository.GetGlobalFactory().GetFormRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Form not found"})
		}
		log.Errorf("[Forms] failed to load form %d: %v", id, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load form"})
	}

	if form.UserID != middleware.UserID(c) {
		// Do not leak existence of other users' forms.
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Form not found"})
	}

	return form, nil
}
