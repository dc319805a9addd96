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

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// HandleListSubmissions processes GET /api/v1/forms/:id/submissions.
func HandleListSubmissions(c *fiber.Ctx) error {
	form, err := ownedForm(c)
	if form == nil {
		return err
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	repo := repository.GetGlobalFactory().GetSubmissionRepository()
	submissions, err := repo.GetByFormID(form.ID, offset, limit)
	if err != nil {
		log.Errorf("[Submissions] failed to list submissions for form %d: %v", form.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list submissions"})
	}

	total, err := repo.CountByFormID(form.ID)
	if err != nil {
		log.Errorf("[Submissions] failed to count submissions for form %d: %v", form.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list submissions"})
	}

	return c.JSON(fiber.Map{
		"submissions": submissions,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// HandleUpdateSubmissionStatus processes PATCH /api/v1/submissions/:id/status.
func HandleUpdateSubmissionStatus(c *fiber.Ctx) error {
	sub, err := ownedSubmission(c)
	if sub == nil {
		return err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if !models.IsValidSubmissionStatus(body.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown submission status"})
	}

	if err := repository.GetGlobalFactory().GetSubmissionRepository().UpdateStatus(sub.ID, body.Status); err != nil {
		log.Errorf("[Submissions] failed to update status of submission %d: %v", sub.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update submission"})
	}

	sub.Status = body.Status
	return c.JSON(sub)
}

// HandleDeleteSubmission processes DELETE /api/v1/submissions/:id.
func HandleDeleteSubmission(c *fiber.Ctx) error {
	sub, err := ownedSubmission(c)
	if sub == nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetSubmissionRepository().Delete(sub.ID); err != nil {
		log.Errorf("[Submissions] failed to delete submission %d: %v", sub.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete submission"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ownedSubmission resolves the :id param to a submission whose form belongs
// to the authenticated user. On failure it writes the error response itself
// and returns a nil submission.
func ownedSubmission(c *fiber.Ctx) (*models.Submission, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid submission id"})
	}

	factory := repository.GetGlobalFactory()
	sub, err := factory.GetSubmissionRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Submission not found"})
		}
		log.Errorf("[Submissions] failed to load submission %d: %v", id, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load submission"})
	}

	form, err := factory.GetFormRepository().GetByID(sub.FormID)
	if err != nil {
		log.Errorf("[Submissions] failed to load form %d for submission %d: %v", sub.FormID, id, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load submission"})
	}
	if form.UserID != middleware.UserID(c) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Submission not found"})
	}

	return sub, nil
}
