package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/formgate/formgate/app/models"
	"github.com/formgate/formgate/app/repository"
	"github.com/formgate/formgate/internal/pkg/middleware"
)

// RegisterRequest is the public account registration body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister processes POST /api/register. The API key is returned
// exactly once; only its hash is stored.
func HandleRegister(c *fiber.Ctx) error {
	var body RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(body.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "An account with this email already exists"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Account] email lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	user, err := models.CreateUser(body.Name, body.Email, body.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	apiKey, err := user.GenerateAPIKey()
	if err != nil {
		log.Errorf("[Account] failed to generate api key: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	if err := repo.Create(user); err != nil {
		log.Errorf("[Account] failed to create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    user,
		"api_key": apiKey,
	})
}

// HandleRotateAPIKey processes POST /api/v1/account/api-key. The old key
// stops working immediately.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(middleware.UserID(c))
	if err != nil {
		log.Errorf("[Account] failed to load user %d: %v", middleware.UserID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to rotate API key"})
	}

	apiKey, err := user.GenerateAPIKey()
	if err != nil {
		log.Errorf("[Account] failed to generate api key for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to rotate API key"})
	}

	if err := repo.Update(user); err != nil {
		log.Errorf("[Account] failed to store rotated api key for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to rotate API key"})
	}

	return c.JSON(fiber.Map{"api_key": apiKey})
}
