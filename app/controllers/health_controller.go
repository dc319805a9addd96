package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/internal/pkg/cache"
	"github.com/formgate/formgate/internal/pkg/database"
	"github.com/formgate/formgate/internal/pkg/jobqueue"
)

// HandleHealthz processes GET /api/healthz. It reports per-dependency state
// and returns 503 when any backing service is unreachable.
func HandleHealthz(c *fiber.Ctx) error {
	healthy := true

	dbStatus := "ok"
	if db := database.GetDB(); db == nil {
		dbStatus = "unavailable"
		healthy = false
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
		healthy = false
	}

	cacheStatus := "ok"
	if err := cache.Ping(); err != nil {
		cacheStatus = "unavailable"
		healthy = false
	}

	queueStatus := "running"
	if !jobqueue.GetManager().IsRunning() {
		queueStatus = "stopped"
		healthy = false
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"healthy":   healthy,
		"database":  dbStatus,
		"cache":     cacheStatus,
		"job_queue": queueStatus,
	})
}
