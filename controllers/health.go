package controllers

import (
	"context"
	"time"

	"academica_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// Health reports liveness plus the state of the storage dependencies
func (hc *HealthController) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	redisStatus := "disabled"
	if rc := database.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		} else {
			redisStatus = "ok"
		}
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"database": dbStatus,
		"redis":    redisStatus,
		"time":     time.Now().UTC(),
	})
}
