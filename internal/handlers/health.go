package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/trackforge/s2s/internal/database"
)

// HandleHealthz → GET /healthz
func HandleHealthz(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := database.DB.PingContext(ctx); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "degraded", "database": "unreachable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
