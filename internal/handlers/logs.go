package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/geoip"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
)

// HandlePostbackLogs returns recent attempts plus a trailing success-rate
// summary. GET /api/logs/postbacks?days=7&limit=20
func HandlePostbackLogs(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	logs, err := models.RecentPostbackLogs(ctx, database.DB, fiber.Query[int](c, "limit", 20))
	if err != nil {
		logging.L().Error("failed to list postback logs", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if logs == nil {
		logs = []models.PostbackLog{}
	}

	days := fiber.Query[int](c, "days", 7)
	total, successful, rate, err := models.PostbackSuccessRate(ctx, database.DB, days)
	if err != nil {
		logging.L().Error("failed to compute success rate", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	return c.JSON(fiber.Map{
		"logs": logs,
		"summary": fiber.Map{
			"days":         days,
			"total":        total,
			"successful":   successful,
			"success_rate": rate,
		},
	})
}

// HandleRecentClicks returns the latest recorded clicks, optionally scoped to
// one offer. GET /api/logs/clicks?offer=1&limit=10
func HandleRecentClicks(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var offerID *int64
	if raw := fiber.Query[int64](c, "offer", 0); raw > 0 {
		offerID = &raw
	}

	clicks, err := models.RecentClicks(ctx, database.DB, fiber.Query[int](c, "limit", 10), offerID)
	if err != nil {
		logging.L().Error("failed to list clicks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	out := make([]clickView, 0, len(clicks))
	for _, click := range clicks {
		out = append(out, clickView{
			Click:       click,
			CountryName: geoip.CountryName(click.Meta.Country),
		})
	}
	return c.JSON(out)
}

type clickView struct {
	models.Click
	CountryName string `json:"country_name,omitempty"`
}
