package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
)

// Keys accepted by the settings API. Everything else is rejected so typos in
// clients don't silently create orphan rows.
var settableKeys = map[string]bool{
	models.SettingPostbackTemplate: true,
	models.SettingSiteName:         true,
	models.SettingTimezone:         true,
	models.SettingProxyMode:        true,
}

// HandleSettingsGet → GET /api/settings
func HandleSettingsGet(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	settings, err := models.AllSettings(ctx, database.DB)
	if err != nil {
		logging.L().Error("failed to load settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(settings)
}

// HandleSettingsUpdate → PUT /api/settings
func HandleSettingsUpdate(c fiber.Ctx) error {
	var req map[string]string
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if len(req) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no settings provided"})
	}

	for key := range req {
		if !settableKeys[key] {
			return c.Status(400).JSON(fiber.Map{"error": "unknown setting: " + key})
		}
	}
	if mode, ok := req[models.SettingProxyMode]; ok {
		switch mode {
		case "none", "xforwarded", "cloudflare":
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid proxy_mode"})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	for key, value := range req {
		if err := models.UpsertSetting(ctx, database.DB, key, strings.TrimSpace(value)); err != nil {
			logging.L().Error("failed to save setting", zap.String("key", key), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "failed to save settings"})
		}
	}

	return c.JSON(fiber.Map{"saved": len(req)})
}
