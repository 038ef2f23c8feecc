// Package handlers holds the fiber route handlers: tracking-link redirects,
// the lead form, the manual postback tester, and the JSON management API.
package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/models"
	"github.com/trackforge/s2s/internal/postback"
)

const dbTimeout = 10 * time.Second

var (
	firerOnce sync.Once
	firer     *postback.Firer
)

// firePostback runs one postback firing; swappable in tests.
var firePostback = func(ctx context.Context, input postback.FireInput) postback.Result {
	firerOnce.Do(func() {
		firer = postback.NewStoreFirer(database.DB)
	})
	return firer.Fire(ctx, input)
}

// getClientIP extracts the client IP honoring the configured proxy mode:
// "none" (direct connection), "xforwarded" (first X-Forwarded-For entry), or
// "cloudflare" (CF-Connecting-IP).
func getClientIP(c fiber.Ctx, proxyMode string) string {
	switch proxyMode {
	case "cloudflare":
		if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
			return cfIP
		}
	case "xforwarded":
		if xff := c.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}
	return c.IP()
}

// proxyMode reads the configured proxy mode, defaulting to direct connections.
func proxyMode(ctx context.Context) string {
	mode, err := models.GetSetting(ctx, database.DB, models.SettingProxyMode)
	if err != nil || mode == "" {
		return "none"
	}
	return mode
}
