package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/extractors"
	"github.com/gofiber/fiber/v3/middleware/csrf"
)

// CSRFConfig carries the deployment-dependent CSRF knobs.
type CSRFConfig struct {
	SecureCookies  bool
	TrustedOrigins []string
}

// CSRF protects the browser-facing form routes. API and tracking routes are
// not behind it: tracking links arrive as bare cross-site GETs and the JSON
// API is driven by same-page fetches carrying the header token.
func CSRF(cfg CSRFConfig) fiber.Handler {
	sameSite := "Lax"
	if cfg.SecureCookies {
		sameSite = "None"
	}

	return csrf.New(csrf.Config{
		CookieName:     "s2s_csrf",
		CookieSecure:   cfg.SecureCookies,
		CookieHTTPOnly: true,
		CookieSameSite: sameSite,
		CookiePath:     "/",
		IdleTimeout:    30 * time.Minute,
		TrustedOrigins: cfg.TrustedOrigins,
		Extractor:      extractors.FromForm("_csrf"),
		ErrorHandler: func(c fiber.Ctx, err error) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid or missing CSRF token",
			})
		},
	})
}

// CSRFToken returns the token to embed in a rendered form.
func CSRFToken(c fiber.Ctx) string {
	return csrf.TokenFromContext(c)
}
