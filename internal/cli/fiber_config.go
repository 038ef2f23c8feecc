package cli

import (
	"github.com/gofiber/fiber/v3"

	"github.com/trackforge/s2s/views"
)

// createFiberConfig returns Fiber configuration.
func createFiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName: appName,
		Views:   views.Engine(),
	}
}
