package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	fiberzap "github.com/gofiber/contrib/v3/zap"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/config"
	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/geoip"
	"github.com/trackforge/s2s/internal/handlers"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/middleware"
)

var (
	serveDatabaseURL string
	servePort        string
	serveDataDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking and postback server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.LoadWithOverrides(serveDatabaseURL, servePort, serveDataDir)
	if err != nil {
		return err
	}

	if cfg.DatabaseURL == "" {
		logging.Fatal("no database configured; run 's2s setup' first")
	}
	if err := database.ConnectWithURL(cfg.DatabaseURL); err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := database.Migrate(); err != nil {
		return err
	}

	// Optional; clicks simply carry no geo fields without the database
	if err := geoip.Init(cfg.DataDir); err != nil {
		logging.L().Warn("geoip init failed", zap.Error(err))
	}
	defer func() { _ = geoip.Close() }()

	app := newApp(cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logging.Fatal("server stopped", zap.Error(err))
		}
	}()
	logging.L().Info("server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.L().Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.L().Error("shutdown error", zap.Error(err))
	}
	_ = logging.Sync()
	return nil
}

// newApp builds the fiber app with all routes mounted.
func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(createFiberConfig("s2s"))

	app.Use(fiberzap.New(fiberzap.Config{Logger: logging.L()}))

	app.Get("/healthz", handlers.HandleHealthz)
	app.Get("/click", handlers.HandleClick)

	// Browser-facing lead form, CSRF-protected
	form := app.Group("/offer", middleware.CSRF(middleware.CSRFConfig{
		SecureCookies:  cfg.SecureCookies,
		TrustedOrigins: cfg.TrustedOrigins,
	}))
	form.Get("/:id", handlers.HandleOfferForm)
	form.Post("/:id", handlers.HandleOfferSubmit)

	api := app.Group("/api")
	api.Post("/test", handlers.HandleManualTest)
	api.Get("/test/recent", handlers.HandleManualTestRecent)
	api.Get("/settings", handlers.HandleSettingsGet)
	api.Put("/settings", handlers.HandleSettingsUpdate)
	api.Get("/offers", handlers.HandleOfferList)
	api.Post("/offers", handlers.HandleOfferCreate)
	api.Get("/offers/:id", handlers.HandleOfferGet)
	api.Put("/offers/:id", handlers.HandleOfferUpdate)
	api.Delete("/offers/:id", handlers.HandleOfferDelete)
	api.Get("/logs/postbacks", handlers.HandlePostbackLogs)
	api.Get("/logs/clicks", handlers.HandleRecentClicks)

	return app
}

func init() {
	serveCmd.Flags().StringVar(&serveDatabaseURL, "database-url", "", "PostgreSQL connection URL (overrides config)")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "HTTP listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Data directory for the GeoIP database")

	RootCmd.AddCommand(serveCmd)
}
