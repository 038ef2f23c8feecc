package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"

	"github.com/trackforge/s2s/internal/models"
)

// SetupStatus contains information about the setup state
type SetupStatus struct {
	NeedsSetup        bool   // Whether the setup wizard needs to run
	HasDatabaseConfig bool   // Whether database configuration exists
	HasSchema         bool   // Whether the tracking schema has been migrated
	Reason            string // Human-readable reason for needing setup
}

// CheckSetupStatus determines if the setup wizard needs to run
func CheckSetupStatus() (*SetupStatus, error) {
	status := &SetupStatus{}

	cfg, err := Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// An existing install lock means setup already completed
	v := newBaseViper()
	_ = v.ReadInConfig()
	if v.IsSet("security.install_lock") && v.GetBool("security.install_lock") {
		status.NeedsSetup = false
		return status, nil
	}

	if cfg.DatabaseURL == "" {
		status.NeedsSetup = true
		status.HasDatabaseConfig = false
		status.Reason = "No database configured"
		return status, nil
	}

	status.HasDatabaseConfig = true

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		status.NeedsSetup = true
		status.Reason = "Database connection failed"
		return status, nil
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		status.NeedsSetup = true
		status.Reason = "Cannot reach database"
		return status, nil
	}

	// The settings table is created by the first migration; its absence means
	// the schema has never been installed.
	hasSchema, err := models.SchemaReady(context.Background(), db)
	if err != nil || !hasSchema {
		status.HasSchema = false
		status.NeedsSetup = true
		status.Reason = "Database not initialized"
		return status, nil
	}

	status.HasSchema = true
	status.NeedsSetup = false
	return status, nil
}

// SaveConfig saves the configuration to a TOML file
func SaveConfig(cfg *Config) error {
	configPath := getConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")

	if cfg.DatabaseURL != "" {
		v.Set("database_url", cfg.DatabaseURL)
	}
	if cfg.Port != "" {
		v.Set("port", cfg.Port)
	}
	if cfg.DataDir != "" {
		v.Set("data_dir", cfg.DataDir)
	}
	if cfg.PublicBaseURL != "" {
		v.Set("public_base_url", cfg.PublicBaseURL)
	}
	if len(cfg.TrustedOrigins) > 0 {
		v.Set("trusted_origins", strings.Join(cfg.TrustedOrigins, ","))
	}
	v.Set("secure_cookies", cfg.SecureCookies)
	v.Set("security.install_lock", true)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	// Config contains the database password
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if _, err := os.Stat("s2s.toml"); err == nil {
		return "s2s.toml"
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}

	if configHome != "" {
		return filepath.Join(configHome, "s2s", "s2s.toml")
	}

	return "s2s.toml"
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Type     string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BuildDatabaseURL assembles a PostgreSQL connection URL from parts
func BuildDatabaseURL(cfg DatabaseConfig) string {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	auth := cfg.User
	if cfg.Password != "" {
		auth += ":" + cfg.Password
	}

	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s", auth, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
}

// ParseDatabaseURL parses a PostgreSQL connection URL
func ParseDatabaseURL(url string) DatabaseConfig {
	cfg := DatabaseConfig{
		Type:    "postgres",
		Host:    "localhost",
		Port:    5432,
		SSLMode: "disable",
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		url = strings.TrimPrefix(url, "postgres://")
		url = strings.TrimPrefix(url, "postgresql://")

		parts := strings.Split(url, "@")
		if len(parts) == 2 {
			userPass := parts[0]
			if idx := strings.Index(userPass, ":"); idx > -1 {
				cfg.User = userPass[:idx]
				cfg.Password = userPass[idx+1:]
			} else {
				cfg.User = userPass
			}

			remainder := parts[1]

			if idx := strings.Index(remainder, "?"); idx > -1 {
				params := remainder[idx+1:]
				remainder = remainder[:idx]

				for _, param := range strings.Split(params, "&") {
					kv := strings.Split(param, "=")
					if len(kv) == 2 && kv[0] == "sslmode" {
						cfg.SSLMode = kv[1]
					}
				}
			}

			hostPort := remainder
			if idx := strings.Index(remainder, "/"); idx > -1 {
				hostPort = remainder[:idx]
				cfg.Name = remainder[idx+1:]
			}

			if pIdx := strings.Index(hostPort, ":"); pIdx > -1 {
				cfg.Host = hostPort[:pIdx]
				_, _ = fmt.Sscanf(hostPort[pIdx+1:], "%d", &cfg.Port)
			} else if hostPort != "" {
				cfg.Host = hostPort
			}
		}
	}

	return cfg
}
