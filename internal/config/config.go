package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runtime configuration for the s2s server.
type Config struct {
	DatabaseURL    string
	Port           string
	DataDir        string
	PublicBaseURL  string
	SecureCookies  bool
	TrustedOrigins []string
}

// Load reads configuration from s2s.toml and the environment.
// Precedence: config file > environment variables > defaults.
func Load() (*Config, error) {
	return LoadWithOverrides("", "", "")
}

// LoadWithOverrides loads configuration with optional CLI flag overrides.
// Non-empty overrides win over every other source.
func LoadWithOverrides(databaseURL, port, dataDir string) (*Config, error) {
	v := newBaseViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Precedence: flags > config file > environment > defaults
	cfg := &Config{
		DatabaseURL:   stringSetting(v, "database_url", "DATABASE_URL", databaseURL),
		Port:          stringSetting(v, "port", "PORT", port),
		DataDir:       stringSetting(v, "data_dir", "DATA_DIR", dataDir),
		PublicBaseURL: stringSetting(v, "public_base_url", "PUBLIC_BASE_URL", ""),
		SecureCookies: v.GetBool("secure_cookies"),
	}

	if !v.InConfig("secure_cookies") {
		if env, ok := os.LookupEnv("SECURE_COOKIES"); ok {
			cfg.SecureCookies = strings.EqualFold(env, "true") || env == "1"
		}
	}

	cfg.TrustedOrigins = parseTrustedOrigins(stringSetting(v, "trusted_origins", "TRUSTED_ORIGINS", ""))

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	return cfg, nil
}

// stringSetting resolves one key across flag override, config file, and environment.
func stringSetting(v *viper.Viper, key, envKey, override string) string {
	if override != "" {
		return override
	}
	if v.InConfig(key) {
		return v.GetString(key)
	}
	return os.Getenv(envKey)
}

// newBaseViper returns a viper instance wired to the standard config locations.
func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("s2s")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		v.AddConfigPath(filepath.Join(configHome, "s2s"))
	}

	// Secure cookies default on; operators running plain HTTP opt out explicitly.
	v.SetDefault("secure_cookies", true)

	return v
}

// parseTrustedOrigins splits a comma-separated origin list, trimming blanks.
func parseTrustedOrigins(raw string) []string {
	origins := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		part = strings.TrimSuffix(part, "/")
		if part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
