package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/trackforge/s2s/internal/logging"
)

var DB *sql.DB

// ConnectWithURL connects to database using provided URL
func ConnectWithURL(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL cannot be empty")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Postback dispatch can hold a request worker for up to 30s; keep enough
	// headroom that click recording never waits on a free connection.
	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(time.Hour)

	logging.L().Info("database connected")
	return nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
