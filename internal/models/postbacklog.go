package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Response bodies are size-capped before persisting; the dispatcher itself
// returns the full body to its caller.
const maxStoredResponseBody = 5000

// PostbackLog is one immutable record of a postback firing attempt.
type PostbackLog struct {
	ID           int64     `json:"id"`
	ConversionID *int64    `json:"conversion_id,omitempty"`
	ClickID      *int64    `json:"click_id,omitempty"`
	URL          string    `json:"url"`
	HTTPStatus   *int      `json:"http_status,omitempty"`
	ResponseBody string    `json:"response_body"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined from the conversion for display; not persisted on insert.
	TransactionID string `json:"transaction_id,omitempty"`
	OfferID       int64  `json:"offer_id,omitempty"`
}

// ManualTest is one record of a manually fired test postback.
type ManualTest struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transaction_id"`
	TestURL       string    `json:"test_url"`
	HTTPStatus    *int      `json:"http_status,omitempty"`
	ResponseBody  string    `json:"response_body"`
	DurationMs    int64     `json:"duration_ms"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// InsertPostbackLog writes one attempt record. Attempt rows are never updated.
func InsertPostbackLog(ctx context.Context, db *sql.DB, log *PostbackLog) error {
	query := `
		INSERT INTO postback_logs (conversion_id, click_id, url, http_status, response_body, duration_ms, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := db.QueryRowContext(ctx, query,
		log.ConversionID, log.ClickID, log.URL, log.HTTPStatus,
		truncateBody(log.ResponseBody), log.DurationMs, log.ErrorMessage,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to log postback attempt: %w", err)
	}
	return nil
}

// InsertManualTest writes one manual-test record.
func InsertManualTest(ctx context.Context, db *sql.DB, test *ManualTest) error {
	query := `
		INSERT INTO manual_tests (transaction_id, test_url, http_status, response_body, duration_ms, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := db.QueryRowContext(ctx, query,
		test.TransactionID, test.TestURL, test.HTTPStatus,
		truncateBody(test.ResponseBody), test.DurationMs, test.ErrorMessage,
	).Scan(&test.ID)
	if err != nil {
		return fmt.Errorf("failed to log manual test: %w", err)
	}
	return nil
}

// RecentPostbackLogs returns the latest attempt records.
func RecentPostbackLogs(ctx context.Context, db *sql.DB, limit int) ([]PostbackLog, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT p.id, p.conversion_id, p.click_id, p.url, p.http_status, p.response_body,
		       p.duration_ms, p.error_message, p.created_at,
		       COALESCE(c.transaction_id, ''), COALESCE(c.offer_id, 0)
		FROM postback_logs p
		LEFT JOIN conversions c ON c.id = p.conversion_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list postback logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []PostbackLog
	for rows.Next() {
		var l PostbackLog
		if err := rows.Scan(&l.ID, &l.ConversionID, &l.ClickID, &l.URL, &l.HTTPStatus,
			&l.ResponseBody, &l.DurationMs, &l.ErrorMessage, &l.CreatedAt,
			&l.TransactionID, &l.OfferID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// RecentManualTests returns the latest manual-test records.
func RecentManualTests(ctx context.Context, db *sql.DB, limit int) ([]ManualTest, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, transaction_id, test_url, http_status, response_body, duration_ms, error_message, created_at
		FROM manual_tests
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual tests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tests []ManualTest
	for rows.Next() {
		var mt ManualTest
		if err := rows.Scan(&mt.ID, &mt.TransactionID, &mt.TestURL, &mt.HTTPStatus,
			&mt.ResponseBody, &mt.DurationMs, &mt.ErrorMessage, &mt.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, mt)
	}
	return tests, rows.Err()
}

// PostbackSuccessRate returns attempt counts and the success percentage over the
// trailing window. Success means an HTTP status in [200, 400).
func PostbackSuccessRate(ctx context.Context, db *sql.DB, days int) (total, successful int, rate float64, err error) {
	if days <= 0 {
		days = 7
	}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE http_status >= 200 AND http_status < 400)
		FROM postback_logs
		WHERE created_at >= now() - ($1 * INTERVAL '1 day')
	`
	if err = db.QueryRowContext(ctx, query, days).Scan(&total, &successful); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to compute success rate: %w", err)
	}

	if total > 0 {
		rate = float64(successful) / float64(total) * 100
	}
	return total, successful, rate, nil
}

// truncateBody caps the stored body at maxStoredResponseBody characters,
// never splitting a multi-byte rune.
func truncateBody(body string) string {
	if len(body) <= maxStoredResponseBody {
		return body
	}
	runes := []rune(body)
	if len(runes) <= maxStoredResponseBody {
		return body
	}
	return string(runes[:maxStoredResponseBody])
}
