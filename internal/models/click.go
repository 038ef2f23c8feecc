package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClickMeta is the opaque request-metadata blob stored with each click.
type ClickMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Source    string `json:"source,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

// Click represents a recorded tracking-link hit.
type Click struct {
	ID              int64      `json:"id"`
	OfferID         int64      `json:"offer_id"`
	TransactionID   string     `json:"transaction_id"`
	Sub1            string     `json:"sub1"`
	Sub2            string     `json:"sub2"`
	Sub3            string     `json:"sub3"`
	Sub4            string     `json:"sub4"`
	Sub5            string     `json:"sub5"`
	Meta            ClickMeta  `json:"meta"`
	CreatedAt       time.Time  `json:"created_at"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty"`
	ConversionName  *string    `json:"conversion_name,omitempty"`
	ConversionEmail *string    `json:"conversion_email,omitempty"`
	ConversionGoal  *string    `json:"conversion_goal,omitempty"`
}

const clickColumns = `id, offer_id, transaction_id, sub1, sub2, sub3, sub4, sub5, meta,
	created_at, converted_at, conversion_name, conversion_email, conversion_goal`

// NewTransactionID generates a transaction identifier for clicks arriving without one.
func NewTransactionID() string {
	return "txn_" + uuid.New().String()
}

// RecordClick inserts a click row. When the same offer+transaction pair recurs,
// the secondary sub-values are refreshed instead of inserting a duplicate.
func RecordClick(ctx context.Context, db *sql.DB, click *Click) (int64, error) {
	metaJSON, err := json.Marshal(click.Meta)
	if err != nil {
		return 0, fmt.Errorf("failed to encode click meta: %w", err)
	}

	query := `
		INSERT INTO clicks (offer_id, transaction_id, sub1, sub2, sub3, sub4, sub5, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (offer_id, transaction_id) DO UPDATE SET
			sub2 = EXCLUDED.sub2, sub3 = EXCLUDED.sub3,
			sub4 = EXCLUDED.sub4, sub5 = EXCLUDED.sub5
		RETURNING id
	`

	var id int64
	err = db.QueryRowContext(ctx, query,
		click.OfferID, click.TransactionID,
		click.Sub1, click.Sub2, click.Sub3, click.Sub4, click.Sub5,
		metaJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record click: %w", err)
	}

	click.ID = id
	return id, nil
}

// FindClickByTransactionID returns the most recent click matching a transaction id.
func FindClickByTransactionID(ctx context.Context, db *sql.DB, transactionID string) (*Click, error) {
	query := `SELECT ` + clickColumns + `
		FROM clicks
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return scanClick(db.QueryRowContext(ctx, query, transactionID))
}

// FindClickByID returns a click by primary key.
func FindClickByID(ctx context.Context, db *sql.DB, id int64) (*Click, error) {
	query := `SELECT ` + clickColumns + ` FROM clicks WHERE id = $1`
	return scanClick(db.QueryRowContext(ctx, query, id))
}

// EnsureClick returns the click for (offerID, transactionID), synthesizing one
// tagged with the given source when none exists. Idempotent per pair.
func EnsureClick(ctx context.Context, db *sql.DB, offerID int64, transactionID, source string) (*Click, error) {
	existing, err := FindClickByTransactionID(ctx, db, transactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	click := &Click{
		OfferID:       offerID,
		TransactionID: transactionID,
		Sub1:          transactionID,
		Meta:          ClickMeta{Source: source},
	}
	if _, err := RecordClick(ctx, db, click); err != nil {
		return nil, err
	}
	click.CreatedAt = time.Now()
	return click, nil
}

// MarkClickConverted stamps the click with its conversion outcome.
func MarkClickConverted(ctx context.Context, db *sql.DB, clickID int64, name, email, goal string) error {
	query := `
		UPDATE clicks
		SET converted_at = now(), conversion_name = $1, conversion_email = $2, conversion_goal = $3
		WHERE id = $4
	`
	if _, err := db.ExecContext(ctx, query, name, email, goal, clickID); err != nil {
		return fmt.Errorf("failed to mark click converted: %w", err)
	}
	return nil
}

// RecentClicks returns the latest clicks, optionally filtered by offer.
func RecentClicks(ctx context.Context, db *sql.DB, limit int, offerID *int64) ([]Click, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows *sql.Rows
		err  error
	)
	if offerID != nil {
		query := `SELECT ` + clickColumns + ` FROM clicks WHERE offer_id = $1 ORDER BY created_at DESC LIMIT $2`
		rows, err = db.QueryContext(ctx, query, *offerID, limit)
	} else {
		query := `SELECT ` + clickColumns + ` FROM clicks ORDER BY created_at DESC LIMIT $1`
		rows, err = db.QueryContext(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clicks []Click
	for rows.Next() {
		click, err := scanClickRow(rows)
		if err != nil {
			return nil, err
		}
		clicks = append(clicks, *click)
	}
	return clicks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClick(row *sql.Row) (*Click, error) {
	click, err := scanClickRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return click, err
}

func scanClickRow(row rowScanner) (*Click, error) {
	var (
		click    Click
		metaJSON []byte
	)
	err := row.Scan(
		&click.ID, &click.OfferID, &click.TransactionID,
		&click.Sub1, &click.Sub2, &click.Sub3, &click.Sub4, &click.Sub5,
		&metaJSON, &click.CreatedAt, &click.ConvertedAt,
		&click.ConversionName, &click.ConversionEmail, &click.ConversionGoal,
	)
	if err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		// Meta is opaque; a malformed blob should not fail the lookup
		_ = json.Unmarshal(metaJSON, &click.Meta)
	}
	return &click, nil
}
