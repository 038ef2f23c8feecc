package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Offer statuses
const (
	OfferStatusActive = "active"
	OfferStatusPaused = "paused"
)

// Offer represents a lead-capture offer that clicks and conversions attach to.
type Offer struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	GoalName         string    `json:"goal_name"`
	PostbackTemplate string    `json:"postback_template"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const offerColumns = `id, name, description, goal_name, postback_template, status, created_at, updated_at`

// GetOffer returns an offer by id regardless of status.
func GetOffer(ctx context.Context, db *sql.DB, id int64) (*Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return scanOffer(db.QueryRowContext(ctx, query, id))
}

// GetActiveOffer returns an offer by id only when it accepts traffic.
func GetActiveOffer(ctx context.Context, db *sql.DB, id int64) (*Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 AND status = 'active'`
	return scanOffer(db.QueryRowContext(ctx, query, id))
}

// ListOffers returns all offers, newest first.
func ListOffers(ctx context.Context, db *sql.DB) ([]Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var offers []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.GoalName,
			&o.PostbackTemplate, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// CreateOffer inserts a new offer and fills in its generated fields.
func CreateOffer(ctx context.Context, db *sql.DB, offer *Offer) error {
	if offer.GoalName == "" {
		offer.GoalName = "lead"
	}
	if offer.Status == "" {
		offer.Status = OfferStatusActive
	}

	query := `
		INSERT INTO offers (name, description, goal_name, postback_template, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := db.QueryRowContext(ctx, query,
		offer.Name, offer.Description, offer.GoalName, offer.PostbackTemplate, offer.Status,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// UpdateOffer saves mutable offer fields.
func UpdateOffer(ctx context.Context, db *sql.DB, offer *Offer) error {
	query := `
		UPDATE offers
		SET name = $1, description = $2, goal_name = $3, postback_template = $4,
		    status = $5, updated_at = now()
		WHERE id = $6
	`
	result, err := db.ExecContext(ctx, query,
		offer.Name, offer.Description, offer.GoalName, offer.PostbackTemplate,
		offer.Status, offer.ID)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetOfferStatus flips an offer between active and paused.
func SetOfferStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	if status != OfferStatusActive && status != OfferStatusPaused {
		return fmt.Errorf("invalid offer status %q", status)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE offers SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set offer status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOffer removes an offer. Clicks referencing it block the delete.
func DeleteOffer(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanOffer(row *sql.Row) (*Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.GoalName,
		&o.PostbackTemplate, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
