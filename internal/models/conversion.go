package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Conversion represents a completed lead submission attributed to a click.
type Conversion struct {
	ID            int64     `json:"id"`
	ClickID       int64     `json:"click_id"`
	OfferID       int64     `json:"offer_id"`
	TransactionID string    `json:"transaction_id"`
	Goal          string    `json:"goal"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Payout        *float64  `json:"payout,omitempty"`
	Revenue       *float64  `json:"revenue,omitempty"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	CreatedAt     time.Time `json:"created_at"`
}

// InsertConversion records a conversion row, exactly once per lead submission.
func InsertConversion(ctx context.Context, db *sql.DB, conv *Conversion) (int64, error) {
	query := `
		INSERT INTO conversions (click_id, offer_id, transaction_id, goal, name, email, phone,
			payout, revenue, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := db.QueryRowContext(ctx, query,
		conv.ClickID, conv.OfferID, conv.TransactionID, conv.Goal,
		conv.Name, conv.Email, conv.Phone,
		conv.Payout, conv.Revenue,
		conv.IPAddress, conv.UserAgent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert conversion: %w", err)
	}

	conv.ID = id
	return id, nil
}
