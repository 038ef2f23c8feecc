package models

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "goal_name", "postback_template", "status", "created_at", "updated_at",
	})
}

func TestGetActiveOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	rows := offerRows().AddRow(int64(1), "Spring Sale", "", "lead", "", "active", now, now)
	mock.ExpectQuery(`SELECT .* FROM offers WHERE id = \$1 AND status = 'active'`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	offer, err := GetActiveOffer(context.Background(), db, 1)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, "Spring Sale", offer.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveOffer_PausedNotReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT .* FROM offers WHERE id = \$1 AND status = 'active'`).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	offer, err := GetActiveOffer(context.Background(), db, 2)
	require.NoError(t, err)
	assert.Nil(t, offer)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOffer_Defaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO offers").
		WithArgs("New Offer", "", "lead", "", "active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	offer := &Offer{Name: "New Offer"}
	require.NoError(t, CreateOffer(context.Background(), db, offer))
	assert.Equal(t, int64(5), offer.ID)
	assert.Equal(t, "lead", offer.GoalName)
	assert.Equal(t, OfferStatusActive, offer.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOfferStatus_InvalidStatus(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = SetOfferStatus(context.Background(), db, 1, "archived")
	assert.Error(t, err)
}

func TestSetOfferStatus_MissingOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE offers SET status").
		WithArgs("paused", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = SetOfferStatus(context.Background(), db, 99, OfferStatusPaused)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOffer_MissingOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DELETE FROM offers").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = DeleteOffer(context.Background(), db, 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOffers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	rows := offerRows().
		AddRow(int64(2), "Newer", "", "lead", "", "active", now, now).
		AddRow(int64(1), "Older", "", "sale", "https://net.example/pb", "paused", now, now)
	mock.ExpectQuery("SELECT .* FROM offers ORDER BY created_at DESC").WillReturnRows(rows)

	offers, err := ListOffers(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Newer", offers[0].Name)
	assert.Equal(t, "sale", offers[1].GoalName)

	assert.NoError(t, mock.ExpectationsWereMet())
}
