package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeOfferRows(id int64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "goal_name", "postback_template", "status", "created_at", "updated_at",
	}).AddRow(id, name, "", "lead", "", "active", now, now)
}

func TestHandleClick_MissingOffer(t *testing.T) {
	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClick_InvalidOfferID(t *testing.T) {
	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClick_PausedOfferNotFound(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery("FROM offers WHERE id").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleClick_RecordsAndRedirects(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery("FROM offers WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(activeOfferRows(1, "Spring Sale"))
	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("proxy_mode").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO clicks").
		WithArgs(int64(1), "net-txn-1", "net-txn-1", "camp42", "", "", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=1&t=net-txn-1&sub2=camp42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "/offer/1?")
	assert.Contains(t, location, "tid=net-txn-1")
	assert.Contains(t, location, "sub2=camp42")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleClick_GeneratesTransactionID(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery("FROM offers WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(activeOfferRows(1, "Spring Sale"))
	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("proxy_mode").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO clicks").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "tid=txn_")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleClick_StorageFailureStillRedirects(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery("FROM offers WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(activeOfferRows(1, "Spring Sale"))
	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("proxy_mode").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO clicks").
		WillReturnError(sql.ErrConnDone)

	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=1&t=net-txn-2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	// The visitor is never blocked by a recording failure
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "tid=net-txn-2")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleClick_ErrorBodyIsJSON(t *testing.T) {
	app := newTestApp()
	app.Get("/click", HandleClick)

	req := httptest.NewRequest(http.MethodGet, "/click?offer=-3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid offer parameter", body["error"])
}
