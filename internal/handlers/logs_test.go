package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePostbackLogs(t *testing.T) {
	mock := useMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "conversion_id", "click_id", "url", "http_status",
		"response_body", "duration_ms", "error_message", "created_at",
		"transaction_id", "offer_id",
	}).
		AddRow(int64(2), int64(9), int64(4), "https://net.example/pb?tid=t2", 200, "OK", int64(80), nil, time.Now(), "t2", int64(3)).
		AddRow(int64(1), nil, nil, "https://net.example/pb?tid=t1", nil, "", int64(30001), "context deadline exceeded", time.Now(), "", int64(0))
	mock.ExpectQuery("SELECT .* FROM postback_logs").WithArgs(20).WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count", "count"}).AddRow(2, 1))

	app := newTestApp()
	app.Get("/api/logs/postbacks", HandlePostbackLogs)

	req := httptest.NewRequest(http.MethodGet, "/api/logs/postbacks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Logs    []map[string]interface{} `json:"logs"`
		Summary struct {
			Days        int     `json:"days"`
			Total       int     `json:"total"`
			Successful  int     `json:"successful"`
			SuccessRate float64 `json:"success_rate"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Logs, 2)
	assert.Equal(t, 7, body.Summary.Days)
	assert.Equal(t, 2, body.Summary.Total)
	assert.InDelta(t, 50.0, body.Summary.SuccessRate, 0.001)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePostbackLogs_CustomWindow(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectQuery("SELECT .* FROM postback_logs").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversion_id", "click_id", "url", "http_status",
			"response_body", "duration_ms", "error_message", "created_at",
			"transaction_id", "offer_id",
		}))
	mock.ExpectQuery("SELECT COUNT").WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"count", "count"}).AddRow(0, 0))

	app := newTestApp()
	app.Get("/api/logs/postbacks", HandlePostbackLogs)

	req := httptest.NewRequest(http.MethodGet, "/api/logs/postbacks?days=30&limit=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRecentClicks_OfferFilter(t *testing.T) {
	mock := useMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "offer_id", "transaction_id", "sub1", "sub2", "sub3", "sub4", "sub5",
		"meta", "created_at", "converted_at", "conversion_name", "conversion_email", "conversion_goal",
	}).AddRow(int64(1), int64(3), "t1", "t1", "", "", "", "", []byte(`{}`), time.Now(), nil, nil, nil, nil)
	mock.ExpectQuery("SELECT .* FROM clicks WHERE offer_id").
		WithArgs(int64(3), 10).
		WillReturnRows(rows)

	app := newTestApp()
	app.Get("/api/logs/clicks", HandleRecentClicks)

	req := httptest.NewRequest(http.MethodGet, "/api/logs/clicks?offer=3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var clicks []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&clicks))
	require.Len(t, clicks, 1)
	assert.Equal(t, "t1", clicks[0]["transaction_id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleHealthz(t *testing.T) {
	useMockDB(t)

	app := newTestApp()
	app.Get("/healthz", HandleHealthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
