package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/s2s/internal/config"
)

func TestNewAppRoutes(t *testing.T) {
	mock := stubDB(t)
	app := newApp(&config.Config{Port: "3000"})

	// Health does not depend on any table
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// API group is mounted
	mock.ExpectQuery("SELECT .* FROM offers").WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "description", "goal_name", "postback_template", "status", "created_at", "updated_at",
	}))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/offers", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Unknown routes fall through to fiber's 404
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreateFiberConfig(t *testing.T) {
	cfg := createFiberConfig("s2s")
	assert.Equal(t, "s2s", cfg.AppName)
	assert.NotNil(t, cfg.Views)
}
