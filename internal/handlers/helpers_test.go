package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/postback"
	"github.com/trackforge/s2s/views"
)

// useMockDB swaps the global connection for a sqlmock for one test.
func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	original := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = original
		_ = db.Close()
	})
	return mock
}

// useStubFirer captures postback firings instead of dispatching them.
func useStubFirer(t *testing.T, result postback.Result) *[]postback.FireInput {
	t.Helper()

	var fired []postback.FireInput
	original := firePostback
	firePostback = func(ctx context.Context, input postback.FireInput) postback.Result {
		fired = append(fired, input)
		return result
	}
	t.Cleanup(func() { firePostback = original })
	return &fired
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{Views: views.Engine()})
}

func putJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}
