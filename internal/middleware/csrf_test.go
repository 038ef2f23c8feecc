package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFApp() *fiber.App {
	app := fiber.New()
	app.Use(CSRF(CSRFConfig{}))
	app.Get("/form", func(c fiber.Ctx) error {
		return c.SendString(CSRFToken(c))
	})
	app.Post("/form", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestCSRFBlocksFormPostWithoutToken(t *testing.T) {
	app := newCSRFApp()

	form := url.Values{"name": {"Jane"}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CSRF")
}

func TestCSRFAllowsPostWithIssuedToken(t *testing.T) {
	app := newCSRFApp()

	// The GET issues the cookie and hands the token to the template
	getResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/form", nil))
	require.NoError(t, err)
	token, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	_ = getResp.Body.Close()
	require.NotEmpty(t, token)

	var cookie string
	for _, c := range getResp.Cookies() {
		if c.Name == "s2s_csrf" {
			cookie = c.Name + "=" + c.Value
		}
	}
	require.NotEmpty(t, cookie, "csrf cookie not issued")

	form := url.Values{"_csrf": {string(token)}, "name": {"Jane"}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookie)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}
