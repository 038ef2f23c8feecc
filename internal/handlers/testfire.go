package handlers

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
	"github.com/trackforge/s2s/internal/postback"
)

// dispatchManualTest is swappable in tests.
var dispatchManualTest = func(ctx context.Context, targetURL string) postback.Result {
	return postback.NewManualTestDispatcher().Dispatch(ctx, targetURL)
}

// ManualTestRequest is the POST /api/test payload. The URL is dispatched
// verbatim: the operator pastes a fully substituted postback URL, so no token
// resolution happens here.
type ManualTestRequest struct {
	URL           string `json:"url"`
	TransactionID string `json:"transaction_id"`
	OfferID       *int64 `json:"offer_id,omitempty"`
}

// HandleManualTest fires a test postback against an arbitrary URL.
// POST /api/test
func HandleManualTest(c fiber.Ctx) error {
	var req ManualTestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}

	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.TransactionID == "" || req.TransactionID == "{transaction_id}" {
		return c.Status(400).JSON(fiber.Map{"error": "transaction_id is required"})
	}

	parsed, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid test URL"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// Attach the test to a click so the transaction shows up in reporting.
	// Offer 0 groups tests not tied to a real offer.
	var offerID int64
	if req.OfferID != nil {
		offerID = *req.OfferID
	}
	if _, err := models.EnsureClick(ctx, database.DB, offerID, req.TransactionID, "manual_test"); err != nil {
		logging.L().Warn("manual test click synthesis failed",
			zap.String("transaction_id", req.TransactionID), zap.Error(err))
	}

	// The dispatcher carries its own timeout; the db context is too short for it
	result := dispatchManualTest(context.Background(), parsed.String())

	test := &models.ManualTest{
		TransactionID: req.TransactionID,
		TestURL:       result.URL,
		ResponseBody:  result.Body,
		DurationMs:    result.DurationMs,
	}
	if result.StatusCode != 0 {
		status := result.StatusCode
		test.HTTPStatus = &status
	}
	if result.Err != "" {
		errMsg := result.Err
		test.ErrorMessage = &errMsg
	}
	if err := models.InsertManualTest(ctx, database.DB, test); err != nil {
		logging.L().Error("failed to record manual test", zap.Error(err))
	}

	return c.JSON(result)
}

// HandleManualTestRecent returns the latest manual test records.
// GET /api/test/recent
func HandleManualTestRecent(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	tests, err := models.RecentManualTests(ctx, database.DB, fiber.Query[int](c, "limit", 10))
	if err != nil {
		logging.L().Error("failed to list manual tests", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tests == nil {
		tests = []models.ManualTest{}
	}
	return c.JSON(tests)
}
