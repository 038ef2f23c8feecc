package handlers

import (
	"context"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/middleware"
	"github.com/trackforge/s2s/internal/models"
	"github.com/trackforge/s2s/internal/postback"
)

// HandleOfferForm renders the lead-capture form.
// GET /offer/:id?tid=...
func HandleOfferForm(c fiber.Ctx) error {
	offerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || offerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offer, err := models.GetActiveOffer(ctx, database.DB, offerID)
	if err != nil {
		logging.L().Error("offer lookup failed", zap.Int64("offer_id", offerID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if offer == nil {
		return c.Status(404).JSON(fiber.Map{"error": "offer not found or paused"})
	}

	return c.Render("offer", fiber.Map{
		"Offer":         offer,
		"TransactionID": c.Query("tid"),
		"Sub2":          c.Query("sub2"),
		"Sub3":          c.Query("sub3"),
		"Sub4":          c.Query("sub4"),
		"Sub5":          c.Query("sub5"),
		"CSRFToken":     middleware.CSRFToken(c),
	})
}

// HandleOfferSubmit accepts the lead form, records the conversion, and fires
// the postback inline. The visitor sees the firing outcome on the result page.
// POST /offer/:id
func HandleOfferSubmit(c fiber.Ctx) error {
	offerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || offerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offer, err := models.GetActiveOffer(ctx, database.DB, offerID)
	if err != nil {
		logging.L().Error("offer lookup failed", zap.Int64("offer_id", offerID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if offer == nil {
		return c.Status(404).JSON(fiber.Map{"error": "offer not found or paused"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	phone := strings.TrimSpace(c.FormValue("phone"))
	transactionID := strings.TrimSpace(c.FormValue("tid"))

	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid email address"})
	}
	// An unsubstituted placeholder means the tracking link was pasted verbatim
	if transactionID == "" || transactionID == "{transaction_id}" {
		return c.Status(400).JSON(fiber.Map{"error": "missing transaction id"})
	}

	click, err := models.EnsureClick(ctx, database.DB, offer.ID, transactionID, "offer_form")
	if err != nil {
		logging.L().Error("click lookup failed", zap.String("transaction_id", transactionID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to record conversion"})
	}

	conv := &models.Conversion{
		ClickID:       click.ID,
		OfferID:       offer.ID,
		TransactionID: transactionID,
		Goal:          offer.GoalName,
		Name:          name,
		Email:         email,
		Phone:         phone,
		IPAddress:     getClientIP(c, proxyMode(ctx)),
		UserAgent:     c.Get("User-Agent"),
	}
	if _, err := models.InsertConversion(ctx, database.DB, conv); err != nil {
		logging.L().Error("conversion insert failed", zap.String("transaction_id", transactionID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to record conversion"})
	}

	if err := models.MarkClickConverted(ctx, database.DB, click.ID, name, email, offer.GoalName); err != nil {
		logging.L().Warn("failed to mark click converted", zap.Int64("click_id", click.ID), zap.Error(err))
	}

	// The dispatcher carries its own timeout; the db context is too short for it
	result := firePostback(context.Background(), postback.FireInput{
		ConversionID:  &conv.ID,
		ClickID:       &click.ID,
		OfferTemplate: offer.PostbackTemplate,
		Context: postback.Context{
			TransactionID: transactionID,
			Goal:          offer.GoalName,
			OfferID:       offer.ID,
			OfferName:     offer.Name,
			ClickID:       click.ID,
			Name:          name,
			Email:         email,
			Phone:         phone,
			Sub1:          click.Sub1,
			Sub2:          click.Sub2,
			Sub3:          click.Sub3,
			Sub4:          click.Sub4,
			Sub5:          click.Sub5,
			IP:            conv.IPAddress,
			UserAgent:     conv.UserAgent,
			Referer:       click.Meta.Referrer,
		},
	})

	return c.Render("result", fiber.Map{
		"Offer":         offer,
		"Name":          name,
		"TransactionID": transactionID,
		"Success":       result.Success,
		"URL":           result.URL,
		"StatusCode":    result.StatusCode,
		"DurationMs":    result.DurationMs,
		"Error":         result.Err,
	})
}
