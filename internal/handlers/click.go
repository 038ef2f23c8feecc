package handlers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/geoip"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
)

// HandleClick is the tracking-link entry point.
// GET /click?offer=1&t=abc&sub2=...
//
// Records the click and redirects to the offer's lead form. Recording is
// best-effort: a storage failure is logged but never blocks the visitor.
func HandleClick(c fiber.Ctx) error {
	offerParam := c.Query("offer")
	if offerParam == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing offer parameter"})
	}
	offerID, err := strconv.ParseInt(offerParam, 10, 64)
	if err != nil || offerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer parameter"})
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

	// Networks send the transaction id as t= or sub1=; generate one when absent
	transactionID := c.Query("t")
	if transactionID == "" {
		transactionID = c.Query("sub1")
	}
	if transactionID == "" {
		transactionID = models.NewTransactionID()
	}

	ip := getClientIP(c, proxyMode(ctx))
	country, city, _ := geoip.LookupIP(ip)

	click := &models.Click{
		OfferID:       offer.ID,
		TransactionID: transactionID,
		Sub1:          transactionID,
		Sub2:          c.Query("sub2"),
		Sub3:          c.Query("sub3"),
		Sub4:          c.Query("sub4"),
		Sub5:          c.Query("sub5"),
		Meta: models.ClickMeta{
			IP:        ip,
			UserAgent: c.Get("User-Agent"),
			Referrer:  c.Get("Referer"),
			Country:   country,
			City:      city,
		},
	}

	if _, err := models.RecordClick(ctx, database.DB, click); err != nil {
		logging.L().Error("click recording failed",
			zap.Int64("offer_id", offer.ID),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	} else {
		logging.L().Info("click recorded",
			zap.Int64("offer_id", offer.ID),
			zap.String("transaction_id", transactionID),
			zap.String("country", click.Meta.Country))
	}

	target := "/offer/" + strconv.FormatInt(offer.ID, 10) + "?" + clickQuery(transactionID, click)
	return c.Redirect().Status(fiber.StatusFound).To(target)
}

func clickQuery(transactionID string, click *models.Click) string {
	values := url.Values{}
	values.Set("tid", transactionID)
	for key, sub := range map[string]string{
		"sub2": click.Sub2, "sub3": click.Sub3, "sub4": click.Sub4, "sub5": click.Sub5,
	} {
		if sub != "" {
			values.Set(key, sub)
		}
	}
	return values.Encode()
}
