package handlers

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/database"
	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
)

// HandleOfferList → GET /api/offers
func HandleOfferList(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offers, err := models.ListOffers(ctx, database.DB)
	if err != nil {
		logging.L().Error("failed to list offers", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return c.JSON(offers)
}

// HandleOfferCreate → POST /api/offers
func HandleOfferCreate(c fiber.Ctx) error {
	var req struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		GoalName         string `json:"goal_name"`
		PostbackTemplate string `json:"postback_template"`
		Status           string `json:"status"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if req.Status != "" && req.Status != models.OfferStatusActive && req.Status != models.OfferStatusPaused {
		return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offer := &models.Offer{
		Name:             req.Name,
		Description:      req.Description,
		GoalName:         req.GoalName,
		PostbackTemplate: req.PostbackTemplate,
		Status:           req.Status,
	}
	if err := models.CreateOffer(ctx, database.DB, offer); err != nil {
		logging.L().Error("failed to create offer", zap.String("name", req.Name), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create offer"})
	}

	return c.Status(201).JSON(offer)
}

// HandleOfferGet → GET /api/offers/:id
func HandleOfferGet(c fiber.Ctx) error {
	id, err := parseOfferID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offer, err := models.GetOffer(ctx, database.DB, id)
	if err != nil {
		logging.L().Error("offer lookup failed", zap.Int64("offer_id", id), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if offer == nil {
		return c.Status(404).JSON(fiber.Map{"error": "offer not found"})
	}
	return c.JSON(offer)
}

// HandleOfferUpdate → PUT /api/offers/:id
func HandleOfferUpdate(c fiber.Ctx) error {
	id, err := parseOfferID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer id"})
	}

	var req struct {
		Name             *string `json:"name"`
		Description      *string `json:"description"`
		GoalName         *string `json:"goal_name"`
		PostbackTemplate *string `json:"postback_template"`
		Status           *string `json:"status"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	offer, err := models.GetOffer(ctx, database.DB, id)
	if err != nil {
		logging.L().Error("offer lookup failed", zap.Int64("offer_id", id), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if offer == nil {
		return c.Status(404).JSON(fiber.Map{"error": "offer not found"})
	}

	if req.Name != nil {
		offer.Name = *req.Name
	}
	if req.Description != nil {
		offer.Description = *req.Description
	}
	if req.GoalName != nil {
		offer.GoalName = *req.GoalName
	}
	if req.PostbackTemplate != nil {
		offer.PostbackTemplate = *req.PostbackTemplate
	}
	if req.Status != nil {
		if *req.Status != models.OfferStatusActive && *req.Status != models.OfferStatusPaused {
			return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
		}
		offer.Status = *req.Status
	}
	if offer.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	if err := models.UpdateOffer(ctx, database.DB, offer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "offer not found"})
		}
		logging.L().Error("failed to update offer", zap.Int64("offer_id", id), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to update offer"})
	}
	return c.JSON(offer)
}

// HandleOfferDelete → DELETE /api/offers/:id
func HandleOfferDelete(c fiber.Ctx) error {
	id, err := parseOfferID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid offer id"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := models.DeleteOffer(ctx, database.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "offer not found"})
		}
		logging.L().Error("failed to delete offer", zap.Int64("offer_id", id), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete offer"})
	}
	return c.SendStatus(204)
}

func parseOfferID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid offer id")
	}
	return id, nil
}
