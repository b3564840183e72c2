package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"supplier-service/internal/services"
	"supplier-service/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type RiskHandler struct {
	riskService *services.RiskAssessmentService
}

func NewRiskHandler(riskService *services.RiskAssessmentService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

func (h *RiskHandler) Register(app *fiber.App) {
	risk := app.Group("/api/v1/suppliers/:supplier_id/risk")
	risk.Get("/", h.GetLatest)       // GET  /api/v1/suppliers/:supplier_id/risk
	risk.Get("/history", h.History)  // GET  /api/v1/suppliers/:supplier_id/risk/history
	risk.Post("/assess", h.Reassess) // POST /api/v1/suppliers/:supplier_id/risk/assess
}

// GetLatest returns the most recent assessment, served from cache when warm.
func (h *RiskHandler) GetLatest(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	supplierID, err := uuid.Parse(c.Params("supplier_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid supplier ID format"))
	}

	assessment, err := h.riskService.GetLatest(c.Context(), supplierID)
	if err != nil {
		if errors.Is(err, services.ErrAssessmentNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "No risk assessment found for supplier"))
		}
		slog.Error("Failed to get latest risk assessment", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve risk assessment"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(assessment))
}

// History lists past assessments, newest first.
func (h *RiskHandler) History(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	supplierID, err := uuid.Parse(c.Params("supplier_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid supplier ID format"))
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	assessments, err := h.riskService.History(c.Context(), supplierID, limit)
	if err != nil {
		slog.Error("Failed to list risk assessments", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("LIST_FAILED", "Failed to list risk assessments"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"assessments": assessments,
		"count":       len(assessments),
		"supplier_id": supplierID,
	}))
}

// Reassess recomputes the supplier's risk right now and returns the snapshot.
func (h *RiskHandler) Reassess(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	supplierID, err := uuid.Parse(c.Params("supplier_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid supplier ID format"))
	}

	assessment, err := h.riskService.AssessSupplier(c.Context(), supplierID)
	if err != nil {
		if errors.Is(err, services.ErrSupplierNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Supplier not found"))
		}
		slog.Error("Failed to assess supplier risk", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("ASSESSMENT_FAILED", "Failed to assess supplier risk"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(assessment))
}
