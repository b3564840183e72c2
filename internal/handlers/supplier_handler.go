package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"supplier-service/internal/models"
	"supplier-service/internal/services"
	"supplier-service/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SupplierHandler struct {
	supplierService *services.SupplierService
	workflowService *services.WorkflowService
}

func NewSupplierHandler(supplierService *services.SupplierService, workflowService *services.WorkflowService) *SupplierHandler {
	return &SupplierHandler{
		supplierService: supplierService,
		workflowService: workflowService,
	}
}

func (h *SupplierHandler) Register(app *fiber.App) {
	suppliers := app.Group("/api/v1/suppliers")

	suppliers.Post("/", h.Create)            // POST /api/v1/suppliers
	suppliers.Get("/", h.List)               // GET  /api/v1/suppliers
	suppliers.Get("/:supplier_id", h.Get)    // GET  /api/v1/suppliers/:supplier_id
	suppliers.Put("/:supplier_id", h.Update) // PUT  /api/v1/suppliers/:supplier_id

	// ============================================================================
	// ADMINISTRATIVE ACTIONS (admin role enforced by the workflow service)
	// ============================================================================

	suppliers.Post("/:supplier_id/cancel", h.Cancel)       // POST /api/v1/suppliers/:supplier_id/cancel
	suppliers.Post("/:supplier_id/suspend", h.Suspend)     // POST /api/v1/suppliers/:supplier_id/suspend
	suppliers.Post("/:supplier_id/blacklist", h.Blacklist) // POST /api/v1/suppliers/:supplier_id/blacklist
}

// Create registers a supplier profile and opens its validation workflow.
func (h *SupplierHandler) Create(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.CreateSupplierRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_BODY", "Request body could not be parsed"))
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	detail, err := h.supplierService.CreateSupplier(c.Context(), &req, userID)
	if err != nil {
		slog.Error("Failed to create supplier", "user_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("CREATE_FAILED", "Failed to create supplier"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(detail))
}

// List returns a filtered page of suppliers.
func (h *SupplierHandler) List(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	filters := models.SupplierFilters{
		TenantID: c.Query("tenant_id"),
		Industry: c.Query("industry"),
	}

	if status := c.Query("status"); status != "" {
		parsed := models.SupplierStatus(status)
		if !parsed.IsValid() {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_STATUS", "Unknown supplier status filter"))
		}
		filters.Status = parsed
	}

	if level := c.Query("risk_level"); level != "" {
		parsed := models.RiskLevel(level)
		if !parsed.IsValid() {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_RISK_LEVEL", "Unknown risk level filter"))
		}
		filters.RiskLevel = parsed
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	filters.Limit = perPage
	filters.Offset = (page - 1) * perPage

	suppliers, total, err := h.supplierService.ListSuppliers(c.Context(), filters)
	if err != nil {
		slog.Error("Failed to list suppliers", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("LIST_FAILED", "Failed to list suppliers"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateListResponse(suppliers, page, perPage, total))
}

// Get returns the supplier with documents, workflow and latest assessment.
func (h *SupplierHandler) Get(c fiber.Ctx) error {
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

	detail, err := h.supplierService.GetSupplier(c.Context(), supplierID)
	if err != nil {
		if errors.Is(err, services.ErrSupplierNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Supplier not found"))
		}
		slog.Error("Failed to get supplier", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve supplier"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(detail))
}

// Update applies a partial profile update.
func (h *SupplierHandler) Update(c fiber.Ctx) error {
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

	var req models.UpdateSupplierRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_BODY", "Request body could not be parsed"))
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	supplier, err := h.supplierService.UpdateSupplier(c.Context(), supplierID, &req)
	if err != nil {
		if errors.Is(err, services.ErrSupplierNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Supplier not found"))
		}
		slog.Error("Failed to update supplier", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("UPDATE_FAILED", "Failed to update supplier"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(supplier))
}

func (h *SupplierHandler) Cancel(c fiber.Ctx) error {
	return h.administrative(c, models.StatusCancelled)
}

func (h *SupplierHandler) Suspend(c fiber.Ctx) error {
	return h.administrative(c, models.StatusSuspended)
}

func (h *SupplierHandler) Blacklist(c fiber.Ctx) error {
	return h.administrative(c, models.StatusBlacklisted)
}

func (h *SupplierHandler) administrative(c fiber.Ctx, target models.SupplierStatus) error {
	userID := c.Get("X-User-ID")
	roleHeader := c.Get("X-User-Role")
	if userID == "" || roleHeader == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User identity headers are required"))
	}

	role := models.ReviewerRole(roleHeader)
	if !role.IsValid() {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_ROLE", "Unknown reviewer role"))
	}

	supplierID, err := uuid.Parse(c.Params("supplier_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid supplier ID format"))
	}

	workflow, err := h.workflowService.AdministrativeAction(c.Context(), supplierID, target, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPermissionDenied):
			return c.Status(http.StatusForbidden).JSON(
				utils.CreateErrorResponse("FORBIDDEN", "Administrator role is required"))
		case errors.Is(err, services.ErrWorkflowNotFound):
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "No workflow found for supplier"))
		case errors.Is(err, services.ErrWorkflowNotActive):
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("WORKFLOW_NOT_ACTIVE", err.Error()))
		case errors.Is(err, services.ErrVersionConflict):
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("VERSION_CONFLICT", "Workflow was modified concurrently, retry"))
		case errors.Is(err, services.ErrInvalidDecision):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_ACTION", err.Error()))
		}
		slog.Error("Administrative action failed",
			"supplier_id", supplierID, "target", target, "actor_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("ACTION_FAILED", "Failed to apply administrative action"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(workflow))
}
