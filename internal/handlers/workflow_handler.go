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

type WorkflowHandler struct {
	workflowService *services.WorkflowService
}

func NewWorkflowHandler(workflowService *services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) Register(app *fiber.App) {
	workflows := app.Group("/api/v1/workflows")
	workflows.Get("/", h.List)                       // GET  /api/v1/workflows?status=under_review
	workflows.Get("/:workflow_id", h.Get)            // GET  /api/v1/workflows/:workflow_id
	workflows.Post("/:workflow_id/decide", h.Decide) // POST /api/v1/workflows/:workflow_id/decide

	app.Get("/api/v1/suppliers/:supplier_id/workflow", h.GetSupplierWorkflow)
}

// List returns the review queue for one status, oldest first.
func (h *WorkflowHandler) List(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	status := models.SupplierStatus(c.Query("status"))
	if status == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_STATUS", "status query parameter is required"))
	}
	if !status.IsValid() {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_STATUS", "Unknown supplier status filter"))
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

	workflows, err := h.workflowService.ListWorkflows(c.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		slog.Error("Failed to list workflows", "status", status, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("LIST_FAILED", "Failed to list workflows"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"workflows": workflows,
		"count":     len(workflows),
		"status":    status,
		"page":      page,
	}))
}

func (h *WorkflowHandler) Get(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	workflowID, err := uuid.Parse(c.Params("workflow_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid workflow ID format"))
	}

	workflow, err := h.workflowService.GetWorkflow(c.Context(), workflowID)
	if err != nil {
		if errors.Is(err, services.ErrWorkflowNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Workflow not found"))
		}
		slog.Error("Failed to get workflow", "workflow_id", workflowID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve workflow"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(workflow))
}

func (h *WorkflowHandler) GetSupplierWorkflow(c fiber.Ctx) error {
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

	workflow, err := h.workflowService.GetSupplierWorkflow(c.Context(), supplierID)
	if err != nil {
		if errors.Is(err, services.ErrWorkflowNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "No workflow found for supplier"))
		}
		slog.Error("Failed to get supplier workflow", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve workflow"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(workflow))
}

// Decide applies one reviewer decision to the workflow. Identity comes from
// the gateway headers; the service enforces step permissions and optimistic
// concurrency.
func (h *WorkflowHandler) Decide(c fiber.Ctx) error {
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

	workflowID, err := uuid.Parse(c.Params("workflow_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid workflow ID format"))
	}

	var req models.DecisionRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_BODY", "Request body could not be parsed"))
	}

	workflow, err := h.workflowService.Advance(c.Context(), workflowID, userID, role, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_DECISION", err.Error()))
		case errors.Is(err, services.ErrWorkflowNotFound):
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Workflow not found"))
		case errors.Is(err, services.ErrPermissionDenied):
			return c.Status(http.StatusForbidden).JSON(
				utils.CreateErrorResponse("FORBIDDEN", err.Error()))
		case errors.Is(err, services.ErrVersionConflict):
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("VERSION_CONFLICT", "Workflow was modified concurrently, reload and retry"))
		case errors.Is(err, services.ErrWorkflowNotActive):
			return c.Status(http.StatusConflict).JSON(
				utils.CreateErrorResponse("WORKFLOW_NOT_ACTIVE", err.Error()))
		}
		slog.Error("Failed to apply decision",
			"workflow_id", workflowID,
			"actor_id", userID,
			"actor_role", role,
			"decision", req.Decision,
			"error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("DECISION_FAILED", "Failed to apply decision"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(workflow))
}
