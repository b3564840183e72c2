package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"supplier-service/internal/models"
	"supplier-service/internal/services"
	"supplier-service/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) Register(app *fiber.App) {
	suppliers := app.Group("/api/v1/suppliers")
	suppliers.Post("/:supplier_id/documents", h.Upload) // POST /api/v1/suppliers/:supplier_id/documents
	suppliers.Get("/:supplier_id/documents", h.List)    // GET  /api/v1/suppliers/:supplier_id/documents

	documents := app.Group("/api/v1/documents")
	documents.Get("/:document_id", h.Get)                // GET  /api/v1/documents/:document_id
	documents.Post("/:document_id/reverify", h.Reverify) // POST /api/v1/documents/:document_id/reverify
}

// Upload accepts a multipart form with a "file" part and a "document_type"
// field. Verification runs in the background; the response row is pending.
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
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

	docType := models.DocumentType(c.FormValue("document_type"))
	if docType == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_DOCUMENT_TYPE", "document_type form field is required"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_FILE", "file form field is required"))
	}

	if fileHeader.Size > services.MaxDocumentSize {
		return c.Status(http.StatusRequestEntityTooLarge).JSON(
			utils.CreateErrorResponse("FILE_TOO_LARGE", "Document exceeds the 20 MB upload limit"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error("Failed to open uploaded file", "file_name", fileHeader.Filename, "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNREADABLE_FILE", "Uploaded file could not be read"))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read uploaded file", "file_name", fileHeader.Filename, "error", err)
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNREADABLE_FILE", "Uploaded file could not be read"))
	}

	doc, err := h.documentService.Upload(c.Context(), services.UploadDocumentInput{
		SupplierID:   supplierID,
		DocumentType: docType,
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDocument):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_DOCUMENT", err.Error()))
		case errors.Is(err, services.ErrSupplierNotFound):
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Supplier not found"))
		}
		slog.Error("Failed to upload document",
			"supplier_id", supplierID, "document_type", docType, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("UPLOAD_FAILED", "Failed to store document"))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(doc))
}

// List returns all documents for a supplier, newest first.
func (h *DocumentHandler) List(c fiber.Ctx) error {
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

	docs, err := h.documentService.ListBySupplier(c.Context(), supplierID)
	if err != nil {
		if errors.Is(err, services.ErrSupplierNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Supplier not found"))
		}
		slog.Error("Failed to list documents", "supplier_id", supplierID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("LIST_FAILED", "Failed to list documents"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"documents":   docs,
		"count":       len(docs),
		"supplier_id": supplierID,
	}))
}

// Get returns one document with a short-lived download URL.
func (h *DocumentHandler) Get(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	documentID, err := uuid.Parse(c.Params("document_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid document ID format"))
	}

	detail, err := h.documentService.GetDocument(c.Context(), documentID)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Document not found"))
		}
		slog.Error("Failed to get document", "document_id", documentID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve document"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(detail))
}

// Reverify queues a fresh verification run for the document.
func (h *DocumentHandler) Reverify(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	documentID, err := uuid.Parse(c.Params("document_id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_UUID", "Invalid document ID format"))
	}

	doc, err := h.documentService.Reverify(c.Context(), documentID)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				utils.CreateErrorResponse("NOT_FOUND", "Document not found"))
		}
		slog.Error("Failed to queue reverification", "document_id", documentID, "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(
			utils.CreateErrorResponse("REVERIFY_FAILED", "Could not queue reverification, try again later"))
	}

	return c.Status(http.StatusAccepted).JSON(utils.CreateSuccessResponse(doc))
}
