package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"supplier-service/internal/extraction"
	"supplier-service/internal/models"
	"supplier-service/internal/utils"

	"github.com/google/uuid"
)

const (
	// MaxDocumentSize caps uploads; the HTTP layer enforces the same limit
	// on the request body.
	MaxDocumentSize = 20 * 1024 * 1024

	downloadURLExpiry = 15 * time.Minute
)

// Job types registered on the worker pool at startup.
const (
	VerifyDocumentJob    = "verify-document"
	ReassessSuppliersJob = "reassess-approved-suppliers"
)

// DocumentService owns the document lifecycle: upload to object storage,
// row creation, queueing verification, and read access with download links.
type DocumentService struct {
	documents DocumentRepository
	suppliers SupplierRepository
	storage   ObjectStorage
	bucket    string
	verifier  *DocumentVerificationService
	risk      *RiskAssessmentService
	queue     VerificationQueue
}

// NewDocumentService wires the document lifecycle. risk may be nil in tests;
// when present the supplier's risk profile is refreshed after each
// verification run.
func NewDocumentService(
	documents DocumentRepository,
	suppliers SupplierRepository,
	storage ObjectStorage,
	bucket string,
	verifier *DocumentVerificationService,
	risk *RiskAssessmentService,
	queue VerificationQueue,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		suppliers: suppliers,
		storage:   storage,
		bucket:    bucket,
		verifier:  verifier,
		risk:      risk,
		queue:     queue,
	}
}

type UploadDocumentInput struct {
	SupplierID   uuid.UUID
	DocumentType models.DocumentType
	FileName     string
	ContentType  string
	Data         []byte
}

// Upload validates the file, stores it, records the row and queues
// verification. The returned document is still pending; verification
// completes in the background.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*models.SupplierDocument, error) {
	if !input.DocumentType.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidDocument, input.DocumentType)
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported file extension %q", ErrInvalidDocument, ext)
	}

	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidDocument)
	}
	if len(input.Data) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: file exceeds %d byte limit", ErrInvalidDocument, MaxDocumentSize)
	}

	if _, err := s.suppliers.GetByID(ctx, input.SupplierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	extractedFields := utils.JSONMap{}
	if ext == ".pdf" {
		pageCount, err := extraction.InspectPDF(input.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable PDF: %v", ErrInvalidDocument, err)
		}
		extractedFields["pageCount"] = pageCount
	}

	storageKey := fmt.Sprintf("%s/%s%s", input.SupplierID, uuid.New(), ext)
	if err := s.storage.UploadBytes(ctx, s.bucket, storageKey, input.Data, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.SupplierDocument{
		SupplierID:      input.SupplierID,
		DocumentType:    input.DocumentType,
		FileName:        input.FileName,
		ContentType:     input.ContentType,
		StorageBucket:   s.bucket,
		StorageKey:      storageKey,
		FileSize:        int64(len(input.Data)),
		ExtractedFields: extractedFields,
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		// Best effort cleanup so failed rows don't leave orphaned objects.
		if delErr := s.storage.DeleteFile(ctx, s.bucket, storageKey); delErr != nil {
			slog.Warn("Failed to remove orphaned object after create failure",
				"bucket", s.bucket, "key", storageKey, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.enqueueVerification(doc.ID)

	slog.Info("Successfully uploaded supplier document",
		"document_id", doc.ID,
		"supplier_id", input.SupplierID,
		"document_type", input.DocumentType,
		"size", doc.FileSize)

	return doc, nil
}

// GetDocument returns the stored row plus a short-lived download URL.
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.DocumentDetail, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	detail := &models.DocumentDetail{SupplierDocument: *doc}

	url, err := s.storage.GetPresignedURL(ctx, doc.StorageBucket, doc.StorageKey, doc.FileName, downloadURLExpiry)
	if err != nil {
		slog.Warn("Failed to generate download URL", "document_id", id, "error", err)
	} else {
		detail.DownloadURL = url
	}

	return detail, nil
}

func (s *DocumentService) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierDocument, error) {
	if _, err := s.suppliers.GetByID(ctx, supplierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	docs, err := s.documents.GetBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// Reverify queues a fresh verification run for an already stored document.
// The row keeps its previous outcome until the new result lands.
func (s *DocumentService) Reverify(ctx context.Context, id uuid.UUID) (*models.SupplierDocument, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	// Fail here rather than in the background job when the object is gone.
	exists, err := s.storage.FileExists(ctx, doc.StorageBucket, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check stored document: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: stored file is missing", ErrDocumentNotFound)
	}

	if err := s.queue.TrySubmit(VerifyDocumentJob, map[string]any{"document_id": doc.ID.String()}); err != nil {
		return nil, fmt.Errorf("failed to queue reverification: %w", err)
	}

	slog.Info("Reverification queued", "document_id", id)
	return doc, nil
}

// VerifyStoredDocument is the background job body: fetch bytes, run the
// verification engine, persist the result.
func (s *DocumentService) VerifyStoredDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to load document for verification: %w", err)
	}

	data, err := s.storage.GetFileBytes(ctx, doc.StorageBucket, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to fetch stored document %s: %w", id, err)
	}

	result := s.verifier.VerifyDocument(ctx, doc.DocumentType, doc.FileName, doc.ContentType, data)

	if err := s.documents.UpdateVerification(ctx, id, &result); err != nil {
		return fmt.Errorf("failed to persist verification result: %w", err)
	}

	slog.Info("Successfully verified supplier document",
		"document_id", id,
		"supplier_id", doc.SupplierID,
		"status", result.Status,
		"confidence", result.Confidence)

	// Verification outcomes feed the risk features, so refresh the profile.
	if s.risk != nil {
		if _, err := s.risk.AssessSupplier(ctx, doc.SupplierID); err != nil {
			slog.Warn("Risk refresh after verification failed",
				"supplier_id", doc.SupplierID, "error", err)
		}
	}

	return nil
}

func (s *DocumentService) enqueueVerification(id uuid.UUID) {
	if err := s.queue.TrySubmit(VerifyDocumentJob, map[string]any{"document_id": id.String()}); err != nil {
		// The document stays pending; a reverify request can requeue it.
		slog.Warn("Verification queue full, document left pending", "document_id", id, "error", err)
	}
}
