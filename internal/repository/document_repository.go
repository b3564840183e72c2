package repository

import (
	"context"
	"fmt"
	"time"

	"supplier-service/internal/models"
	"supplier-service/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.SupplierDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.VerificationStatus == "" {
		doc.VerificationStatus = models.VerificationPending
	}
	if doc.ExtractedFields == nil {
		doc.ExtractedFields = utils.JSONMap{}
	}
	if doc.Checks == nil {
		doc.Checks = utils.JSONMap{}
	}
	if doc.Issues == nil {
		doc.Issues = pq.StringArray{}
	}
	doc.UploadedAt = time.Now()

	query := `
		INSERT INTO supplier_documents (
			id, supplier_id, document_type, file_name, content_type,
			storage_bucket, storage_key, file_size,
			verification_status, confidence_score, extracted_fields, checks, issues,
			uploaded_at, verified_at
		) VALUES (
			:id, :supplier_id, :document_type, :file_name, :content_type,
			:storage_bucket, :storage_key, :file_size,
			:verification_status, :confidence_score, :extracted_fields, :checks, :issues,
			:uploaded_at, :verified_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return fmt.Errorf("failed to create supplier document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierDocument, error) {
	var doc models.SupplierDocument
	query := `SELECT * FROM supplier_documents WHERE id = $1`

	err := r.db.GetContext(ctx, &doc, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier document: %w", err)
	}

	return &doc, nil
}

func (r *DocumentRepository) GetBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierDocument, error) {
	docs := []models.SupplierDocument{}
	query := `SELECT * FROM supplier_documents WHERE supplier_id = $1 ORDER BY uploaded_at DESC`

	err := r.db.SelectContext(ctx, &docs, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents by supplier: %w", err)
	}

	return docs, nil
}

// UpdateVerification stores an engine result. Extracted fields are merged
// into the existing JSONB so upload-time metadata like pageCount survives
// reverification.
func (r *DocumentRepository) UpdateVerification(ctx context.Context, id uuid.UUID, result *models.VerificationResult) error {
	query := `
		UPDATE supplier_documents SET
			verification_status = $1,
			confidence_score = $2,
			extracted_fields = COALESCE(extracted_fields, '{}'::jsonb) || $3,
			checks = $4,
			issues = $5,
			verified_at = $6
		WHERE id = $7`

	execResult, err := r.db.ExecContext(ctx, query,
		result.Status,
		result.Confidence,
		utils.JSONMapFromStrings(result.ExtractedFields),
		utils.JSONMapFromBools(result.Checks),
		pq.StringArray(result.Issues),
		result.VerifiedAt,
		id)
	if err != nil {
		return fmt.Errorf("failed to update document verification: %w", err)
	}

	return requireRowsAffected(execResult, "supplier document", id)
}

func (r *DocumentRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (models.DocumentCounts, error) {
	var counts models.DocumentCounts
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE verification_status = 'verified') AS verified,
			COUNT(*) FILTER (WHERE verification_status <> 'verified') AS pending
		FROM supplier_documents
		WHERE supplier_id = $1`

	err := r.db.GetContext(ctx, &counts, query, supplierID)
	if err != nil {
		return models.DocumentCounts{}, fmt.Errorf("failed to count documents by supplier: %w", err)
	}

	return counts, nil
}

func (r *DocumentRepository) TypesBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.DocumentType, error) {
	types := []models.DocumentType{}
	query := `SELECT DISTINCT document_type FROM supplier_documents WHERE supplier_id = $1`

	err := r.db.SelectContext(ctx, &types, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document types by supplier: %w", err)
	}

	return types, nil
}
