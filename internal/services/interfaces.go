package services

import (
	"context"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
)

// Repositories are declared where they are consumed so the engines stay
// testable against in-memory fakes. The sqlx implementations live in
// internal/repository. Not-found conditions surface as wrapped sql.ErrNoRows.

type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	GetWithFilters(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) error
	UpdateRiskProfile(ctx context.Context, id uuid.UUID, score float64, level models.RiskLevel) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.SupplierDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierDocument, error)
	GetBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierDocument, error)
	UpdateVerification(ctx context.Context, id uuid.UUID, result *models.VerificationResult) error
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (models.DocumentCounts, error)
	TypesBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.DocumentType, error)
}

type WorkflowRepository interface {
	Create(ctx context.Context, workflow *models.ValidationWorkflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ValidationWorkflow, error)
	GetActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.ValidationWorkflow, error)
	// UpdateWithVersion persists the workflow only if the stored version still
	// equals expectedVersion. Returns false when another writer won the race.
	UpdateWithVersion(ctx context.Context, workflow *models.ValidationWorkflow, expectedVersion int) (bool, error)
	ListByStatus(ctx context.Context, status models.SupplierStatus, limit, offset int) ([]models.ValidationWorkflow, error)
}

type RiskAssessmentRepository interface {
	Create(ctx context.Context, assessment *models.RiskAssessment) error
	GetLatestBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.RiskAssessment, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.RiskAssessment, error)
}

// StatusEventPublisher fans supplier status changes out to interested
// services. Implementations must not fail the calling request.
type StatusEventPublisher interface {
	PublishStatusChange(ctx context.Context, event models.SupplierStatusEvent) error
}

// ObjectStorage is the slice of the MinIO wrapper the document service uses.
type ObjectStorage interface {
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error
	GetFileBytes(ctx context.Context, bucketName, objectName string) ([]byte, error)
	GetPresignedURL(ctx context.Context, bucketName, objectName, downloadName string, expiry time.Duration) (string, error)
	DeleteFile(ctx context.Context, bucketName, objectName string) error
	FileExists(ctx context.Context, bucketName, objectName string) (bool, error)
}

// VerificationQueue hands named jobs to the background pool. Job types are
// registered at startup; VerifyDocumentJob carries a document_id param.
type VerificationQueue interface {
	TrySubmit(jobType string, params map[string]any) error
}
