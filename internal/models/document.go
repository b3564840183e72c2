package models

import (
	"time"

	"supplier-service/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ============================================================================
// SUPPLIER DOCUMENT (UPLOADED EVIDENCE + VERIFICATION OUTCOME)
// ============================================================================

type SupplierDocument struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	SupplierID         uuid.UUID          `json:"supplier_id" db:"supplier_id"`
	DocumentType       DocumentType       `json:"document_type" db:"document_type"`
	FileName           string             `json:"file_name" db:"file_name"`
	ContentType        string             `json:"content_type" db:"content_type"`
	StorageBucket      string             `json:"storage_bucket" db:"storage_bucket"`
	StorageKey         string             `json:"storage_key" db:"storage_key"`
	FileSize           int64              `json:"file_size" db:"file_size"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	ConfidenceScore    *float64           `json:"confidence_score,omitempty" db:"confidence_score"`
	ExtractedFields    utils.JSONMap      `json:"extracted_fields" db:"extracted_fields"`
	Checks             utils.JSONMap      `json:"checks" db:"checks"`
	Issues             pq.StringArray     `json:"issues" db:"issues"`
	UploadedAt         time.Time          `json:"uploaded_at" db:"uploaded_at"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty" db:"verified_at"`
}

// DocumentDetail adds a short-lived download URL to the stored row.
type DocumentDetail struct {
	SupplierDocument
	DownloadURL string `json:"download_url,omitempty"`
}

// DocumentCounts summarizes a supplier's documents for risk feature assembly.
type DocumentCounts struct {
	Total    int `json:"total" db:"total"`
	Verified int `json:"verified" db:"verified"`
	Pending  int `json:"pending" db:"pending"`
}

// VerificationResult is the verification engine's output. It is pure data;
// persistence happens in the document service.
type VerificationResult struct {
	DocumentType    DocumentType       `json:"document_type"`
	Status          VerificationStatus `json:"status"`
	ExtractedFields map[string]string  `json:"extracted_fields"`
	Checks          map[string]bool    `json:"checks"`
	Issues          []string           `json:"issues"`
	Confidence      float64            `json:"confidence"`
	VerifiedAt      time.Time          `json:"verified_at"`
}
