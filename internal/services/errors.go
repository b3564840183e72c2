package services

import "errors"

var (
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrWorkflowNotFound   = errors.New("validation workflow not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrAssessmentNotFound = errors.New("risk assessment not found")

	// ErrPermissionDenied means the reviewer's role cannot decide at the
	// workflow's current step. The workflow is never modified on denial.
	ErrPermissionDenied = errors.New("reviewer role not permitted for this step")

	// ErrVersionConflict means another reviewer advanced the workflow first.
	ErrVersionConflict = errors.New("workflow was modified concurrently")

	ErrWorkflowNotActive = errors.New("workflow is not active")
	ErrInvalidDecision   = errors.New("invalid decision request")

	// ErrInvalidDocument covers upload rejections: unknown type, disallowed
	// extension, empty or oversized payload, unreadable PDF.
	ErrInvalidDocument = errors.New("invalid document upload")
)
