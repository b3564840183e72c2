package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ============================================================================
// VALIDATION WORKFLOW (HUMAN REVIEW STATE MACHINE)
// ============================================================================

type ValidationWorkflow struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	SupplierID     uuid.UUID      `json:"supplier_id" db:"supplier_id"`
	CurrentStep    WorkflowStep   `json:"current_step" db:"current_step"`
	Status         SupplierStatus `json:"status" db:"status"`
	StepsCompleted pq.StringArray `json:"steps_completed" db:"steps_completed"`
	PendingActions pq.StringArray `json:"pending_actions" db:"pending_actions"`
	Approvals      DecisionLog    `json:"approvals" db:"approvals"`
	Version        int            `json:"version" db:"version"`
	CreatedBy      string         `json:"created_by" db:"created_by"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// DecisionRecord is one immutable entry in the workflow's approval log.
// Sequence is 1-based and dense; Timestamp is set server-side.
type DecisionRecord struct {
	ID                 uuid.UUID      `json:"id"`
	Sequence           int            `json:"sequence"`
	Step               WorkflowStep   `json:"step"`
	Decision           DecisionType   `json:"decision"`
	ActorID            string         `json:"actor_id"`
	ActorRole          ReviewerRole   `json:"actor_role"`
	Comments           string         `json:"comments,omitempty"`
	Reason             string         `json:"reason,omitempty"`
	RequestedDocuments []DocumentType `json:"requested_documents,omitempty"`
	RiskFlags          []string       `json:"risk_flags,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// DecisionLog is the append-only, ordered approval history stored as JSONB.
type DecisionLog []DecisionRecord

func (l DecisionLog) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(DecisionLog{})
	}
	return json.Marshal(l)
}

func (l *DecisionLog) Scan(value any) error {
	if value == nil {
		*l = DecisionLog{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("DecisionLog: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, l)
}

// MarkStepCompleted appends the step once, preserving order.
func (w *ValidationWorkflow) MarkStepCompleted(step WorkflowStep) {
	for _, s := range w.StepsCompleted {
		if s == string(step) {
			return
		}
	}
	w.StepsCompleted = append(w.StepsCompleted, string(step))
}

var validStepStatuses = map[WorkflowStep][]SupplierStatus{
	StepDocumentUpload:        {StatusPending, StatusDocumentsRequired},
	StepAutomatedVerification: {StatusUnderReview},
	StepAnalystReview:         {StatusUnderReview},
	StepManagerApproval:       {StatusManagerReview},
	StepComplianceCheck:       {StatusComplianceCheck},
	StepDirectorApproval:      {StatusDirectorApproval},
	StepFinalApproval:         {StatusDirectorApproval, StatusApproved},
}

// IsValidStepStatusPair reports whether the combination can occur during
// normal progression. Administrative statuses (cancelled, suspended,
// blacklisted) and rejection are reachable from any step and excluded here.
func IsValidStepStatusPair(step WorkflowStep, status SupplierStatus) bool {
	for _, s := range validStepStatuses[step] {
		if s == status {
			return true
		}
	}
	return false
}
