package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WorkflowService drives the seven-step validation state machine. Every
// mutation goes through a compare-and-swap on the workflow version, so two
// reviewers racing on the same workflow cannot both win.
type WorkflowService struct {
	workflowRepo WorkflowRepository
	supplierRepo SupplierRepository
	publisher    StatusEventPublisher
}

func NewWorkflowService(
	workflowRepo WorkflowRepository,
	supplierRepo SupplierRepository,
	publisher StatusEventPublisher,
) *WorkflowService {
	return &WorkflowService{
		workflowRepo: workflowRepo,
		supplierRepo: supplierRepo,
		publisher:    publisher,
	}
}

type stepTransition struct {
	NextStep   models.WorkflowStep
	NextStatus models.SupplierStatus
}

// stepProgression maps each step to its successor and the status an approval
// produces. The terminal step maps to itself; approving there is the only
// transition that yields an approved supplier.
var stepProgression = map[models.WorkflowStep]stepTransition{
	models.StepDocumentUpload:        {models.StepAutomatedVerification, models.StatusUnderReview},
	models.StepAutomatedVerification: {models.StepAnalystReview, models.StatusUnderReview},
	models.StepAnalystReview:         {models.StepManagerApproval, models.StatusManagerReview},
	models.StepManagerApproval:       {models.StepComplianceCheck, models.StatusComplianceCheck},
	models.StepComplianceCheck:       {models.StepDirectorApproval, models.StatusDirectorApproval},
	models.StepDirectorApproval:      {models.StepFinalApproval, models.StatusDirectorApproval},
	models.StepFinalApproval:         {models.StepFinalApproval, models.StatusApproved},
}

// stepPermissions lists the roles allowed to decide at each review gate.
// Steps without an entry accept any known reviewer role.
var stepPermissions = map[models.WorkflowStep][]models.ReviewerRole{
	models.StepAnalystReview:    {models.RoleAnalyst, models.RoleManager, models.RoleDirector, models.RoleAdmin},
	models.StepComplianceCheck:  {models.RoleAnalyst, models.RoleManager, models.RoleDirector, models.RoleAdmin},
	models.StepManagerApproval:  {models.RoleManager, models.RoleDirector, models.RoleAdmin},
	models.StepDirectorApproval: {models.RoleDirector, models.RoleAdmin},
	models.StepFinalApproval:    {models.RoleDirector, models.RoleAdmin},
}

func roleAllowedAtStep(step models.WorkflowStep, role models.ReviewerRole) bool {
	roles, ok := stepPermissions[step]
	if !ok {
		return role.IsValid()
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// CreateWorkflow starts validation for a supplier. A supplier has at most one
// workflow; creating again returns the existing one.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, supplierID uuid.UUID, createdBy string) (*models.ValidationWorkflow, error) {
	existing, err := s.workflowRepo.GetActiveBySupplier(ctx, supplierID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing workflow: %w", err)
	}

	now := time.Now()
	workflow := &models.ValidationWorkflow{
		ID:             uuid.New(),
		SupplierID:     supplierID,
		CurrentStep:    models.StepDocumentUpload,
		Status:         models.StatusPending,
		StepsCompleted: pq.StringArray{},
		PendingActions: recomputePendingActions(models.StepDocumentUpload, models.StatusPending, nil),
		Approvals:      models.DecisionLog{},
		Version:        1,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.workflowRepo.Create(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create validation workflow: %w", err)
	}

	slog.Info("Successfully created validation workflow",
		"workflow_id", workflow.ID,
		"supplier_id", supplierID,
		"created_by", createdBy)

	return workflow, nil
}

func (s *WorkflowService) GetWorkflow(ctx context.Context, workflowID uuid.UUID) (*models.ValidationWorkflow, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	return workflow, nil
}

func (s *WorkflowService) GetSupplierWorkflow(ctx context.Context, supplierID uuid.UUID) (*models.ValidationWorkflow, error) {
	workflow, err := s.workflowRepo.GetActiveBySupplier(ctx, supplierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to load supplier workflow: %w", err)
	}
	return workflow, nil
}

// ListWorkflows returns one page of workflows sitting in the given status,
// oldest first, so reviewers can work their queue in arrival order.
func (s *WorkflowService) ListWorkflows(ctx context.Context, status models.SupplierStatus, limit, offset int) ([]models.ValidationWorkflow, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	workflows, err := s.workflowRepo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return workflows, nil
}

// Advance applies one reviewer decision. Ordering of the guards matters:
// existence, expected version, activity, permission, then the decision
// itself. Denied or conflicting decisions never modify the workflow.
func (s *WorkflowService) Advance(ctx context.Context, workflowID uuid.UUID, actorID string, actorRole models.ReviewerRole, req models.DecisionRequest) (*models.ValidationWorkflow, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, err)
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrInvalidDecision)
	}

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	if req.ExpectedVersion > 0 && req.ExpectedVersion != workflow.Version {
		return nil, ErrVersionConflict
	}

	switch workflow.Status {
	case models.StatusRejected, models.StatusCancelled:
		return nil, fmt.Errorf("%w: workflow already %s", ErrWorkflowNotActive, workflow.Status)
	case models.StatusSuspended, models.StatusBlacklisted:
		return nil, fmt.Errorf("%w: supplier is %s", ErrWorkflowNotActive, workflow.Status)
	case models.StatusApproved:
		// Re-approving an approved workflow is idempotent; anything else
		// has nothing left to act on.
		if req.Decision != models.DecisionApprove {
			return nil, fmt.Errorf("%w: workflow already approved", ErrWorkflowNotActive)
		}
	}

	if !roleAllowedAtStep(workflow.CurrentStep, actorRole) {
		return nil, fmt.Errorf("%w: role %s cannot decide at step %s", ErrPermissionDenied, actorRole, workflow.CurrentStep)
	}

	oldStatus := workflow.Status
	decidedStep := workflow.CurrentStep

	switch req.Decision {
	case models.DecisionApprove:
		if workflow.Status != models.StatusApproved {
			next, ok := stepProgression[workflow.CurrentStep]
			if !ok {
				return nil, fmt.Errorf("%w: no progression from step %s", ErrInvalidDecision, workflow.CurrentStep)
			}
			workflow.MarkStepCompleted(workflow.CurrentStep)
			workflow.CurrentStep = next.NextStep
			workflow.Status = next.NextStatus
		}

	case models.DecisionReject:
		workflow.Status = models.StatusRejected

	case models.DecisionRequestMoreInfo:
		workflow.Status = models.StatusDocumentsRequired
		workflow.CurrentStep = models.StepDocumentUpload
	}

	record := models.DecisionRecord{
		ID:                 uuid.New(),
		Sequence:           len(workflow.Approvals) + 1,
		Step:               decidedStep,
		Decision:           req.Decision,
		ActorID:            actorID,
		ActorRole:          actorRole,
		Comments:           strings.TrimSpace(req.Comments),
		Reason:             strings.TrimSpace(req.Reason),
		RequestedDocuments: req.RequestedDocuments,
		RiskFlags:          req.RiskFlags,
		Timestamp:          time.Now(),
	}
	workflow.Approvals = append(workflow.Approvals, record)

	workflow.PendingActions = recomputePendingActions(workflow.CurrentStep, workflow.Status, req.RequestedDocuments)
	workflow.UpdatedAt = record.Timestamp

	expected := workflow.Version
	workflow.Version = expected + 1

	updated, err := s.workflowRepo.UpdateWithVersion(ctx, workflow, expected)
	if err != nil {
		return nil, fmt.Errorf("failed to persist workflow decision: %w", err)
	}
	if !updated {
		return nil, ErrVersionConflict
	}

	slog.Info("Workflow decision applied",
		"workflow_id", workflow.ID,
		"supplier_id", workflow.SupplierID,
		"decision", req.Decision,
		"step", decidedStep,
		"actor_id", actorID,
		"actor_role", actorRole,
		"new_status", workflow.Status,
		"new_step", workflow.CurrentStep,
		"version", workflow.Version)

	if workflow.Status != oldStatus {
		s.mirrorAndPublish(ctx, workflow, oldStatus, actorID)
	}

	return workflow, nil
}

// AdministrativeAction sets cancelled, suspended or blacklisted on the
// supplier's workflow. Admin only. Repeating the same action is a no-op.
func (s *WorkflowService) AdministrativeAction(ctx context.Context, supplierID uuid.UUID, target models.SupplierStatus, actorID string, actorRole models.ReviewerRole) (*models.ValidationWorkflow, error) {
	if actorRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only admin can set status %s", ErrPermissionDenied, target)
	}

	switch target {
	case models.StatusCancelled, models.StatusSuspended, models.StatusBlacklisted:
	default:
		return nil, fmt.Errorf("%w: %s is not an administrative status", ErrInvalidDecision, target)
	}

	workflow, err := s.workflowRepo.GetActiveBySupplier(ctx, supplierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to load supplier workflow: %w", err)
	}

	if workflow.Status == target {
		return workflow, nil
	}

	switch target {
	case models.StatusCancelled:
		// A finished validation cannot be cancelled after the fact.
		if workflow.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: workflow already %s", ErrWorkflowNotActive, workflow.Status)
		}
	case models.StatusSuspended, models.StatusBlacklisted:
		if workflow.Status == models.StatusCancelled {
			return nil, fmt.Errorf("%w: workflow already cancelled", ErrWorkflowNotActive)
		}
	}

	oldStatus := workflow.Status
	workflow.Status = target
	workflow.PendingActions = recomputePendingActions(workflow.CurrentStep, target, nil)
	workflow.UpdatedAt = time.Now()

	expected := workflow.Version
	workflow.Version = expected + 1

	updated, err := s.workflowRepo.UpdateWithVersion(ctx, workflow, expected)
	if err != nil {
		return nil, fmt.Errorf("failed to persist administrative action: %w", err)
	}
	if !updated {
		return nil, ErrVersionConflict
	}

	slog.Info("Administrative status applied",
		"workflow_id", workflow.ID,
		"supplier_id", supplierID,
		"old_status", oldStatus,
		"new_status", target,
		"actor_id", actorID)

	s.mirrorAndPublish(ctx, workflow, oldStatus, actorID)

	return workflow, nil
}

// mirrorAndPublish copies the workflow status onto the supplier row and emits
// a status-change event. Neither failure rolls back the decision; the
// workflow is the source of truth and mirrors self-heal on the next change.
func (s *WorkflowService) mirrorAndPublish(ctx context.Context, workflow *models.ValidationWorkflow, oldStatus models.SupplierStatus, actorID string) {
	if err := s.supplierRepo.UpdateStatus(ctx, workflow.SupplierID, workflow.Status); err != nil {
		slog.Error("Failed to mirror workflow status onto supplier",
			"supplier_id", workflow.SupplierID,
			"status", workflow.Status,
			"error", err)
	}

	if s.publisher == nil {
		return
	}

	event := models.SupplierStatusEvent{
		SupplierID: workflow.SupplierID,
		WorkflowID: workflow.ID,
		OldStatus:  oldStatus,
		NewStatus:  workflow.Status,
		Step:       workflow.CurrentStep,
		Actor:      actorID,
		Timestamp:  time.Now(),
	}
	if err := s.publisher.PublishStatusChange(ctx, event); err != nil {
		slog.Error("Failed to publish status change event",
			"supplier_id", workflow.SupplierID,
			"old_status", oldStatus,
			"new_status", workflow.Status,
			"error", err)
	}
}

// recomputePendingActions derives the full action list from scratch after
// every transition. Status overrides step.
func recomputePendingActions(step models.WorkflowStep, status models.SupplierStatus, requested []models.DocumentType) pq.StringArray {
	switch status {
	case models.StatusApproved, models.StatusCancelled:
		return pq.StringArray{}
	case models.StatusRejected:
		return pq.StringArray{"Supplier rejected - no further action required"}
	case models.StatusBlacklisted:
		return pq.StringArray{"Supplier blacklisted - no further action required"}
	case models.StatusSuspended:
		return pq.StringArray{"Supplier suspended - awaiting administrator action"}
	case models.StatusDocumentsRequired:
		if len(requested) == 0 {
			return pq.StringArray{"Upload additional documents requested by reviewer"}
		}
		actions := pq.StringArray{}
		for _, doc := range requested {
			actions = append(actions, fmt.Sprintf("Upload missing document: %s", doc))
		}
		return actions
	}

	switch step {
	case models.StepDocumentUpload:
		return pq.StringArray{"Upload required documents"}
	case models.StepAutomatedVerification:
		return pq.StringArray{"Automated verification in progress"}
	case models.StepAnalystReview:
		return pq.StringArray{"Awaiting analyst review"}
	case models.StepManagerApproval:
		return pq.StringArray{"Awaiting manager approval"}
	case models.StepComplianceCheck:
		return pq.StringArray{"Awaiting compliance check"}
	case models.StepDirectorApproval:
		return pq.StringArray{"Awaiting director approval"}
	case models.StepFinalApproval:
		return pq.StringArray{"Awaiting final approval"}
	}

	return pq.StringArray{}
}
