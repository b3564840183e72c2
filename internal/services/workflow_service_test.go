package services

import (
	"context"
	"testing"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newWorkflowFixture() (*WorkflowService, *fakeWorkflowRepo, *fakeSupplierRepo, *capturePublisher) {
	workflowRepo := newFakeWorkflowRepo()
	supplierRepo := newFakeSupplierRepo()
	publisher := &capturePublisher{}
	service := NewWorkflowService(workflowRepo, supplierRepo, publisher)
	return service, workflowRepo, supplierRepo, publisher
}

func seedSupplier(repo *fakeSupplierRepo, status models.SupplierStatus) *models.Supplier {
	return repo.seed(&models.Supplier{
		ID:          uuid.New(),
		TenantID:    "tenant-1",
		CompanyName: "Acme Trading Co",
		Status:      status,
	})
}

// workflowAt builds a stored workflow mid-progression so a test can start at
// any review gate without replaying the earlier approvals.
func workflowAt(supplierID uuid.UUID, step models.WorkflowStep, status models.SupplierStatus) *models.ValidationWorkflow {
	now := time.Now()
	return &models.ValidationWorkflow{
		ID:             uuid.New(),
		SupplierID:     supplierID,
		CurrentStep:    step,
		Status:         status,
		StepsCompleted: pq.StringArray{},
		PendingActions: pq.StringArray{},
		Approvals:      models.DecisionLog{},
		Version:        1,
		CreatedBy:      "reviewer-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func approveReq() models.DecisionRequest {
	return models.DecisionRequest{Decision: models.DecisionApprove}
}

// ============================================================================
// TEST SUITE 1: WORKFLOW CREATION
// ============================================================================

func TestCreateWorkflow_InitialState(t *testing.T) {
	service, _, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)

	workflow, err := service.CreateWorkflow(context.Background(), supplier.ID, "reviewer-1")

	assert.NoError(t, err)
	assert.Equal(t, models.StepDocumentUpload, workflow.CurrentStep)
	assert.Equal(t, models.StatusPending, workflow.Status)
	assert.Equal(t, 1, workflow.Version)
	assert.Empty(t, workflow.StepsCompleted)
	assert.Empty(t, workflow.Approvals)
	assert.Equal(t, pq.StringArray{"Upload required documents"}, workflow.PendingActions)
	assert.Equal(t, "reviewer-1", workflow.CreatedBy)
}

func TestCreateWorkflow_ReturnsExisting(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)

	first, err := service.CreateWorkflow(context.Background(), supplier.ID, "reviewer-1")
	assert.NoError(t, err)

	second, err := service.CreateWorkflow(context.Background(), supplier.ID, "reviewer-2")
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, workflowRepo.workflows, 1)
}

// ============================================================================
// TEST SUITE 2: FULL APPROVAL PATH
// ============================================================================

func TestAdvance_FullApprovalPath(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)

	workflow, err := service.CreateWorkflow(context.Background(), supplier.ID, "reviewer-1")
	assert.NoError(t, err)

	reviewers := []struct {
		step models.WorkflowStep
		role models.ReviewerRole
	}{
		{models.StepDocumentUpload, models.RoleAnalyst},
		{models.StepAutomatedVerification, models.RoleAnalyst},
		{models.StepAnalystReview, models.RoleAnalyst},
		{models.StepManagerApproval, models.RoleManager},
		{models.StepComplianceCheck, models.RoleAnalyst},
		{models.StepDirectorApproval, models.RoleDirector},
		{models.StepFinalApproval, models.RoleDirector},
	}

	for _, reviewer := range reviewers {
		assert.Equal(t, reviewer.step, workflow.CurrentStep)
		workflow, err = service.Advance(context.Background(), workflow.ID, "actor-"+string(reviewer.role), reviewer.role, approveReq())
		assert.NoError(t, err)
	}

	assert.Equal(t, models.StatusApproved, workflow.Status)
	assert.Equal(t, models.StepFinalApproval, workflow.CurrentStep)
	assert.Equal(t, 8, workflow.Version, "seven updates on top of version 1")
	assert.Empty(t, workflow.PendingActions)

	// Every step is completed exactly once, in canonical order.
	expectedSteps := pq.StringArray{}
	for _, step := range models.AllWorkflowSteps() {
		expectedSteps = append(expectedSteps, string(step))
	}
	assert.Equal(t, expectedSteps, workflow.StepsCompleted)

	// The decision log is dense, 1-based and records the step decided on.
	assert.Len(t, workflow.Approvals, 7)
	for i, record := range workflow.Approvals {
		assert.Equal(t, i+1, record.Sequence)
		assert.Equal(t, reviewers[i].step, record.Step)
		assert.Equal(t, models.DecisionApprove, record.Decision)
		assert.Equal(t, reviewers[i].role, record.ActorRole)
	}

	// Status changed five times: two approvals keep the same status.
	assert.Len(t, publisher.events, 5)
	assert.Equal(t, models.StatusPending, publisher.events[0].OldStatus)
	assert.Equal(t, models.StatusUnderReview, publisher.events[0].NewStatus)
	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, models.StatusDirectorApproval, last.OldStatus)
	assert.Equal(t, models.StatusApproved, last.NewStatus)
	assert.Equal(t, models.StepFinalApproval, last.Step)

	// The supplier row mirrors the final status.
	stored, err := supplierRepo.GetByID(context.Background(), supplier.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, 7, workflowRepo.updateCount)
}

// ============================================================================
// TEST SUITE 3: ROLE PERMISSIONS
// ============================================================================

func TestAdvance_PermissionMatrix(t *testing.T) {
	cases := []struct {
		name    string
		step    models.WorkflowStep
		status  models.SupplierStatus
		role    models.ReviewerRole
		allowed bool
	}{
		{"analyst at document upload", models.StepDocumentUpload, models.StatusPending, models.RoleAnalyst, true},
		{"analyst at analyst review", models.StepAnalystReview, models.StatusUnderReview, models.RoleAnalyst, true},
		{"analyst at compliance check", models.StepComplianceCheck, models.StatusComplianceCheck, models.RoleAnalyst, true},
		{"analyst at manager approval", models.StepManagerApproval, models.StatusManagerReview, models.RoleAnalyst, false},
		{"manager at manager approval", models.StepManagerApproval, models.StatusManagerReview, models.RoleManager, true},
		{"manager at director approval", models.StepDirectorApproval, models.StatusDirectorApproval, models.RoleManager, false},
		{"director at director approval", models.StepDirectorApproval, models.StatusDirectorApproval, models.RoleDirector, true},
		{"manager at final approval", models.StepFinalApproval, models.StatusDirectorApproval, models.RoleManager, false},
		{"admin at final approval", models.StepFinalApproval, models.StatusDirectorApproval, models.RoleAdmin, true},
		{"unknown role at document upload", models.StepDocumentUpload, models.StatusPending, models.ReviewerRole("guest"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
			supplier := seedSupplier(supplierRepo, tc.status)
			workflow := workflowAt(supplier.ID, tc.step, tc.status)
			assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

			_, err := service.Advance(context.Background(), workflow.ID, "actor-1", tc.role, approveReq())

			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrPermissionDenied)
			}
		})
	}
}

func TestAdvance_DeniedDecisionLeavesWorkflowUnchanged(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusManagerReview)
	workflow := workflowAt(supplier.ID, models.StepManagerApproval, models.StatusManagerReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	before := cloneWorkflow(workflowRepo.stored(workflow.ID))

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, approveReq())

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, before, workflowRepo.stored(workflow.ID))
	assert.Equal(t, 0, workflowRepo.updateCount)
	assert.Empty(t, publisher.events)
	assert.Empty(t, supplierRepo.statusUpdates)
}

// ============================================================================
// TEST SUITE 4: REQUEST MORE INFO
// ============================================================================

func TestAdvance_RequestMoreInfoResetsToDocumentUpload(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	workflow.StepsCompleted = pq.StringArray{
		string(models.StepDocumentUpload),
		string(models.StepAutomatedVerification),
	}
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, models.DecisionRequest{
		Decision:           models.DecisionRequestMoreInfo,
		Comments:           "Tax registration certificate is missing",
		RequestedDocuments: []models.DocumentType{models.DocTaxRegistrationCert},
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusDocumentsRequired, updated.Status)
	assert.Equal(t, models.StepDocumentUpload, updated.CurrentStep)
	assert.Equal(t, pq.StringArray{"Upload missing document: tax_registration_certificate"}, updated.PendingActions)

	// Completed steps survive the reset; the log captures the request.
	assert.Len(t, updated.StepsCompleted, 2)
	assert.Len(t, updated.Approvals, 1)
	record := updated.Approvals[0]
	assert.Equal(t, models.StepAnalystReview, record.Step)
	assert.Equal(t, models.DecisionRequestMoreInfo, record.Decision)
	assert.Equal(t, []models.DocumentType{models.DocTaxRegistrationCert}, record.RequestedDocuments)

	assert.Len(t, publisher.events, 1)
	assert.Equal(t, models.StatusDocumentsRequired, publisher.events[0].NewStatus)

	// Re-approving from document upload does not duplicate the completed step.
	updated, err = service.Advance(context.Background(), updated.ID, "analyst-1", models.RoleAnalyst, approveReq())
	assert.NoError(t, err)
	assert.Equal(t, models.StepAutomatedVerification, updated.CurrentStep)
	assert.Len(t, updated.StepsCompleted, 2)
}

func TestAdvance_RequestMoreInfoWithoutDocumentList(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusManagerReview)
	workflow := workflowAt(supplier.ID, models.StepManagerApproval, models.StatusManagerReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.Advance(context.Background(), workflow.ID, "manager-1", models.RoleManager, models.DecisionRequest{
		Decision: models.DecisionRequestMoreInfo,
		Comments: "Need clearer scans",
	})

	assert.NoError(t, err)
	assert.Equal(t, pq.StringArray{"Upload additional documents requested by reviewer"}, updated.PendingActions)
}

func TestAdvance_RepeatedInfoRequestsAllRetained(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	request := models.DecisionRequest{
		Decision:           models.DecisionRequestMoreInfo,
		RequestedDocuments: []models.DocumentType{models.DocBankStatement},
	}

	updated, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, request)
	assert.NoError(t, err)

	// The workflow is back at document upload but a reviewer can still ask
	// again; both requests stay in the log with dense sequence numbers.
	updated, err = service.Advance(context.Background(), updated.ID, "analyst-2", models.RoleAnalyst, request)
	assert.NoError(t, err)

	assert.Len(t, updated.Approvals, 2)
	assert.Equal(t, 1, updated.Approvals[0].Sequence)
	assert.Equal(t, 2, updated.Approvals[1].Sequence)
	assert.Equal(t, "analyst-1", updated.Approvals[0].ActorID)
	assert.Equal(t, "analyst-2", updated.Approvals[1].ActorID)
}

// ============================================================================
// TEST SUITE 5: REJECTION
// ============================================================================

func TestAdvance_RejectRequiresReason(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, models.DecisionRequest{
		Decision: models.DecisionReject,
		Reason:   "   ",
	})

	assert.ErrorIs(t, err, ErrInvalidDecision)
	assert.Equal(t, 0, workflowRepo.updateCount)
}

func TestAdvance_RejectIsTerminal(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusManagerReview)
	workflow := workflowAt(supplier.ID, models.StepManagerApproval, models.StatusManagerReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.Advance(context.Background(), workflow.ID, "manager-1", models.RoleManager, models.DecisionRequest{
		Decision: models.DecisionReject,
		Reason:   "Falsified tax registration certificate",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, models.StepManagerApproval, updated.CurrentStep, "rejection does not move the step")
	assert.Equal(t, pq.StringArray{"Supplier rejected - no further action required"}, updated.PendingActions)
	assert.Equal(t, "Falsified tax registration certificate", updated.Approvals[0].Reason)
	assert.Len(t, publisher.events, 1)

	// Nothing moves a rejected workflow.
	_, err = service.Advance(context.Background(), updated.ID, "director-1", models.RoleDirector, approveReq())
	assert.ErrorIs(t, err, ErrWorkflowNotActive)

	_, err = service.Advance(context.Background(), updated.ID, "admin-1", models.RoleAdmin, models.DecisionRequest{
		Decision: models.DecisionRequestMoreInfo,
	})
	assert.ErrorIs(t, err, ErrWorkflowNotActive)
}

// ============================================================================
// TEST SUITE 6: APPROVED WORKFLOWS
// ============================================================================

func TestAdvance_ApproveOnApprovedIsIdempotent(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusApproved)
	workflow := workflowAt(supplier.ID, models.StepFinalApproval, models.StatusApproved)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.Advance(context.Background(), workflow.ID, "director-1", models.RoleDirector, approveReq())

	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, models.StepFinalApproval, updated.CurrentStep)
	assert.Len(t, updated.Approvals, 1, "the repeat decision is still recorded")
	assert.Equal(t, 2, updated.Version)
	assert.Empty(t, publisher.events, "no status change, no event")
	assert.Empty(t, supplierRepo.statusUpdates)
}

func TestAdvance_ApprovedRefusesOtherDecisions(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusApproved)
	workflow := workflowAt(supplier.ID, models.StepFinalApproval, models.StatusApproved)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.Advance(context.Background(), workflow.ID, "director-1", models.RoleDirector, models.DecisionRequest{
		Decision: models.DecisionReject,
		Reason:   "change of mind",
	})
	assert.ErrorIs(t, err, ErrWorkflowNotActive)

	_, err = service.Advance(context.Background(), workflow.ID, "director-1", models.RoleDirector, models.DecisionRequest{
		Decision: models.DecisionRequestMoreInfo,
	})
	assert.ErrorIs(t, err, ErrWorkflowNotActive)
}

// ============================================================================
// TEST SUITE 7: OPTIMISTIC CONCURRENCY
// ============================================================================

func TestAdvance_StaleExpectedVersion(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	workflow.Version = 4
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	request := approveReq()
	request.ExpectedVersion = 3

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, request)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 0, workflowRepo.updateCount, "conflict detected before any write")
}

func TestAdvance_MatchingExpectedVersion(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	workflow.Version = 4
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	request := approveReq()
	request.ExpectedVersion = 4

	updated, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, request)

	assert.NoError(t, err)
	assert.Equal(t, 5, updated.Version)
}

func TestAdvance_ConcurrentWriterWinsTheRace(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	workflowRepo.forceCASMiss = true

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, approveReq())

	assert.ErrorIs(t, err, ErrVersionConflict)
}

// ============================================================================
// TEST SUITE 8: GUARDS
// ============================================================================

func TestAdvance_WorkflowNotFound(t *testing.T) {
	service, _, _, _ := newWorkflowFixture()

	_, err := service.Advance(context.Background(), uuid.New(), "analyst-1", models.RoleAnalyst, approveReq())

	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestAdvance_MissingActor(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	workflow := workflowAt(supplier.ID, models.StepDocumentUpload, models.StatusPending)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.Advance(context.Background(), workflow.ID, "  ", models.RoleAnalyst, approveReq())

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestAdvance_InvalidDecisionType(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	workflow := workflowAt(supplier.ID, models.StepDocumentUpload, models.StatusPending)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, models.DecisionRequest{
		Decision: models.DecisionType("escalate"),
	})

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestAdvance_InvalidRequestedDocument(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, models.DecisionRequest{
		Decision:           models.DecisionRequestMoreInfo,
		RequestedDocuments: []models.DocumentType{"passport"},
	})

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestAdvance_MirrorFailureDoesNotFailDecision(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	supplierRepo.statusErr = assert.AnError
	workflow := workflowAt(supplier.ID, models.StepDocumentUpload, models.StatusPending)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.Advance(context.Background(), workflow.ID, "analyst-1", models.RoleAnalyst, approveReq())

	assert.NoError(t, err, "the workflow is the source of truth; a failed mirror only logs")
	assert.Equal(t, models.StatusUnderReview, updated.Status)
	assert.Len(t, publisher.events, 1, "the event still goes out")
}

// ============================================================================
// TEST SUITE 9: ADMINISTRATIVE ACTIONS
// ============================================================================

func TestAdministrativeAction_RequiresAdmin(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	for _, role := range []models.ReviewerRole{models.RoleAnalyst, models.RoleManager, models.RoleDirector} {
		_, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusCancelled, "actor-1", role)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	}
}

func TestAdministrativeAction_CancelPendingWorkflow(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	workflow := workflowAt(supplier.ID, models.StepDocumentUpload, models.StatusPending)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusCancelled, "admin-1", models.RoleAdmin)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Empty(t, updated.PendingActions)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, publisher.events, 1)
	assert.Equal(t, models.StatusCancelled, publisher.events[0].NewStatus)

	stored, err := supplierRepo.GetByID(context.Background(), supplier.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

func TestAdministrativeAction_RepeatIsNoOp(t *testing.T) {
	service, workflowRepo, supplierRepo, publisher := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusSuspended)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	updated, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusSuspended, "admin-1", models.RoleAdmin)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, updated.Status)
	assert.Equal(t, 1, updated.Version, "no write for a repeated action")
	assert.Equal(t, 0, workflowRepo.updateCount)
	assert.Empty(t, publisher.events)
}

func TestAdministrativeAction_CancelAfterTerminalFails(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusApproved)
	workflow := workflowAt(supplier.ID, models.StepFinalApproval, models.StatusApproved)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusCancelled, "admin-1", models.RoleAdmin)

	assert.ErrorIs(t, err, ErrWorkflowNotActive)
}

func TestAdministrativeAction_SuspendThenBlacklist(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusUnderReview)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusUnderReview)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	suspended, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusSuspended, "admin-1", models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, pq.StringArray{"Supplier suspended - awaiting administrator action"}, suspended.PendingActions)

	// Suspension can still escalate, and approval decisions stay blocked.
	_, err = service.Advance(context.Background(), workflow.ID, "director-1", models.RoleDirector, approveReq())
	assert.ErrorIs(t, err, ErrWorkflowNotActive)

	blacklisted, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusBlacklisted, "admin-1", models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusBlacklisted, blacklisted.Status)
	assert.Equal(t, pq.StringArray{"Supplier blacklisted - no further action required"}, blacklisted.PendingActions)
}

func TestAdministrativeAction_SuspendCancelledFails(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusCancelled)
	workflow := workflowAt(supplier.ID, models.StepAnalystReview, models.StatusCancelled)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusSuspended, "admin-1", models.RoleAdmin)

	assert.ErrorIs(t, err, ErrWorkflowNotActive)
}

func TestAdministrativeAction_RejectsNonAdministrativeStatus(t *testing.T) {
	service, workflowRepo, supplierRepo, _ := newWorkflowFixture()
	supplier := seedSupplier(supplierRepo, models.StatusPending)
	workflow := workflowAt(supplier.ID, models.StepDocumentUpload, models.StatusPending)
	assert.NoError(t, workflowRepo.Create(context.Background(), workflow))

	_, err := service.AdministrativeAction(context.Background(), supplier.ID, models.StatusApproved, "admin-1", models.RoleAdmin)

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestAdministrativeAction_UnknownSupplier(t *testing.T) {
	service, _, _, _ := newWorkflowFixture()

	_, err := service.AdministrativeAction(context.Background(), uuid.New(), models.StatusCancelled, "admin-1", models.RoleAdmin)

	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

// ============================================================================
// TEST SUITE 10: PENDING ACTION DERIVATION
// ============================================================================

func TestRecomputePendingActions(t *testing.T) {
	cases := []struct {
		name      string
		step      models.WorkflowStep
		status    models.SupplierStatus
		requested []models.DocumentType
		expected  pq.StringArray
	}{
		{"document upload", models.StepDocumentUpload, models.StatusPending, nil,
			pq.StringArray{"Upload required documents"}},
		{"automated verification", models.StepAutomatedVerification, models.StatusUnderReview, nil,
			pq.StringArray{"Automated verification in progress"}},
		{"analyst review", models.StepAnalystReview, models.StatusUnderReview, nil,
			pq.StringArray{"Awaiting analyst review"}},
		{"manager approval", models.StepManagerApproval, models.StatusManagerReview, nil,
			pq.StringArray{"Awaiting manager approval"}},
		{"compliance check", models.StepComplianceCheck, models.StatusComplianceCheck, nil,
			pq.StringArray{"Awaiting compliance check"}},
		{"director approval", models.StepDirectorApproval, models.StatusDirectorApproval, nil,
			pq.StringArray{"Awaiting director approval"}},
		{"final approval", models.StepFinalApproval, models.StatusDirectorApproval, nil,
			pq.StringArray{"Awaiting final approval"}},
		{"approved clears actions", models.StepFinalApproval, models.StatusApproved, nil,
			pq.StringArray{}},
		{"cancelled clears actions", models.StepAnalystReview, models.StatusCancelled, nil,
			pq.StringArray{}},
		{"rejected", models.StepManagerApproval, models.StatusRejected, nil,
			pq.StringArray{"Supplier rejected - no further action required"}},
		{"blacklisted", models.StepAnalystReview, models.StatusBlacklisted, nil,
			pq.StringArray{"Supplier blacklisted - no further action required"}},
		{"suspended", models.StepAnalystReview, models.StatusSuspended, nil,
			pq.StringArray{"Supplier suspended - awaiting administrator action"}},
		{"documents required without list", models.StepDocumentUpload, models.StatusDocumentsRequired, nil,
			pq.StringArray{"Upload additional documents requested by reviewer"}},
		{"documents required with list", models.StepDocumentUpload, models.StatusDocumentsRequired,
			[]models.DocumentType{models.DocTaxRegistrationCert, models.DocBankStatement},
			pq.StringArray{
				"Upload missing document: tax_registration_certificate",
				"Upload missing document: bank_statement",
			}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, recomputePendingActions(tc.step, tc.status, tc.requested))
		})
	}
}

// ============================================================================
// TEST SUITE 11: REVIEW QUEUE LISTING
// ============================================================================

func TestListWorkflows_FiltersByStatusInArrivalOrder(t *testing.T) {
	service, workflowRepo, _, _ := newWorkflowFixture()

	first := workflowAt(uuid.New(), models.StepAnalystReview, models.StatusUnderReview)
	second := workflowAt(uuid.New(), models.StepAutomatedVerification, models.StatusUnderReview)
	other := workflowAt(uuid.New(), models.StepDocumentUpload, models.StatusPending)
	for _, w := range []*models.ValidationWorkflow{first, second, other} {
		assert.NoError(t, workflowRepo.Create(context.Background(), w))
	}

	queue, err := service.ListWorkflows(context.Background(), models.StatusUnderReview, 0, 0)

	assert.NoError(t, err)
	assert.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID, "oldest workflow heads the queue")
	assert.Equal(t, second.ID, queue[1].ID)
}

func TestListWorkflows_Paging(t *testing.T) {
	service, workflowRepo, _, _ := newWorkflowFixture()

	ids := make([]uuid.UUID, 0, 3)
	for range 3 {
		w := workflowAt(uuid.New(), models.StepAnalystReview, models.StatusUnderReview)
		assert.NoError(t, workflowRepo.Create(context.Background(), w))
		ids = append(ids, w.ID)
	}

	page, err := service.ListWorkflows(context.Background(), models.StatusUnderReview, 2, 2)

	assert.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)
}
