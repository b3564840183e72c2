package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ============================================================================
// IN-MEMORY FAKES
// ============================================================================
//
// The services only see the interfaces in interfaces.go, so plain maps are
// enough to exercise every branch without a database, broker or object store.
// Getters hand out copies the way a row scan would, so a service mutating a
// loaded struct never touches the stored state until an update call lands.

// ----- suppliers -----

type supplierStatusUpdate struct {
	ID     uuid.UUID
	Status models.SupplierStatus
}

type supplierRiskUpdate struct {
	ID    uuid.UUID
	Score float64
	Level models.RiskLevel
}

type fakeSupplierRepo struct {
	suppliers map[uuid.UUID]*models.Supplier
	order     []uuid.UUID

	statusUpdates []supplierStatusUpdate
	riskUpdates   []supplierRiskUpdate

	riskUpdateErr error
	listErr       error
	statusErr     error
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: make(map[uuid.UUID]*models.Supplier)}
}

func (r *fakeSupplierRepo) seed(supplier *models.Supplier) *models.Supplier {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	copied := *supplier
	r.suppliers[supplier.ID] = &copied
	r.order = append(r.order, supplier.ID)
	return supplier
}

func (r *fakeSupplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	r.seed(supplier)
	return nil
}

func (r *fakeSupplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	stored, ok := r.suppliers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeSupplierRepo) GetWithFilters(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}

	matched := []models.Supplier{}
	for _, id := range r.order {
		s := r.suppliers[id]
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		if filters.TenantID != "" && s.TenantID != filters.TenantID {
			continue
		}
		matched = append(matched, *s)
	}

	total := len(matched)
	if filters.Offset >= len(matched) {
		return []models.Supplier{}, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, supplier *models.Supplier) error {
	if _, ok := r.suppliers[supplier.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *supplier
	r.suppliers[supplier.ID] = &copied
	return nil
}

func (r *fakeSupplierRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) error {
	r.statusUpdates = append(r.statusUpdates, supplierStatusUpdate{ID: id, Status: status})
	if r.statusErr != nil {
		return r.statusErr
	}
	stored, ok := r.suppliers[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = status
	return nil
}

func (r *fakeSupplierRepo) UpdateRiskProfile(ctx context.Context, id uuid.UUID, score float64, level models.RiskLevel) error {
	r.riskUpdates = append(r.riskUpdates, supplierRiskUpdate{ID: id, Score: score, Level: level})
	if r.riskUpdateErr != nil {
		return r.riskUpdateErr
	}
	stored, ok := r.suppliers[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.RiskScore = &score
	stored.RiskLevel = &level
	return nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.suppliers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.suppliers, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ----- documents -----

type fakeDocumentRepo struct {
	docs  map[uuid.UUID]*models.SupplierDocument
	order []uuid.UUID

	counts map[uuid.UUID]models.DocumentCounts
	types  map[uuid.UUID][]models.DocumentType

	createErr     error
	countErr      error
	verifications []uuid.UUID
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:   make(map[uuid.UUID]*models.SupplierDocument),
		counts: make(map[uuid.UUID]models.DocumentCounts),
		types:  make(map[uuid.UUID][]models.DocumentType),
	}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.SupplierDocument) error {
	if r.createErr != nil {
		return r.createErr
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.VerificationStatus == "" {
		doc.VerificationStatus = models.VerificationPending
	}
	doc.UploadedAt = time.Now()
	copied := *doc
	r.docs[doc.ID] = &copied
	r.order = append(r.order, doc.ID)
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierDocument, error) {
	stored, ok := r.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeDocumentRepo) GetBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierDocument, error) {
	docs := []models.SupplierDocument{}
	for _, id := range r.order {
		if r.docs[id].SupplierID == supplierID {
			docs = append(docs, *r.docs[id])
		}
	}
	return docs, nil
}

func (r *fakeDocumentRepo) UpdateVerification(ctx context.Context, id uuid.UUID, result *models.VerificationResult) error {
	stored, ok := r.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.VerificationStatus = result.Status
	stored.ConfidenceScore = &result.Confidence
	verifiedAt := result.VerifiedAt
	stored.VerifiedAt = &verifiedAt
	stored.Issues = pq.StringArray(result.Issues)
	r.verifications = append(r.verifications, id)
	return nil
}

func (r *fakeDocumentRepo) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (models.DocumentCounts, error) {
	if r.countErr != nil {
		return models.DocumentCounts{}, r.countErr
	}
	if counts, ok := r.counts[supplierID]; ok {
		return counts, nil
	}

	counts := models.DocumentCounts{}
	for _, id := range r.order {
		doc := r.docs[id]
		if doc.SupplierID != supplierID {
			continue
		}
		counts.Total++
		if doc.VerificationStatus == models.VerificationVerified {
			counts.Verified++
		} else {
			counts.Pending++
		}
	}
	return counts, nil
}

func (r *fakeDocumentRepo) TypesBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.DocumentType, error) {
	if types, ok := r.types[supplierID]; ok {
		return types, nil
	}

	seen := map[models.DocumentType]bool{}
	types := []models.DocumentType{}
	for _, id := range r.order {
		doc := r.docs[id]
		if doc.SupplierID != supplierID || seen[doc.DocumentType] {
			continue
		}
		seen[doc.DocumentType] = true
		types = append(types, doc.DocumentType)
	}
	return types, nil
}

// ----- workflows -----

type fakeWorkflowRepo struct {
	workflows map[uuid.UUID]*models.ValidationWorkflow
	order     []uuid.UUID

	createErr    error
	updateErr    error
	forceCASMiss bool
	updateCount  int
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{workflows: make(map[uuid.UUID]*models.ValidationWorkflow)}
}

func cloneWorkflow(w *models.ValidationWorkflow) *models.ValidationWorkflow {
	copied := *w
	copied.StepsCompleted = append(pq.StringArray{}, w.StepsCompleted...)
	copied.PendingActions = append(pq.StringArray{}, w.PendingActions...)
	copied.Approvals = append(models.DecisionLog{}, w.Approvals...)
	return &copied
}

func (r *fakeWorkflowRepo) stored(id uuid.UUID) *models.ValidationWorkflow {
	return r.workflows[id]
}

func (r *fakeWorkflowRepo) Create(ctx context.Context, workflow *models.ValidationWorkflow) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.workflows[workflow.ID] = cloneWorkflow(workflow)
	r.order = append(r.order, workflow.ID)
	return nil
}

func (r *fakeWorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ValidationWorkflow, error) {
	stored, ok := r.workflows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneWorkflow(stored), nil
}

func (r *fakeWorkflowRepo) GetActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.ValidationWorkflow, error) {
	for _, id := range r.order {
		if w := r.workflows[id]; w.SupplierID == supplierID {
			return cloneWorkflow(w), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeWorkflowRepo) UpdateWithVersion(ctx context.Context, workflow *models.ValidationWorkflow, expectedVersion int) (bool, error) {
	if r.updateErr != nil {
		return false, r.updateErr
	}
	if r.forceCASMiss {
		return false, nil
	}
	stored, ok := r.workflows[workflow.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	r.workflows[workflow.ID] = cloneWorkflow(workflow)
	r.updateCount++
	return true, nil
}

func (r *fakeWorkflowRepo) ListByStatus(ctx context.Context, status models.SupplierStatus, limit, offset int) ([]models.ValidationWorkflow, error) {
	matched := []models.ValidationWorkflow{}
	for _, id := range r.order {
		if w := r.workflows[id]; w.Status == status {
			matched = append(matched, *cloneWorkflow(w))
		}
	}
	if offset >= len(matched) {
		return []models.ValidationWorkflow{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ----- risk assessments -----

type fakeAssessmentRepo struct {
	bySupplier map[uuid.UUID][]models.RiskAssessment
	createErr  error
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{bySupplier: make(map[uuid.UUID][]models.RiskAssessment)}
}

func (r *fakeAssessmentRepo) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	if r.createErr != nil {
		return r.createErr
	}
	if assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	r.bySupplier[assessment.SupplierID] = append(r.bySupplier[assessment.SupplierID], *assessment)
	return nil
}

func (r *fakeAssessmentRepo) GetLatestBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.RiskAssessment, error) {
	snapshots := r.bySupplier[supplierID]
	if len(snapshots) == 0 {
		return nil, sql.ErrNoRows
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (r *fakeAssessmentRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.RiskAssessment, error) {
	snapshots := r.bySupplier[supplierID]
	listed := []models.RiskAssessment{}
	for i := len(snapshots) - 1; i >= 0 && len(listed) < limit; i-- {
		listed = append(listed, snapshots[i])
	}
	return listed, nil
}

// ----- status events -----

type capturePublisher struct {
	events []models.SupplierStatusEvent
	err    error
}

func (p *capturePublisher) PublishStatusChange(ctx context.Context, event models.SupplierStatusEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// ----- object storage -----

type fakeStorage struct {
	objects map[string][]byte
	deleted []string

	uploadErr error
	getErr    error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func objectKey(bucket, name string) string { return bucket + "/" + name }

func (s *fakeStorage) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[objectKey(bucketName, objectName)] = data
	return nil
}

func (s *fakeStorage) GetFileBytes(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[objectKey(bucketName, objectName)]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *fakeStorage) GetPresignedURL(ctx context.Context, bucketName, objectName, downloadName string, expiry time.Duration) (string, error) {
	if _, ok := s.objects[objectKey(bucketName, objectName)]; !ok {
		return "", errors.New("object not found")
	}
	return "https://storage.local/" + objectKey(bucketName, objectName) + "?filename=" + downloadName, nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, bucketName, objectName string) error {
	delete(s.objects, objectKey(bucketName, objectName))
	s.deleted = append(s.deleted, objectKey(bucketName, objectName))
	return nil
}

func (s *fakeStorage) FileExists(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, ok := s.objects[objectKey(bucketName, objectName)]
	return ok, nil
}

// ----- verification queue -----

type queuedJob struct {
	JobType string
	Params  map[string]any
}

type fakeQueue struct {
	jobs []queuedJob
	err  error
}

func (q *fakeQueue) TrySubmit(jobType string, params map[string]any) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{JobType: jobType, Params: params})
	return nil
}
