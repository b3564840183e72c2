package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SupplierService manages supplier profiles. Creation also opens the
// supplier's validation workflow so no profile exists outside the process.
type SupplierService struct {
	suppliers   SupplierRepository
	documents   DocumentRepository
	assessments RiskAssessmentRepository
	workflowSvc *WorkflowService
}

func NewSupplierService(
	suppliers SupplierRepository,
	documents DocumentRepository,
	assessments RiskAssessmentRepository,
	workflowSvc *WorkflowService,
) *SupplierService {
	return &SupplierService{
		suppliers:   suppliers,
		documents:   documents,
		assessments: assessments,
		workflowSvc: workflowSvc,
	}
}

// CreateSupplier registers the profile and opens its validation workflow at
// the document upload step.
func (s *SupplierService) CreateSupplier(ctx context.Context, req *models.CreateSupplierRequest, createdBy string) (*models.SupplierDetail, error) {
	supplier := &models.Supplier{
		TenantID:              strings.TrimSpace(req.TenantID),
		CompanyName:           strings.TrimSpace(req.CompanyName),
		ContactName:           strings.TrimSpace(req.ContactName),
		ContactEmail:          strings.TrimSpace(req.ContactEmail),
		ContactPhone:          strings.TrimSpace(req.ContactPhone),
		Address:               strings.TrimSpace(req.Address),
		Country:               strings.TrimSpace(req.Country),
		Industry:              strings.TrimSpace(req.Industry),
		TaxRegistrationNumber: strings.TrimSpace(req.TaxRegistrationNumber),
		TaxIDNumber:           strings.TrimSpace(req.TaxIDNumber),
		ProductCategories:     pq.StringArray(req.ProductCategories),
		EmployeeCount:         req.EmployeeCount,
		AnnualRevenue:         req.AnnualRevenue,
		Status:                models.StatusPending,
	}

	if req.Website != nil {
		if trimmed := strings.TrimSpace(*req.Website); trimmed != "" {
			supplier.Website = &trimmed
		}
	}
	if supplier.ProductCategories == nil {
		supplier.ProductCategories = pq.StringArray{}
	}

	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	workflow, err := s.workflowSvc.CreateWorkflow(ctx, supplier.ID, createdBy)
	if err != nil {
		// Roll the profile back so no supplier exists outside validation.
		if delErr := s.suppliers.Delete(ctx, supplier.ID); delErr != nil {
			slog.Error("Failed to remove supplier after workflow creation failure",
				"supplier_id", supplier.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to initialize validation workflow: %w", err)
	}

	slog.Info("Successfully created supplier",
		"supplier_id", supplier.ID,
		"company", supplier.CompanyName,
		"tenant_id", supplier.TenantID)

	return &models.SupplierDetail{
		Supplier:  *supplier,
		Documents: []models.SupplierDocument{},
		Workflow:  workflow,
	}, nil
}

// GetSupplier assembles the full detail view: profile, documents, workflow,
// latest assessment. Workflow and assessment are optional; their absence is
// not an error.
func (s *SupplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*models.SupplierDetail, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	docs, err := s.documents.GetBySupplier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier documents: %w", err)
	}

	detail := &models.SupplierDetail{
		Supplier:  *supplier,
		Documents: docs,
	}

	workflow, err := s.workflowSvc.GetSupplierWorkflow(ctx, id)
	if err != nil && !errors.Is(err, ErrWorkflowNotFound) {
		return nil, err
	}
	detail.Workflow = workflow

	assessment, err := s.assessments.GetLatestBySupplier(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load latest assessment: %w", err)
	}
	detail.Assessment = assessment

	return detail, nil
}

// ListSuppliers returns one page plus the unpaged total.
func (s *SupplierService) ListSuppliers(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	return s.suppliers.GetWithFilters(ctx, filters)
}

// UpdateSupplier applies the non-nil fields of the request to the profile.
// Workflow state is never touched here.
func (s *SupplierService) UpdateSupplier(ctx context.Context, id uuid.UUID, req *models.UpdateSupplierRequest) (*models.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	if req.CompanyName != nil {
		supplier.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.ContactName != nil {
		supplier.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.ContactEmail != nil {
		supplier.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if req.ContactPhone != nil {
		supplier.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.Address != nil {
		supplier.Address = strings.TrimSpace(*req.Address)
	}
	if req.Country != nil {
		supplier.Country = strings.TrimSpace(*req.Country)
	}
	if req.Website != nil {
		if trimmed := strings.TrimSpace(*req.Website); trimmed != "" {
			supplier.Website = &trimmed
		} else {
			supplier.Website = nil
		}
	}
	if req.Industry != nil {
		supplier.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.TaxRegistrationNumber != nil {
		supplier.TaxRegistrationNumber = strings.TrimSpace(*req.TaxRegistrationNumber)
	}
	if req.TaxIDNumber != nil {
		supplier.TaxIDNumber = strings.TrimSpace(*req.TaxIDNumber)
	}
	if req.ProductCategories != nil {
		supplier.ProductCategories = pq.StringArray(req.ProductCategories)
	}
	if req.EmployeeCount != nil {
		supplier.EmployeeCount = *req.EmployeeCount
	}
	if req.AnnualRevenue != nil {
		supplier.AnnualRevenue = *req.AnnualRevenue
	}

	if err := s.suppliers.Update(ctx, supplier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	slog.Info("Successfully updated supplier", "supplier_id", id)
	return supplier, nil
}
