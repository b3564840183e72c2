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

type RiskAssessmentRepository struct {
	db *sqlx.DB
}

func NewRiskAssessmentRepository(db *sqlx.DB) *RiskAssessmentRepository {
	return &RiskAssessmentRepository{db: db}
}

func (r *RiskAssessmentRepository) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	if assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	if assessment.AssessedAt.IsZero() {
		assessment.AssessedAt = time.Now()
	}
	if assessment.RiskFactors == nil {
		assessment.RiskFactors = pq.StringArray{}
	}
	if assessment.Recommendations == nil {
		assessment.Recommendations = pq.StringArray{}
	}
	if assessment.ComplianceChecks == nil {
		assessment.ComplianceChecks = utils.JSONMap{}
	}

	query := `
		INSERT INTO risk_assessments (
			id, supplier_id, score, level,
			risk_factors, recommendations, compliance_checks, assessed_at
		) VALUES (
			:id, :supplier_id, :score, :level,
			:risk_factors, :recommendations, :compliance_checks, :assessed_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, assessment)
	if err != nil {
		return fmt.Errorf("failed to create risk assessment: %w", err)
	}

	return nil
}

func (r *RiskAssessmentRepository) GetLatestBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.RiskAssessment, error) {
	var assessment models.RiskAssessment
	query := `SELECT * FROM risk_assessments WHERE supplier_id = $1 ORDER BY assessed_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &assessment, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest risk assessment: %w", err)
	}

	return &assessment, nil
}

func (r *RiskAssessmentRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.RiskAssessment, error) {
	if limit <= 0 {
		limit = 10
	}

	assessments := []models.RiskAssessment{}
	query := `SELECT * FROM risk_assessments WHERE supplier_id = $1 ORDER BY assessed_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &assessments, query, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}

	return assessments, nil
}
