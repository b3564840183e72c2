package repository

import (
	"context"
	"fmt"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type WorkflowRepository struct {
	db *sqlx.DB
}

func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.ValidationWorkflow) error {
	if workflow.ID == uuid.Nil {
		workflow.ID = uuid.New()
	}
	if workflow.Version == 0 {
		workflow.Version = 1
	}
	if workflow.StepsCompleted == nil {
		workflow.StepsCompleted = pq.StringArray{}
	}
	if workflow.PendingActions == nil {
		workflow.PendingActions = pq.StringArray{}
	}
	workflow.CreatedAt = time.Now()
	workflow.UpdatedAt = time.Now()

	query := `
		INSERT INTO validation_workflows (
			id, supplier_id, current_step, status,
			steps_completed, pending_actions, approvals, version,
			created_by, created_at, updated_at
		) VALUES (
			:id, :supplier_id, :current_step, :status,
			:steps_completed, :pending_actions, :approvals, :version,
			:created_by, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, workflow)
	if err != nil {
		return fmt.Errorf("failed to create validation workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ValidationWorkflow, error) {
	var workflow models.ValidationWorkflow
	query := `SELECT * FROM validation_workflows WHERE id = $1`

	err := r.db.GetContext(ctx, &workflow, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get validation workflow: %w", err)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) GetActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*models.ValidationWorkflow, error) {
	var workflow models.ValidationWorkflow
	query := `SELECT * FROM validation_workflows WHERE supplier_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &workflow, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow by supplier: %w", err)
	}

	return &workflow, nil
}

// UpdateWithVersion writes the workflow only if nobody else has bumped the
// version since it was read. A false return means the caller lost the race
// and should reload before retrying.
func (r *WorkflowRepository) UpdateWithVersion(ctx context.Context, workflow *models.ValidationWorkflow, expectedVersion int) (bool, error) {
	workflow.UpdatedAt = time.Now()

	query := `
		UPDATE validation_workflows SET
			current_step = $1, status = $2,
			steps_completed = $3, pending_actions = $4,
			approvals = $5, version = $6, updated_at = $7
		WHERE id = $8 AND version = $9`

	result, err := r.db.ExecContext(ctx, query,
		workflow.CurrentStep,
		workflow.Status,
		workflow.StepsCompleted,
		workflow.PendingActions,
		workflow.Approvals,
		workflow.Version,
		workflow.UpdatedAt,
		workflow.ID,
		expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update validation workflow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for workflow %s: %w", workflow.ID, err)
	}

	return rows == 1, nil
}

func (r *WorkflowRepository) ListByStatus(ctx context.Context, status models.SupplierStatus, limit, offset int) ([]models.ValidationWorkflow, error) {
	workflows := []models.ValidationWorkflow{}
	query := `SELECT * FROM validation_workflows WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &workflows, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows by status: %w", err)
	}

	return workflows, nil
}
