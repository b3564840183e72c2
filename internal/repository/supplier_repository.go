package repository

import (
	"context"
	"fmt"
	"time"

	"supplier-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SupplierRepository struct {
	db *sqlx.DB
}

func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.Status == "" {
		supplier.Status = models.StatusPending
	}
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = time.Now()

	query := `
		INSERT INTO suppliers (
			id, tenant_id, company_name, contact_name, contact_email, contact_phone,
			address, country, website, industry,
			tax_registration_number, tax_id_number, product_categories,
			employee_count, annual_revenue, status, risk_level, risk_score,
			created_at, updated_at
		) VALUES (
			:id, :tenant_id, :company_name, :contact_name, :contact_email, :contact_phone,
			:address, :country, :website, :industry,
			:tax_registration_number, :tax_id_number, :product_categories,
			:employee_count, :annual_revenue, :status, :risk_level, :risk_score,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, supplier)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}

	return nil
}

func (r *SupplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	query := `SELECT * FROM suppliers WHERE id = $1`

	err := r.db.GetContext(ctx, &supplier, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	return &supplier, nil
}

// GetWithFilters returns one page of suppliers plus the unpaged total.
func (r *SupplierRepository) GetWithFilters(ctx context.Context, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filters.TenantID != "" {
		where += fmt.Sprintf(" AND tenant_id = $%d", argIndex)
		args = append(args, filters.TenantID)
		argIndex++
	}

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filters.Status)
		argIndex++
	}

	if filters.RiskLevel != "" {
		where += fmt.Sprintf(" AND risk_level = $%d", argIndex)
		args = append(args, filters.RiskLevel)
		argIndex++
	}

	if filters.Industry != "" {
		where += fmt.Sprintf(" AND industry = $%d", argIndex)
		args = append(args, filters.Industry)
		argIndex++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM suppliers" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	query := "SELECT * FROM suppliers" + where + " ORDER BY created_at DESC"

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	suppliers := []models.Supplier{}
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}

	return suppliers, total, nil
}

func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	supplier.UpdatedAt = time.Now()

	query := `
		UPDATE suppliers SET
			company_name = :company_name, contact_name = :contact_name,
			contact_email = :contact_email, contact_phone = :contact_phone,
			address = :address, country = :country, website = :website,
			industry = :industry, tax_registration_number = :tax_registration_number,
			tax_id_number = :tax_id_number, product_categories = :product_categories,
			employee_count = :employee_count, annual_revenue = :annual_revenue,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, supplier)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}

	return requireRowsAffected(result, "supplier", supplier.ID)
}

func (r *SupplierRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) error {
	query := `UPDATE suppliers SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update supplier status: %w", err)
	}

	return requireRowsAffected(result, "supplier", id)
}

func (r *SupplierRepository) UpdateRiskProfile(ctx context.Context, id uuid.UUID, score float64, level models.RiskLevel) error {
	query := `UPDATE suppliers SET risk_score = $1, risk_level = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, score, level, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update supplier risk profile: %w", err)
	}

	return requireRowsAffected(result, "supplier", id)
}

// Delete removes the supplier row. Documents, workflows and assessments go
// with it via ON DELETE CASCADE.
func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	return requireRowsAffected(result, "supplier", id)
}
