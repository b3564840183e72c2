package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ============================================================================
// SUPPLIER (COMPANY PROFILE UNDER VALIDATION)
// ============================================================================

type Supplier struct {
	ID                    uuid.UUID      `json:"id" db:"id"`
	TenantID              string         `json:"tenant_id" db:"tenant_id"`
	CompanyName           string         `json:"company_name" db:"company_name"`
	ContactName           string         `json:"contact_name" db:"contact_name"`
	ContactEmail          string         `json:"contact_email" db:"contact_email"`
	ContactPhone          string         `json:"contact_phone" db:"contact_phone"`
	Address               string         `json:"address" db:"address"`
	Country               string         `json:"country" db:"country"`
	Website               *string        `json:"website,omitempty" db:"website"`
	Industry              string         `json:"industry" db:"industry"`
	TaxRegistrationNumber string         `json:"tax_registration_number" db:"tax_registration_number"`
	TaxIDNumber           string         `json:"tax_id_number" db:"tax_id_number"`
	ProductCategories     pq.StringArray `json:"product_categories" db:"product_categories"`
	EmployeeCount         int            `json:"employee_count" db:"employee_count"`
	AnnualRevenue         float64        `json:"annual_revenue" db:"annual_revenue"`
	Status                SupplierStatus `json:"status" db:"status"`
	RiskLevel             *RiskLevel     `json:"risk_level,omitempty" db:"risk_level"`
	RiskScore             *float64       `json:"risk_score,omitempty" db:"risk_score"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
}

// SupplierDetail bundles the profile with its documents and latest assessment
// for the detail endpoint.
type SupplierDetail struct {
	Supplier   Supplier            `json:"supplier"`
	Documents  []SupplierDocument  `json:"documents"`
	Workflow   *ValidationWorkflow `json:"workflow,omitempty"`
	Assessment *RiskAssessment     `json:"latest_assessment,omitempty"`
}

// SupplierFilters narrows list queries. Zero values mean "not filtered".
type SupplierFilters struct {
	TenantID  string
	Status    SupplierStatus
	RiskLevel RiskLevel
	Industry  string
	Limit     int
	Offset    int
}
