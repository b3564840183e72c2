package models

import (
	"time"

	"supplier-service/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ============================================================================
// RISK ASSESSMENT (DETERMINISTIC SCORING SNAPSHOTS)
// ============================================================================

type RiskAssessment struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	SupplierID       uuid.UUID      `json:"supplier_id" db:"supplier_id"`
	Score            float64        `json:"score" db:"score"`
	Level            RiskLevel      `json:"level" db:"level"`
	RiskFactors      pq.StringArray `json:"risk_factors" db:"risk_factors"`
	Recommendations  pq.StringArray `json:"recommendations" db:"recommendations"`
	ComplianceChecks utils.JSONMap  `json:"compliance_checks" db:"compliance_checks"`
	AssessedAt       time.Time      `json:"assessed_at" db:"assessed_at"`
}

// SupplierFeatures is the risk engine's input, assembled from the supplier
// profile and its document statistics. The engine never touches storage.
type SupplierFeatures struct {
	HasWebsite                bool
	EmployeeCount             int
	AnnualRevenue             float64
	DocumentCount             int
	VerifiedDocumentCount     int
	PendingDocumentCount      int
	HasTaxRegistration        bool
	HasTaxID                  bool
	ProductCategoryCount      int
	Industry                  string
	MissingMandatoryDocuments []DocumentType
	TaxRegistrationNumber     string
	TaxIDNumber               string
}

// DocumentVerificationRatio is verified/total, 0 when no documents exist.
func (f SupplierFeatures) DocumentVerificationRatio() float64 {
	if f.DocumentCount == 0 {
		return 0
	}
	return float64(f.VerifiedDocumentCount) / float64(f.DocumentCount)
}

// RiskRule is one enumerated scoring adjustment. Weights are fixed;
// changing them is a code change reviewed like any other.
type RiskRule struct {
	Name    string
	Weight  float64
	Applies func(SupplierFeatures) bool
}

// DefaultRiskRules returns the scoring table applied on top of the baseline.
func DefaultRiskRules() []RiskRule {
	return []RiskRule{
		{
			Name:   "tax registration complete",
			Weight: -15,
			Applies: func(f SupplierFeatures) bool {
				return f.HasTaxRegistration && f.HasTaxID
			},
		},
		{
			Name:   "established team",
			Weight: -10,
			Applies: func(f SupplierFeatures) bool {
				return f.EmployeeCount > 50
			},
		},
		{
			Name:   "substantial revenue",
			Weight: -10,
			Applies: func(f SupplierFeatures) bool {
				return f.AnnualRevenue > 10000000
			},
		},
		{
			Name:   "strong verification ratio",
			Weight: -15,
			Applies: func(f SupplierFeatures) bool {
				return f.DocumentVerificationRatio() > 0.8
			},
		},
		{
			Name:   "web presence",
			Weight: -5,
			Applies: func(f SupplierFeatures) bool {
				return f.HasWebsite
			},
		},
		{
			Name:   "sparse documentation",
			Weight: 20,
			Applies: func(f SupplierFeatures) bool {
				return f.DocumentCount < 3
			},
		},
		{
			Name:   "very small team",
			Weight: 10,
			Applies: func(f SupplierFeatures) bool {
				return f.EmployeeCount < 10
			},
		},
		{
			Name:   "weak verification ratio",
			Weight: 25,
			Applies: func(f SupplierFeatures) bool {
				return f.DocumentVerificationRatio() < 0.5
			},
		},
	}
}

// SensitiveIndustries require heightened compliance attention.
func SensitiveIndustries() map[string]bool {
	return map[string]bool{
		"food":           true,
		"pharmaceutical": true,
		"chemical":       true,
	}
}
