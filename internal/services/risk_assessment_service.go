package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"supplier-service/internal/database/redis"
	"supplier-service/internal/models"
	"supplier-service/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const riskCacheKeyPrefix = "supplier_risk:"

// riskRules is swappable in tests to exercise the panic fallback.
var riskRules = models.DefaultRiskRules

// Anchored variants of the document-side patterns: stored profile fields are
// validated whole, not searched as substrings.
var (
	taxRegNumberFormat = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][A-Z0-9]Z[A-Z0-9]$`)
	taxIDNumberFormat  = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// RiskAssessmentService scores suppliers with the enumerated rule table.
// Evaluate is deterministic over SupplierFeatures; AssessSupplier wraps it
// with feature assembly, persistence and caching.
type RiskAssessmentService struct {
	supplierRepo   SupplierRepository
	documentRepo   DocumentRepository
	assessmentRepo RiskAssessmentRepository
	redisClient    *redis.Client
	cacheTTL       time.Duration
}

func NewRiskAssessmentService(
	supplierRepo SupplierRepository,
	documentRepo DocumentRepository,
	assessmentRepo RiskAssessmentRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
) *RiskAssessmentService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &RiskAssessmentService{
		supplierRepo:   supplierRepo,
		documentRepo:   documentRepo,
		assessmentRepo: assessmentRepo,
		redisClient:    redisClient,
		cacheTTL:       cacheTTL,
	}
}

// Evaluate applies the scoring table on top of the 50-point baseline and
// derives level, risk factors, recommendations and compliance checks. A panic
// anywhere inside degrades to a conservative manual-review result.
func (s *RiskAssessmentService) Evaluate(features models.SupplierFeatures) (assessment *models.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Risk evaluation recovered from panic", "panic", r)
			assessment = &models.RiskAssessment{
				Score:            75,
				Level:            models.RiskHigh,
				RiskFactors:      pq.StringArray{"Assessment error occurred"},
				Recommendations:  pq.StringArray{"Manual review required"},
				ComplianceChecks: utils.JSONMap{},
				AssessedAt:       time.Now(),
			}
		}
	}()

	score := 50.0
	for _, rule := range riskRules() {
		if rule.Applies(features) {
			score += rule.Weight
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := levelForScore(score)
	factors := collectRiskFactors(features)

	return &models.RiskAssessment{
		Score:            score,
		Level:            level,
		RiskFactors:      factors,
		Recommendations:  recommendationsFor(level, features),
		ComplianceChecks: complianceChecks(features),
		AssessedAt:       time.Now(),
	}
}

func levelForScore(score float64) models.RiskLevel {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 40:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// collectRiskFactors names weaknesses independently of the numeric score.
func collectRiskFactors(features models.SupplierFeatures) pq.StringArray {
	factors := pq.StringArray{}

	if !features.HasTaxRegistration {
		factors = append(factors, "Missing tax registration number")
	}
	if !features.HasTaxID {
		factors = append(factors, "Missing tax identification number")
	}
	if !features.HasWebsite {
		factors = append(factors, "No business website provided")
	}
	if features.EmployeeCount < 5 {
		factors = append(factors, "Very small team size")
	}
	for _, doc := range features.MissingMandatoryDocuments {
		factors = append(factors, fmt.Sprintf("Missing mandatory document: %s", doc))
	}
	if features.PendingDocumentCount > 0 {
		factors = append(factors, fmt.Sprintf("%d documents pending verification", features.PendingDocumentCount))
	}

	return factors
}

func recommendationsFor(level models.RiskLevel, features models.SupplierFeatures) pq.StringArray {
	recs := pq.StringArray{}

	switch level {
	case models.RiskCritical:
		recs = append(recs,
			"Immediate manual review required",
			"Verify all documents with primary sources",
			"Conduct on-site inspection before onboarding",
			"Require additional financial guarantees")
	case models.RiskHigh:
		recs = append(recs,
			"Enhanced due diligence recommended",
			"Request trade references",
			"Limit initial order volume")
	case models.RiskMedium:
		recs = append(recs, "Standard verification with close monitoring")
	case models.RiskLow:
		recs = append(recs,
			"Standard onboarding process",
			"Periodic compliance monitoring")
	}

	if !features.HasTaxRegistration {
		recs = append(recs, "Request tax registration certificate")
	}
	if len(features.MissingMandatoryDocuments) > 0 {
		recs = append(recs, "Request missing mandatory documents")
	}
	if features.PendingDocumentCount > 0 {
		recs = append(recs, "Complete verification of pending documents")
	}

	return recs
}

// complianceChecks is a separate channel from scoring: named pass/fail flags
// for regulatory review. Format checks only apply to non-empty fields.
func complianceChecks(features models.SupplierFeatures) utils.JSONMap {
	taxReg := strings.TrimSpace(features.TaxRegistrationNumber)
	taxID := strings.TrimSpace(features.TaxIDNumber)

	return utils.JSONMap{
		"taxRegistrationPresent":     features.HasTaxRegistration,
		"taxRegistrationFormatValid": taxReg == "" || taxRegNumberFormat.MatchString(taxReg),
		"taxIdPresent":               features.HasTaxID,
		"taxIdFormatValid":           taxID == "" || taxIDNumberFormat.MatchString(taxID),
		"mandatoryDocumentsComplete": len(features.MissingMandatoryDocuments) == 0,
		"sensitiveIndustry":          models.SensitiveIndustries()[strings.ToLower(features.Industry)],
	}
}

// AssessSupplier assembles features from the profile and document statistics,
// evaluates them, persists the snapshot and refreshes the cache and the
// supplier's risk profile.
func (s *RiskAssessmentService) AssessSupplier(ctx context.Context, supplierID uuid.UUID) (*models.RiskAssessment, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	features, err := s.BuildFeatures(ctx, supplier)
	if err != nil {
		return nil, err
	}

	assessment := s.Evaluate(features)
	assessment.ID = uuid.New()
	assessment.SupplierID = supplierID

	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to persist risk assessment: %w", err)
	}

	if err := s.supplierRepo.UpdateRiskProfile(ctx, supplierID, assessment.Score, assessment.Level); err != nil {
		// Snapshot is saved; a stale profile mirror self-heals on the next run
		slog.Error("Failed to update supplier risk profile",
			"supplier_id", supplierID,
			"error", err)
	}

	s.cacheAssessment(ctx, assessment)

	slog.Info("Successfully assessed supplier risk",
		"supplier_id", supplierID,
		"score", assessment.Score,
		"level", assessment.Level,
		"factors", len(assessment.RiskFactors))

	return assessment, nil
}

// BuildFeatures derives the engine input from the stored profile and
// document statistics.
func (s *RiskAssessmentService) BuildFeatures(ctx context.Context, supplier *models.Supplier) (models.SupplierFeatures, error) {
	counts, err := s.documentRepo.CountBySupplier(ctx, supplier.ID)
	if err != nil {
		return models.SupplierFeatures{}, fmt.Errorf("failed to count supplier documents: %w", err)
	}

	types, err := s.documentRepo.TypesBySupplier(ctx, supplier.ID)
	if err != nil {
		return models.SupplierFeatures{}, fmt.Errorf("failed to list supplier document types: %w", err)
	}

	present := make(map[models.DocumentType]bool, len(types))
	for _, t := range types {
		present[t] = true
	}

	missing := []models.DocumentType{}
	for _, required := range models.MandatoryDocumentTypes() {
		if !present[required] {
			missing = append(missing, required)
		}
	}

	return models.SupplierFeatures{
		HasWebsite:                supplier.Website != nil && strings.TrimSpace(*supplier.Website) != "",
		EmployeeCount:             supplier.EmployeeCount,
		AnnualRevenue:             supplier.AnnualRevenue,
		DocumentCount:             counts.Total,
		VerifiedDocumentCount:     counts.Verified,
		PendingDocumentCount:      counts.Pending,
		HasTaxRegistration:        strings.TrimSpace(supplier.TaxRegistrationNumber) != "",
		HasTaxID:                  strings.TrimSpace(supplier.TaxIDNumber) != "",
		ProductCategoryCount:      len(supplier.ProductCategories),
		Industry:                  supplier.Industry,
		MissingMandatoryDocuments: missing,
		TaxRegistrationNumber:     supplier.TaxRegistrationNumber,
		TaxIDNumber:               supplier.TaxIDNumber,
	}, nil
}

// GetLatest is read-through: cache hit returns immediately, miss loads the
// newest persisted snapshot and repopulates the cache.
func (s *RiskAssessmentService) GetLatest(ctx context.Context, supplierID uuid.UUID) (*models.RiskAssessment, error) {
	if cached := s.getCachedAssessment(ctx, supplierID); cached != nil {
		return cached, nil
	}

	assessment, err := s.assessmentRepo.GetLatestBySupplier(ctx, supplierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load latest risk assessment: %w", err)
	}

	s.cacheAssessment(ctx, assessment)
	return assessment, nil
}

// History returns persisted snapshots, newest first.
func (s *RiskAssessmentService) History(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.RiskAssessment, error) {
	if limit <= 0 {
		limit = 20
	}
	assessments, err := s.assessmentRepo.ListBySupplier(ctx, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}
	return assessments, nil
}

// ReassessApprovedSuppliers re-runs scoring for approved suppliers. The
// scheduler triggers this periodically so approved profiles do not go stale.
func (s *RiskAssessmentService) ReassessApprovedSuppliers(ctx context.Context) error {
	const batchSize = 100

	offset := 0
	reassessed := 0
	for {
		suppliers, _, err := s.supplierRepo.GetWithFilters(ctx, models.SupplierFilters{
			Status: models.StatusApproved,
			Limit:  batchSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("failed to list approved suppliers: %w", err)
		}
		if len(suppliers) == 0 {
			break
		}

		for _, supplier := range suppliers {
			if _, err := s.AssessSupplier(ctx, supplier.ID); err != nil {
				slog.Error("Periodic reassessment failed for supplier",
					"supplier_id", supplier.ID,
					"error", err)
			} else {
				reassessed++
			}
		}

		offset += batchSize
	}

	slog.Info("Periodic risk reassessment completed", "reassessed", reassessed)
	return nil
}

func (s *RiskAssessmentService) cacheAssessment(ctx context.Context, assessment *models.RiskAssessment) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		slog.Warn("Failed to marshal risk assessment for cache",
			"supplier_id", assessment.SupplierID,
			"error", err)
		return
	}

	key := riskCacheKeyPrefix + assessment.SupplierID.String()
	if err := s.redisClient.GetClient().Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		slog.Warn("Failed to cache risk assessment",
			"supplier_id", assessment.SupplierID,
			"error", err)
	}
}

func (s *RiskAssessmentService) getCachedAssessment(ctx context.Context, supplierID uuid.UUID) *models.RiskAssessment {
	if s.redisClient == nil {
		return nil
	}

	key := riskCacheKeyPrefix + supplierID.String()
	payload, err := s.redisClient.GetClient().Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}

	var assessment models.RiskAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		slog.Warn("Failed to unmarshal cached risk assessment",
			"supplier_id", supplierID,
			"error", err)
		return nil
	}

	return &assessment
}
