package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"supplier-service/internal/extraction"
	"supplier-service/internal/models"
)

// DocumentVerificationService checks uploaded documents against per-type rule
// sets. It is deterministic over (document type, file name, extracted text):
// all I/O happens in the extractor and in the callers that persist results.
type DocumentVerificationService struct {
	extractor         extraction.TextExtractor
	extractionTimeout time.Duration
}

func NewDocumentVerificationService(extractor extraction.TextExtractor, extractionTimeout time.Duration) *DocumentVerificationService {
	return &DocumentVerificationService{
		extractor:         extractor,
		extractionTimeout: extractionTimeout,
	}
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var (
	// GST-style registration: 2 digit state code, 5 letter entity code,
	// 4 digit sequence, check characters with a fixed Z.
	taxRegNumberRegex = regexp.MustCompile(`[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][A-Z0-9]Z[A-Z0-9]`)
	taxIDNumberRegex  = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
	dateDMYRegex      = regexp.MustCompile(`\d{2}[/-]\d{2}[/-]\d{4}`)
	dateYMDRegex      = regexp.MustCompile(`\d{4}[/-]\d{2}[/-]\d{2}`)
)

var licenseKeywords = []string{"license", "registration", "certificate", "permit"}

var businessTokens = []string{
	"company", "business", "firm", "enterprise", "corporation",
	"ltd", "llc", "inc", "pvt",
}

// VerifyDocument runs the full verification pipeline: extension allow-list,
// text extraction, per-type rules, confidence scoring. It never panics
// outward and never returns an error; failures are encoded in the result.
func (s *DocumentVerificationService) VerifyDocument(ctx context.Context, docType models.DocumentType, fileName, contentType string, data []byte) (result models.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Document verification recovered from panic",
				"document_type", docType,
				"file_name", fileName,
				"panic", r)
			result = models.VerificationResult{
				DocumentType:    docType,
				Status:          models.VerificationError,
				ExtractedFields: map[string]string{},
				Checks:          map[string]bool{},
				Issues:          []string{"Verification error occurred"},
				Confidence:      0,
				VerifiedAt:      time.Now(),
			}
		}
	}()

	result = models.VerificationResult{
		DocumentType:    docType,
		ExtractedFields: map[string]string{},
		Checks:          map[string]bool{},
		Issues:          []string{},
		VerifiedAt:      time.Now(),
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		extLabel := strings.TrimPrefix(ext, ".")
		if extLabel == "" {
			extLabel = "unknown"
		}
		result.Status = models.VerificationFailed
		result.Issues = append(result.Issues, fmt.Sprintf("Unsupported file format: %s", extLabel))
		result.Confidence = 0
		return result
	}

	extractCtx := ctx
	if s.extractionTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, s.extractionTimeout)
		defer cancel()
	}

	text, err := s.extractor.ExtractText(extractCtx, contentType, data)
	if err != nil {
		slog.Error("Text extraction failed",
			"document_type", docType,
			"file_name", fileName,
			"error", err)
		result.Status = models.VerificationError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(extractCtx.Err(), context.DeadlineExceeded) {
			result.Issues = append(result.Issues, "Text extraction timed out")
		} else {
			result.Issues = append(result.Issues, "Text extraction failed")
		}
		result.Confidence = 0
		return result
	}

	s.applyRules(docType, text, &result)

	result.Confidence = scoreConfidence(result.Checks, len(result.Issues))
	result.Status = statusForConfidence(result.Confidence)

	slog.Info("Document verification completed",
		"document_type", docType,
		"file_name", fileName,
		"status", result.Status,
		"confidence", result.Confidence,
		"issues", len(result.Issues))

	return result
}

// applyRules evaluates the rule set for the document type. Every rule
// registers a named check; failed rules also push a human-readable issue.
func (s *DocumentVerificationService) applyRules(docType models.DocumentType, text string, result *models.VerificationResult) {
	lower := strings.ToLower(text)

	switch docType {
	case models.DocTaxRegistrationCert:
		if match := taxRegNumberRegex.FindString(text); match != "" {
			result.Checks["taxRegFound"] = true
			result.ExtractedFields["taxRegNumber"] = match
		} else {
			result.Checks["taxRegFound"] = false
			result.Issues = append(result.Issues, "Tax registration number not found")
		}

		if len(text) >= 100 {
			result.Checks["sufficientContent"] = true
		} else {
			result.Checks["sufficientContent"] = false
			result.Issues = append(result.Issues, "Document content too short")
		}

	case models.DocTaxIDCard:
		if match := taxIDNumberRegex.FindString(text); match != "" {
			result.Checks["taxIdFound"] = true
			result.ExtractedFields["taxIdNumber"] = match
		} else {
			result.Checks["taxIdFound"] = false
			result.Issues = append(result.Issues, "Tax ID number not found")
		}

		if containsAnyToken(lower, businessTokens) {
			result.Checks["nameFound"] = true
		} else {
			result.Checks["nameFound"] = false
			result.Issues = append(result.Issues, "Holder name not identified")
		}

	case models.DocBusinessLicense:
		if containsAnyToken(lower, licenseKeywords) {
			result.Checks["licenseKeywords"] = true
		} else {
			result.Checks["licenseKeywords"] = false
			result.Issues = append(result.Issues, "No licensing keywords found")
		}

		if match := findDate(text); match != "" {
			result.Checks["dateFound"] = true
			result.ExtractedFields["licenseDate"] = match
		} else {
			result.Checks["dateFound"] = false
			result.Issues = append(result.Issues, "No issue/expiry date found")
		}

	default:
		if len(text) >= 50 {
			result.Checks["minimumContent"] = true
		} else {
			result.Checks["minimumContent"] = false
			result.Issues = append(result.Issues, "Document content too short")
		}

		if containsAnyToken(lower, businessTokens) {
			result.Checks["businessContext"] = true
		} else {
			result.Checks["businessContext"] = false
			result.Issues = append(result.Issues, "No business-related content identified")
		}
	}
}

func containsAnyToken(lower string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func findDate(text string) string {
	if match := dateDMYRegex.FindString(text); match != "" {
		return match
	}
	return dateYMDRegex.FindString(text)
}

// scoreConfidence is passed/total minus an issue penalty of 0.1 per issue
// capped at 0.3, floored at 0 and rounded to two decimals.
func scoreConfidence(checks map[string]bool, issueCount int) float64 {
	if len(checks) == 0 {
		return 0
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}

	penalty := math.Min(0.3, float64(issueCount)*0.1)
	confidence := float64(passed)/float64(len(checks)) - penalty
	if confidence < 0 {
		confidence = 0
	}

	return math.Round(confidence*100) / 100
}

func statusForConfidence(confidence float64) models.VerificationStatus {
	switch {
	case confidence >= 0.8:
		return models.VerificationVerified
	case confidence >= 0.6:
		return models.VerificationPartiallyVerified
	default:
		return models.VerificationFailed
	}
}
