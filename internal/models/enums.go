package models

// SupplierStatus doubles as the workflow status. Adding a value is a
// deliberate code change: every switch over these types is exhaustive.
type SupplierStatus string

const (
	StatusPending           SupplierStatus = "pending"
	StatusUnderReview       SupplierStatus = "under_review"
	StatusDocumentsRequired SupplierStatus = "documents_required"
	StatusComplianceCheck   SupplierStatus = "compliance_check"
	StatusManagerReview     SupplierStatus = "manager_review"
	StatusDirectorApproval  SupplierStatus = "director_approval"
	StatusApproved          SupplierStatus = "approved"
	StatusRejected          SupplierStatus = "rejected"
	StatusSuspended         SupplierStatus = "suspended"
	StatusBlacklisted       SupplierStatus = "blacklisted"
	StatusCancelled         SupplierStatus = "cancelled"
)

func (s SupplierStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusDocumentsRequired,
		StatusComplianceCheck, StatusManagerReview, StatusDirectorApproval,
		StatusApproved, StatusRejected, StatusSuspended, StatusBlacklisted,
		StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports statuses from which no decision can move the workflow.
func (s SupplierStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

type WorkflowStep string

const (
	StepDocumentUpload        WorkflowStep = "document_upload"
	StepAutomatedVerification WorkflowStep = "automated_verification"
	StepAnalystReview         WorkflowStep = "analyst_review"
	StepManagerApproval       WorkflowStep = "manager_approval"
	StepComplianceCheck       WorkflowStep = "compliance_check"
	StepDirectorApproval      WorkflowStep = "director_approval"
	StepFinalApproval         WorkflowStep = "final_approval"
)

// AllWorkflowSteps returns the canonical step order.
func AllWorkflowSteps() []WorkflowStep {
	return []WorkflowStep{
		StepDocumentUpload,
		StepAutomatedVerification,
		StepAnalystReview,
		StepManagerApproval,
		StepComplianceCheck,
		StepDirectorApproval,
		StepFinalApproval,
	}
}

func (s WorkflowStep) IsValid() bool {
	switch s {
	case StepDocumentUpload, StepAutomatedVerification, StepAnalystReview,
		StepManagerApproval, StepComplianceCheck, StepDirectorApproval,
		StepFinalApproval:
		return true
	default:
		return false
	}
}

// Ordinal returns the zero-based position in the canonical order, -1 if unknown.
func (s WorkflowStep) Ordinal() int {
	for i, step := range AllWorkflowSteps() {
		if step == s {
			return i
		}
	}
	return -1
}

type DecisionType string

const (
	DecisionApprove         DecisionType = "approve"
	DecisionReject          DecisionType = "reject"
	DecisionRequestMoreInfo DecisionType = "request_more_info"
)

func (d DecisionType) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestMoreInfo:
		return true
	default:
		return false
	}
}

type ReviewerRole string

const (
	RoleAnalyst  ReviewerRole = "analyst"
	RoleManager  ReviewerRole = "manager"
	RoleDirector ReviewerRole = "director"
	RoleAdmin    ReviewerRole = "admin"
)

func (r ReviewerRole) IsValid() bool {
	switch r {
	case RoleAnalyst, RoleManager, RoleDirector, RoleAdmin:
		return true
	default:
		return false
	}
}

type DocumentType string

const (
	DocBusinessLicense          DocumentType = "business_license"
	DocTaxRegistrationCert      DocumentType = "tax_registration_certificate"
	DocTaxIDCard                DocumentType = "tax_id_card"
	DocBankStatement            DocumentType = "bank_statement"
	DocIncorporationCertificate DocumentType = "incorporation_certificate"
	DocTaxReturn                DocumentType = "tax_return"
	DocTradeLicense             DocumentType = "trade_license"
	DocQualityCertificate       DocumentType = "quality_certificate"
	DocInsurancePolicy          DocumentType = "insurance_policy"
	DocFinancialStatement       DocumentType = "financial_statement"
)

func (d DocumentType) IsValid() bool {
	switch d {
	case DocBusinessLicense, DocTaxRegistrationCert, DocTaxIDCard,
		DocBankStatement, DocIncorporationCertificate, DocTaxReturn,
		DocTradeLicense, DocQualityCertificate, DocInsurancePolicy,
		DocFinancialStatement:
		return true
	default:
		return false
	}
}

// MandatoryDocumentTypes are required before a supplier can be fully approved.
func MandatoryDocumentTypes() []DocumentType {
	return []DocumentType{
		DocBusinessLicense,
		DocTaxRegistrationCert,
		DocTaxIDCard,
	}
}

type VerificationStatus string

const (
	VerificationPending           VerificationStatus = "pending"
	VerificationVerified          VerificationStatus = "verified"
	VerificationPartiallyVerified VerificationStatus = "partially_verified"
	VerificationFailed            VerificationStatus = "failed"
	VerificationError             VerificationStatus = "error"
)

func (v VerificationStatus) IsValid() bool {
	switch v {
	case VerificationPending, VerificationVerified,
		VerificationPartiallyVerified, VerificationFailed, VerificationError:
		return true
	default:
		return false
	}
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}
