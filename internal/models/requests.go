package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"supplier-service/internal/utils"
)

func trimAndValidateString(str string, fieldName string, minLen, maxLen int) error {
	trimmed := strings.TrimSpace(str)
	if len(trimmed) < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if len(trimmed) > maxLen {
		return fmt.Errorf("%s must be %d characters or less", fieldName, maxLen)
	}
	return nil
}

func isValidURL(urlStr string) bool {
	if urlStr == "" {
		return true // Empty URLs are handled by omitempty validation
	}
	_, err := url.ParseRequestURI(urlStr)
	return err == nil
}

type CreateSupplierRequest struct {
	TenantID              string   `json:"tenant_id" validate:"required,min=1,max=100"`
	CompanyName           string   `json:"company_name" validate:"required,min=2,max=255"`
	ContactName           string   `json:"contact_name" validate:"required,min=2,max=255"`
	ContactEmail          string   `json:"contact_email" validate:"required,email"`
	ContactPhone          string   `json:"contact_phone" validate:"required"`
	Address               string   `json:"address" validate:"required,min=5,max=500"`
	Country               string   `json:"country" validate:"required,min=2,max=100"`
	Website               *string  `json:"website,omitempty" validate:"omitempty,url"`
	Industry              string   `json:"industry" validate:"required,min=2,max=100"`
	TaxRegistrationNumber string   `json:"tax_registration_number,omitempty" validate:"omitempty,max=50"`
	TaxIDNumber           string   `json:"tax_id_number,omitempty" validate:"omitempty,max=50"`
	ProductCategories     []string `json:"product_categories,omitempty"`
	EmployeeCount         int      `json:"employee_count" validate:"min=0"`
	AnnualRevenue         float64  `json:"annual_revenue" validate:"min=0"`
}

func (r CreateSupplierRequest) Validate() error {
	if err := trimAndValidateString(r.TenantID, "tenant_id", 1, 100); err != nil {
		return err
	}

	if err := trimAndValidateString(r.CompanyName, "company_name", 2, 255); err != nil {
		return err
	}

	if err := trimAndValidateString(r.ContactName, "contact_name", 2, 255); err != nil {
		return err
	}

	if _, err := utils.ValidateEmail(strings.TrimSpace(r.ContactEmail)); err != nil {
		return errors.New("contact_email format is invalid")
	}

	if _, err := utils.ValidatePhone(strings.TrimSpace(r.ContactPhone)); err != nil {
		return errors.New("contact_phone format is invalid")
	}

	if err := trimAndValidateString(r.Address, "address", 5, 500); err != nil {
		return err
	}

	if err := trimAndValidateString(r.Country, "country", 2, 100); err != nil {
		return err
	}

	if r.Website != nil && !isValidURL(strings.TrimSpace(*r.Website)) {
		return errors.New("website must be a valid URL")
	}

	if err := trimAndValidateString(r.Industry, "industry", 2, 100); err != nil {
		return err
	}

	if r.EmployeeCount < 0 {
		return errors.New("employee_count must be 0 or greater")
	}

	if r.AnnualRevenue < 0 {
		return errors.New("annual_revenue must be 0 or greater")
	}

	return nil
}

type UpdateSupplierRequest struct {
	CompanyName           *string  `json:"company_name,omitempty" validate:"omitempty,min=2,max=255"`
	ContactName           *string  `json:"contact_name,omitempty" validate:"omitempty,min=2,max=255"`
	ContactEmail          *string  `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone          *string  `json:"contact_phone,omitempty"`
	Address               *string  `json:"address,omitempty" validate:"omitempty,min=5,max=500"`
	Country               *string  `json:"country,omitempty" validate:"omitempty,min=2,max=100"`
	Website               *string  `json:"website,omitempty" validate:"omitempty,url"`
	Industry              *string  `json:"industry,omitempty" validate:"omitempty,min=2,max=100"`
	TaxRegistrationNumber *string  `json:"tax_registration_number,omitempty" validate:"omitempty,max=50"`
	TaxIDNumber           *string  `json:"tax_id_number,omitempty" validate:"omitempty,max=50"`
	ProductCategories     []string `json:"product_categories,omitempty"`
	EmployeeCount         *int     `json:"employee_count,omitempty" validate:"omitempty,min=0"`
	AnnualRevenue         *float64 `json:"annual_revenue,omitempty" validate:"omitempty,min=0"`
}

func (r UpdateSupplierRequest) Validate() error {
	if r.CompanyName != nil {
		if err := trimAndValidateString(*r.CompanyName, "company_name", 2, 255); err != nil {
			return err
		}
	}

	if r.ContactName != nil {
		if err := trimAndValidateString(*r.ContactName, "contact_name", 2, 255); err != nil {
			return err
		}
	}

	if r.ContactEmail != nil {
		if _, err := utils.ValidateEmail(strings.TrimSpace(*r.ContactEmail)); err != nil {
			return errors.New("contact_email format is invalid")
		}
	}

	if r.ContactPhone != nil {
		if _, err := utils.ValidatePhone(strings.TrimSpace(*r.ContactPhone)); err != nil {
			return errors.New("contact_phone format is invalid")
		}
	}

	if r.Address != nil {
		if err := trimAndValidateString(*r.Address, "address", 5, 500); err != nil {
			return err
		}
	}

	if r.Country != nil {
		if err := trimAndValidateString(*r.Country, "country", 2, 100); err != nil {
			return err
		}
	}

	if r.Website != nil && !isValidURL(strings.TrimSpace(*r.Website)) {
		return errors.New("website must be a valid URL")
	}

	if r.Industry != nil {
		if err := trimAndValidateString(*r.Industry, "industry", 2, 100); err != nil {
			return err
		}
	}

	if r.EmployeeCount != nil && *r.EmployeeCount < 0 {
		return errors.New("employee_count must be 0 or greater")
	}

	if r.AnnualRevenue != nil && *r.AnnualRevenue < 0 {
		return errors.New("annual_revenue must be 0 or greater")
	}

	return nil
}

// DecisionRequest carries one reviewer decision. ExpectedVersion, when set,
// must match the workflow's current version or the decision is refused.
type DecisionRequest struct {
	Decision           DecisionType   `json:"decision" validate:"required"`
	Comments           string         `json:"comments,omitempty" validate:"omitempty,max=2000"`
	Reason             string         `json:"reason,omitempty" validate:"omitempty,max=2000"`
	RequestedDocuments []DocumentType `json:"requested_documents,omitempty"`
	RiskFlags          []string       `json:"risk_flags,omitempty"`
	ExpectedVersion    int            `json:"expected_version,omitempty"`
}

func (r DecisionRequest) Validate() error {
	if !r.Decision.IsValid() {
		return fmt.Errorf("decision must be one of approve, reject, request_more_info")
	}

	if len(strings.TrimSpace(r.Comments)) > 2000 {
		return errors.New("comments must be 2000 characters or less")
	}

	if r.Decision == DecisionReject && strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required when rejecting")
	}

	if len(strings.TrimSpace(r.Reason)) > 2000 {
		return errors.New("reason must be 2000 characters or less")
	}

	for _, doc := range r.RequestedDocuments {
		if !doc.IsValid() {
			return fmt.Errorf("requested document type is not supported: %s", doc)
		}
	}

	if r.ExpectedVersion < 0 {
		return errors.New("expected_version must be 0 or greater")
	}

	return nil
}
