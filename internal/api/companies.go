package api

import (
	"context"
	"fmt"
	"net/http"
)

// CreateCompanyRequest represents a request to register a company.
type CreateCompanyRequest struct {
	Name        string
	Phone       string
	Description string
	WebhookURL  string
	Hidden      *bool
}

// UpdateCompanyRequest represents a request to update a company.
type UpdateCompanyRequest struct {
	Name        string
	Phone       string
	Description string
	WebhookURL  string
	Hidden      *bool
}

func applyCompanyFields(body map[string]any, name, phone, description, webhookURL string, hidden *bool) {
	if name != "" {
		body["name"] = name
	}
	if phone != "" {
		body["phone"] = phone
	}
	if description != "" {
		body["description"] = description
	}
	if webhookURL != "" {
		body["webhook_url"] = webhookURL
	}
	if hidden != nil {
		body["hidden"] = *hidden
	}
}

// List retrieves one page of companies visible to the token.
func (s CompaniesService) List(ctx context.Context, opts ListOptions) (*CompanyList, error) {
	return listCompanies(ctx, s, opts)
}

func listCompanies(ctx context.Context, r Requester, opts ListOptions) (*CompanyList, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var result CompanyList
	if err := r.do(ctx, http.MethodGet, r.apiPath("/companies"+opts.query()), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create registers a new company.
func (s CompaniesService) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	return createCompany(ctx, s, req)
}

func createCompany(ctx context.Context, r Requester, req CreateCompanyRequest) (*Company, error) {
	if err := requireNonEmpty("name", req.Name); err != nil {
		return nil, err
	}
	body := map[string]any{}
	applyCompanyFields(body, req.Name, req.Phone, req.Description, req.WebhookURL, req.Hidden)
	var result Company
	if err := r.do(ctx, http.MethodPost, r.apiPath("/companies"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update updates an existing company.
func (s CompaniesService) Update(ctx context.Context, companyID int, req UpdateCompanyRequest) (*Company, error) {
	return updateCompany(ctx, s, companyID, req)
}

func updateCompany(ctx context.Context, r Requester, companyID int, req UpdateCompanyRequest) (*Company, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	body := map[string]any{}
	applyCompanyFields(body, req.Name, req.Phone, req.Description, req.WebhookURL, req.Hidden)
	var result Company
	if err := r.do(ctx, http.MethodPut, r.apiPath(fmt.Sprintf("/companies/%d", companyID)), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
