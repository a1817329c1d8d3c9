package api

import (
	"context"
	"fmt"
	"net/http"
)

// Company is an organization in the backend's multi-tenant data model.
type Company struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	DOTNumber string `json:"dot_number,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CompaniesService operates on the companies resource.
type CompaniesService struct {
	client *Client
}

func (s *CompaniesService) List(ctx context.Context) ([]Company, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, "api/companies/", nil)
	if err != nil {
		return nil, err
	}
	var companies []Company
	if err := s.client.do(req, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *CompaniesService) Get(ctx context.Context, id int64) (*Company, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, fmt.Sprintf("api/companies/%d/", id), nil)
	if err != nil {
		return nil, err
	}
	company := &Company{}
	if err := s.client.do(req, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompaniesService) Create(ctx context.Context, company Company) (*Company, error) {
	req, err := s.client.newRequest(ctx, http.MethodPost, "api/companies/", company)
	if err != nil {
		return nil, err
	}
	created := &Company{}
	if err := s.client.do(req, created); err != nil {
		return nil, err
	}
	return created, nil
}
