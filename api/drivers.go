package api

import (
	"context"
	"fmt"
	"net/http"
)

// Driver is a fleet driver record. Date fields use the backend's ISO-8601
// date format (YYYY-MM-DD).
type Driver struct {
	ID                   int64  `json:"id,omitempty"`
	Company              string `json:"company"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	EmployeeVerification bool   `json:"employee_verification"`
	State                string `json:"state"`
	CDLNumber            string `json:"cdl_number"`
	CDLExpirationDate    string `json:"cdl_expiration_date"`
	PhysicalDate         string `json:"physical_date"`
	AnnualVMRDate        string `json:"annual_vmr_date"`
	DOB                  string `json:"dob"`
	SSN                  string `json:"ssn"`
	HireDate             string `json:"hire_date"`
	Phone                string `json:"phone"`
}

// DriversService operates on the drivers resource.
type DriversService struct {
	client *Client
}

func (s *DriversService) List(ctx context.Context) ([]Driver, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, "api/drivers/", nil)
	if err != nil {
		return nil, err
	}
	var drivers []Driver
	if err := s.client.do(req, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

func (s *DriversService) Get(ctx context.Context, id int64) (*Driver, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, fmt.Sprintf("api/drivers/%d/", id), nil)
	if err != nil {
		return nil, err
	}
	driver := &Driver{}
	if err := s.client.do(req, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

func (s *DriversService) Create(ctx context.Context, driver Driver) (*Driver, error) {
	req, err := s.client.newRequest(ctx, http.MethodPost, "api/drivers/", driver)
	if err != nil {
		return nil, err
	}
	created := &Driver{}
	if err := s.client.do(req, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *DriversService) Update(ctx context.Context, id int64, driver Driver) (*Driver, error) {
	req, err := s.client.newRequest(ctx, http.MethodPut, fmt.Sprintf("api/drivers/%d/", id), driver)
	if err != nil {
		return nil, err
	}
	updated := &Driver{}
	if err := s.client.do(req, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *DriversService) Delete(ctx context.Context, id int64) error {
	req, err := s.client.newRequest(ctx, http.MethodDelete, fmt.Sprintf("api/drivers/%d/", id), nil)
	if err != nil {
		return err
	}
	return s.client.do(req, nil)
}
