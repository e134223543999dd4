package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type CompanyService struct {
	companyRepo *repository.CompanyRepository
}

func NewCompanyService(companyRepo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required,max=128"`
	Tel     string `json:"tel"`
	Email   string `json:"email"`
	Address string `json:"address"`
	ZipCode string `json:"zip_code"`
	Detail  string `json:"detail"`
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Tel     *string `json:"tel"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	ZipCode *string `json:"zip_code"`
	Detail  *string `json:"detail"`
}

func (s *CompanyService) List(params repository.CompanyListParams) ([]entity.Company, int64, error) {
	return s.companyRepo.List(params)
}

func (s *CompanyService) Get(id string) (*entity.Company, error) {
	company, err := s.companyRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "company")
	}
	return company, nil
}

func (s *CompanyService) Create(req *CreateCompanyRequest) (*entity.Company, error) {
	if _, err := s.companyRepo.GetByName(req.Name); err == nil {
		return nil, conflictf("company %q already exists", req.Name)
	}

	company := &entity.Company{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Tel:     req.Tel,
		Email:   req.Email,
		Address: req.Address,
		ZipCode: req.ZipCode,
		Detail:  req.Detail,
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

func (s *CompanyService) Update(id string, req *UpdateCompanyRequest) (*entity.Company, error) {
	company, err := s.companyRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "company")
	}

	if req.Name != nil && *req.Name != company.Name {
		if _, err := s.companyRepo.GetByName(*req.Name); err == nil {
			return nil, conflictf("company %q already exists", *req.Name)
		}
		company.Name = *req.Name
	}
	if req.Tel != nil {
		company.Tel = *req.Tel
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.ZipCode != nil {
		company.ZipCode = *req.ZipCode
	}
	if req.Detail != nil {
		company.Detail = *req.Detail
	}

	if err := s.companyRepo.Update(company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

// Delete refuses while users or machines still reference the company.
func (s *CompanyService) Delete(id string) error {
	if _, err := s.companyRepo.GetByID(id); err != nil {
		return wrapNotFound(err, "company")
	}

	users, err := s.companyRepo.CountUsers(id)
	if err != nil {
		return err
	}
	if users > 0 {
		return conflictf("company still has %d user(s)", users)
	}

	machines, err := s.companyRepo.CountMachines(id)
	if err != nil {
		return err
	}
	if machines > 0 {
		return conflictf("company still has %d machine(s)", machines)
	}

	return s.companyRepo.Delete(id)
}

func (s *CompanyService) Stats() (*repository.CompanyStats, error) {
	return s.companyRepo.Stats()
}
