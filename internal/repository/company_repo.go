package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

type CompanyListParams struct {
	Search string
	Pagination
}

func (r *CompanyRepository) List(params CompanyListParams) ([]entity.Company, int64, error) {
	query := r.db.Model(&entity.Company{})
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR address LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var companies []entity.Company
	err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&companies).Error
	return companies, total, err
}

func (r *CompanyRepository) GetByID(id string) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.Preload("Machines").First(&company, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &company, nil
}

func (r *CompanyRepository) GetByName(name string) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.First(&company, "name = ?", name).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &company, nil
}

func (r *CompanyRepository) Create(company *entity.Company) error {
	return r.db.Create(company).Error
}

func (r *CompanyRepository) Update(company *entity.Company) error {
	return r.db.Save(company).Error
}

func (r *CompanyRepository) Delete(id string) error {
	result := r.db.Delete(&entity.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers counts users linked to the company. Deletion is rejected while
// this is non-zero.
func (r *CompanyRepository) CountUsers(companyID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.User{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}

func (r *CompanyRepository) CountMachines(companyID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Machine{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}

type CompanyStats struct {
	TotalCompanies int64 `json:"total_companies"`
	TotalMachines  int64 `json:"total_machines"`
	TotalUsers     int64 `json:"total_users"`
}

func (r *CompanyRepository) Stats() (*CompanyStats, error) {
	var stats CompanyStats
	if err := r.db.Model(&entity.Company{}).Count(&stats.TotalCompanies).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entity.Machine{}).Count(&stats.TotalMachines).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entity.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
