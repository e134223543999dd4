package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *MachineRepository) WithTx(tx *gorm.DB) *MachineRepository {
	return &MachineRepository{db: tx}
}

type MachineListParams struct {
	Search    string
	CompanyID string
	Status    string
	Category  string
	Pagination
}

func (r *MachineRepository) List(params MachineListParams) ([]entity.Machine, int64, error) {
	query := r.db.Model(&entity.Machine{})
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR machine_code LIKE ? OR location LIKE ? OR model LIKE ?", kw, kw, kw, kw)
	}
	if params.CompanyID != "" {
		query = query.Where("company_id = ?", params.CompanyID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var machines []entity.Machine
	err := query.Preload("Company").Order("machine_code ASC").Limit(limit).Offset(offset).Find(&machines).Error
	return machines, total, err
}

func (r *MachineRepository) GetByID(id string) (*entity.Machine, error) {
	var machine entity.Machine
	if err := r.db.Preload("Company").Preload("Parts").First(&machine, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &machine, nil
}

func (r *MachineRepository) GetByCode(code string) (*entity.Machine, error) {
	var machine entity.Machine
	if err := r.db.Preload("Company").First(&machine, "machine_code = ?", code).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &machine, nil
}

func (r *MachineRepository) ListByIDs(ids []string) ([]entity.Machine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var machines []entity.Machine
	err := r.db.Preload("Company").Where("id IN ?", ids).Order("machine_code ASC").Find(&machines).Error
	return machines, err
}

func (r *MachineRepository) Create(machine *entity.Machine) error {
	return r.db.Create(machine).Error
}

func (r *MachineRepository) Update(machine *entity.Machine) error {
	return r.db.Save(machine).Error
}

// UpdateStatus writes only the status column.
func (r *MachineRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&entity.Machine{}).Where("id = ?", id).Update("status", status).Error
}

func (r *MachineRepository) Delete(id string) error {
	result := r.db.Delete(&entity.Machine{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type MachineStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *MachineRepository) CountByStatus(companyID string) ([]MachineStatusCount, error) {
	query := r.db.Model(&entity.Machine{}).Select("status, COUNT(*) as count").Group("status")
	if companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	var counts []MachineStatusCount
	err := query.Scan(&counts).Error
	return counts, err
}

// CountOpenRepairs counts OPEN/IN_PROGRESS repair works against a machine,
// optionally excluding one work order. Used to decide whether completing a
// repair may restore the machine to ACTIVE.
func (r *MachineRepository) CountOpenRepairs(machineID, excludeRepairID string) (int64, error) {
	query := r.db.Model(&entity.RepairWork{}).
		Where("machine_id = ? AND status IN ?", machineID, []string{entity.RepairStatusOpen, entity.RepairStatusInProgress})
	if excludeRepairID != "" {
		query = query.Where("id <> ?", excludeRepairID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
