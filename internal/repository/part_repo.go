package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type MachinePartRepository struct {
	db *gorm.DB
}

func NewMachinePartRepository(db *gorm.DB) *MachinePartRepository {
	return &MachinePartRepository{db: db}
}

func (r *MachinePartRepository) WithTx(tx *gorm.DB) *MachinePartRepository {
	return &MachinePartRepository{db: tx}
}

type PartListParams struct {
	MachineID string
	Search    string
	Category  string
	LowStock  bool
	Pagination
}

func (r *MachinePartRepository) List(params PartListParams) ([]entity.MachinePart, int64, error) {
	query := r.db.Model(&entity.MachinePart{})
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("part_code LIKE ? OR part_name LIKE ? OR description LIKE ?", kw, kw, kw)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.LowStock {
		query = query.Where("min_stock_level IS NOT NULL AND quantity_on_hand <= min_stock_level")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var parts []entity.MachinePart
	err := query.Preload("Machine").Order("part_code ASC").Limit(limit).Offset(offset).Find(&parts).Error
	return parts, total, err
}

// ListAll returns every part, optionally scoped to one machine. Feeds the
// inventory audit report.
func (r *MachinePartRepository) ListAll(machineID string) ([]entity.MachinePart, error) {
	query := r.db.Preload("Machine").Order("part_code ASC")
	if machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	var parts []entity.MachinePart
	err := query.Find(&parts).Error
	return parts, err
}

func (r *MachinePartRepository) GetByID(id string) (*entity.MachinePart, error) {
	var part entity.MachinePart
	if err := r.db.Preload("Machine").First(&part, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &part, nil
}

func (r *MachinePartRepository) GetByCode(machineID, partCode string) (*entity.MachinePart, error) {
	var part entity.MachinePart
	if err := r.db.First(&part, "machine_id = ? AND part_code = ?", machineID, partCode).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &part, nil
}

func (r *MachinePartRepository) Create(part *entity.MachinePart) error {
	return r.db.Create(part).Error
}

func (r *MachinePartRepository) Update(part *entity.MachinePart) error {
	return r.db.Save(part).Error
}

// UpdateQuantity writes only the cached balance. Callers must pair it with a
// ledger row inside the same transaction.
func (r *MachinePartRepository) UpdateQuantity(id string, quantity int) error {
	return r.db.Model(&entity.MachinePart{}).Where("id = ?", id).Update("quantity_on_hand", quantity).Error
}

func (r *MachinePartRepository) Delete(id string) error {
	result := r.db.Delete(&entity.MachinePart{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MachinePartRepository) ListLowStock(machineID string) ([]entity.MachinePart, error) {
	query := r.db.Preload("Machine").
		Where("min_stock_level IS NOT NULL AND quantity_on_hand <= min_stock_level")
	if machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	var parts []entity.MachinePart
	err := query.Order("quantity_on_hand ASC").Find(&parts).Error
	return parts, err
}

func (r *MachinePartRepository) Categories(machineID string) ([]string, error) {
	query := r.db.Model(&entity.MachinePart{}).Distinct("category").Where("category <> ''")
	if machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	var categories []string
	err := query.Order("category ASC").Pluck("category", &categories).Error
	return categories, err
}
