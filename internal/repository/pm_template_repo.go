package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type PMTemplateRepository struct {
	db *gorm.DB
}

func NewPMTemplateRepository(db *gorm.DB) *PMTemplateRepository {
	return &PMTemplateRepository{db: db}
}

func (r *PMTemplateRepository) WithTx(tx *gorm.DB) *PMTemplateRepository {
	return &PMTemplateRepository{db: tx}
}

type PMTemplateListParams struct {
	Search          string
	MachineCategory string
	FrequencyType   string
	Pagination
}

func (r *PMTemplateRepository) List(params PMTemplateListParams) ([]entity.PMTemplate, int64, error) {
	query := r.db.Model(&entity.PMTemplate{})
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", kw, kw)
	}
	if params.MachineCategory != "" {
		query = query.Where("machine_category = ?", params.MachineCategory)
	}
	if params.FrequencyType != "" {
		query = query.Where("frequency_type = ?", params.FrequencyType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var templates []entity.PMTemplate
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("item_order ASC")
	}).Order("name ASC").Limit(limit).Offset(offset).Find(&templates).Error
	return templates, total, err
}

func (r *PMTemplateRepository) GetByID(id string) (*entity.PMTemplate, error) {
	var template entity.PMTemplate
	if err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("item_order ASC")
	}).First(&template, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &template, nil
}

func (r *PMTemplateRepository) Create(template *entity.PMTemplate) error {
	return r.db.Create(template).Error
}

func (r *PMTemplateRepository) Update(template *entity.PMTemplate) error {
	return r.db.Save(template).Error
}

func (r *PMTemplateRepository) Delete(id string) error {
	result := r.db.Select("Items").Delete(&entity.PMTemplate{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceItems deletes and re-creates a template's checklist in one
// transaction. Item ids must be pre-assigned by the caller.
func (r *PMTemplateRepository) ReplaceItems(templateID string, items []entity.PMTemplateItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pm_template_id = ?", templateID).Delete(&entity.PMTemplateItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// CountSchedules counts the schedule chain links referencing a template.
// Templates with schedules cannot be deleted.
func (r *PMTemplateRepository) CountSchedules(templateID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PMSchedule{}).Where("pm_template_id = ?", templateID).Count(&count).Error
	return count, err
}

func (r *PMTemplateRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&entity.PMTemplate{}).
		Where("machine_category <> ''").
		Distinct().Order("machine_category ASC").
		Pluck("machine_category", &categories).Error
	return categories, err
}
