package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type MachineDocumentRepository struct {
	db *gorm.DB
}

func NewMachineDocumentRepository(db *gorm.DB) *MachineDocumentRepository {
	return &MachineDocumentRepository{db: db}
}

func (r *MachineDocumentRepository) ListByMachine(machineID, docType string) ([]entity.MachineDocument, error) {
	query := r.db.Where("machine_id = ?", machineID)
	if docType != "" {
		query = query.Where("doc_type = ?", docType)
	}
	var docs []entity.MachineDocument
	err := query.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *MachineDocumentRepository) GetByID(id string) (*entity.MachineDocument, error) {
	var doc entity.MachineDocument
	if err := r.db.Preload("Machine").First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &doc, nil
}

func (r *MachineDocumentRepository) Create(doc *entity.MachineDocument) error {
	return r.db.Create(doc).Error
}

func (r *MachineDocumentRepository) Update(doc *entity.MachineDocument) error {
	return r.db.Save(doc).Error
}

func (r *MachineDocumentRepository) Delete(id string) error {
	result := r.db.Delete(&entity.MachineDocument{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type DocTypeCount struct {
	DocType string `json:"doc_type"`
	Count   int64  `json:"count"`
}

func (r *MachineDocumentRepository) CountByType(machineID string) ([]DocTypeCount, error) {
	var counts []DocTypeCount
	err := r.db.Model(&entity.MachineDocument{}).
		Select("doc_type, COUNT(*) as count").
		Where("machine_id = ?", machineID).
		Group("doc_type").
		Scan(&counts).Error
	return counts, err
}
