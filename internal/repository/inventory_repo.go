package repository

import (
	"time"

	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

type TransactionListParams struct {
	PartID          string
	MachineID       string
	TransactionType string
	ReferenceType   string
	PerformedBy     string
	DateFrom        *time.Time
	DateTo          *time.Time
	Pagination
}

func (r *InventoryRepository) List(params TransactionListParams) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.Model(&entity.InventoryTransaction{})
	if params.PartID != "" {
		query = query.Where("part_id = ?", params.PartID)
	}
	if params.MachineID != "" {
		query = query.Where("part_id IN (?)",
			r.db.Model(&entity.MachinePart{}).Select("id").Where("machine_id = ?", params.MachineID))
	}
	if params.TransactionType != "" {
		query = query.Where("transaction_type = ?", params.TransactionType)
	}
	if params.ReferenceType != "" {
		query = query.Where("reference_type = ?", params.ReferenceType)
	}
	if params.PerformedBy != "" {
		query = query.Where("performed_by = ?", params.PerformedBy)
	}
	if params.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("transaction_date <= ?", *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var txs []entity.InventoryTransaction
	err := query.Preload("Part").Preload("Part.Machine").Preload("User").
		Order("transaction_date DESC").Limit(limit).Offset(offset).Find(&txs).Error
	return txs, total, err
}

func (r *InventoryRepository) ListByPart(partID string) ([]entity.InventoryTransaction, error) {
	var txs []entity.InventoryTransaction
	err := r.db.Preload("User").Where("part_id = ?", partID).
		Order("transaction_date DESC").Find(&txs).Error
	return txs, err
}

func (r *InventoryRepository) GetByID(id string) (*entity.InventoryTransaction, error) {
	var tx entity.InventoryTransaction
	if err := r.db.Preload("Part").Preload("Part.Machine").Preload("User").
		First(&tx, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &tx, nil
}

func (r *InventoryRepository) Create(tx *entity.InventoryTransaction) error {
	return r.db.Create(tx).Error
}

func (r *InventoryRepository) Update(tx *entity.InventoryTransaction) error {
	return r.db.Save(tx).Error
}

func (r *InventoryRepository) Delete(id string) error {
	result := r.db.Delete(&entity.InventoryTransaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type TransactionTypeSummary struct {
	TransactionType string `json:"transaction_type"`
	Count           int64  `json:"count"`
	TotalQuantity   int64  `json:"total_quantity"`
}

// Summarize groups ledger rows by transaction type, optionally scoped to one
// part and a date window.
func (r *InventoryRepository) Summarize(partID string, from, to *time.Time) ([]TransactionTypeSummary, error) {
	query := r.db.Model(&entity.InventoryTransaction{})
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}
	if from != nil {
		query = query.Where("transaction_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("transaction_date <= ?", *to)
	}
	var rows []TransactionTypeSummary
	err := query.Select("transaction_type, COUNT(*) as count, SUM(quantity) as total_quantity").
		Group("transaction_type").Order("transaction_type ASC").Scan(&rows).Error
	return rows, err
}

// SumLedger folds the ledger for one part: IN adds, OUT subtracts, and the
// running total restarts at the value of the latest ADJUST row. Used to audit
// the cached quantity_on_hand.
func (r *InventoryRepository) SumLedger(partID string) (int, error) {
	var txs []entity.InventoryTransaction
	if err := r.db.Where("part_id = ?", partID).
		Order("transaction_date ASC, created_at ASC").Find(&txs).Error; err != nil {
		return 0, err
	}

	balance := 0
	for _, tx := range txs {
		switch tx.TransactionType {
		case entity.TxTypeIn:
			balance += tx.Quantity
		case entity.TxTypeOut:
			balance -= tx.Quantity
		case entity.TxTypeAdjust:
			balance = tx.Quantity
		}
	}
	return balance, nil
}
