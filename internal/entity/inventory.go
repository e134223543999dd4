package entity

import "time"

// TransactionType values. For ADJUST the quantity is the new absolute on-hand
// total, not a delta.
const (
	TxTypeIn     = "IN"
	TxTypeOut    = "OUT"
	TxTypeAdjust = "ADJUST"
)

// ReferenceType values: what triggered a stock movement.
const (
	RefTypeManual     = "MANUAL"
	RefTypeWorkOrder  = "WORK_ORDER"
	RefTypePurchase   = "PURCHASE"
	RefTypeAdjustment = "ADJUSTMENT"
)

// InventoryTransaction is one row of the append-only stock ledger.
type InventoryTransaction struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	PartID          string    `json:"part_id" gorm:"size:36;not null;index"`
	TransactionType string    `json:"transaction_type" gorm:"size:10;not null;index"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	ReferenceType   string    `json:"reference_type" gorm:"size:20;index"`
	ReferenceID     string    `json:"reference_id" gorm:"size:36"`
	Remarks         string    `json:"remarks" gorm:"type:text"`
	PerformedBy     string    `json:"performed_by" gorm:"size:36;not null;index"`
	TransactionDate time.Time `json:"transaction_date" gorm:"not null;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Part *MachinePart `json:"part,omitempty" gorm:"foreignKey:PartID"`
	User *User        `json:"user,omitempty" gorm:"foreignKey:PerformedBy"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
