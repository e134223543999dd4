package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MachinePart is a spare part belonging to one machine. QuantityOnHand is a
// denormalized cache of the signed sum of the part's inventory transactions and
// must only be written together with a ledger row in the same transaction.
type MachinePart struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	MachineID      string          `json:"machine_id" gorm:"size:36;not null;uniqueIndex:idx_machine_part_code"`
	PartCode       string          `json:"part_code" gorm:"size:50;not null;uniqueIndex:idx_machine_part_code"`
	PartName       string          `json:"part_name" gorm:"size:128;not null"`
	Category       string          `json:"category" gorm:"size:64;index"`
	UOM            string          `json:"uom" gorm:"size:20;not null;default:pcs"`
	QuantityOnHand int             `json:"quantity_on_hand" gorm:"not null;default:0"`
	MinStockLevel  *int            `json:"min_stock_level"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit" gorm:"type:decimal(12,2);default:0"`
	Location       string          `json:"location" gorm:"size:128"`
	Description    string          `json:"description" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Machine *Machine `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
}

func (MachinePart) TableName() string {
	return "machine_parts"
}
