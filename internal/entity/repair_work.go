package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepairStatus values
const (
	RepairStatusOpen       = "OPEN"
	RepairStatusInProgress = "IN_PROGRESS"
	RepairStatusCompleted  = "COMPLETED"
	RepairStatusCancelled  = "CANCELLED"
)

// RepairItemStatus values
const (
	RepairItemStatusPending    = "PENDING"
	RepairItemStatusInProgress = "IN_PROGRESS"
	RepairItemStatusCompleted  = "COMPLETED"
)

// RepairPriority values
const (
	RepairPriorityLow      = "LOW"
	RepairPriorityMedium   = "MEDIUM"
	RepairPriorityHigh     = "HIGH"
	RepairPriorityCritical = "CRITICAL"
)

// RepairWork is an ad-hoc corrective work order against one machine.
type RepairWork struct {
	ID                   string          `json:"id" gorm:"primaryKey;size:36"`
	WorkOrderNumber      string          `json:"work_order_number" gorm:"size:50;not null;uniqueIndex"`
	MachineID            string          `json:"machine_id" gorm:"size:36;not null;index"`
	PMScheduleID         *string         `json:"pm_schedule_id" gorm:"size:36;index"`
	Title                string          `json:"title" gorm:"size:255;not null"`
	Description          string          `json:"description" gorm:"type:text"`
	Priority             string          `json:"priority" gorm:"size:10;not null;default:MEDIUM"`
	Status               string          `json:"status" gorm:"size:20;not null;default:OPEN;index"`
	ReportedBy           string          `json:"reported_by" gorm:"size:36;not null;index"`
	AssignedTo           *string         `json:"assigned_to" gorm:"size:36;index"`
	StartedAt            *time.Time      `json:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at"`
	CompletedBy          *string         `json:"completed_by" gorm:"size:36"`
	Remarks              string          `json:"remarks" gorm:"type:text"`
	EstimatedHours       float64         `json:"estimated_hours" gorm:"type:decimal(6,2);default:0"`
	ActualHours          float64         `json:"actual_hours" gorm:"type:decimal(6,2);default:0"`
	ActualCost           decimal.Decimal `json:"actual_cost" gorm:"type:decimal(12,2);default:0"`
	CustomerSignatureURL string          `json:"customer_signature_url" gorm:"size:255"`
	CustomerSignerName   string          `json:"customer_signer_name" gorm:"size:128"`
	CustomerSignedAt     *time.Time      `json:"customer_signed_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	Machine     *Machine               `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	PMSchedule  *PMSchedule            `json:"pm_schedule,omitempty" gorm:"foreignKey:PMScheduleID"`
	Items       []RepairWorkItem       `json:"items,omitempty" gorm:"foreignKey:RepairWorkID;constraint:OnDelete:CASCADE"`
	Photos      []RepairWorkPhoto      `json:"photos,omitempty" gorm:"foreignKey:RepairWorkID;constraint:OnDelete:CASCADE"`
	PartsUsed   []RepairWorkPart       `json:"parts_used,omitempty" gorm:"foreignKey:RepairWorkID;constraint:OnDelete:CASCADE"`
	Assignments []RepairWorkAssignment `json:"assignments,omitempty" gorm:"foreignKey:RepairWorkID;constraint:OnDelete:CASCADE"`
}

func (RepairWork) TableName() string {
	return "repair_works"
}

// RepairWorkItem is one ordered task of a work order. Completion requires
// non-empty remarks.
type RepairWorkItem struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	RepairWorkID string     `json:"repair_work_id" gorm:"size:36;not null;index"`
	ItemOrder    int        `json:"item_order" gorm:"not null;default:1"`
	Description  string     `json:"description" gorm:"size:255;not null"`
	Status       string     `json:"status" gorm:"size:20;not null;default:PENDING"`
	Remarks      string     `json:"remarks" gorm:"type:text"`
	AssignedTo   *string    `json:"assigned_to" gorm:"size:36"`
	CompletedBy  *string    `json:"completed_by" gorm:"size:36"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (RepairWorkItem) TableName() string {
	return "repair_work_items"
}

type RepairWorkPhoto struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	RepairWorkID     string    `json:"repair_work_id" gorm:"size:36;not null;index"`
	RepairWorkItemID *string   `json:"repair_work_item_id" gorm:"size:36;index"`
	PhotoURL         string    `json:"photo_url" gorm:"size:255;not null"`
	FileName         string    `json:"file_name" gorm:"size:255"`
	PhotoType        string    `json:"photo_type" gorm:"size:10;not null;index"`
	Description      string    `json:"description" gorm:"size:255"`
	TakenBy          string    `json:"taken_by" gorm:"size:36"`
	TakenAt          time.Time `json:"taken_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func (RepairWorkPhoto) TableName() string {
	return "repair_work_photos"
}

// RepairWorkPart records a spare part consumed by a work order. The matching
// OUT ledger row is written in the same transaction.
type RepairWorkPart struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	RepairWorkID  string          `json:"repair_work_id" gorm:"size:36;not null;index"`
	MachinePartID string          `json:"machine_part_id" gorm:"size:36;not null;index"`
	QuantityUsed  int             `json:"quantity_used" gorm:"not null"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit" gorm:"type:decimal(12,2);default:0"`
	TotalCost     decimal.Decimal `json:"total_cost" gorm:"type:decimal(12,2);default:0"`
	UsedBy        string          `json:"used_by" gorm:"size:36"`
	UsedAt        time.Time       `json:"used_at"`
	CreatedAt     time.Time       `json:"created_at"`

	MachinePart *MachinePart `json:"machine_part,omitempty" gorm:"foreignKey:MachinePartID"`
}

func (RepairWorkPart) TableName() string {
	return "repair_work_parts"
}

type RepairWorkAssignment struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	RepairWorkID string    `json:"repair_work_id" gorm:"size:36;not null;uniqueIndex:idx_repair_work_user"`
	UserID       string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_repair_work_user"`
	AssignedBy   string    `json:"assigned_by" gorm:"size:36"`
	AssignedAt   time.Time `json:"assigned_at"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (RepairWorkAssignment) TableName() string {
	return "repair_work_assignments"
}
