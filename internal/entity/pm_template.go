package entity

import "time"

// FrequencyType values for PM recurrence.
const (
	FrequencyHourly  = "HOURLY"
	FrequencyDaily   = "DAILY"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

// PMTemplate describes a recurring preventive-maintenance checklist for a
// machine category.
type PMTemplate struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	Name            string    `json:"name" gorm:"size:128;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	MachineCategory string    `json:"machine_category" gorm:"size:64;index"`
	FrequencyType   string    `json:"frequency_type" gorm:"size:10;not null;default:MONTHLY"`
	FrequencyValue  int       `json:"frequency_value" gorm:"not null;default:1"`
	EstimatedHours  float64   `json:"estimated_hours" gorm:"type:decimal(6,2);default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Items []PMTemplateItem `json:"items,omitempty" gorm:"foreignKey:PMTemplateID"`
}

func (PMTemplate) TableName() string {
	return "pm_templates"
}

// PMTemplateItem is one ordered check step of a template.
type PMTemplateItem struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	PMTemplateID  string    `json:"pm_template_id" gorm:"size:36;not null;index"`
	ItemOrder     int       `json:"item_order" gorm:"not null;default:1"`
	CheckItem     string    `json:"check_item" gorm:"size:255;not null"`
	Description   string    `json:"description" gorm:"type:text"`
	StandardValue string    `json:"standard_value" gorm:"size:128"`
	Unit          string    `json:"unit" gorm:"size:20"`
	IsRequired    bool      `json:"is_required" gorm:"not null;default:true"`
	RequiresPhoto bool      `json:"requires_photo" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PMTemplateItem) TableName() string {
	return "pm_template_items"
}
