package entity

import "time"

// MachineStatus values
const (
	MachineStatusActive      = "ACTIVE"
	MachineStatusInactive    = "INACTIVE"
	MachineStatusMaintenance = "MAINTENANCE"
	MachineStatusRetired     = "RETIRED"
)

type Machine struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	MachineCode      string     `json:"machine_code" gorm:"size:50;not null;uniqueIndex"`
	Name             string     `json:"name" gorm:"size:128;not null"`
	Category         string     `json:"category" gorm:"size:64;index"`
	Model            string     `json:"model" gorm:"size:64"`
	SerialNumber     string     `json:"serial_number" gorm:"size:64"`
	Location         string     `json:"location" gorm:"size:128"`
	Status           string     `json:"status" gorm:"size:20;not null;default:ACTIVE;index"`
	CompanyID        string     `json:"company_id" gorm:"size:36;not null;index"`
	InstallationDate *time.Time `json:"installation_date"`
	ImageURL         string     `json:"image_url" gorm:"size:255"`
	Description      string     `json:"description" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Company *Company      `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Parts   []MachinePart `json:"parts,omitempty" gorm:"foreignKey:MachineID"`
}

func (Machine) TableName() string {
	return "machines"
}

// MachineDocument is an uploaded manual/drawing/certificate attached to a machine.
type MachineDocument struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	MachineID  string    `json:"machine_id" gorm:"size:36;not null;index"`
	Title      string    `json:"title" gorm:"size:128;not null"`
	DocType    string    `json:"doc_type" gorm:"size:32;index"`
	FileURL    string    `json:"file_url" gorm:"size:255;not null"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	FileSize   int64     `json:"file_size"`
	UploadedBy string    `json:"uploaded_by" gorm:"size:36"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Machine *Machine `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
}

func (MachineDocument) TableName() string {
	return "machine_documents"
}
