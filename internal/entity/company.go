package entity

import "time"

// Company owns machines and employs users.
type Company struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Tel       string    `json:"tel" gorm:"size:32"`
	Email     string    `json:"email" gorm:"size:128"`
	Address   string    `json:"address" gorm:"type:text"`
	ZipCode   string    `json:"zip_code" gorm:"size:10"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users    []User    `json:"users,omitempty" gorm:"foreignKey:CompanyID"`
	Machines []Machine `json:"machines,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string {
	return "companies"
}
