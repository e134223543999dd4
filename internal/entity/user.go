package entity

import "time"

// Role names
const (
	RoleAdmin      = "ADMIN"
	RoleTechnician = "TECHNICIAN"
	RoleCustomer   = "CUSTOMER"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	FullName     string    `json:"full_name" gorm:"size:128"`
	PhoneNumber  string    `json:"phone_number" gorm:"size:32"`
	Role         string    `json:"role" gorm:"size:20;not null;default:CUSTOMER;index"`
	CompanyID    *string   `json:"company_id" gorm:"size:36;index"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (User) TableName() string {
	return "users"
}
