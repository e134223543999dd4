package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type UserListParams struct {
	Search    string
	Role      string
	CompanyID string
	Active    *bool
	Pagination
}

func (r *UserRepository) List(params UserListParams) ([]entity.User, int64, error) {
	query := r.db.Model(&entity.User{})
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("username LIKE ? OR full_name LIKE ? OR email LIKE ?", kw, kw, kw)
	}
	if params.Role != "" {
		query = query.Where("role = ?", params.Role)
	}
	if params.CompanyID != "" {
		query = query.Where("company_id = ?", params.CompanyID)
	}
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var users []entity.User
	err := query.Preload("Company").Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.Preload("Company").First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// GetByUsernameOrEmail matches either unique credential column.
func (r *UserRepository) GetByUsernameOrEmail(username, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.First(&user, "username = ? OR email = ?", username, email).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// ListActiveByRole returns active users holding the given role. Used by the
// daily notification job.
func (r *UserRepository) ListActiveByRole(role string) ([]entity.User, error) {
	var users []entity.User
	err := r.db.Where("role = ? AND is_active = ?", role, true).Find(&users).Error
	return users, err
}

func (r *UserRepository) ListByIDs(ids []string) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []entity.User
	err := r.db.Where("id IN ?", ids).Order("full_name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) Delete(id string) error {
	result := r.db.Delete(&entity.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
