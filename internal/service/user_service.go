package service

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type UserService struct {
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
}

func NewUserService(userRepo *repository.UserRepository, companyRepo *repository.CompanyRepository) *UserService {
	return &UserService{userRepo: userRepo, companyRepo: companyRepo}
}

type CreateUserRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=64"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	FullName    string  `json:"full_name"`
	PhoneNumber string  `json:"phone_number"`
	Role        string  `json:"role" binding:"required,oneof=ADMIN TECHNICIAN CUSTOMER"`
	CompanyID   *string `json:"company_id"`
}

type UpdateUserRequest struct {
	Email       *string `json:"email"`
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	CompanyID   *string `json:"company_id"`
	IsActive    *bool   `json:"is_active"`
	Password    *string `json:"password"`
}

func (s *UserService) List(params repository.UserListParams) ([]entity.User, int64, error) {
	return s.userRepo.List(params)
}

func (s *UserService) Get(id string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return user, nil
}

func (s *UserService) Create(req *CreateUserRequest) (*entity.User, error) {
	if _, err := s.userRepo.GetByUsernameOrEmail(req.Username, req.Email); err == nil {
		return nil, conflictf("username or email already taken")
	}
	if req.CompanyID != nil {
		if _, err := s.companyRepo.GetByID(*req.CompanyID); err != nil {
			return nil, wrapNotFound(err, "company")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		Role:         req.Role,
		CompanyID:    req.CompanyID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Role != nil {
		switch *req.Role {
		case entity.RoleAdmin, entity.RoleTechnician, entity.RoleCustomer:
			user.Role = *req.Role
		default:
			return nil, validationf("unknown role %q", *req.Role)
		}
	}
	if req.CompanyID != nil {
		if *req.CompanyID == "" {
			user.CompanyID = nil
		} else {
			if _, err := s.companyRepo.GetByID(*req.CompanyID); err != nil {
				return nil, wrapNotFound(err, "company")
			}
			user.CompanyID = req.CompanyID
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, validationf("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete deactivates rather than removes: history rows keep referencing the
// user id.
func (s *UserService) Delete(id string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return wrapNotFound(err, "user")
	}
	user.IsActive = false
	return s.userRepo.Update(user)
}
