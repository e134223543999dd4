package service

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func newUserService(t *testing.T) (*UserService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewUserService(repos.User, repos.Company), repos
}

func TestUserCreateHashesPassword(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(&CreateUserRequest{
		Username: "somchai",
		Email:    "somchai@example.com",
		Password: "secret1234",
		Role:     entity.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.PasswordHash == "secret1234" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1234")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestUserCreateRejectsDuplicate(t *testing.T) {
	svc, _ := newUserService(t)

	req := &CreateUserRequest{
		Username: "somchai",
		Email:    "somchai@example.com",
		Password: "secret1234",
		Role:     entity.RoleTechnician,
	}
	if _, err := svc.Create(req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(req); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Create err = %v, want ErrConflict", err)
	}
}

func TestUserDeleteDeactivates(t *testing.T) {
	svc, repos := newUserService(t)

	user, err := svc.Create(&CreateUserRequest{
		Username: "somchai",
		Email:    "somchai@example.com",
		Password: "secret1234",
		Role:     entity.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The row survives; only the active flag flips.
	got, err := repos.User.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if got.IsActive {
		t.Error("user still active after delete")
	}
}

func TestUserUpdateRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(&CreateUserRequest{
		Username: "somchai",
		Email:    "somchai@example.com",
		Password: "secret1234",
		Role:     entity.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bad := "SUPERVISOR"
	if _, err := svc.Update(user.ID, &UpdateUserRequest{Role: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Update err = %v, want ErrValidation", err)
	}
}
