package service

import (
	"errors"
	"testing"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func TestCompanyDeleteGuardedByUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewCompanyService(repos.Company)

	company := testutil.SeedCompany(t, db, "Takeco")
	user := testutil.SeedUser(t, db, "operator", "secret123", entity.RoleCustomer, &company.ID)

	if err := svc.Delete(company.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Delete with linked user err = %v, want ErrConflict", err)
	}

	if err := db.Delete(&entity.User{}, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("remove user: %v", err)
	}
	if err := svc.Delete(company.ID); err != nil {
		t.Fatalf("Delete after unlinking failed: %v", err)
	}
	if _, err := svc.Get(company.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestCompanyDeleteGuardedByMachines(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewCompanyService(repos.Company)

	company := testutil.SeedCompany(t, db, "Takeco")
	testutil.SeedMachine(t, db, "CNC-01", company.ID)

	if err := svc.Delete(company.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Delete with linked machine err = %v, want ErrConflict", err)
	}
}
