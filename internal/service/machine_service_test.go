package service

import (
	"errors"
	"testing"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func newMachineService(t *testing.T) (*MachineService, *entity.Company) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewMachineService(db, repos.Machine, repos.Company, repos.Document)
	company := testutil.SeedCompany(t, db, "Takeco")
	return svc, company
}

func TestMachineGetByCode(t *testing.T) {
	svc, company := newMachineService(t)

	created, err := svc.Create(&CreateMachineRequest{
		MachineCode: "CNC-01",
		Name:        "Lathe",
		CompanyID:   company.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.GetByCode("CNC-01")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByCode returned %s, want %s", got.ID, created.ID)
	}

	if _, err := svc.GetByCode("NOPE-99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByCode unknown err = %v, want ErrNotFound", err)
	}
}

func TestBulkUpdateStatus(t *testing.T) {
	svc, company := newMachineService(t)

	var ids []string
	for _, code := range []string{"CNC-01", "CNC-02"} {
		m, err := svc.Create(&CreateMachineRequest{
			MachineCode: code,
			Name:        code,
			CompanyID:   company.ID,
		})
		if err != nil {
			t.Fatalf("Create %s failed: %v", code, err)
		}
		ids = append(ids, m.ID)
	}

	machines, err := svc.BulkUpdateStatus(&BulkStatusRequest{
		MachineIDs: ids,
		Status:     entity.MachineStatusInactive,
	})
	if err != nil {
		t.Fatalf("BulkUpdateStatus failed: %v", err)
	}
	if len(machines) != 2 {
		t.Fatalf("machines = %d, want 2", len(machines))
	}
	for _, m := range machines {
		if m.Status != entity.MachineStatusInactive {
			t.Errorf("%s status = %q, want INACTIVE", m.MachineCode, m.Status)
		}
	}

	if _, err := svc.BulkUpdateStatus(&BulkStatusRequest{
		MachineIDs: ids,
		Status:     "BROKEN",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status err = %v, want ErrValidation", err)
	}
}

func TestBulkUpdateStatusRollsBackOnUnknownMachine(t *testing.T) {
	svc, company := newMachineService(t)

	m, err := svc.Create(&CreateMachineRequest{
		MachineCode: "CNC-01",
		Name:        "Lathe",
		CompanyID:   company.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.BulkUpdateStatus(&BulkStatusRequest{
		MachineIDs: []string{m.ID, "missing-id"},
		Status:     entity.MachineStatusInactive,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	got, err := svc.Get(m.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != entity.MachineStatusActive {
		t.Errorf("status = %q, want ACTIVE after rollback", got.Status)
	}
}
