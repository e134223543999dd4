package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

type repairFixture struct {
	db      *gorm.DB
	svc     *RepairService
	machine *entity.Machine
	tech    *entity.User
}

func newRepairFixture(t *testing.T) *repairFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	company := testutil.SeedCompany(t, db, "Takeco")
	machine := testutil.SeedMachine(t, db, "CNC-01", company.ID)
	tech := testutil.SeedUser(t, db, "tech", "secret123", entity.RoleTechnician, nil)

	inventory := NewInventoryService(db, repos.Inventory, repos.Part)
	svc := NewRepairService(db, repos.Repair, repos.Machine, repos.Part, inventory, repos.User, nil, zap.NewNop())
	return &repairFixture{db: db, svc: svc, machine: machine, tech: tech}
}

func (f *repairFixture) machineStatus(t *testing.T) string {
	t.Helper()
	var machine entity.Machine
	if err := f.db.First(&machine, "id = ?", f.machine.ID).Error; err != nil {
		t.Fatalf("load machine: %v", err)
	}
	return machine.Status
}

func TestCreateNumbersWorkOrdersAndHoldsMachine(t *testing.T) {
	f := newRepairFixture(t)

	first, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{
		MachineID: f.machine.ID,
		Title:     "Spindle noise",
		Items:     []string{"Inspect bearings"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wantNumber := fmt.Sprintf("RW-%s-001", time.Now().Format("200601"))
	if first.WorkOrderNumber != wantNumber {
		t.Errorf("work order number = %q, want %q", first.WorkOrderNumber, wantNumber)
	}
	if got := f.machineStatus(t); got != entity.MachineStatusMaintenance {
		t.Errorf("machine status = %q, want MAINTENANCE", got)
	}
	if len(first.Items) != 1 || first.Items[0].Status != entity.RepairItemStatusPending {
		t.Fatalf("items = %+v", first.Items)
	}

	second, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{
		MachineID: f.machine.ID,
		Title:     "Coolant leak",
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if want := fmt.Sprintf("RW-%s-002", time.Now().Format("200601")); second.WorkOrderNumber != want {
		t.Errorf("second number = %q, want %q", second.WorkOrderNumber, want)
	}
}

func TestItemCompletionRequiresRemarks(t *testing.T) {
	f := newRepairFixture(t)
	work, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{
		MachineID: f.machine.ID,
		Title:     "Spindle noise",
		Items:     []string{"Inspect bearings"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	item := work.Items[0]

	completed := entity.RepairItemStatusCompleted
	if _, err := f.svc.UpdateItem(item.ID, f.tech.ID, &UpdateRepairItemRequest{Status: &completed}); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("UpdateItem err = %v, want ErrPrecondition", err)
	}

	remarks := "Bearings replaced"
	updated, err := f.svc.UpdateItem(item.ID, f.tech.ID, &UpdateRepairItemRequest{Status: &completed, Remarks: &remarks})
	if err != nil {
		t.Fatalf("UpdateItem with remarks failed: %v", err)
	}
	if updated.Status != entity.RepairItemStatusCompleted || updated.CompletedAt == nil {
		t.Errorf("item = %+v", updated)
	}
}

func TestCompletionGatesCheckedInOrder(t *testing.T) {
	f := newRepairFixture(t)
	work, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{
		MachineID: f.machine.ID,
		Title:     "Spindle noise",
		Items:     []string{"Inspect bearings"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	signed := &CompleteRepairRequest{SignatureURL: "/uploads/sig.png", SignerName: "Customer"}

	// Signature first.
	if _, err := f.svc.Complete(work.ID, f.tech.ID, &CompleteRepairRequest{}); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("no signature err = %v, want ErrPrecondition", err)
	}

	// Then every task completed with remarks.
	if _, err := f.svc.Complete(work.ID, f.tech.ID, signed); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("open task err = %v, want ErrPrecondition", err)
	}
	completed := entity.RepairItemStatusCompleted
	remarks := "Bearings replaced"
	if _, err := f.svc.UpdateItem(work.Items[0].ID, f.tech.ID, &UpdateRepairItemRequest{Status: &completed, Remarks: &remarks}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	// Then a BEFORE photo.
	if _, err := f.svc.Complete(work.ID, f.tech.ID, signed); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("no BEFORE photo err = %v, want ErrPrecondition", err)
	}
	if _, err := f.svc.AddPhoto(work.ID, f.tech.ID, &AddRepairPhotoRequest{PhotoURL: "/uploads/before.jpg", PhotoType: entity.PhotoTypeBefore}); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	// Then a PROGRESS or AFTER photo.
	if _, err := f.svc.Complete(work.ID, f.tech.ID, signed); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("no AFTER photo err = %v, want ErrPrecondition", err)
	}
	if _, err := f.svc.AddPhoto(work.ID, f.tech.ID, &AddRepairPhotoRequest{PhotoURL: "/uploads/after.jpg", PhotoType: entity.PhotoTypeAfter}); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	done, err := f.svc.Complete(work.ID, f.tech.ID, signed)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != entity.RepairStatusCompleted {
		t.Errorf("status = %q, want COMPLETED", done.Status)
	}
	if got := f.machineStatus(t); got != entity.MachineStatusActive {
		t.Errorf("machine status = %q, want ACTIVE after last open repair closed", got)
	}

	if _, err := f.svc.Complete(work.ID, f.tech.ID, signed); !errors.Is(err, ErrConflict) {
		t.Fatalf("double Complete err = %v, want ErrConflict", err)
	}
}

func TestConsumePartWritesLedgerAndCost(t *testing.T) {
	f := newRepairFixture(t)
	part := testutil.SeedPart(t, f.db, f.machine.ID, "BELT-01", 10)
	if err := f.db.Model(part).Update("cost_per_unit", decimal.NewFromFloat(2.50)).Error; err != nil {
		t.Fatalf("set cost: %v", err)
	}

	work, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{MachineID: f.machine.ID, Title: "Belt swap"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	usage, err := f.svc.ConsumePart(work.ID, f.tech.ID, &ConsumePartRequest{MachinePartID: part.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("ConsumePart failed: %v", err)
	}
	if !usage.TotalCost.Equal(decimal.NewFromFloat(10.00)) {
		t.Errorf("total cost = %s, want 10", usage.TotalCost)
	}

	var fresh entity.MachinePart
	if err := f.db.First(&fresh, "id = ?", part.ID).Error; err != nil {
		t.Fatalf("load part: %v", err)
	}
	if fresh.QuantityOnHand != 6 {
		t.Errorf("quantity on hand = %d, want 6", fresh.QuantityOnHand)
	}

	var ledger entity.InventoryTransaction
	err = f.db.Where("part_id = ? AND transaction_type = ? AND reference_type = ?",
		part.ID, entity.TxTypeOut, entity.RefTypeWorkOrder).First(&ledger).Error
	if err != nil {
		t.Fatalf("load ledger row: %v", err)
	}
	if ledger.Quantity != 4 || ledger.ReferenceID != work.ID {
		t.Errorf("ledger = %+v", ledger)
	}

	// Over-consumption is rejected and leaves the balance untouched.
	if _, err := f.svc.ConsumePart(work.ID, f.tech.ID, &ConsumePartRequest{MachinePartID: part.ID, Quantity: 100}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("ConsumePart err = %v, want ErrInsufficientStock", err)
	}
	if err := f.db.First(&fresh, "id = ?", part.ID).Error; err != nil {
		t.Fatalf("reload part: %v", err)
	}
	if fresh.QuantityOnHand != 6 {
		t.Errorf("quantity after rejected consume = %d, want 6", fresh.QuantityOnHand)
	}
}

func TestMachineRestoredOnlyWhenLastRepairCloses(t *testing.T) {
	f := newRepairFixture(t)

	first, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{MachineID: f.machine.ID, Title: "Spindle noise"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{MachineID: f.machine.ID, Title: "Coolant leak"})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if _, err := f.svc.Cancel(first.ID, f.tech.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got := f.machineStatus(t); got != entity.MachineStatusMaintenance {
		t.Errorf("machine status = %q, want MAINTENANCE while one repair stays open", got)
	}

	if _, err := f.svc.Cancel(second.ID, f.tech.ID); err != nil {
		t.Fatalf("second Cancel failed: %v", err)
	}
	if got := f.machineStatus(t); got != entity.MachineStatusActive {
		t.Errorf("machine status = %q, want ACTIVE", got)
	}
}

func TestDeleteRefusesInProgress(t *testing.T) {
	f := newRepairFixture(t)
	work, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{MachineID: f.machine.ID, Title: "Spindle noise"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.svc.Start(work.ID, f.tech.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := f.svc.Delete(work.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Delete err = %v, want ErrConflict", err)
	}
}

func TestBulkAssignSkipsDuplicates(t *testing.T) {
	f := newRepairFixture(t)
	other := testutil.SeedUser(t, f.db, "tech2", "secret123", entity.RoleTechnician, nil)
	work, err := f.svc.Create(f.tech.ID, &CreateRepairRequest{MachineID: f.machine.ID, Title: "Spindle noise"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := f.svc.Assign(work.ID, f.tech.ID, f.tech.ID); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := f.svc.BulkAssign(work.ID, []string{f.tech.ID, other.ID}, f.tech.ID); err != nil {
		t.Fatalf("BulkAssign failed: %v", err)
	}

	var count int64
	if err := f.db.Model(&entity.RepairWorkAssignment{}).Where("repair_work_id = ?", work.ID).Count(&count).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 2 {
		t.Errorf("assignments = %d, want 2", count)
	}
}
