package service

import (
	"errors"
	"testing"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func newInventoryService(t *testing.T) (*InventoryService, *repository.Repositories, *entity.MachinePart) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewInventoryService(db, repos.Inventory, repos.Part)

	company := testutil.SeedCompany(t, db, "Takeco")
	machine := testutil.SeedMachine(t, db, "CNC-01", company.ID)
	part := testutil.SeedPart(t, db, machine.ID, "BELT-01", 10)
	return svc, repos, part
}

func TestApplyOutReducesBalance(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	_, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeOut,
		Quantity:        3,
	})
	if err != nil {
		t.Fatalf("Apply OUT failed: %v", err)
	}

	got, err := repos.Part.GetByID(part.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.QuantityOnHand != 7 {
		t.Errorf("QuantityOnHand = %d, want 7", got.QuantityOnHand)
	}
}

func TestApplyOutBelowZeroRejected(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	_, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeOut,
		Quantity:        11,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// A rejected movement must leave no ledger row and no balance change.
	got, _ := repos.Part.GetByID(part.ID)
	if got.QuantityOnHand != 10 {
		t.Errorf("QuantityOnHand = %d, want 10", got.QuantityOnHand)
	}
	txs, _ := repos.Inventory.ListByPart(part.ID)
	if len(txs) != 1 {
		t.Errorf("ledger rows = %d, want 1 (opening row only)", len(txs))
	}
}

func TestApplyAdjustSetsAbsolute(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	_, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeAdjust,
		Quantity:        50,
	})
	if err != nil {
		t.Fatalf("Apply ADJUST failed: %v", err)
	}

	got, _ := repos.Part.GetByID(part.ID)
	if got.QuantityOnHand != 50 {
		t.Errorf("QuantityOnHand = %d, want 50", got.QuantityOnHand)
	}
}

func TestAdjustImmutable(t *testing.T) {
	svc, _, part := newInventoryService(t)

	adjust, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeAdjust,
		Quantity:        20,
	})
	if err != nil {
		t.Fatalf("Apply ADJUST failed: %v", err)
	}

	five := 5
	if _, err := svc.Update(adjust.ID, &UpdateTransactionRequest{Quantity: &five}); !errors.Is(err, ErrConflict) {
		t.Errorf("Update ADJUST err = %v, want ErrConflict", err)
	}
	if err := svc.Delete(adjust.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("Delete ADJUST err = %v, want ErrConflict", err)
	}
}

func TestDeleteReversesEffect(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	out, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeOut,
		Quantity:        4,
	})
	if err != nil {
		t.Fatalf("Apply OUT failed: %v", err)
	}

	if err := svc.Delete(out.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, _ := repos.Part.GetByID(part.ID)
	if got.QuantityOnHand != 10 {
		t.Errorf("QuantityOnHand = %d, want 10 after reversal", got.QuantityOnHand)
	}
}

func TestUpdateQuantityRebalances(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	out, err := svc.Apply("tech-001", &CreateTransactionRequest{
		PartID:          part.ID,
		TransactionType: entity.TxTypeOut,
		Quantity:        2,
	})
	if err != nil {
		t.Fatalf("Apply OUT failed: %v", err)
	}

	six := 6
	if _, err := svc.Update(out.ID, &UpdateTransactionRequest{Quantity: &six}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repos.Part.GetByID(part.ID)
	if got.QuantityOnHand != 4 {
		t.Errorf("QuantityOnHand = %d, want 4", got.QuantityOnHand)
	}
}

func TestAuditMatchesLedgerFold(t *testing.T) {
	svc, _, part := newInventoryService(t)

	moves := []struct {
		txType   string
		quantity int
	}{
		{entity.TxTypeIn, 5},
		{entity.TxTypeOut, 3},
		{entity.TxTypeAdjust, 30},
		{entity.TxTypeOut, 10},
	}
	for _, m := range moves {
		if _, err := svc.Apply("tech-001", &CreateTransactionRequest{
			PartID:          part.ID,
			TransactionType: m.txType,
			Quantity:        m.quantity,
		}); err != nil {
			t.Fatalf("Apply %s %d failed: %v", m.txType, m.quantity, err)
		}
	}

	entry, err := svc.Audit(part.ID)
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if !entry.Consistent {
		t.Errorf("ledger %d != cached %d", entry.LedgerBalance, entry.CachedBalance)
	}
	if entry.CachedBalance != 20 {
		t.Errorf("CachedBalance = %d, want 20", entry.CachedBalance)
	}
}

func TestSummaryGroupsByType(t *testing.T) {
	svc, _, part := newInventoryService(t)

	moves := []struct {
		txType   string
		quantity int
	}{
		{entity.TxTypeIn, 5},
		{entity.TxTypeIn, 2},
		{entity.TxTypeOut, 3},
	}
	for _, m := range moves {
		if _, err := svc.Apply("tech-001", &CreateTransactionRequest{
			PartID:          part.ID,
			TransactionType: m.txType,
			Quantity:        m.quantity,
		}); err != nil {
			t.Fatalf("Apply %s %d failed: %v", m.txType, m.quantity, err)
		}
	}

	rows, err := svc.Summary(part.ID, nil, nil)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	byType := make(map[string]repository.TransactionTypeSummary, len(rows))
	for _, r := range rows {
		byType[r.TransactionType] = r
	}
	// The seed part carries an opening IN row of 10.
	if in := byType[entity.TxTypeIn]; in.Count != 3 || in.TotalQuantity != 17 {
		t.Errorf("IN summary = %+v, want count 3 total 17", in)
	}
	if out := byType[entity.TxTypeOut]; out.Count != 1 || out.TotalQuantity != 3 {
		t.Errorf("OUT summary = %+v, want count 1 total 3", out)
	}
}

func TestAuditReportFlagsDrift(t *testing.T) {
	svc, repos, part := newInventoryService(t)

	// Corrupt the cached balance behind the ledger's back.
	if err := repos.Part.UpdateQuantity(part.ID, 99); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	report, err := svc.AuditReport("")
	if err != nil {
		t.Fatalf("AuditReport failed: %v", err)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(report.Entries))
	}
	if report.Inconsistent != 1 {
		t.Errorf("inconsistent = %d, want 1", report.Inconsistent)
	}
	entry := report.Entries[0]
	if entry.Consistent || entry.LedgerBalance != 10 || entry.CachedBalance != 99 {
		t.Errorf("entry = %+v, want ledger 10 vs cached 99", entry)
	}
}
