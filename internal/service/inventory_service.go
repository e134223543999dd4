package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

// InventoryService owns the stock ledger. Every mutation writes a ledger row
// and the part's cached balance in one transaction, so the cache never drifts
// from the fold of the ledger.
type InventoryService struct {
	db            *gorm.DB
	inventoryRepo *repository.InventoryRepository
	partRepo      *repository.MachinePartRepository
}

func NewInventoryService(db *gorm.DB, inventoryRepo *repository.InventoryRepository, partRepo *repository.MachinePartRepository) *InventoryService {
	return &InventoryService{db: db, inventoryRepo: inventoryRepo, partRepo: partRepo}
}

type CreateTransactionRequest struct {
	PartID          string     `json:"part_id" binding:"required"`
	TransactionType string     `json:"transaction_type" binding:"required,oneof=IN OUT ADJUST"`
	Quantity        int        `json:"quantity" binding:"required"`
	ReferenceType   string     `json:"reference_type"`
	ReferenceID     string     `json:"reference_id"`
	Remarks         string     `json:"remarks"`
	TransactionDate *time.Time `json:"transaction_date"`
}

type UpdateTransactionRequest struct {
	Quantity        *int       `json:"quantity"`
	Remarks         *string    `json:"remarks"`
	TransactionDate *time.Time `json:"transaction_date"`
}

// applyDelta returns the new balance after applying one ledger row, or an
// error when an OUT would drive the balance negative. ADJUST quantities are
// absolute totals.
func applyDelta(balance int, txType string, quantity int) (int, error) {
	switch txType {
	case entity.TxTypeIn:
		return balance + quantity, nil
	case entity.TxTypeOut:
		if quantity > balance {
			return 0, insufficientStockf("on hand %d, requested %d", balance, quantity)
		}
		return balance - quantity, nil
	case entity.TxTypeAdjust:
		if quantity < 0 {
			return 0, validationf("adjusted quantity cannot be negative")
		}
		return quantity, nil
	}
	return 0, validationf("unknown transaction type %q", txType)
}

// Apply records a stock movement. Ledger row and cached balance are committed
// together or not at all.
func (s *InventoryService) Apply(performedBy string, req *CreateTransactionRequest) (*entity.InventoryTransaction, error) {
	if req.Quantity <= 0 && req.TransactionType != entity.TxTypeAdjust {
		return nil, validationf("quantity must be positive")
	}

	refType := req.ReferenceType
	if refType == "" {
		refType = entity.RefTypeManual
	}
	txDate := time.Now()
	if req.TransactionDate != nil {
		txDate = *req.TransactionDate
	}

	record := &entity.InventoryTransaction{
		ID:              uuid.New().String(),
		PartID:          req.PartID,
		TransactionType: req.TransactionType,
		Quantity:        req.Quantity,
		ReferenceType:   refType,
		ReferenceID:     req.ReferenceID,
		Remarks:         req.Remarks,
		PerformedBy:     performedBy,
		TransactionDate: txDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		part, err := s.partRepo.WithTx(tx).GetByID(req.PartID)
		if err != nil {
			return wrapNotFound(err, "part")
		}

		newBalance, err := applyDelta(part.QuantityOnHand, req.TransactionType, req.Quantity)
		if err != nil {
			return err
		}

		if err := s.inventoryRepo.WithTx(tx).Create(record); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return s.partRepo.WithTx(tx).UpdateQuantity(part.ID, newBalance)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Reverse undoes the stock effect of a ledger row: IN becomes OUT and OUT
// becomes IN. ADJUST rows have no inverse because the pre-adjust balance is
// not recorded.
func (s *InventoryService) reverse(tx *gorm.DB, record *entity.InventoryTransaction) error {
	if record.TransactionType == entity.TxTypeAdjust {
		return conflictf("ADJUST transactions cannot be reversed")
	}

	part, err := s.partRepo.WithTx(tx).GetByID(record.PartID)
	if err != nil {
		return wrapNotFound(err, "part")
	}

	inverse := entity.TxTypeOut
	if record.TransactionType == entity.TxTypeOut {
		inverse = entity.TxTypeIn
	}
	newBalance, err := applyDelta(part.QuantityOnHand, inverse, record.Quantity)
	if err != nil {
		return err
	}
	return s.partRepo.WithTx(tx).UpdateQuantity(part.ID, newBalance)
}

// Update corrects a ledger row by reversing the old effect and applying the
// new one atomically. ADJUST rows are immutable.
func (s *InventoryService) Update(id string, req *UpdateTransactionRequest) (*entity.InventoryTransaction, error) {
	record, err := s.inventoryRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "transaction")
	}
	if record.TransactionType == entity.TxTypeAdjust {
		return nil, conflictf("ADJUST transactions cannot be modified")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.Quantity != nil && *req.Quantity != record.Quantity {
			if *req.Quantity <= 0 {
				return validationf("quantity must be positive")
			}
			if err := s.reverse(tx, record); err != nil {
				return err
			}
			part, err := s.partRepo.WithTx(tx).GetByID(record.PartID)
			if err != nil {
				return wrapNotFound(err, "part")
			}
			newBalance, err := applyDelta(part.QuantityOnHand, record.TransactionType, *req.Quantity)
			if err != nil {
				return err
			}
			if err := s.partRepo.WithTx(tx).UpdateQuantity(part.ID, newBalance); err != nil {
				return err
			}
			record.Quantity = *req.Quantity
		}
		if req.Remarks != nil {
			record.Remarks = *req.Remarks
		}
		if req.TransactionDate != nil {
			record.TransactionDate = *req.TransactionDate
		}
		return s.inventoryRepo.WithTx(tx).Update(record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a ledger row and reverses its stock effect. ADJUST rows are
// immutable.
func (s *InventoryService) Delete(id string) error {
	record, err := s.inventoryRepo.GetByID(id)
	if err != nil {
		return wrapNotFound(err, "transaction")
	}
	if record.TransactionType == entity.TxTypeAdjust {
		return conflictf("ADJUST transactions cannot be deleted")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reverse(tx, record); err != nil {
			return err
		}
		return s.inventoryRepo.WithTx(tx).Delete(id)
	})
}

func (s *InventoryService) List(params repository.TransactionListParams) ([]entity.InventoryTransaction, int64, error) {
	return s.inventoryRepo.List(params)
}

func (s *InventoryService) Get(id string) (*entity.InventoryTransaction, error) {
	record, err := s.inventoryRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "transaction")
	}
	return record, nil
}

func (s *InventoryService) ListByPart(partID string) ([]entity.InventoryTransaction, error) {
	if _, err := s.partRepo.GetByID(partID); err != nil {
		return nil, wrapNotFound(err, "part")
	}
	return s.inventoryRepo.ListByPart(partID)
}

type PartAuditEntry struct {
	Part          *entity.MachinePart `json:"part"`
	LedgerBalance int                 `json:"ledger_balance"`
	CachedBalance int                 `json:"cached_balance"`
	Consistent    bool                `json:"consistent"`
}

// Audit recomputes the ledger fold for one part and compares it against the
// cached balance.
func (s *InventoryService) Audit(partID string) (*PartAuditEntry, error) {
	part, err := s.partRepo.GetByID(partID)
	if err != nil {
		return nil, wrapNotFound(err, "part")
	}
	ledger, err := s.inventoryRepo.SumLedger(partID)
	if err != nil {
		return nil, err
	}
	return &PartAuditEntry{
		Part:          part,
		LedgerBalance: ledger,
		CachedBalance: part.QuantityOnHand,
		Consistent:    ledger == part.QuantityOnHand,
	}, nil
}

func (s *InventoryService) Summary(partID string, from, to *time.Time) ([]repository.TransactionTypeSummary, error) {
	if partID != "" {
		if _, err := s.partRepo.GetByID(partID); err != nil {
			return nil, wrapNotFound(err, "part")
		}
	}
	return s.inventoryRepo.Summarize(partID, from, to)
}

type LedgerAuditReport struct {
	Entries      []PartAuditEntry `json:"entries"`
	Inconsistent int              `json:"inconsistent"`
}

// AuditReport folds the ledger for every part (optionally one machine's) and
// counts the parts whose cached balance drifted.
func (s *InventoryService) AuditReport(machineID string) (*LedgerAuditReport, error) {
	parts, err := s.partRepo.ListAll(machineID)
	if err != nil {
		return nil, err
	}

	report := &LedgerAuditReport{Entries: make([]PartAuditEntry, 0, len(parts))}
	for i := range parts {
		ledger, err := s.inventoryRepo.SumLedger(parts[i].ID)
		if err != nil {
			return nil, err
		}
		entry := PartAuditEntry{
			Part:          &parts[i],
			LedgerBalance: ledger,
			CachedBalance: parts[i].QuantityOnHand,
			Consistent:    ledger == parts[i].QuantityOnHand,
		}
		if !entry.Consistent {
			report.Inconsistent++
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}
