package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type PartService struct {
	partRepo     *repository.MachinePartRepository
	machineRepo  *repository.MachineRepository
	inventorySvc *InventoryService
}

func NewPartService(partRepo *repository.MachinePartRepository, machineRepo *repository.MachineRepository, inventorySvc *InventoryService) *PartService {
	return &PartService{partRepo: partRepo, machineRepo: machineRepo, inventorySvc: inventorySvc}
}

type CreatePartRequest struct {
	MachineID       string          `json:"machine_id" binding:"required"`
	PartCode        string          `json:"part_code" binding:"required,max=50"`
	PartName        string          `json:"part_name" binding:"required,max=128"`
	Category        string          `json:"category"`
	UOM             string          `json:"uom"`
	InitialQuantity int             `json:"initial_quantity"`
	MinStockLevel   *int            `json:"min_stock_level"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	Location        string          `json:"location"`
	Description     string          `json:"description"`
}

type UpdatePartRequest struct {
	PartName      *string          `json:"part_name"`
	Category      *string          `json:"category"`
	UOM           *string          `json:"uom"`
	MinStockLevel *int             `json:"min_stock_level"`
	CostPerUnit   *decimal.Decimal `json:"cost_per_unit"`
	Location      *string          `json:"location"`
	Description   *string          `json:"description"`
	// Quantity corrections go through the stock endpoints, not here.
}

type StockAdjustRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Remarks  string `json:"remarks"`
}

func (s *PartService) List(params repository.PartListParams) ([]entity.MachinePart, int64, error) {
	return s.partRepo.List(params)
}

func (s *PartService) Get(id string) (*entity.MachinePart, error) {
	part, err := s.partRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "part")
	}
	return part, nil
}

// Create registers the part and, when an initial quantity is given, seeds the
// ledger with an opening IN row.
func (s *PartService) Create(performedBy string, req *CreatePartRequest) (*entity.MachinePart, error) {
	if _, err := s.machineRepo.GetByID(req.MachineID); err != nil {
		return nil, wrapNotFound(err, "machine")
	}
	if _, err := s.partRepo.GetByCode(req.MachineID, req.PartCode); err == nil {
		return nil, conflictf("part code %q already exists on this machine", req.PartCode)
	}
	if req.InitialQuantity < 0 {
		return nil, validationf("initial quantity cannot be negative")
	}

	uom := req.UOM
	if uom == "" {
		uom = "pcs"
	}

	part := &entity.MachinePart{
		ID:            uuid.New().String(),
		MachineID:     req.MachineID,
		PartCode:      req.PartCode,
		PartName:      req.PartName,
		Category:      req.Category,
		UOM:           uom,
		MinStockLevel: req.MinStockLevel,
		CostPerUnit:   req.CostPerUnit,
		Location:      req.Location,
		Description:   req.Description,
	}
	if err := s.partRepo.Create(part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}

	if req.InitialQuantity > 0 {
		_, err := s.inventorySvc.Apply(performedBy, &CreateTransactionRequest{
			PartID:          part.ID,
			TransactionType: entity.TxTypeIn,
			Quantity:        req.InitialQuantity,
			ReferenceType:   entity.RefTypeManual,
			Remarks:         "Initial stock",
		})
		if err != nil {
			return nil, err
		}
		part.QuantityOnHand = req.InitialQuantity
	}
	return part, nil
}

func (s *PartService) Update(id string, req *UpdatePartRequest) (*entity.MachinePart, error) {
	part, err := s.partRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "part")
	}

	if req.PartName != nil {
		part.PartName = *req.PartName
	}
	if req.Category != nil {
		part.Category = *req.Category
	}
	if req.UOM != nil {
		part.UOM = *req.UOM
	}
	if req.MinStockLevel != nil {
		part.MinStockLevel = req.MinStockLevel
	}
	if req.CostPerUnit != nil {
		part.CostPerUnit = *req.CostPerUnit
	}
	if req.Location != nil {
		part.Location = *req.Location
	}
	if req.Description != nil {
		part.Description = *req.Description
	}

	if err := s.partRepo.Update(part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return part, nil
}

// AdjustStock sets the absolute on-hand quantity through an ADJUST ledger row.
func (s *PartService) AdjustStock(id, performedBy string, req *StockAdjustRequest) (*entity.MachinePart, error) {
	if _, err := s.partRepo.GetByID(id); err != nil {
		return nil, wrapNotFound(err, "part")
	}

	remarks := req.Remarks
	if remarks == "" {
		remarks = "Stock adjustment"
	}
	_, err := s.inventorySvc.Apply(performedBy, &CreateTransactionRequest{
		PartID:          id,
		TransactionType: entity.TxTypeAdjust,
		Quantity:        req.Quantity,
		ReferenceType:   entity.RefTypeAdjustment,
		Remarks:         remarks,
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete refuses while ledger rows reference the part, keeping the ledger
// append-only.
func (s *PartService) Delete(id string) error {
	if _, err := s.partRepo.GetByID(id); err != nil {
		return wrapNotFound(err, "part")
	}
	txs, err := s.inventorySvc.inventoryRepo.ListByPart(id)
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return conflictf("part has %d inventory transaction(s)", len(txs))
	}
	return s.partRepo.Delete(id)
}

func (s *PartService) ListLowStock(machineID string) ([]entity.MachinePart, error) {
	return s.partRepo.ListLowStock(machineID)
}

func (s *PartService) Categories(machineID string) ([]string, error) {
	return s.partRepo.Categories(machineID)
}
