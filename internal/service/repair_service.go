package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type RepairService struct {
	db          *gorm.DB
	repairRepo  *repository.RepairWorkRepository
	machineRepo *repository.MachineRepository
	partRepo    *repository.MachinePartRepository
	inventory   *InventoryService
	userRepo    *repository.UserRepository
	notifier    *NotificationService
	logger      *zap.Logger
}

func NewRepairService(db *gorm.DB, repairRepo *repository.RepairWorkRepository, machineRepo *repository.MachineRepository, partRepo *repository.MachinePartRepository, inventory *InventoryService, userRepo *repository.UserRepository, notifier *NotificationService, logger *zap.Logger) *RepairService {
	return &RepairService{
		db:          db,
		repairRepo:  repairRepo,
		machineRepo: machineRepo,
		partRepo:    partRepo,
		inventory:   inventory,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

type CreateRepairRequest struct {
	MachineID      string   `json:"machine_id" binding:"required"`
	PMScheduleID   *string  `json:"pm_schedule_id"`
	Title          string   `json:"title" binding:"required,max=255"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	EstimatedHours float64  `json:"estimated_hours"`
	AssignedTo     *string  `json:"assigned_to"`
	Items          []string `json:"items"`
}

type UpdateRepairRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	EstimatedHours *float64 `json:"estimated_hours"`
	Remarks        *string  `json:"remarks"`
}

type UpdateRepairItemRequest struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Remarks     *string `json:"remarks"`
}

type AddRepairPhotoRequest struct {
	RepairWorkItemID *string `json:"repair_work_item_id"`
	PhotoURL         string  `json:"photo_url" binding:"required"`
	FileName         string  `json:"file_name"`
	PhotoType        string  `json:"photo_type" binding:"required,oneof=BEFORE PROGRESS AFTER"`
	Description      string  `json:"description"`
}

type ConsumePartRequest struct {
	MachinePartID string `json:"machine_part_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	Remarks       string `json:"remarks"`
}

type CompleteRepairRequest struct {
	SignatureURL string  `json:"signature_url" binding:"required"`
	SignerName   string  `json:"signer_name" binding:"required"`
	ActualHours  float64 `json:"actual_hours"`
	Remarks      string  `json:"remarks"`
}

func validRepairPriority(priority string) bool {
	switch priority {
	case entity.RepairPriorityLow, entity.RepairPriorityMedium,
		entity.RepairPriorityHigh, entity.RepairPriorityCritical:
		return true
	}
	return false
}

// nextWorkOrderNumber produces RW-YYYYMM-NNN, restarting the counter each
// month.
func (s *RepairService) nextWorkOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("RW-%s-", now.Format("200601"))
	last, err := s.repairRepo.WithTx(tx).LastWorkOrderNumber(prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (s *RepairService) List(params repository.RepairListParams) ([]entity.RepairWork, int64, error) {
	return s.repairRepo.List(params)
}

func (s *RepairService) Get(id string) (*entity.RepairWork, error) {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	return work, nil
}

// Create opens a work order and forces the machine into MAINTENANCE.
func (s *RepairService) Create(reportedBy string, req *CreateRepairRequest) (*entity.RepairWork, error) {
	machine, err := s.machineRepo.GetByID(req.MachineID)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.RepairPriorityMedium
	}
	if !validRepairPriority(priority) {
		return nil, validationf("unknown priority %q", priority)
	}
	if req.AssignedTo != nil {
		if _, err := s.userRepo.GetByID(*req.AssignedTo); err != nil {
			return nil, wrapNotFound(err, "user")
		}
	}

	now := time.Now()
	work := &entity.RepairWork{
		ID:             uuid.New().String(),
		MachineID:      machine.ID,
		PMScheduleID:   req.PMScheduleID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       priority,
		Status:         entity.RepairStatusOpen,
		ReportedBy:     reportedBy,
		AssignedTo:     req.AssignedTo,
		EstimatedHours: req.EstimatedHours,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := s.nextWorkOrderNumber(tx, now)
		if err != nil {
			return err
		}
		work.WorkOrderNumber = number

		repo := s.repairRepo.WithTx(tx)
		if err := repo.Create(work); err != nil {
			return fmt.Errorf("create repair work: %w", err)
		}

		for i, desc := range req.Items {
			item := &entity.RepairWorkItem{
				ID:           uuid.New().String(),
				RepairWorkID: work.ID,
				ItemOrder:    i + 1,
				Description:  desc,
				Status:       entity.RepairItemStatusPending,
			}
			if err := repo.CreateItem(item); err != nil {
				return fmt.Errorf("create repair item: %w", err)
			}
		}

		return s.machineRepo.WithTx(tx).UpdateStatus(machine.ID, entity.MachineStatusMaintenance)
	})
	if err != nil {
		return nil, err
	}

	if req.AssignedTo != nil && s.notifier != nil {
		s.notifier.SendToUser(*req.AssignedTo, "Repair work assigned",
			fmt.Sprintf("%s: %s", work.WorkOrderNumber, work.Title))
	}

	return s.Get(work.ID)
}

func (s *RepairService) Update(id string, req *UpdateRepairRequest) (*entity.RepairWork, error) {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}

	if req.Title != nil {
		work.Title = *req.Title
	}
	if req.Description != nil {
		work.Description = *req.Description
	}
	if req.Priority != nil {
		if !validRepairPriority(*req.Priority) {
			return nil, validationf("unknown priority %q", *req.Priority)
		}
		work.Priority = *req.Priority
	}
	if req.EstimatedHours != nil {
		work.EstimatedHours = *req.EstimatedHours
	}
	if req.Remarks != nil {
		work.Remarks = *req.Remarks
	}

	work.Machine = nil
	work.PMSchedule = nil
	work.Items = nil
	work.Photos = nil
	work.PartsUsed = nil
	work.Assignments = nil
	if err := s.repairRepo.Update(work); err != nil {
		return nil, fmt.Errorf("update repair work: %w", err)
	}
	return s.Get(id)
}

// Start moves an OPEN work order to IN_PROGRESS and keeps the machine in
// MAINTENANCE. Idempotent for an already started order.
func (s *RepairService) Start(id, userID string) (*entity.RepairWork, error) {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	switch work.Status {
	case entity.RepairStatusCompleted, entity.RepairStatusCancelled:
		return nil, conflictf("repair work is already %s", work.Status)
	case entity.RepairStatusInProgress:
		return work, nil
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.repairRepo.WithTx(tx).CompleteIfOpen(id, map[string]interface{}{
			"status":     entity.RepairStatusInProgress,
			"started_at": now,
		})
		if err != nil {
			return err
		}
		if !won {
			return conflictf("repair work is no longer open")
		}
		return s.machineRepo.WithTx(tx).UpdateStatus(work.MachineID, entity.MachineStatusMaintenance)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Cancel closes the order without work done and restores the machine when no
// other open repair holds it.
func (s *RepairService) Cancel(id, userID string) (*entity.RepairWork, error) {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.repairRepo.WithTx(tx).CompleteIfOpen(id, map[string]interface{}{
			"status": entity.RepairStatusCancelled,
		})
		if err != nil {
			return err
		}
		if !won {
			return conflictf("repair work is no longer open")
		}
		return s.restoreMachineIfIdle(tx, work.MachineID, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// completionGates lists the predicates checked in order before a work order
// may complete. The first failing gate names the reason.
func (s *RepairService) completionGates(work *entity.RepairWork, req *CompleteRepairRequest) error {
	if req.SignatureURL == "" || req.SignerName == "" {
		return preconditionf("customer signature is required")
	}
	for _, item := range work.Items {
		if item.Status != entity.RepairItemStatusCompleted {
			return preconditionf("task %d is not completed", item.ItemOrder)
		}
		if strings.TrimSpace(item.Remarks) == "" {
			return preconditionf("task %d has no remarks", item.ItemOrder)
		}
	}

	var before, progressOrAfter int
	for _, p := range work.Photos {
		switch p.PhotoType {
		case entity.PhotoTypeBefore:
			before++
		case entity.PhotoTypeProgress, entity.PhotoTypeAfter:
			progressOrAfter++
		}
	}
	if before == 0 {
		return preconditionf("at least one BEFORE photo is required")
	}
	if progressOrAfter == 0 {
		return preconditionf("at least one PROGRESS or AFTER photo is required")
	}
	return nil
}

// Complete closes the order after all gates pass, totals the parts cost and
// restores the machine to ACTIVE when no other open repair remains.
func (s *RepairService) Complete(id, userID string, req *CompleteRepairRequest) (*entity.RepairWork, error) {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}
	if err := s.completionGates(work, req); err != nil {
		return nil, err
	}

	partsCost, err := s.repairRepo.SumPartsCost(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.repairRepo.WithTx(tx).CompleteIfOpen(id, map[string]interface{}{
			"status":                 entity.RepairStatusCompleted,
			"completed_at":           now,
			"completed_by":           userID,
			"actual_hours":           req.ActualHours,
			"actual_cost":            partsCost,
			"remarks":                req.Remarks,
			"customer_signature_url": req.SignatureURL,
			"customer_signer_name":   req.SignerName,
			"customer_signed_at":     now,
		})
		if err != nil {
			return err
		}
		if !won {
			return conflictf("repair work is already completed")
		}
		return s.restoreMachineIfIdle(tx, work.MachineID, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Repair work completed",
		zap.String("repair_id", id),
		zap.String("work_order", work.WorkOrderNumber),
		zap.String("parts_cost", partsCost.String()))

	return s.Get(id)
}

func (s *RepairService) restoreMachineIfIdle(tx *gorm.DB, machineID, excludeRepairID string) error {
	open, err := s.machineRepo.WithTx(tx).CountOpenRepairs(machineID, excludeRepairID)
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	return s.machineRepo.WithTx(tx).UpdateStatus(machineID, entity.MachineStatusActive)
}

// ========== Items ==========

func (s *RepairService) AddItem(workID, description string) (*entity.RepairWorkItem, error) {
	work, err := s.repairRepo.GetByID(workID)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}

	item := &entity.RepairWorkItem{
		ID:           uuid.New().String(),
		RepairWorkID: workID,
		ItemOrder:    len(work.Items) + 1,
		Description:  description,
		Status:       entity.RepairItemStatusPending,
	}
	if err := s.repairRepo.CreateItem(item); err != nil {
		return nil, fmt.Errorf("create repair item: %w", err)
	}
	return item, nil
}

// UpdateItem gates the COMPLETED transition on non-empty remarks.
func (s *RepairService) UpdateItem(itemID, userID string, req *UpdateRepairItemRequest) (*entity.RepairWorkItem, error) {
	item, err := s.repairRepo.GetItem(itemID)
	if err != nil {
		return nil, wrapNotFound(err, "repair item")
	}

	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Remarks != nil {
		item.Remarks = *req.Remarks
	}
	if req.Status != nil {
		switch *req.Status {
		case entity.RepairItemStatusPending, entity.RepairItemStatusInProgress:
			item.Status = *req.Status
			item.CompletedBy = nil
			item.CompletedAt = nil
		case entity.RepairItemStatusCompleted:
			if strings.TrimSpace(item.Remarks) == "" {
				return nil, preconditionf("remarks are required to complete a task")
			}
			now := time.Now()
			item.Status = entity.RepairItemStatusCompleted
			item.CompletedBy = &userID
			item.CompletedAt = &now
		default:
			return nil, validationf("unknown item status %q", *req.Status)
		}
	}

	if err := s.repairRepo.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("update repair item: %w", err)
	}
	return item, nil
}

func (s *RepairService) DeleteItem(itemID string) error {
	if _, err := s.repairRepo.GetItem(itemID); err != nil {
		return wrapNotFound(err, "repair item")
	}
	return s.repairRepo.DeleteItem(itemID)
}

// ========== Photos ==========

func (s *RepairService) AddPhoto(workID, takenBy string, req *AddRepairPhotoRequest) (*entity.RepairWorkPhoto, error) {
	work, err := s.repairRepo.GetByID(workID)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}

	photo := &entity.RepairWorkPhoto{
		ID:               uuid.New().String(),
		RepairWorkID:     workID,
		RepairWorkItemID: req.RepairWorkItemID,
		PhotoURL:         req.PhotoURL,
		FileName:         req.FileName,
		PhotoType:        req.PhotoType,
		Description:      req.Description,
		TakenBy:          takenBy,
		TakenAt:          time.Now(),
	}
	if err := s.repairRepo.CreatePhoto(photo); err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return photo, nil
}

func (s *RepairService) DeletePhoto(photoID string) error {
	if _, err := s.repairRepo.GetPhoto(photoID); err != nil {
		return wrapNotFound(err, "photo")
	}
	return s.repairRepo.DeletePhoto(photoID)
}

// ========== Parts ==========

// ConsumePart records the usage row, the OUT ledger row and the balance
// decrement in one transaction.
func (s *RepairService) ConsumePart(workID, userID string, req *ConsumePartRequest) (*entity.RepairWorkPart, error) {
	work, err := s.repairRepo.GetByID(workID)
	if err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusCompleted || work.Status == entity.RepairStatusCancelled {
		return nil, conflictf("repair work is already %s", work.Status)
	}
	part, err := s.partRepo.GetByID(req.MachinePartID)
	if err != nil {
		return nil, wrapNotFound(err, "part")
	}

	now := time.Now()
	usage := &entity.RepairWorkPart{
		ID:            uuid.New().String(),
		RepairWorkID:  workID,
		MachinePartID: part.ID,
		QuantityUsed:  req.Quantity,
		CostPerUnit:   part.CostPerUnit,
		TotalCost:     part.CostPerUnit.Mul(decimal.NewFromInt(int64(req.Quantity))),
		UsedBy:        userID,
		UsedAt:        now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.partRepo.WithTx(tx).GetByID(part.ID)
		if err != nil {
			return wrapNotFound(err, "part")
		}
		newBalance, err := applyDelta(current.QuantityOnHand, entity.TxTypeOut, req.Quantity)
		if err != nil {
			return err
		}

		if err := s.repairRepo.WithTx(tx).CreatePart(usage); err != nil {
			return fmt.Errorf("record part usage: %w", err)
		}

		ledger := &entity.InventoryTransaction{
			ID:              uuid.New().String(),
			PartID:          part.ID,
			TransactionType: entity.TxTypeOut,
			Quantity:        req.Quantity,
			ReferenceType:   entity.RefTypeWorkOrder,
			ReferenceID:     workID,
			Remarks:         req.Remarks,
			PerformedBy:     userID,
			TransactionDate: now,
		}
		if err := s.inventory.inventoryRepo.WithTx(tx).Create(ledger); err != nil {
			return fmt.Errorf("create ledger row: %w", err)
		}
		return s.partRepo.WithTx(tx).UpdateQuantity(part.ID, newBalance)
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (s *RepairService) ListParts(workID string) ([]entity.RepairWorkPart, error) {
	if _, err := s.repairRepo.GetByID(workID); err != nil {
		return nil, wrapNotFound(err, "repair work")
	}
	return s.repairRepo.ListParts(workID)
}

// ========== Assignments ==========

func (s *RepairService) Assign(workID, userID, assignedBy string) error {
	if _, err := s.repairRepo.GetByID(workID); err != nil {
		return wrapNotFound(err, "repair work")
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return wrapNotFound(err, "user")
	}
	if _, err := s.repairRepo.GetAssignment(workID, userID); err == nil {
		return conflictf("user already assigned")
	}

	assignment := &entity.RepairWorkAssignment{
		ID:           uuid.New().String(),
		RepairWorkID: workID,
		UserID:       userID,
		AssignedBy:   assignedBy,
		AssignedAt:   time.Now(),
	}
	if err := s.repairRepo.AddAssignment(assignment); err != nil {
		return fmt.Errorf("assign user: %w", err)
	}

	if s.notifier != nil {
		s.notifier.SendToUser(user.ID, "Repair work assigned", "A repair work order was assigned to you")
	}
	return nil
}

// BulkAssign adds several technicians in one call, skipping duplicates.
func (s *RepairService) BulkAssign(workID string, userIDs []string, assignedBy string) error {
	if _, err := s.repairRepo.GetByID(workID); err != nil {
		return wrapNotFound(err, "repair work")
	}
	for _, uid := range userIDs {
		if _, err := s.repairRepo.GetAssignment(workID, uid); err == nil {
			continue
		}
		if err := s.Assign(workID, uid, assignedBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *RepairService) Unassign(workID, userID string) error {
	if err := s.repairRepo.RemoveAssignment(workID, userID); err != nil {
		return wrapNotFound(err, "assignment")
	}
	return nil
}

// Delete is admin-only cleanup; completed orders keep their ledger rows.
func (s *RepairService) Delete(id string) error {
	work, err := s.repairRepo.GetByID(id)
	if err != nil {
		return wrapNotFound(err, "repair work")
	}
	if work.Status == entity.RepairStatusInProgress {
		return conflictf("repair work is in progress")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repairRepo.WithTx(tx).Delete(id); err != nil {
			return err
		}
		if work.Status == entity.RepairStatusOpen {
			return s.restoreMachineIfIdle(tx, work.MachineID, id)
		}
		return nil
	})
}

func (s *RepairService) StatusSummary() ([]repository.RepairStatusCount, error) {
	return s.repairRepo.CountByStatus()
}
