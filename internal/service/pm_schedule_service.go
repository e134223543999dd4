package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type PMScheduleService struct {
	db           *gorm.DB
	scheduleRepo *repository.PMScheduleRepository
	templateRepo *repository.PMTemplateRepository
	machineRepo  *repository.MachineRepository
	userRepo     *repository.UserRepository
	notifier     *NotificationService
	logger       *zap.Logger
	uploadDir    string
}

func NewPMScheduleService(db *gorm.DB, scheduleRepo *repository.PMScheduleRepository, templateRepo *repository.PMTemplateRepository, machineRepo *repository.MachineRepository, userRepo *repository.UserRepository, notifier *NotificationService, logger *zap.Logger, uploadDir string) *PMScheduleService {
	return &PMScheduleService{
		db:           db,
		scheduleRepo: scheduleRepo,
		templateRepo: templateRepo,
		machineRepo:  machineRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		logger:       logger,
		uploadDir:    uploadDir,
	}
}

type CreatePMScheduleRequest struct {
	PMTemplateID string    `json:"pm_template_id" binding:"required"`
	MachineID    string    `json:"machine_id" binding:"required"`
	NextDueDate  time.Time `json:"next_due_date" binding:"required"`
	Priority     string    `json:"priority"`
	Remarks      string    `json:"remarks"`
	AssignedTo   []string  `json:"assigned_to"`
}

type UpdatePMScheduleRequest struct {
	NextDueDate *time.Time `json:"next_due_date"`
	Priority    *string    `json:"priority"`
	Remarks     *string    `json:"remarks"`
	Status      *string    `json:"status"`
}

type SaveResultRequest struct {
	PMTemplateItemID string             `json:"pm_template_item_id" binding:"required"`
	Result           string             `json:"result"`
	MeasuredValue    string             `json:"measured_value"`
	Remarks          string             `json:"remarks"`
	Photos           []ResultPhotoInput `json:"photos"`
}

type ResultPhotoInput struct {
	PhotoURL    string `json:"photo_url" binding:"required"`
	FileName    string `json:"file_name"`
	PhotoType   string `json:"photo_type"`
	Description string `json:"description"`
}

type CompletePMRequest struct {
	SignatureURL string  `json:"signature_url" binding:"required"`
	SignerName   string  `json:"signer_name" binding:"required"`
	ActualHours  float64 `json:"actual_hours"`
	Remarks      string  `json:"remarks"`
}

// scheduleCode derives the unique chain-link code from the machine code and
// the due date, e.g. PM-CNC01-20260301-0800.
func scheduleCode(machineCode string, due time.Time) string {
	return fmt.Sprintf("PM-%s-%s", strings.ToUpper(machineCode), due.Format("20060102-1504"))
}

func validPMPriority(priority string) bool {
	switch priority {
	case entity.PMPriorityLow, entity.PMPriorityMedium, entity.PMPriorityHigh, entity.PMPriorityCritical:
		return true
	}
	return false
}

func (s *PMScheduleService) List(params repository.PMScheduleListParams) ([]entity.PMSchedule, int64, error) {
	schedules, total, err := s.scheduleRepo.List(params)
	if err != nil {
		return nil, 0, err
	}
	// OVERDUE is derived, never stored.
	now := time.Now()
	for i := range schedules {
		markOverdue(&schedules[i], now)
	}
	return schedules, total, nil
}

func markOverdue(schedule *entity.PMSchedule, now time.Time) {
	switch schedule.Status {
	case entity.PMStatusScheduled, entity.PMStatusInProgress:
		if schedule.NextDueDate.Before(now) {
			schedule.Status = entity.PMStatusOverdue
		}
	}
}

func (s *PMScheduleService) Get(id string) (*entity.PMSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "schedule")
	}
	markOverdue(schedule, time.Now())
	return schedule, nil
}

func (s *PMScheduleService) Create(createdBy string, req *CreatePMScheduleRequest) (*entity.PMSchedule, error) {
	template, err := s.templateRepo.GetByID(req.PMTemplateID)
	if err != nil {
		return nil, wrapNotFound(err, "template")
	}
	machine, err := s.machineRepo.GetByID(req.MachineID)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.PMPriorityMedium
	}
	if !validPMPriority(priority) {
		return nil, validationf("unknown priority %q", priority)
	}

	schedule := &entity.PMSchedule{
		ID:             uuid.New().String(),
		PMTemplateID:   template.ID,
		MachineID:      machine.ID,
		ScheduleCode:   scheduleCode(machine.MachineCode, req.NextDueDate),
		NextDueDate:    req.NextDueDate,
		Status:         entity.PMStatusScheduled,
		Priority:       priority,
		EstimatedHours: template.EstimatedHours,
		Remarks:        req.Remarks,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.scheduleRepo.WithTx(tx)
		if err := repo.Create(schedule); err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
		for _, userID := range req.AssignedTo {
			if _, err := s.userRepo.GetByID(userID); err != nil {
				return wrapNotFound(err, "user")
			}
			assignment := &entity.PMScheduleAssignment{
				ID:           uuid.New().String(),
				PMScheduleID: schedule.ID,
				UserID:       userID,
				AssignedBy:   createdBy,
				AssignedAt:   time.Now(),
			}
			if err := repo.AddAssignment(assignment); err != nil {
				return fmt.Errorf("assign user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAssignees(req.AssignedTo, "New maintenance scheduled",
		fmt.Sprintf("%s on %s due %s", template.Name, machine.Name, req.NextDueDate.Format("2006-01-02")))

	return s.Get(schedule.ID)
}

func (s *PMScheduleService) Update(id string, req *UpdatePMScheduleRequest) (*entity.PMSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "schedule")
	}
	if schedule.Status == entity.PMStatusCompleted || schedule.Status == entity.PMStatusCancelled {
		return nil, conflictf("schedule is already %s", schedule.Status)
	}

	if req.NextDueDate != nil {
		schedule.NextDueDate = *req.NextDueDate
		if schedule.Machine != nil {
			schedule.ScheduleCode = scheduleCode(schedule.Machine.MachineCode, *req.NextDueDate)
		}
	}
	if req.Priority != nil {
		if !validPMPriority(*req.Priority) {
			return nil, validationf("unknown priority %q", *req.Priority)
		}
		schedule.Priority = *req.Priority
	}
	if req.Remarks != nil {
		schedule.Remarks = *req.Remarks
	}
	if req.Status != nil {
		// Completion must go through Complete; only SKIPPED and CANCELLED
		// are reachable here.
		switch *req.Status {
		case entity.PMStatusSkipped, entity.PMStatusCancelled:
			schedule.Status = *req.Status
		default:
			return nil, validationf("status %q cannot be set directly", *req.Status)
		}
	}

	schedule.Machine = nil
	schedule.PMTemplate = nil
	schedule.AssignedUsers = nil
	schedule.Results = nil
	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return s.Get(id)
}

// Start is idempotent: an already started schedule keeps its original
// StartedAt.
func (s *PMScheduleService) Start(id, userID string) (*entity.PMSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "schedule")
	}
	switch schedule.Status {
	case entity.PMStatusCompleted, entity.PMStatusCancelled, entity.PMStatusSkipped:
		return nil, conflictf("schedule is already %s", schedule.Status)
	case entity.PMStatusInProgress:
		return schedule, nil
	}

	now := time.Now()
	schedule.Status = entity.PMStatusInProgress
	schedule.StartedAt = &now
	schedule.Machine = nil
	schedule.PMTemplate = nil
	schedule.AssignedUsers = nil
	schedule.Results = nil
	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, fmt.Errorf("start schedule: %w", err)
	}
	return s.Get(id)
}

// SaveResult upserts one checklist row keyed on (schedule, template item) and
// replaces its photo set wholesale.
func (s *PMScheduleService) SaveResult(scheduleID, userID string, req *SaveResultRequest) (*entity.PMResult, error) {
	schedule, err := s.scheduleRepo.GetByID(scheduleID)
	if err != nil {
		return nil, wrapNotFound(err, "schedule")
	}
	if schedule.Status == entity.PMStatusCompleted || schedule.Status == entity.PMStatusCancelled {
		return nil, conflictf("schedule is already %s", schedule.Status)
	}

	found := false
	if schedule.PMTemplate != nil {
		for _, item := range schedule.PMTemplate.Items {
			if item.ID == req.PMTemplateItemID {
				found = true
				break
			}
		}
	}
	if !found {
		return nil, notFoundf("template item")
	}

	now := time.Now()

	// The first saved step starts the schedule; an explicit Start beforehand
	// keeps its original StartedAt.
	if schedule.StartedAt == nil {
		schedule.Status = entity.PMStatusInProgress
		schedule.StartedAt = &now
		schedule.Machine = nil
		schedule.PMTemplate = nil
		schedule.AssignedUsers = nil
		schedule.Results = nil
		if err := s.scheduleRepo.Update(schedule); err != nil {
			return nil, fmt.Errorf("start schedule: %w", err)
		}
	}

	result, err := s.scheduleRepo.GetResult(scheduleID, req.PMTemplateItemID)
	if err != nil {
		result = &entity.PMResult{
			ID:               uuid.New().String(),
			PMScheduleID:     scheduleID,
			PMTemplateItemID: req.PMTemplateItemID,
		}
		result.Result = req.Result
		result.MeasuredValue = req.MeasuredValue
		result.Remarks = req.Remarks
		result.CheckedBy = userID
		result.CheckedAt = now
		if err := s.scheduleRepo.CreateResult(result); err != nil {
			return nil, fmt.Errorf("create result: %w", err)
		}
	} else {
		result.Result = req.Result
		result.MeasuredValue = req.MeasuredValue
		result.Remarks = req.Remarks
		result.CheckedBy = userID
		result.CheckedAt = now
		result.Photos = nil
		if err := s.scheduleRepo.UpdateResult(result); err != nil {
			return nil, fmt.Errorf("update result: %w", err)
		}
	}

	photos := make([]entity.PMResultPhoto, 0, len(req.Photos))
	for _, p := range req.Photos {
		photoType := p.PhotoType
		if photoType == "" {
			photoType = entity.PhotoTypeEvidence
		}
		photos = append(photos, entity.PMResultPhoto{
			ID:          uuid.New().String(),
			PMResultID:  result.ID,
			PhotoURL:    p.PhotoURL,
			FileName:    p.FileName,
			PhotoType:   photoType,
			Description: p.Description,
		})
	}
	if err := s.scheduleRepo.ReplaceResultPhotos(result.ID, photos); err != nil {
		return nil, fmt.Errorf("replace photos: %w", err)
	}

	return s.scheduleRepo.GetResult(scheduleID, req.PMTemplateItemID)
}

// Complete closes the chain link and spawns exactly one successor. The
// customer signature is mandatory; required checklist items must all carry a
// result. A guarded status update makes concurrent completions yield a single
// winner, so the chain never forks.
func (s *PMScheduleService) Complete(id, userID string, req *CompletePMRequest) (*entity.PMSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "schedule")
	}

	if req.SignatureURL == "" || req.SignerName == "" {
		return nil, preconditionf("customer signature is required")
	}

	if schedule.PMTemplate != nil {
		done := make(map[string]bool, len(schedule.Results))
		for _, r := range schedule.Results {
			done[r.PMTemplateItemID] = true
		}
		for _, item := range schedule.PMTemplate.Items {
			if item.IsRequired && !done[item.ID] {
				return nil, preconditionf("check item %q has no result", item.CheckItem)
			}
		}
	}

	template, err := s.templateRepo.GetByID(schedule.PMTemplateID)
	if err != nil {
		return nil, wrapNotFound(err, "template")
	}

	now := time.Now()
	var successor *entity.PMSchedule

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.scheduleRepo.WithTx(tx)

		won, err := repo.CompleteIfOpen(id, map[string]interface{}{
			"status":                 entity.PMStatusCompleted,
			"completed_at":           now,
			"last_done_date":         now,
			"completed_by":           userID,
			"customer_signature_url": req.SignatureURL,
			"customer_signer_name":   req.SignerName,
			"customer_signed_at":     now,
			"remarks":                req.Remarks,
		})
		if err != nil {
			return err
		}
		if !won {
			return conflictf("schedule is already completed")
		}

		// The successor anchors on the completion time, not the old due date.
		nextDue := NextDueDate(now, template.FrequencyType, template.FrequencyValue)
		successor = &entity.PMSchedule{
			ID:             uuid.New().String(),
			PMTemplateID:   schedule.PMTemplateID,
			MachineID:      schedule.MachineID,
			NextDueDate:    nextDue,
			Status:         entity.PMStatusScheduled,
			Priority:       schedule.Priority,
			EstimatedHours: template.EstimatedHours,
		}
		if schedule.Machine != nil {
			successor.ScheduleCode = scheduleCode(schedule.Machine.MachineCode, nextDue)
		} else {
			successor.ScheduleCode = scheduleCode(schedule.MachineID[:8], nextDue)
		}
		if err := repo.Create(successor); err != nil {
			return fmt.Errorf("create successor: %w", err)
		}

		// Assignments carry over to the successor.
		for _, a := range schedule.AssignedUsers {
			assignment := &entity.PMScheduleAssignment{
				ID:           uuid.New().String(),
				PMScheduleID: successor.ID,
				UserID:       a.UserID,
				AssignedBy:   userID,
				AssignedAt:   now,
			}
			if err := repo.AddAssignment(assignment); err != nil {
				return fmt.Errorf("carry assignment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("PM schedule completed",
		zap.String("schedule_id", id),
		zap.String("successor_id", successor.ID),
		zap.Time("next_due", successor.NextDueDate))

	return s.Get(id)
}

func (s *PMScheduleService) Assign(scheduleID, userID, assignedBy string) error {
	if _, err := s.scheduleRepo.GetByID(scheduleID); err != nil {
		return wrapNotFound(err, "schedule")
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return wrapNotFound(err, "user")
	}
	if _, err := s.scheduleRepo.GetAssignment(scheduleID, userID); err == nil {
		return conflictf("user already assigned")
	}

	assignment := &entity.PMScheduleAssignment{
		ID:           uuid.New().String(),
		PMScheduleID: scheduleID,
		UserID:       userID,
		AssignedBy:   assignedBy,
		AssignedAt:   time.Now(),
	}
	if err := s.scheduleRepo.AddAssignment(assignment); err != nil {
		return fmt.Errorf("assign user: %w", err)
	}

	s.notifyAssignees([]string{user.ID}, "Maintenance assigned to you", "A maintenance schedule was assigned to you")
	return nil
}

func (s *PMScheduleService) Unassign(scheduleID, userID string) error {
	if err := s.scheduleRepo.RemoveAssignment(scheduleID, userID); err != nil {
		return wrapNotFound(err, "assignment")
	}
	return nil
}

// Delete removes the schedule with its results and photo files. File removal
// is best effort; a missing file never fails the delete.
func (s *PMScheduleService) Delete(id string) error {
	schedule, err := s.scheduleRepo.GetByID(id)
	if err != nil {
		return wrapNotFound(err, "schedule")
	}

	var files []string
	for _, r := range schedule.Results {
		for _, p := range r.Photos {
			files = append(files, p.PhotoURL)
		}
	}
	if schedule.CustomerSignatureURL != "" {
		files = append(files, schedule.CustomerSignatureURL)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.scheduleRepo.WithTx(tx)
		for _, r := range schedule.Results {
			if err := repo.ReplaceResultPhotos(r.ID, nil); err != nil {
				return err
			}
		}
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		path := filepath.Join(s.uploadDir, filepath.Base(f))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove photo file", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

type PMDashboard struct {
	ByStatus []repository.PMStatusCount `json:"by_status"`
	Overdue  int64                      `json:"overdue"`
}

func (s *PMScheduleService) Dashboard() (*PMDashboard, error) {
	byStatus, err := s.scheduleRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	overdue, err := s.scheduleRepo.CountOverdue(time.Now())
	if err != nil {
		return nil, err
	}
	return &PMDashboard{ByStatus: byStatus, Overdue: overdue}, nil
}

func (s *PMScheduleService) notifyAssignees(userIDs []string, title, body string) {
	if s.notifier == nil {
		return
	}
	for _, uid := range userIDs {
		s.notifier.SendToUser(uid, title, body)
	}
}
