package repository

import (
	"time"

	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type PMScheduleRepository struct {
	db *gorm.DB
}

func NewPMScheduleRepository(db *gorm.DB) *PMScheduleRepository {
	return &PMScheduleRepository{db: db}
}

func (r *PMScheduleRepository) WithTx(tx *gorm.DB) *PMScheduleRepository {
	return &PMScheduleRepository{db: tx}
}

type PMScheduleListParams struct {
	Scope      AccessScope
	Search     string
	MachineID  string
	TemplateID string
	Status     string
	Priority   string
	DueFrom    *time.Time
	DueTo      *time.Time
	Pagination
}

func (r *PMScheduleRepository) List(params PMScheduleListParams) ([]entity.PMSchedule, int64, error) {
	query := r.db.Model(&entity.PMSchedule{})
	if !params.Scope.All() {
		query = query.Where("id IN (?)",
			r.db.Model(&entity.PMScheduleAssignment{}).Select("pm_schedule_id").Where("user_id = ?", params.Scope.UserID()))
	}
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("schedule_code LIKE ? OR remarks LIKE ?", kw, kw)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.TemplateID != "" {
		query = query.Where("pm_template_id = ?", params.TemplateID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Priority != "" {
		query = query.Where("priority = ?", params.Priority)
	}
	if params.DueFrom != nil {
		query = query.Where("next_due_date >= ?", *params.DueFrom)
	}
	if params.DueTo != nil {
		query = query.Where("next_due_date <= ?", *params.DueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var schedules []entity.PMSchedule
	err := query.Preload("Machine").Preload("PMTemplate").
		Preload("AssignedUsers").Preload("AssignedUsers.User").
		Order("next_due_date ASC").Limit(limit).Offset(offset).Find(&schedules).Error
	return schedules, total, err
}

func (r *PMScheduleRepository) GetByID(id string) (*entity.PMSchedule, error) {
	var schedule entity.PMSchedule
	err := r.db.Preload("Machine").Preload("Machine.Company").
		Preload("PMTemplate").
		Preload("PMTemplate.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_order ASC")
		}).
		Preload("AssignedUsers").Preload("AssignedUsers.User").
		Preload("Results").Preload("Results.PMTemplateItem").Preload("Results.Photos").
		First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &schedule, nil
}

func (r *PMScheduleRepository) Create(schedule *entity.PMSchedule) error {
	return r.db.Create(schedule).Error
}

func (r *PMScheduleRepository) Update(schedule *entity.PMSchedule) error {
	return r.db.Save(schedule).Error
}

func (r *PMScheduleRepository) Delete(id string) error {
	result := r.db.Select("AssignedUsers", "Results").Delete(&entity.PMSchedule{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIfOpen flips a schedule to COMPLETED only while its status is still
// non-terminal. The guarded WHERE makes concurrent completions race on the
// row update; exactly one caller sees RowsAffected == 1 and may spawn the
// successor.
func (r *PMScheduleRepository) CompleteIfOpen(id string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&entity.PMSchedule{}).
		Where("id = ? AND status IN ?", id,
			[]string{entity.PMStatusScheduled, entity.PMStatusInProgress, entity.PMStatusOverdue}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PMScheduleRepository) AddAssignment(assignment *entity.PMScheduleAssignment) error {
	return r.db.Create(assignment).Error
}

func (r *PMScheduleRepository) GetAssignment(scheduleID, userID string) (*entity.PMScheduleAssignment, error) {
	var assignment entity.PMScheduleAssignment
	err := r.db.First(&assignment, "pm_schedule_id = ? AND user_id = ?", scheduleID, userID).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &assignment, nil
}

func (r *PMScheduleRepository) RemoveAssignment(scheduleID, userID string) error {
	result := r.db.Where("pm_schedule_id = ? AND user_id = ?", scheduleID, userID).
		Delete(&entity.PMScheduleAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PMScheduleRepository) GetResult(scheduleID, templateItemID string) (*entity.PMResult, error) {
	var result entity.PMResult
	err := r.db.Preload("Photos").
		First(&result, "pm_schedule_id = ? AND pm_template_item_id = ?", scheduleID, templateItemID).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &result, nil
}

func (r *PMScheduleRepository) CreateResult(result *entity.PMResult) error {
	return r.db.Create(result).Error
}

func (r *PMScheduleRepository) UpdateResult(result *entity.PMResult) error {
	return r.db.Save(result).Error
}

// ReplaceResultPhotos swaps the photo set of one checklist result wholesale.
func (r *PMScheduleRepository) ReplaceResultPhotos(resultID string, photos []entity.PMResultPhoto) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pm_result_id = ?", resultID).Delete(&entity.PMResultPhoto{}).Error; err != nil {
			return err
		}
		if len(photos) == 0 {
			return nil
		}
		return tx.Create(&photos).Error
	})
}

func (r *PMScheduleRepository) CountResults(scheduleID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PMResult{}).Where("pm_schedule_id = ?", scheduleID).Count(&count).Error
	return count, err
}

// CountDueForUser counts open schedules assigned to a user due on or before
// the cutoff. Feeds the morning summary push.
func (r *PMScheduleRepository) CountDueForUser(userID string, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PMSchedule{}).
		Where("status IN ?", []string{entity.PMStatusScheduled, entity.PMStatusInProgress, entity.PMStatusOverdue}).
		Where("next_due_date <= ?", cutoff).
		Where("id IN (?)",
			r.db.Model(&entity.PMScheduleAssignment{}).Select("pm_schedule_id").Where("user_id = ?", userID)).
		Count(&count).Error
	return count, err
}

type PMStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *PMScheduleRepository) CountByStatus() ([]PMStatusCount, error) {
	var counts []PMStatusCount
	err := r.db.Model(&entity.PMSchedule{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error
	return counts, err
}

func (r *PMScheduleRepository) CountOverdue(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PMSchedule{}).
		Where("status IN ?", []string{entity.PMStatusScheduled, entity.PMStatusInProgress}).
		Where("next_due_date < ?", now).Count(&count).Error
	return count, err
}

func (r *PMScheduleRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.db.Model(&entity.PMSchedule{}).
		Where("status = ?", entity.PMStatusCompleted).Count(&count).Error
	return count, err
}

// CompletedMachineIDs returns the distinct machines with at least one
// completed schedule.
func (r *PMScheduleRepository) CompletedMachineIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.PMSchedule{}).
		Where("status = ?", entity.PMStatusCompleted).
		Distinct().Pluck("machine_id", &ids).Error
	return ids, err
}

// CompletedTechnicianIDs returns the distinct users who completed at least
// one schedule.
func (r *PMScheduleRepository) CompletedTechnicianIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.PMSchedule{}).
		Where("status = ? AND completed_by IS NOT NULL", entity.PMStatusCompleted).
		Distinct().Pluck("completed_by", &ids).Error
	return ids, err
}

// ListCompletedByMachine returns finished schedules for the machine history
// view, newest first.
func (r *PMScheduleRepository) ListCompletedByMachine(machineID string, p Pagination) ([]entity.PMSchedule, int64, error) {
	query := r.db.Model(&entity.PMSchedule{}).
		Where("machine_id = ? AND status = ?", machineID, entity.PMStatusCompleted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := p.Normalize()
	var schedules []entity.PMSchedule
	err := query.Preload("PMTemplate").
		Order("completed_at DESC").Limit(limit).Offset(offset).Find(&schedules).Error
	return schedules, total, err
}
