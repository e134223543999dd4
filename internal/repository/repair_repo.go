package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type RepairWorkRepository struct {
	db *gorm.DB
}

func NewRepairWorkRepository(db *gorm.DB) *RepairWorkRepository {
	return &RepairWorkRepository{db: db}
}

func (r *RepairWorkRepository) WithTx(tx *gorm.DB) *RepairWorkRepository {
	return &RepairWorkRepository{db: tx}
}

type RepairListParams struct {
	Scope     AccessScope
	Search    string
	MachineID string
	Status    string
	Priority  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Pagination
}

func (r *RepairWorkRepository) List(params RepairListParams) ([]entity.RepairWork, int64, error) {
	query := r.db.Model(&entity.RepairWork{})
	if !params.Scope.All() {
		uid := params.Scope.UserID()
		query = query.Where("reported_by = ? OR assigned_to = ? OR id IN (?)", uid, uid,
			r.db.Model(&entity.RepairWorkAssignment{}).Select("repair_work_id").Where("user_id = ?", uid))
	}
	if params.Search != "" {
		kw := "%" + params.Search + "%"
		query = query.Where("work_order_number LIKE ? OR title LIKE ? OR description LIKE ?", kw, kw, kw)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Priority != "" {
		query = query.Where("priority = ?", params.Priority)
	}
	if params.DateFrom != nil {
		query = query.Where("created_at >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("created_at <= ?", *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := params.Normalize()
	var works []entity.RepairWork
	err := query.Preload("Machine").
		Preload("Assignments").Preload("Assignments.User").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&works).Error
	return works, total, err
}

func (r *RepairWorkRepository) GetByID(id string) (*entity.RepairWork, error) {
	var work entity.RepairWork
	err := r.db.Preload("Machine").Preload("Machine.Company").
		Preload("PMSchedule").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_order ASC")
		}).
		Preload("Photos").
		Preload("PartsUsed").Preload("PartsUsed.MachinePart").
		Preload("Assignments").Preload("Assignments.User").
		First(&work, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &work, nil
}

func (r *RepairWorkRepository) Create(work *entity.RepairWork) error {
	return r.db.Create(work).Error
}

func (r *RepairWorkRepository) Update(work *entity.RepairWork) error {
	return r.db.Save(work).Error
}

func (r *RepairWorkRepository) Delete(id string) error {
	result := r.db.Select("Items", "Photos", "PartsUsed", "Assignments").
		Delete(&entity.RepairWork{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LastWorkOrderNumber returns the highest number carrying the given prefix,
// e.g. "RW-202608-". Empty string when none exists yet.
func (r *RepairWorkRepository) LastWorkOrderNumber(prefix string) (string, error) {
	var number string
	err := r.db.Model(&entity.RepairWork{}).
		Where("work_order_number LIKE ?", prefix+"%").
		Order("work_order_number DESC").Limit(1).
		Pluck("work_order_number", &number).Error
	return number, err
}

// CompleteIfOpen mirrors the PM guard: only a still-open work order can be
// flipped to COMPLETED, and only one concurrent caller wins.
func (r *RepairWorkRepository) CompleteIfOpen(id string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&entity.RepairWork{}).
		Where("id = ? AND status IN ?", id,
			[]string{entity.RepairStatusOpen, entity.RepairStatusInProgress}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *RepairWorkRepository) GetItem(itemID string) (*entity.RepairWorkItem, error) {
	var item entity.RepairWorkItem
	if err := r.db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &item, nil
}

func (r *RepairWorkRepository) CreateItem(item *entity.RepairWorkItem) error {
	return r.db.Create(item).Error
}

func (r *RepairWorkRepository) UpdateItem(item *entity.RepairWorkItem) error {
	return r.db.Save(item).Error
}

func (r *RepairWorkRepository) DeleteItem(itemID string) error {
	result := r.db.Delete(&entity.RepairWorkItem{}, "id = ?", itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepairWorkRepository) ListItems(workID string) ([]entity.RepairWorkItem, error) {
	var items []entity.RepairWorkItem
	err := r.db.Where("repair_work_id = ?", workID).Order("item_order ASC").Find(&items).Error
	return items, err
}

func (r *RepairWorkRepository) CreatePhoto(photo *entity.RepairWorkPhoto) error {
	return r.db.Create(photo).Error
}

func (r *RepairWorkRepository) GetPhoto(photoID string) (*entity.RepairWorkPhoto, error) {
	var photo entity.RepairWorkPhoto
	if err := r.db.First(&photo, "id = ?", photoID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &photo, nil
}

func (r *RepairWorkRepository) DeletePhoto(photoID string) error {
	result := r.db.Delete(&entity.RepairWorkPhoto{}, "id = ?", photoID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepairWorkRepository) CountPhotosByType(workID, photoType string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.RepairWorkPhoto{}).
		Where("repair_work_id = ? AND photo_type = ?", workID, photoType).Count(&count).Error
	return count, err
}

func (r *RepairWorkRepository) CreatePart(part *entity.RepairWorkPart) error {
	return r.db.Create(part).Error
}

func (r *RepairWorkRepository) ListParts(workID string) ([]entity.RepairWorkPart, error) {
	var parts []entity.RepairWorkPart
	err := r.db.Preload("MachinePart").Where("repair_work_id = ?", workID).
		Order("used_at ASC").Find(&parts).Error
	return parts, err
}

// SumPartsCost totals the recorded part costs of one work order.
func (r *RepairWorkRepository) SumPartsCost(workID string) (decimal.Decimal, error) {
	parts, err := r.ListParts(workID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.TotalCost)
	}
	return total, nil
}

func (r *RepairWorkRepository) AddAssignment(assignment *entity.RepairWorkAssignment) error {
	return r.db.Create(assignment).Error
}

func (r *RepairWorkRepository) GetAssignment(workID, userID string) (*entity.RepairWorkAssignment, error) {
	var assignment entity.RepairWorkAssignment
	err := r.db.First(&assignment, "repair_work_id = ? AND user_id = ?", workID, userID).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &assignment, nil
}

func (r *RepairWorkRepository) RemoveAssignment(workID, userID string) error {
	result := r.db.Where("repair_work_id = ? AND user_id = ?", workID, userID).
		Delete(&entity.RepairWorkAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpenForUser counts OPEN/IN_PROGRESS work orders visible to a user
// through direct or shared assignment. Feeds the morning summary push.
func (r *RepairWorkRepository) CountOpenForUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.RepairWork{}).
		Where("status IN ?", []string{entity.RepairStatusOpen, entity.RepairStatusInProgress}).
		Where("assigned_to = ? OR id IN (?)", userID,
			r.db.Model(&entity.RepairWorkAssignment{}).Select("repair_work_id").Where("user_id = ?", userID)).
		Count(&count).Error
	return count, err
}

type RepairStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *RepairWorkRepository) CountByStatus() ([]RepairStatusCount, error) {
	var counts []RepairStatusCount
	err := r.db.Model(&entity.RepairWork{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error
	return counts, err
}

func (r *RepairWorkRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.db.Model(&entity.RepairWork{}).
		Where("status = ?", entity.RepairStatusCompleted).Count(&count).Error
	return count, err
}

func (r *RepairWorkRepository) CompletedMachineIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.RepairWork{}).
		Where("status = ?", entity.RepairStatusCompleted).
		Distinct().Pluck("machine_id", &ids).Error
	return ids, err
}

func (r *RepairWorkRepository) CompletedTechnicianIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.RepairWork{}).
		Where("status = ? AND completed_by IS NOT NULL", entity.RepairStatusCompleted).
		Distinct().Pluck("completed_by", &ids).Error
	return ids, err
}

// ListCompletedByMachine returns finished work orders for the machine history
// view, newest first.
func (r *RepairWorkRepository) ListCompletedByMachine(machineID string, p Pagination) ([]entity.RepairWork, int64, error) {
	query := r.db.Model(&entity.RepairWork{}).
		Where("machine_id = ? AND status = ?", machineID, entity.RepairStatusCompleted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := p.Normalize()
	var works []entity.RepairWork
	err := query.Order("completed_at DESC").Limit(limit).Offset(offset).Find(&works).Error
	return works, total, err
}
