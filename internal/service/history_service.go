package service

import (
	"sort"
	"time"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

// HistoryService merges completed maintenance and repair records into one
// per-machine timeline.
type HistoryService struct {
	scheduleRepo *repository.PMScheduleRepository
	repairRepo   *repository.RepairWorkRepository
	machineRepo  *repository.MachineRepository
	userRepo     *repository.UserRepository
}

func NewHistoryService(scheduleRepo *repository.PMScheduleRepository, repairRepo *repository.RepairWorkRepository, machineRepo *repository.MachineRepository, userRepo *repository.UserRepository) *HistoryService {
	return &HistoryService{scheduleRepo: scheduleRepo, repairRepo: repairRepo, machineRepo: machineRepo, userRepo: userRepo}
}

type HistoryEntry struct {
	Type        string     `json:"type"` // MAINTENANCE or REPAIR
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *string    `json:"completed_by"`
}

// ForMachine returns the recent completed work on one machine, newest first.
// Both sources are paged with the same window, merged and re-sorted, so a
// page may hold up to 2x limit entries around the boundary.
func (s *HistoryService) ForMachine(machineID string, p repository.Pagination) ([]HistoryEntry, error) {
	if _, err := s.machineRepo.GetByID(machineID); err != nil {
		return nil, wrapNotFound(err, "machine")
	}

	schedules, _, err := s.scheduleRepo.ListCompletedByMachine(machineID, p)
	if err != nil {
		return nil, err
	}
	repairs, _, err := s.repairRepo.ListCompletedByMachine(machineID, p)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(schedules)+len(repairs))
	for _, sch := range schedules {
		title := ""
		if sch.PMTemplate != nil {
			title = sch.PMTemplate.Name
		}
		entries = append(entries, HistoryEntry{
			Type:        "MAINTENANCE",
			ID:          sch.ID,
			Code:        sch.ScheduleCode,
			Title:       title,
			CompletedAt: sch.CompletedAt,
			CompletedBy: sch.CompletedBy,
		})
	}
	for _, rw := range repairs {
		entries = append(entries, HistoryEntry{
			Type:        "REPAIR",
			ID:          rw.ID,
			Code:        rw.WorkOrderNumber,
			Title:       rw.Title,
			CompletedAt: rw.CompletedAt,
			CompletedBy: rw.CompletedBy,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].CompletedAt, entries[j].CompletedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	return entries, nil
}

type HistoryStats struct {
	TotalMaintenance  int64 `json:"total_maintenance"`
	TotalRepairs      int64 `json:"total_repairs"`
	UniqueMachines    int   `json:"unique_machines"`
	UniqueTechnicians int   `json:"unique_technicians"`
}

// Stats totals completed work across both sources.
func (s *HistoryService) Stats() (*HistoryStats, error) {
	maintenance, err := s.scheduleRepo.CountCompleted()
	if err != nil {
		return nil, err
	}
	repairs, err := s.repairRepo.CountCompleted()
	if err != nil {
		return nil, err
	}
	machineIDs, err := s.completedMachineIDs()
	if err != nil {
		return nil, err
	}
	technicianIDs, err := s.completedTechnicianIDs()
	if err != nil {
		return nil, err
	}
	return &HistoryStats{
		TotalMaintenance:  maintenance,
		TotalRepairs:      repairs,
		UniqueMachines:    len(machineIDs),
		UniqueTechnicians: len(technicianIDs),
	}, nil
}

// Machines returns the machines carrying at least one completed record.
func (s *HistoryService) Machines() ([]entity.Machine, error) {
	ids, err := s.completedMachineIDs()
	if err != nil {
		return nil, err
	}
	return s.machineRepo.ListByIDs(ids)
}

// Technicians returns the users who completed at least one record.
func (s *HistoryService) Technicians() ([]entity.User, error) {
	ids, err := s.completedTechnicianIDs()
	if err != nil {
		return nil, err
	}
	return s.userRepo.ListByIDs(ids)
}

func (s *HistoryService) completedMachineIDs() ([]string, error) {
	fromPM, err := s.scheduleRepo.CompletedMachineIDs()
	if err != nil {
		return nil, err
	}
	fromRepair, err := s.repairRepo.CompletedMachineIDs()
	if err != nil {
		return nil, err
	}
	return unionIDs(fromPM, fromRepair), nil
}

func (s *HistoryService) completedTechnicianIDs() ([]string, error) {
	fromPM, err := s.scheduleRepo.CompletedTechnicianIDs()
	if err != nil {
		return nil, err
	}
	fromRepair, err := s.repairRepo.CompletedTechnicianIDs()
	if err != nil {
		return nil, err
	}
	return unionIDs(fromPM, fromRepair), nil
}

func unionIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(a, b...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
