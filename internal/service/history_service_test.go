package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func seedCompletedPM(t *testing.T, db *gorm.DB, templateID, machineID, techID string) {
	t.Helper()
	now := time.Now()
	schedule := &entity.PMSchedule{
		ID:           uuid.New().String(),
		PMTemplateID: templateID,
		MachineID:    machineID,
		ScheduleCode: "PM-" + uuid.New().String()[:13],
		NextDueDate:  now.AddDate(0, 0, -7),
		Status:       entity.PMStatusCompleted,
		CompletedAt:  &now,
		CompletedBy:  &techID,
	}
	if err := db.Create(schedule).Error; err != nil {
		t.Fatalf("seed completed schedule: %v", err)
	}
}

func seedCompletedRepair(t *testing.T, db *gorm.DB, machineID, techID string) {
	t.Helper()
	now := time.Now()
	work := &entity.RepairWork{
		ID:              uuid.New().String(),
		WorkOrderNumber: "RW-" + uuid.New().String()[:13],
		MachineID:       machineID,
		Title:           "Bearing swap",
		Status:          entity.RepairStatusCompleted,
		ReportedBy:      techID,
		CompletedAt:     &now,
		CompletedBy:     &techID,
	}
	if err := db.Create(work).Error; err != nil {
		t.Fatalf("seed completed repair: %v", err)
	}
}

func TestHistoryStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewHistoryService(repos.PMSchedule, repos.Repair, repos.Machine, repos.User)

	company := testutil.SeedCompany(t, db, "Takeco")
	template := testutil.SeedPMTemplate(t, db, "Monthly check", entity.FrequencyMonthly, 1, "Grease spindle")
	lathe := testutil.SeedMachine(t, db, "CNC-01", company.ID)
	press := testutil.SeedMachine(t, db, "PRESS-01", company.ID)
	tech := testutil.SeedUser(t, db, "tech", "secret123", entity.RoleTechnician, nil)

	// Two completed PMs on the lathe, one completed repair on the press, all
	// by the same technician. An open repair must not count.
	seedCompletedPM(t, db, template.ID, lathe.ID, tech.ID)
	seedCompletedPM(t, db, template.ID, lathe.ID, tech.ID)
	seedCompletedRepair(t, db, press.ID, tech.ID)
	open := &entity.RepairWork{
		ID:              uuid.New().String(),
		WorkOrderNumber: "RW-" + uuid.New().String()[:13],
		MachineID:       lathe.ID,
		Title:           "Coolant leak",
		Status:          entity.RepairStatusOpen,
		ReportedBy:      tech.ID,
	}
	if err := db.Create(open).Error; err != nil {
		t.Fatalf("seed open repair: %v", err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalMaintenance != 2 {
		t.Errorf("TotalMaintenance = %d, want 2", stats.TotalMaintenance)
	}
	if stats.TotalRepairs != 1 {
		t.Errorf("TotalRepairs = %d, want 1", stats.TotalRepairs)
	}
	if stats.UniqueMachines != 2 {
		t.Errorf("UniqueMachines = %d, want 2", stats.UniqueMachines)
	}
	if stats.UniqueTechnicians != 1 {
		t.Errorf("UniqueTechnicians = %d, want 1", stats.UniqueTechnicians)
	}

	machines, err := svc.Machines()
	if err != nil {
		t.Fatalf("Machines failed: %v", err)
	}
	if len(machines) != 2 {
		t.Errorf("machines with history = %d, want 2", len(machines))
	}

	technicians, err := svc.Technicians()
	if err != nil {
		t.Fatalf("Technicians failed: %v", err)
	}
	if len(technicians) != 1 || technicians[0].ID != tech.ID {
		t.Errorf("technicians = %+v, want just %s", technicians, tech.ID)
	}
}
