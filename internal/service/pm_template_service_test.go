package service

import (
	"errors"
	"testing"
	"time"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

func TestNextDueDate(t *testing.T) {
	base := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		fType string
		value int
		want  time.Time
	}{
		{"hourly", entity.FrequencyHourly, 6, base.Add(6 * time.Hour)},
		{"daily", entity.FrequencyDaily, 3, time.Date(2026, 3, 18, 8, 0, 0, 0, time.UTC)},
		{"weekly", entity.FrequencyWeekly, 2, time.Date(2026, 3, 29, 8, 0, 0, 0, time.UTC)},
		{"monthly", entity.FrequencyMonthly, 1, time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC)},
		{"unknown falls back to monthly", "YEARLY", 1, time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC)},
		{"zero value treated as one", entity.FrequencyDaily, 0, time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDueDate(base, tc.fType, tc.value)
			if !got.Equal(tc.want) {
				t.Errorf("NextDueDate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextDueDateMonthEndRollover(t *testing.T) {
	// Jan 31 + 1 month normalizes into early March, Go's AddDate semantics.
	base := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	got := NextDueDate(base, entity.FrequencyMonthly, 1)
	want := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", got, want)
	}
}

func TestTemplateDeleteGuardedBySchedules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewPMTemplateService(repos.PMTemplate)

	company := testutil.SeedCompany(t, db, "Takeco")
	machine := testutil.SeedMachine(t, db, "CNC-01", company.ID)
	template := testutil.SeedPMTemplate(t, db, "Monthly check", entity.FrequencyMonthly, 1, "Grease spindle")

	schedule := &entity.PMSchedule{
		ID:           "sch-001",
		PMTemplateID: template.ID,
		MachineID:    machine.ID,
		ScheduleCode: "PM-CNC-01-20260401-0800",
		NextDueDate:  time.Now().AddDate(0, 1, 0),
		Status:       entity.PMStatusScheduled,
		Priority:     entity.PMPriorityMedium,
	}
	if err := db.Create(schedule).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	if err := svc.Delete(template.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("Delete err = %v, want ErrConflict", err)
	}

	if err := db.Delete(schedule).Error; err != nil {
		t.Fatalf("remove schedule: %v", err)
	}
	if err := svc.Delete(template.ID); err != nil {
		t.Fatalf("Delete after schedules removed failed: %v", err)
	}
}

func TestTemplateCreateOrdersItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewPMTemplateService(repos.PMTemplate)

	template, err := svc.Create(&CreatePMTemplateRequest{
		Name:           "Weekly check",
		FrequencyType:  entity.FrequencyWeekly,
		FrequencyValue: 1,
		Items: []TemplateItemInput{
			{CheckItem: "Check oil"},
			{CheckItem: "Check belt"},
			{CheckItem: "Check alignment"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(template.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(got.Items))
	}
	for i, item := range got.Items {
		if item.ItemOrder != i+1 {
			t.Errorf("item %d order = %d, want %d", i, item.ItemOrder, i+1)
		}
	}
}
