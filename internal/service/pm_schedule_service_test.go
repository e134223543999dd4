package service

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/testutil"
)

type pmFixture struct {
	db       *gorm.DB
	svc      *PMScheduleService
	template *entity.PMTemplate
	machine  *entity.Machine
	admin    *entity.User
	tech     *entity.User
}

func newPMFixture(t *testing.T) *pmFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	company := testutil.SeedCompany(t, db, "Takeco")
	template := testutil.SeedPMTemplate(t, db, "Monthly check", entity.FrequencyMonthly, 1, "Grease spindle", "Check belt tension")
	machine := testutil.SeedMachine(t, db, "CNC-01", company.ID)
	admin := testutil.SeedUser(t, db, "admin", "secret123", entity.RoleAdmin, nil)
	tech := testutil.SeedUser(t, db, "tech", "secret123", entity.RoleTechnician, nil)

	svc := NewPMScheduleService(db, repos.PMSchedule, repos.PMTemplate, repos.Machine, repos.User, nil, zap.NewNop(), t.TempDir())
	return &pmFixture{db: db, svc: svc, template: template, machine: machine, admin: admin, tech: tech}
}

func (f *pmFixture) createSchedule(t *testing.T, due time.Time, assignees ...string) *entity.PMSchedule {
	t.Helper()
	schedule, err := f.svc.Create(f.admin.ID, &CreatePMScheduleRequest{
		PMTemplateID: f.template.ID,
		MachineID:    f.machine.ID,
		NextDueDate:  due,
		AssignedTo:   assignees,
	})
	if err != nil {
		t.Fatalf("Create schedule failed: %v", err)
	}
	return schedule
}

// fillRequiredItems saves a result for every checklist item.
func (f *pmFixture) fillRequiredItems(t *testing.T, scheduleID string) {
	t.Helper()
	for _, item := range f.template.Items {
		if _, err := f.svc.SaveResult(scheduleID, f.tech.ID, &SaveResultRequest{
			PMTemplateItemID: item.ID,
			Result:           "OK",
		}); err != nil {
			t.Fatalf("SaveResult for %q failed: %v", item.CheckItem, err)
		}
	}
}

func TestScheduleCodeFormat(t *testing.T) {
	due := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	got := scheduleCode("cnc-01", due)
	want := "PM-CNC-01-20260401-0830"
	if got != want {
		t.Errorf("scheduleCode = %q, want %q", got, want)
	}
}

func TestOverdueDerivedAtReadTime(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(-48*time.Hour))

	got, err := f.svc.Get(schedule.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != entity.PMStatusOverdue {
		t.Errorf("derived status = %q, want OVERDUE", got.Status)
	}

	// The stored row keeps SCHEDULED; OVERDUE is never persisted.
	var stored entity.PMSchedule
	if err := f.db.First(&stored, "id = ?", schedule.ID).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if stored.Status != entity.PMStatusScheduled {
		t.Errorf("stored status = %q, want SCHEDULED", stored.Status)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))

	first, err := f.svc.Start(schedule.ID, f.tech.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if first.Status != entity.PMStatusInProgress || first.StartedAt == nil {
		t.Fatalf("status = %q, started_at = %v", first.Status, first.StartedAt)
	}

	second, err := f.svc.Start(schedule.ID, f.tech.ID)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if !second.StartedAt.Equal(*first.StartedAt) {
		t.Errorf("second Start moved StartedAt from %v to %v", first.StartedAt, second.StartedAt)
	}
}

func TestCompleteRequiresSignature(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))
	f.fillRequiredItems(t, schedule.ID)

	_, err := f.svc.Complete(schedule.ID, f.tech.ID, &CompletePMRequest{SignerName: "Customer"})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("Complete err = %v, want ErrPrecondition", err)
	}
}

func TestCompleteRequiresAllRequiredItems(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))

	// Only the first of two required items has a result.
	if _, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: f.template.Items[0].ID,
		Result:           "OK",
	}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	_, err := f.svc.Complete(schedule.ID, f.tech.ID, &CompletePMRequest{
		SignatureURL: "/uploads/sig.png",
		SignerName:   "Customer",
	})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("Complete err = %v, want ErrPrecondition", err)
	}
}

func TestCompleteSpawnsExactlyOneSuccessor(t *testing.T) {
	f := newPMFixture(t)
	due := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	schedule := f.createSchedule(t, due, f.tech.ID)
	f.fillRequiredItems(t, schedule.ID)

	done, err := f.svc.Complete(schedule.ID, f.tech.ID, &CompletePMRequest{
		SignatureURL: "/uploads/sig.png",
		SignerName:   "Customer",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != entity.PMStatusCompleted {
		t.Errorf("status = %q, want COMPLETED", done.Status)
	}
	if done.CustomerSignerName != "Customer" {
		t.Errorf("signer = %q", done.CustomerSignerName)
	}

	var successors []entity.PMSchedule
	if err := f.db.Where("pm_template_id = ? AND machine_id = ? AND status = ?",
		f.template.ID, f.machine.ID, entity.PMStatusScheduled).Find(&successors).Error; err != nil {
		t.Fatalf("load successors: %v", err)
	}
	if len(successors) != 1 {
		t.Fatalf("successors = %d, want 1", len(successors))
	}

	// The successor anchors on the completion time, not the old due date.
	wantDue := NextDueDate(*done.CompletedAt, entity.FrequencyMonthly, 1)
	if d := successors[0].NextDueDate.Sub(wantDue); d < -time.Second || d > time.Second {
		t.Errorf("successor due = %v, want %v", successors[0].NextDueDate, wantDue)
	}

	// Assignments carry over.
	var count int64
	if err := f.db.Model(&entity.PMScheduleAssignment{}).
		Where("pm_schedule_id = ? AND user_id = ?", successors[0].ID, f.tech.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 1 {
		t.Errorf("carried assignments = %d, want 1", count)
	}
}

func TestLateCompletionReanchorsSuccessor(t *testing.T) {
	f := newPMFixture(t)
	oldDue := time.Now().AddDate(0, -3, 0)
	schedule := f.createSchedule(t, oldDue)
	f.fillRequiredItems(t, schedule.ID)

	if _, err := f.svc.Complete(schedule.ID, f.tech.ID, &CompletePMRequest{
		SignatureURL: "/uploads/sig.png",
		SignerName:   "Customer",
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	var successor entity.PMSchedule
	if err := f.db.Where("pm_template_id = ? AND status = ?",
		f.template.ID, entity.PMStatusScheduled).First(&successor).Error; err != nil {
		t.Fatalf("load successor: %v", err)
	}

	// Working off a 3-month backlog must not schedule the next visit in the
	// past: the new due date sits one frequency past the completion, not one
	// past the stale due date.
	if !successor.NextDueDate.After(time.Now()) {
		t.Errorf("successor due = %v, want a future date", successor.NextDueDate)
	}
	stale := NextDueDate(oldDue, entity.FrequencyMonthly, 1)
	if successor.NextDueDate.Sub(stale) < 24*time.Hour {
		t.Errorf("successor due = %v still trails the stale chain anchor %v", successor.NextDueDate, stale)
	}
}

func TestCompleteTwiceYieldsSingleWinner(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))
	f.fillRequiredItems(t, schedule.ID)

	req := &CompletePMRequest{SignatureURL: "/uploads/sig.png", SignerName: "Customer"}
	if _, err := f.svc.Complete(schedule.ID, f.tech.ID, req); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}
	if _, err := f.svc.Complete(schedule.ID, f.tech.ID, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("second Complete err = %v, want ErrConflict", err)
	}

	// Still exactly one open successor, the chain never forks.
	var count int64
	if err := f.db.Model(&entity.PMSchedule{}).
		Where("pm_template_id = ? AND status = ?", f.template.ID, entity.PMStatusScheduled).
		Count(&count).Error; err != nil {
		t.Fatalf("count successors: %v", err)
	}
	if count != 1 {
		t.Errorf("open successors = %d, want 1", count)
	}
}

func TestUpdateRejectsDirectCompletion(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))

	status := entity.PMStatusCompleted
	_, err := f.svc.Update(schedule.ID, &UpdatePMScheduleRequest{Status: &status})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Update err = %v, want ErrValidation", err)
	}

	skipped := entity.PMStatusSkipped
	updated, err := f.svc.Update(schedule.ID, &UpdatePMScheduleRequest{Status: &skipped})
	if err != nil {
		t.Fatalf("Update to SKIPPED failed: %v", err)
	}
	if updated.Status != entity.PMStatusSkipped {
		t.Errorf("status = %q, want SKIPPED", updated.Status)
	}
}

func TestSaveResultUpserts(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))
	item := f.template.Items[0]

	first, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: item.ID,
		Result:           "NG",
		Photos:           []ResultPhotoInput{{PhotoURL: "/uploads/a.jpg"}},
	})
	if err != nil {
		t.Fatalf("first SaveResult failed: %v", err)
	}

	second, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: item.ID,
		Result:           "OK",
		Photos:           []ResultPhotoInput{{PhotoURL: "/uploads/b.jpg"}, {PhotoURL: "/uploads/c.jpg"}},
	})
	if err != nil {
		t.Fatalf("second SaveResult failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %s vs %s", second.ID, first.ID)
	}
	if second.Result != "OK" {
		t.Errorf("result = %q, want OK", second.Result)
	}
	if len(second.Photos) != 2 {
		t.Errorf("photos = %d, want 2 after wholesale replace", len(second.Photos))
	}
}

func TestSaveResultStartsSchedule(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))

	if _, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: f.template.Items[0].ID,
		Result:           "OK",
	}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	got, err := f.svc.Get(schedule.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != entity.PMStatusInProgress {
		t.Errorf("status = %q, want IN_PROGRESS after first saved step", got.Status)
	}
	if got.StartedAt == nil {
		t.Fatal("StartedAt not set by first saved step")
	}
	started := *got.StartedAt

	if _, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: f.template.Items[1].ID,
		Result:           "OK",
	}); err != nil {
		t.Fatalf("second SaveResult failed: %v", err)
	}
	again, err := f.svc.Get(schedule.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !again.StartedAt.Equal(started) {
		t.Errorf("second saved step moved StartedAt from %v to %v", started, again.StartedAt)
	}
}

func TestOverdueCoversStartedSchedules(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(-48*time.Hour))

	if _, err := f.svc.Start(schedule.ID, f.tech.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	got, err := f.svc.Get(schedule.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != entity.PMStatusOverdue {
		t.Errorf("derived status = %q, want OVERDUE for a past-due started schedule", got.Status)
	}

	var stored entity.PMSchedule
	if err := f.db.First(&stored, "id = ?", schedule.ID).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if stored.Status != entity.PMStatusInProgress {
		t.Errorf("stored status = %q, want IN_PROGRESS", stored.Status)
	}
}

func TestScheduleDeleteCascadesResults(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour), f.tech.ID)

	if _, err := f.svc.SaveResult(schedule.ID, f.tech.ID, &SaveResultRequest{
		PMTemplateItemID: f.template.Items[0].ID,
		Result:           "OK",
		Photos:           []ResultPhotoInput{{PhotoURL: "/uploads/a.jpg"}, {PhotoURL: "/uploads/b.jpg"}},
	}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if err := f.svc.Delete(schedule.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.svc.Get(schedule.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}

	var results int64
	if err := f.db.Model(&entity.PMResult{}).Where("pm_schedule_id = ?", schedule.ID).Count(&results).Error; err != nil {
		t.Fatalf("count results: %v", err)
	}
	if results != 0 {
		t.Errorf("orphaned results = %d, want 0", results)
	}
	var photos int64
	if err := f.db.Model(&entity.PMResultPhoto{}).Count(&photos).Error; err != nil {
		t.Fatalf("count photos: %v", err)
	}
	if photos != 0 {
		t.Errorf("orphaned photos = %d, want 0", photos)
	}
	var assignments int64
	if err := f.db.Model(&entity.PMScheduleAssignment{}).Where("pm_schedule_id = ?", schedule.ID).Count(&assignments).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if assignments != 0 {
		t.Errorf("orphaned assignments = %d, want 0", assignments)
	}
}

func TestAssignDuplicateRejected(t *testing.T) {
	f := newPMFixture(t)
	schedule := f.createSchedule(t, time.Now().Add(24*time.Hour))

	if err := f.svc.Assign(schedule.ID, f.tech.ID, f.admin.ID); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := f.svc.Assign(schedule.ID, f.tech.ID, f.admin.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Assign err = %v, want ErrConflict", err)
	}
	if err := f.svc.Unassign(schedule.ID, f.tech.ID); err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
}
