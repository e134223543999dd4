package entity

import "time"

// PMStatus values. OVERDUE is derived from the due date at read time; it is
// never written by a workflow transition.
const (
	PMStatusScheduled  = "SCHEDULED"
	PMStatusInProgress = "IN_PROGRESS"
	PMStatusCompleted  = "COMPLETED"
	PMStatusSkipped    = "SKIPPED"
	PMStatusOverdue    = "OVERDUE"
	PMStatusCancelled  = "CANCELLED"
)

// PMPriority values
const (
	PMPriorityLow      = "LOW"
	PMPriorityMedium   = "MEDIUM"
	PMPriorityHigh     = "HIGH"
	PMPriorityCritical = "CRITICAL"
)

// PMSchedule is one link of the schedule chain for a (machine, template) pair.
// Completing it spawns exactly one successor.
type PMSchedule struct {
	ID                   string     `json:"id" gorm:"primaryKey;size:36"`
	PMTemplateID         string     `json:"pm_template_id" gorm:"size:36;not null;index"`
	MachineID            string     `json:"machine_id" gorm:"size:36;not null;index"`
	ScheduleCode         string     `json:"schedule_code" gorm:"size:50;not null;uniqueIndex"`
	NextDueDate          time.Time  `json:"next_due_date" gorm:"not null;index"`
	Status               string     `json:"status" gorm:"size:20;not null;default:SCHEDULED;index"`
	Priority             string     `json:"priority" gorm:"size:10;not null;default:MEDIUM"`
	EstimatedHours       float64    `json:"estimated_hours" gorm:"type:decimal(6,2);default:0"`
	Remarks              string     `json:"remarks" gorm:"type:text"`
	StartedAt            *time.Time `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	LastDoneDate         *time.Time `json:"last_done_date"`
	CompletedBy          *string    `json:"completed_by" gorm:"size:36"`
	CustomerSignatureURL string     `json:"customer_signature_url" gorm:"size:255"`
	CustomerSignerName   string     `json:"customer_signer_name" gorm:"size:128"`
	CustomerSignedAt     *time.Time `json:"customer_signed_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Machine       *Machine               `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	PMTemplate    *PMTemplate            `json:"pm_template,omitempty" gorm:"foreignKey:PMTemplateID"`
	AssignedUsers []PMScheduleAssignment `json:"assigned_users,omitempty" gorm:"foreignKey:PMScheduleID"`
	Results       []PMResult             `json:"results,omitempty" gorm:"foreignKey:PMScheduleID"`
}

func (PMSchedule) TableName() string {
	return "pm_schedules"
}

// PMScheduleAssignment links a schedule to an assigned technician.
type PMScheduleAssignment struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	PMScheduleID string    `json:"pm_schedule_id" gorm:"size:36;not null;uniqueIndex:idx_pm_schedule_user"`
	UserID       string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_pm_schedule_user"`
	AssignedBy   string    `json:"assigned_by" gorm:"size:36"`
	AssignedAt   time.Time `json:"assigned_at"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (PMScheduleAssignment) TableName() string {
	return "pm_schedule_assignments"
}

// PMResult is the filled-in checklist row for one (schedule, template item)
// pair. Saves upsert on that key instead of duplicating rows.
type PMResult struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	PMScheduleID     string    `json:"pm_schedule_id" gorm:"size:36;not null;uniqueIndex:idx_pm_result_step"`
	PMTemplateItemID string    `json:"pm_template_item_id" gorm:"size:36;not null;uniqueIndex:idx_pm_result_step"`
	Result           string    `json:"result" gorm:"size:64"`
	MeasuredValue    string    `json:"measured_value" gorm:"size:64"`
	Remarks          string    `json:"remarks" gorm:"type:text"`
	CheckedBy        string    `json:"checked_by" gorm:"size:36"`
	CheckedAt        time.Time `json:"checked_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	PMTemplateItem *PMTemplateItem `json:"pm_template_item,omitempty" gorm:"foreignKey:PMTemplateItemID"`
	Photos         []PMResultPhoto `json:"photos,omitempty" gorm:"foreignKey:PMResultID;constraint:OnDelete:CASCADE"`
}

func (PMResult) TableName() string {
	return "pm_results"
}

// PhotoType values shared by PM result and repair work photos.
const (
	PhotoTypeBefore   = "BEFORE"
	PhotoTypeProgress = "PROGRESS"
	PhotoTypeAfter    = "AFTER"
	PhotoTypeEvidence = "EVIDENCE"
)

type PMResultPhoto struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	PMResultID  string    `json:"pm_result_id" gorm:"size:36;not null;index"`
	PhotoURL    string    `json:"photo_url" gorm:"size:255;not null"`
	FileName    string    `json:"file_name" gorm:"size:255"`
	PhotoType   string    `json:"photo_type" gorm:"size:10;not null;default:EVIDENCE"`
	Description string    `json:"description" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}

func (PMResultPhoto) TableName() string {
	return "pm_result_photos"
}
