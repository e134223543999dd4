package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// AccessScope restricts list queries to the rows an actor may see. Admins get
// AllRows; everyone else gets OwnedBy with their own user id. Query builders
// branch on the scope, never on role strings.
type AccessScope struct {
	all    bool
	userID string
}

func ScopeAll() AccessScope {
	return AccessScope{all: true}
}

func ScopeOwnedBy(userID string) AccessScope {
	return AccessScope{userID: userID}
}

func (s AccessScope) All() bool {
	return s.all
}

func (s AccessScope) UserID() string {
	return s.userID
}

// Pagination normalizes page/limit query params.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Normalize() (page, limit, offset int) {
	page = p.Page
	if page < 1 {
		page = 1
	}
	limit = p.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// Repositories is the full set wired once at startup.
type Repositories struct {
	Company      *CompanyRepository
	User         *UserRepository
	Machine      *MachineRepository
	Document     *MachineDocumentRepository
	Part         *MachinePartRepository
	Inventory    *InventoryRepository
	PMTemplate   *PMTemplateRepository
	PMSchedule   *PMScheduleRepository
	Repair       *RepairWorkRepository
	Subscription *SubscriptionRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Company:      NewCompanyRepository(db),
		User:         NewUserRepository(db),
		Machine:      NewMachineRepository(db),
		Document:     NewMachineDocumentRepository(db),
		Part:         NewMachinePartRepository(db),
		Inventory:    NewInventoryRepository(db),
		PMTemplate:   NewPMTemplateRepository(db),
		PMSchedule:   NewPMScheduleRepository(db),
		Repair:       NewRepairWorkRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
