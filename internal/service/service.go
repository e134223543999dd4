package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/config"
	"github.com/takeco/cmms/internal/push"
	"github.com/takeco/cmms/internal/repository"
)

// Services is the full set wired once at startup.
type Services struct {
	Auth         *AuthService
	Company      *CompanyService
	User         *UserService
	Machine      *MachineService
	Part         *PartService
	Inventory    *InventoryService
	PMTemplate   *PMTemplateService
	PMSchedule   *PMScheduleService
	Repair       *RepairService
	History      *HistoryService
	Notification *NotificationService
}

func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	pushClient := push.NewClient(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subject)
	notification := NewNotificationService(repos.Subscription, pushClient, logger)
	inventory := NewInventoryService(db, repos.Inventory, repos.Part)

	return &Services{
		Auth:         NewAuthService(repos.User, rdb, cfg),
		Company:      NewCompanyService(repos.Company),
		User:         NewUserService(repos.User, repos.Company),
		Machine:      NewMachineService(db, repos.Machine, repos.Company, repos.Document),
		Part:         NewPartService(repos.Part, repos.Machine, inventory),
		Inventory:    inventory,
		PMTemplate:   NewPMTemplateService(repos.PMTemplate),
		PMSchedule:   NewPMScheduleService(db, repos.PMSchedule, repos.PMTemplate, repos.Machine, repos.User, notification, logger, cfg.Upload.Dir),
		Repair:       NewRepairService(db, repos.Repair, repos.Machine, repos.Part, inventory, repos.User, notification, logger),
		History:      NewHistoryService(repos.PMSchedule, repos.Repair, repos.Machine, repos.User),
		Notification: notification,
	}
}
