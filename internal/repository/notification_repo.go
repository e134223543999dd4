package repository

import (
	"github.com/takeco/cmms/internal/entity"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByEndpoint(endpoint string) (*entity.NotificationSubscription, error) {
	var sub entity.NotificationSubscription
	if err := r.db.First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByUser(userID string) ([]entity.NotificationSubscription, error) {
	var subs []entity.NotificationSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) Create(sub *entity.NotificationSubscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) Update(sub *entity.NotificationSubscription) error {
	return r.db.Save(sub).Error
}

// DeleteByEndpoint removes a subscription the push service reported gone.
// Missing rows are not an error here.
func (r *SubscriptionRepository) DeleteByEndpoint(endpoint string) error {
	return r.db.Where("endpoint = ?", endpoint).Delete(&entity.NotificationSubscription{}).Error
}

func (r *SubscriptionRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&entity.NotificationSubscription{}).Error
}
