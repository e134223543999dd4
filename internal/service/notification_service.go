package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/push"
	"github.com/takeco/cmms/internal/repository"
)

type NotificationService struct {
	subRepo *repository.SubscriptionRepository
	client  *push.Client
	logger  *zap.Logger
}

func NewNotificationService(subRepo *repository.SubscriptionRepository, client *push.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{subRepo: subRepo, client: client, logger: logger}
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

func (s *NotificationService) PublicKey() string {
	return s.client.PublicKey()
}

// Subscribe upserts on endpoint: re-registering an existing endpoint moves it
// to the calling user.
func (s *NotificationService) Subscribe(userID string, req *SubscribeRequest) (*entity.NotificationSubscription, error) {
	if sub, err := s.subRepo.GetByEndpoint(req.Endpoint); err == nil {
		sub.UserID = userID
		sub.P256dh = req.Keys.P256dh
		sub.Auth = req.Keys.Auth
		if err := s.subRepo.Update(sub); err != nil {
			return nil, fmt.Errorf("update subscription: %w", err)
		}
		return sub, nil
	}

	sub := &entity.NotificationSubscription{
		ID:       uuid.New().String(),
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.subRepo.Create(sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (s *NotificationService) Unsubscribe(endpoint string) error {
	return s.subRepo.DeleteByEndpoint(endpoint)
}

// SendToUser pushes to every device of one user. Delivery is fire and forget:
// failures are logged, dead endpoints are pruned, nothing propagates to the
// caller's workflow.
func (s *NotificationService) SendToUser(userID, title, body string) {
	if !s.client.Enabled() {
		return
	}
	subs, err := s.subRepo.ListByUser(userID)
	if err != nil {
		s.logger.Warn("Failed to load subscriptions", zap.String("user_id", userID), zap.Error(err))
		return
	}

	for _, sub := range subs {
		go func(sub entity.NotificationSubscription) {
			err := s.client.Send(push.Subscription{
				Endpoint: sub.Endpoint,
				P256dh:   sub.P256dh,
				Auth:     sub.Auth,
			}, push.Message{Title: title, Body: body})
			if errors.Is(err, push.ErrSubscriptionGone) {
				if delErr := s.subRepo.DeleteByEndpoint(sub.Endpoint); delErr != nil {
					s.logger.Warn("Failed to prune subscription", zap.Error(delErr))
				}
				return
			}
			if err != nil {
				s.logger.Warn("Push delivery failed",
					zap.String("user_id", userID), zap.Error(err))
			}
		}(sub)
	}
}
