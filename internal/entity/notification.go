package entity

import "time"

// NotificationSubscription is one browser push endpoint registered by a user.
// A user may hold several (one per device).
type NotificationSubscription struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;index"`
	Endpoint  string    `json:"endpoint" gorm:"size:512;not null;uniqueIndex"`
	P256dh    string    `json:"p256dh" gorm:"size:255;not null"`
	Auth      string    `json:"auth" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NotificationSubscription) TableName() string {
	return "notification_subscriptions"
}
