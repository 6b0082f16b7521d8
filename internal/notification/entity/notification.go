package entity

import (
	"time"

	"github.com/danupratama/authgate/internal/pkg/valueobject"
)

type CreateNotification struct {
	ID         int64
	UserID     string
	CategoryID int64
	TriggerKey TriggerKey
	Data       valueobject.JSONMap
	Metadata   valueobject.JSONMap
}

type CreateDeliveryLog struct {
	NotificationID int64
	Channel        Channel
	Status         DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      *time.Time
}

type Template struct {
	ID         int64
	TriggerKey TriggerKey
	CategoryID int64
	Channel    Channel
	Subject    string
	Body       string
}
