package models

import (
	"time"

	"gorm.io/datatypes"
)

// RetentionNotification records that a pre-expiry warning was sent for an
// artifact. The composite unique index keeps the engine from double-notifying
// when it is invoked more than once on the same day.
type RetentionNotification struct {
	BaseModel

	NotifyDate datatypes.Date `json:"notify_date" gorm:"uniqueIndex:idx_retention_notify_once"`

	DeliveredAt   *time.Time `json:"delivered_at"`
	DeliveryError string     `json:"delivery_error"`

	AccountID  uint `json:"account_id" gorm:"uniqueIndex:idx_retention_notify_once"`
	ArtifactID uint `json:"artifact_id" gorm:"uniqueIndex:idx_retention_notify_once"`
}
