package store

import "time"

// GuestStatus is the lifecycle state of an access record. Records are never
// physically deleted, only soft-disabled.
type GuestStatus string

const (
	StatusActive   GuestStatus = "active"
	StatusExpired  GuestStatus = "expired"
	StatusDisabled GuestStatus = "disabled"
)

// SyncStatus tracks whether the router's state is known to match the record.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending"
	SyncFailed  SyncStatus = "failed"
)

// GuestAccess is one issued guest credential. The unique index on Username
// is the store-level last line of defense behind the generator's uniqueness
// check.
type GuestAccess struct {
	ID         uint        `gorm:"primaryKey"`
	RoomNumber string      `gorm:"size:32;index;not null"`
	GuestName  string      `gorm:"size:128;not null"`
	Username   string      `gorm:"size:64;uniqueIndex;not null"`
	Password   string      `gorm:"size:64;not null"`
	Profile    string      `gorm:"size:64;not null"`
	CheckIn    time.Time   `gorm:"not null"`
	CheckOut   time.Time   `gorm:"index;not null"`
	Status     GuestStatus `gorm:"size:16;index;default:active"`
	SyncStatus SyncStatus  `gorm:"size:16;default:pending"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
