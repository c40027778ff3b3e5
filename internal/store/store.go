// Package store persists issued guest credentials. The schema is consumed,
// not owned: the admin tooling reads the same tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrDuplicateUsername is returned when the unique constraint on Username
// rejects an insert: a collision slipped past the generator's check.
var ErrDuplicateUsername = errors.New("store: duplicate username")

// Store defines the persistence operations the provisioning service needs.
type Store interface {
	Create(ctx context.Context, rec *GuestAccess) error
	ActiveByRoom(ctx context.Context, room string) (*GuestAccess, error)
	ListActive(ctx context.Context) ([]GuestAccess, error)
	ActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]GuestAccess, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SetStatus(ctx context.Context, id uint, status GuestStatus, sync SyncStatus) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Create inserts a new access record, translating a unique-constraint
// violation on the username into ErrDuplicateUsername.
func (s *gormStore) Create(ctx context.Context, rec *GuestAccess) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, rec.Username)
		}
		return fmt.Errorf("failed to create guest access record: %w", err)
	}
	return nil
}

// ActiveByRoom returns the active record for a room, or nil when the room
// has none.
func (s *gormStore) ActiveByRoom(ctx context.Context, room string) (*GuestAccess, error) {
	var rec GuestAccess
	err := s.db.WithContext(ctx).
		Where("room_number = ? AND status = ?", room, StatusActive).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active record for room %s: %w", room, err)
	}
	return &rec, nil
}

// ListActive returns every active record, ordered by room for stable output.
func (s *gormStore) ListActive(ctx context.Context) ([]GuestAccess, error) {
	var recs []GuestAccess
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("room_number").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active records: %w", err)
	}
	return recs, nil
}

// ActiveExpiredBefore returns active records whose check-out date is before
// the cutoff.
func (s *gormStore) ActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]GuestAccess, error) {
	var recs []GuestAccess
	err := s.db.WithContext(ctx).
		Where("status = ? AND check_out < ?", StatusActive, cutoff).
		Order("check_out").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired records: %w", err)
	}
	return recs, nil
}

// UsernameExists reports whether any record (of any status) holds the
// username. Disabled records keep their usernames reserved.
func (s *gormStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&GuestAccess{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username %s: %w", username, err)
	}
	return count > 0, nil
}

// SetStatus transitions a record's lifecycle and sync status.
func (s *gormStore) SetStatus(ctx context.Context, id uint, status GuestStatus, sync SyncStatus) error {
	res := s.db.WithContext(ctx).
		Model(&GuestAccess{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "sync_status": sync})
	if res.Error != nil {
		return fmt.Errorf("failed to update record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %d not found", id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The sqlite driver reports constraint failures as plain errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
