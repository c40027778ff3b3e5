package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwrona/guestgate/internal/config"
	"github.com/mwrona/guestgate/internal/credentials"
	"github.com/mwrona/guestgate/internal/hotspot"
	"github.com/mwrona/guestgate/internal/store"
)

// Service orchestrates guest provisioning against one router and one record
// store.
type Service struct {
	dial       DialFunc
	store      store.Store
	gen        *credentials.Generator
	profiles   map[string]config.ProfileConfig
	maxSession time.Duration
	log        *zap.Logger
	now        func() time.Time

	// mu serializes device-mutating operations so two multi-command
	// sequences never interleave on logically related state.
	mu sync.Mutex
}

// NewService wires the provisioning service from its collaborators.
func NewService(dial DialFunc, st store.Store, gen *credentials.Generator, cfg *config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		dial:       dial,
		store:      st,
		gen:        gen,
		profiles:   cfg.ProfileMap(),
		maxSession: cfg.Provision.MaxSession,
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the service's time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Grant is what a successful Generate returns for display to the guest.
type Grant struct {
	Room      string
	Username  string
	Password  string
	Profile   string
	RateLimit string
	CheckOut  time.Time
}

// Generate provisions access for a guest: validates the request, generates
// collision-free credentials, creates the hotspot user with a time limit
// clamped to the configured maximum, and persists the record. The record is
// written only after the device accepted the user; on device failure no
// record becomes visible.
func (s *Service) Generate(ctx context.Context, room, guest string, checkin, checkout time.Time, profileName string) (*Grant, error) {
	profile, ok := s.profiles[profileName]
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown profile %q", profileName)}
	}
	if room == "" {
		return nil, &ValidationError{Message: "room number is required"}
	}
	if guest == "" {
		return nil, &ValidationError{Message: "guest name is required"}
	}

	now := s.now()
	if !checkout.After(checkin) {
		return nil, &ValidationError{Message: "check-out must be after check-in"}
	}
	if !checkout.After(now) {
		return nil, &ValidationError{Message: "check-out is in the past"}
	}

	limit := checkout.Sub(now)
	if limit > s.maxSession {
		limit = s.maxSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, password, err := s.newCredentials(ctx, room)
	if err != nil {
		return nil, err
	}

	dev, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	if err := dev.EnsureProfile(ctx, deviceProfile(profile)); err != nil {
		return nil, fmt.Errorf("failed to ensure profile %s: %w", profile.Name, err)
	}

	err = dev.CreateUser(ctx, username, password, profile.Name, limit)
	if hotspot.IsConflict(err) {
		// A stale user with this name lives on the device but not in
		// the store. Regenerate once rather than adopting unknown
		// credentials.
		s.log.Warn("hotspot username taken on device, regenerating",
			zap.String("username", username))
		username, password, err = s.newCredentials(ctx, room)
		if err != nil {
			return nil, err
		}
		err = dev.CreateUser(ctx, username, password, profile.Name, limit)
	}
	if err != nil {
		return nil, err
	}

	rec := &store.GuestAccess{
		RoomNumber: room,
		GuestName:  guest,
		Username:   username,
		Password:   password,
		Profile:    profile.Name,
		CheckIn:    checkin,
		CheckOut:   checkout,
		Status:     store.StatusActive,
		SyncStatus: store.SyncSynced,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		// Keep device and store consistent: the record never became
		// visible, so the device user must go too.
		if rmErr := dev.RemoveUser(ctx, username); rmErr != nil && !hotspot.IsNotFound(rmErr) {
			s.log.Error("failed to roll back device user after store error",
				zap.String("username", username),
				zap.Error(rmErr))
		}
		return nil, err
	}

	s.log.Info("guest access provisioned",
		zap.String("room", room),
		zap.String("username", username),
		zap.String("profile", profile.Name),
		zap.Time("check_out", checkout),
	)

	return &Grant{
		Room:      room,
		Username:  username,
		Password:  password,
		Profile:   profile.Name,
		RateLimit: profile.RateLimit,
		CheckOut:  checkout,
	}, nil
}

func (s *Service) newCredentials(ctx context.Context, room string) (string, string, error) {
	username, err := s.gen.Username(room, func(u string) (bool, error) {
		return s.store.UsernameExists(ctx, u)
	})
	if err != nil {
		return "", "", err
	}
	password, err := s.gen.Password()
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// RemoveResult reports what Remove actually did.
type RemoveResult struct {
	// Found is false when the room had no active record; the call is a
	// benign no-op then, not an error.
	Found bool

	// Disconnected is true when a live device session was dropped.
	Disconnected bool
}

// Remove revokes a room's access: disconnects any live session, removes the
// hotspot user (tolerating one that is already gone), and disables the
// record. The record is disabled as long as the device no longer has the
// user, because the authoritative intent is "this room no longer has
// access". Idempotent.
func (s *Service) Remove(ctx context.Context, room string) (*RemoveResult, error) {
	rec, err := s.store.ActiveByRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &RemoveResult{Found: false}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	disconnected, err := s.removeRecord(ctx, dev, rec)
	if err != nil {
		return nil, err
	}

	s.log.Info("guest access revoked",
		zap.String("room", room),
		zap.String("username", rec.Username),
		zap.Bool("disconnected", disconnected),
	)
	return &RemoveResult{Found: true, Disconnected: disconnected}, nil
}

// removeRecord performs the device-then-store removal steps for one record.
// Shared between Remove and CleanupExpired.
func (s *Service) removeRecord(ctx context.Context, dev Device, rec *store.GuestAccess) (bool, error) {
	disconnected, err := dev.Disconnect(ctx, rec.Username)
	if err != nil {
		// The user removal below kills the session anyway; a failed
		// disconnect is not worth aborting over.
		s.log.Warn("failed to disconnect session",
			zap.String("username", rec.Username),
			zap.Error(err))
	}

	if err := dev.RemoveUser(ctx, rec.Username); err != nil && !hotspot.IsNotFound(err) {
		// Device state is now unknown; record that so reconciliation
		// can pick it up, and leave the record active for a retry.
		if markErr := s.store.SetStatus(ctx, rec.ID, store.StatusActive, store.SyncFailed); markErr != nil {
			s.log.Error("failed to mark record out of sync",
				zap.Uint("id", rec.ID), zap.Error(markErr))
		}
		return disconnected, fmt.Errorf("failed to remove hotspot user %s: %w", rec.Username, err)
	}

	if err := s.store.SetStatus(ctx, rec.ID, store.StatusDisabled, store.SyncSynced); err != nil {
		return disconnected, err
	}
	return disconnected, nil
}

// CleanupReport aggregates a cleanup batch.
type CleanupReport struct {
	Removed int
	Failed  int
	Errors  []error
}

// CleanupExpired revokes every active record whose check-out lies before
// now. Per-record failures are isolated: one record's device error does not
// stop the rest of the batch.
func (s *Service) CleanupExpired(ctx context.Context, now time.Time) (*CleanupReport, error) {
	recs, err := s.store.ActiveExpiredBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &CleanupReport{}
	if len(recs) == 0 {
		return report, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	for i := range recs {
		rec := &recs[i]
		if _, err := s.removeRecord(ctx, dev, rec); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("room %s: %w", rec.RoomNumber, err))
			s.log.Warn("cleanup failed for record",
				zap.String("room", rec.RoomNumber),
				zap.String("username", rec.Username),
				zap.Error(err))
			continue
		}
		report.Removed++
	}

	s.log.Info("expired guest cleanup finished",
		zap.Int("removed", report.Removed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// GuestView is a persisted record annotated with the router's live session
// state. A point-in-time snapshot, not a subscription.
type GuestView struct {
	store.GuestAccess
	Online   bool
	Address  string
	Uptime   time.Duration
	BytesIn  uint64
	BytesOut uint64
}

// ActiveGuests joins the active records with the device's live sessions by
// username. Records without a matching session report offline.
func (s *Service) ActiveGuests(ctx context.Context) ([]GuestView, error) {
	recs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	dev, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	sessions, err := dev.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]hotspot.ActiveSession, len(sessions))
	for _, sess := range sessions {
		byUser[sess.User] = sess
	}

	views := make([]GuestView, 0, len(recs))
	for _, rec := range recs {
		view := GuestView{GuestAccess: rec}
		if sess, ok := byUser[rec.Username]; ok {
			view.Online = true
			view.Address = sess.Address
			view.Uptime = sess.Uptime
			view.BytesIn = sess.BytesIn
			view.BytesOut = sess.BytesOut
		}
		views = append(views, view)
	}
	return views, nil
}

func deviceProfile(p config.ProfileConfig) hotspot.Profile {
	return hotspot.Profile{
		Name:           p.Name,
		RateLimit:      p.RateLimit,
		SessionTimeout: p.SessionTimeoutDur,
		IdleTimeout:    p.IdleTimeoutDur,
		SharedUsers:    p.SharedUsers,
	}
}
