package hotspot

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mwrona/guestgate/internal/routeros"
)

// profileCacheTTL is how long a profile is remembered as existing on the
// device. Profiles are created lazily and never removed by this system, so a
// short TTL only costs an extra print command after a router reset.
const profileCacheTTL = 10 * time.Minute

// Runner executes one API command and returns the reply records. Satisfied
// by *routeros.Conn.
type Runner interface {
	Run(ctx context.Context, command string, args ...string) ([]routeros.Sentence, error)
}

// Gateway exposes hotspot-user management as domain operations.
type Gateway struct {
	run      Runner
	log      *zap.Logger
	profiles *cache.Cache // profile names known to exist on the device
}

// NewGateway builds a gateway over a command runner. The profile cache may
// be shared between gateways via WithProfileCache so that per-operation
// sessions do not re-query profiles the deployment already ensured.
func NewGateway(r Runner, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		run:      r,
		log:      log,
		profiles: cache.New(profileCacheTTL, 2*profileCacheTTL),
	}
}

// WithProfileCache replaces the gateway's profile-existence cache, returning
// the gateway for chaining.
func (g *Gateway) WithProfileCache(c *cache.Cache) *Gateway {
	if c != nil {
		g.profiles = c
	}
	return g
}

// EnsureProfile makes sure a hotspot user profile exists on the device,
// creating it on first use. Idempotent: it queries before creating, and an
// "already exists" trap on create counts as success.
func (g *Gateway) EnsureProfile(ctx context.Context, p Profile) error {
	if _, ok := g.profiles.Get(p.Name); ok {
		return nil
	}

	records, err := g.run.Run(ctx, "/ip/hotspot/user/profile/print", "?name="+p.Name)
	if err != nil {
		return classifyTrap(err, "query profile")
	}
	if len(records) > 0 {
		g.profiles.SetDefault(p.Name, true)
		return nil
	}

	args := []string{"=name=" + p.Name}
	if p.RateLimit != "" {
		args = append(args, "=rate-limit="+p.RateLimit)
	}
	if p.SessionTimeout > 0 {
		args = append(args, "=session-timeout="+formatDuration(p.SessionTimeout))
	}
	if p.IdleTimeout > 0 {
		args = append(args, "=idle-timeout="+formatDuration(p.IdleTimeout))
	}
	if p.SharedUsers > 0 {
		args = append(args, fmt.Sprintf("=shared-users=%d", p.SharedUsers))
	}

	_, err = g.run.Run(ctx, "/ip/hotspot/user/profile/add", args...)
	if err != nil {
		// Lost the race against another writer: the profile exists,
		// which is all EnsureProfile promises.
		if classified := classifyTrap(err, "add profile"); !IsConflict(classified) {
			return classified
		}
	}

	g.log.Info("hotspot profile ensured",
		zap.String("profile", p.Name),
		zap.String("rate_limit", p.RateLimit),
	)
	g.profiles.SetDefault(p.Name, true)
	return nil
}

// CreateUser adds a hotspot user. A duplicate-name trap surfaces as a
// conflict error so the caller can regenerate credentials and retry.
func (g *Gateway) CreateUser(ctx context.Context, username, password, profile string, limit time.Duration) error {
	args := []string{
		"=name=" + username,
		"=password=" + password,
		"=profile=" + profile,
	}
	if limit > 0 {
		args = append(args, "=limit-uptime="+formatDuration(limit))
	}

	if _, err := g.run.Run(ctx, "/ip/hotspot/user/add", args...); err != nil {
		return classifyTrap(err, "add user")
	}

	g.log.Info("hotspot user created",
		zap.String("username", username),
		zap.String("profile", profile),
		zap.Duration("limit", limit),
	)
	return nil
}

// RemoveUser deletes a hotspot user by name. A user that is already absent
// is a not-found outcome, which callers treat as a no-op success: removing
// something already gone is not an error.
func (g *Gateway) RemoveUser(ctx context.Context, username string) error {
	id, err := g.findUserID(ctx, username)
	if err != nil {
		return err
	}

	if _, err := g.run.Run(ctx, "/ip/hotspot/user/remove", "=.id="+id); err != nil {
		return classifyTrap(err, "remove user")
	}

	g.log.Info("hotspot user removed", zap.String("username", username))
	return nil
}

func (g *Gateway) findUserID(ctx context.Context, username string) (string, error) {
	records, err := g.run.Run(ctx, "/ip/hotspot/user/print", "?name="+username)
	if err != nil {
		return "", classifyTrap(err, "lookup user")
	}
	if len(records) == 0 {
		return "", notFound("no hotspot user named " + username)
	}

	id, ok := records[0].Get(".id")
	if !ok || id == "" {
		// Identifier attribute missing from the reply: nothing
		// addressable to remove.
		return "", notFound("hotspot user " + username + " has no .id attribute")
	}
	return id, nil
}

// ListUsers returns every hotspot user on the device. An empty device-side
// answer is a valid empty list.
func (g *Gateway) ListUsers(ctx context.Context) ([]User, error) {
	records, err := g.run.Run(ctx, "/ip/hotspot/user/print")
	if err != nil {
		return nil, classifyTrap(err, "list users")
	}

	users := make([]User, 0, len(records))
	for _, rec := range records {
		users = append(users, User{
			ID:          rec.Attr(".id"),
			Name:        rec.Attr("name"),
			Profile:     rec.Attr("profile"),
			LimitUptime: parseDuration(rec.Attr("limit-uptime")),
			Disabled:    rec.Attr("disabled") == "true",
		})
	}
	return users, nil
}

// ListActive returns the live hotspot sessions. An empty answer is a valid
// empty list.
func (g *Gateway) ListActive(ctx context.Context) ([]ActiveSession, error) {
	records, err := g.run.Run(ctx, "/ip/hotspot/active/print")
	if err != nil {
		return nil, classifyTrap(err, "list active sessions")
	}

	sessions := make([]ActiveSession, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, ActiveSession{
			ID:       rec.Attr(".id"),
			User:     rec.Attr("user"),
			Address:  rec.Attr("address"),
			Uptime:   parseDuration(rec.Attr("uptime")),
			BytesIn:  parseBytes(rec.Attr("bytes-in")),
			BytesOut: parseBytes(rec.Attr("bytes-out")),
		})
	}
	return sessions, nil
}

// Disconnect drops the named user's live session. Returns false, without
// error, when the user has no active session.
func (g *Gateway) Disconnect(ctx context.Context, username string) (bool, error) {
	records, err := g.run.Run(ctx, "/ip/hotspot/active/print", "?user="+username)
	if err != nil {
		return false, classifyTrap(err, "lookup active session")
	}
	if len(records) == 0 {
		return false, nil
	}

	id, ok := records[0].Get(".id")
	if !ok || id == "" {
		return false, nil
	}

	if _, err := g.run.Run(ctx, "/ip/hotspot/active/remove", "=.id="+id); err != nil {
		classified := classifyTrap(err, "disconnect session")
		if IsNotFound(classified) {
			// Session ended between lookup and remove.
			return false, nil
		}
		return false, classified
	}

	g.log.Info("hotspot session disconnected", zap.String("username", username))
	return true, nil
}
