package provision

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mwrona/guestgate/internal/config"
	"github.com/mwrona/guestgate/internal/hotspot"
	"github.com/mwrona/guestgate/internal/routeros"
)

// Device is one open session with the router, scoped to a single
// provisioning operation. Satisfied by the routeros-backed implementation
// below and by test fakes.
type Device interface {
	EnsureProfile(ctx context.Context, p hotspot.Profile) error
	CreateUser(ctx context.Context, username, password, profile string, limit time.Duration) error
	RemoveUser(ctx context.Context, username string) error
	ListActive(ctx context.Context) ([]hotspot.ActiveSession, error)
	Disconnect(ctx context.Context, username string) (bool, error)
	Close() error
}

// DialFunc opens a fresh device session. Sessions are not pooled: connect,
// operate, disconnect.
type DialFunc func(ctx context.Context) (Device, error)

type routerDevice struct {
	*hotspot.Gateway
	conn *routeros.Conn
}

func (d *routerDevice) Close() error {
	return d.conn.Close()
}

// NewRouterDialer returns a DialFunc that connects and authenticates to the
// configured router. The profile-existence cache is shared across sessions
// so per-operation dials do not re-query profiles already ensured.
func NewRouterDialer(cfg config.RouterConfig, log *zap.Logger) DialFunc {
	profiles := cache.New(10*time.Minute, 20*time.Minute)

	return func(ctx context.Context) (Device, error) {
		conn, err := routeros.Dial(ctx, routeros.Config{
			Host:           cfg.Host,
			Port:           cfg.Port,
			Username:       cfg.Username,
			Password:       cfg.Password,
			FallbackLogins: cfg.FallbackLogins,
			ConnectTimeout: cfg.ConnectTimeout,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		return &routerDevice{
			Gateway: hotspot.NewGateway(conn, log).WithProfileCache(profiles),
			conn:    conn,
		}, nil
	}
}
