package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimal = `
router:
  host: 10.0.0.1
  username: hotel-api
  password: s3cret
profiles:
  - name: hotel-guest
    rate_limit: 10M/2M
    session_timeout: 4h
    idle_timeout: 15m
    shared_users: 2
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Router.Port != 8728 {
		t.Errorf("default port = %d, want 8728", cfg.Router.Port)
	}
	if cfg.Router.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v, want 5s", cfg.Router.ReadTimeout)
	}
	if cfg.Provision.PasswordLength != 8 {
		t.Errorf("password length = %d, want 8", cfg.Provision.PasswordLength)
	}
	if cfg.Provision.MaxSession != 14*24*time.Hour {
		t.Errorf("max session = %v", cfg.Provision.MaxSession)
	}
	if cfg.Database.Path != "guestgate.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}

	p, ok := cfg.ProfileMap()["hotel-guest"]
	if !ok {
		t.Fatal("profile map missing hotel-guest")
	}
	if p.SessionTimeoutDur != 4*time.Hour || p.IdleTimeoutDur != 15*time.Minute {
		t.Errorf("parsed timeouts = %v / %v", p.SessionTimeoutDur, p.IdleTimeoutDur)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing host",
			body: `
router:
  username: hotel-api
profiles:
  - name: hotel-guest
`,
		},
		{
			name: "no profiles",
			body: `
router:
  host: 10.0.0.1
  username: hotel-api
`,
		},
		{
			name: "bad rate limit",
			body: `
router:
  host: 10.0.0.1
  username: hotel-api
profiles:
  - name: hotel-guest
    rate_limit: fast/faster
`,
		},
		{
			name: "duplicate profile",
			body: `
router:
  host: 10.0.0.1
  username: hotel-api
profiles:
  - name: hotel-guest
  - name: hotel-guest
`,
		},
		{
			name: "bad session timeout",
			body: `
router:
  host: 10.0.0.1
  username: hotel-api
profiles:
  - name: hotel-guest
    session_timeout: four hours
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
