// Package credentials produces collision-free username/password pairs for
// guest accounts.
package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultSuffixDigits is the width of the numeric username suffix.
	DefaultSuffixDigits = 4

	// DefaultMaxAttempts bounds uniqueness re-rolls before giving up.
	DefaultMaxAttempts = 25

	// DefaultPasswordLength is used when the configured length is zero.
	DefaultPasswordLength = 8

	passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ErrExhausted means uniqueness could not be achieved within the retry
// bound. It signals a degenerate configuration (suffix space too small for
// the number of issued credentials), not a transient condition.
var ErrExhausted = errors.New("credentials: suffix space exhausted")

// ExistsFunc reports whether a username is already taken in the persisted
// store.
type ExistsFunc func(username string) (bool, error)

// Generator draws usernames and passwords from a cryptographically strong
// random source.
type Generator struct {
	// SuffixDigits is the width of the random numeric username suffix.
	SuffixDigits int

	// MaxAttempts bounds uniqueness re-rolls per Username call.
	MaxAttempts int

	// PasswordLength is the number of characters Password returns.
	PasswordLength int

	// AllowSequentialRuns permits passwords containing a three-digit
	// ascending run ("123", "456"). Off by default, matching the
	// observed issuing policy; the rationale is undocumented, so it is
	// a switch rather than a hard rule.
	AllowSequentialRuns bool
}

func (g *Generator) suffixDigits() int {
	if g.SuffixDigits <= 0 {
		return DefaultSuffixDigits
	}
	return g.SuffixDigits
}

func (g *Generator) maxAttempts() int {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) passwordLength() int {
	if g.PasswordLength <= 0 {
		return DefaultPasswordLength
	}
	return g.PasswordLength
}

// Username derives a guest username from the room identifier: the sanitized
// room, a separator, and a random numeric suffix. The suffix re-rolls until
// exists reports the candidate free, up to MaxAttempts.
func (g *Generator) Username(room string, exists ExistsFunc) (string, error) {
	base := sanitizeRoom(room)

	bound := big.NewInt(1)
	for i := 0; i < g.suffixDigits(); i++ {
		bound.Mul(bound, big.NewInt(10))
	}

	for attempt := 0; attempt < g.maxAttempts(); attempt++ {
		n, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return "", fmt.Errorf("credentials: random suffix: %w", err)
		}
		candidate := fmt.Sprintf("%s-%0*d", base, g.suffixDigits(), n)

		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("credentials: uniqueness check: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free username for room %q after %d attempts: %w", room, g.maxAttempts(), ErrExhausted)
}

// Password draws an alphanumeric password of the configured length.
func (g *Generator) Password() (string, error) {
	// Redrawing on a rejected sequential run terminates fast in
	// practice; the bound only guards a pathological filter setup.
	for attempt := 0; attempt < 100; attempt++ {
		pw, err := g.draw()
		if err != nil {
			return "", err
		}
		if !g.AllowSequentialRuns && hasAscendingRun(pw) {
			continue
		}
		return pw, nil
	}
	return "", errors.New("credentials: password filter rejected every draw")
}

func (g *Generator) draw() (string, error) {
	var b strings.Builder
	alphabetLen := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < g.passwordLength(); i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("credentials: random draw: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// sanitizeRoom strips everything but letters and digits. A room identifier
// with nothing left sanitizes to "guest".
func sanitizeRoom(room string) string {
	var b strings.Builder
	for _, r := range room {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "guest"
	}
	return b.String()
}

// hasAscendingRun reports whether s contains three consecutive ascending
// digits ("123", "789").
func hasAscendingRun(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		a, b, c := s[i], s[i+1], s[i+2]
		if a >= '0' && a <= '7' && b == a+1 && c == b+1 {
			return true
		}
	}
	return false
}
