package hotspot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Profile mirrors a router-side hotspot user profile: the bandwidth and
// timeout policy a guest credential is bound to.
type Profile struct {
	Name string

	// RateLimit is the RouterOS rx/tx form, e.g. "10M/2M"
	// (download/upload as seen from the guest).
	RateLimit string

	SessionTimeout time.Duration
	IdleTimeout    time.Duration
	SharedUsers    int
}

// User is one hotspot user entry on the device.
type User struct {
	ID          string // internal ".id", e.g. "*7"
	Name        string
	Profile     string
	LimitUptime time.Duration
	Disabled    bool
}

// ActiveSession is one live hotspot session. Transient: read from the
// device, never persisted.
type ActiveSession struct {
	ID       string
	User     string
	Address  string
	Uptime   time.Duration
	BytesIn  uint64
	BytesOut uint64
}

// formatDuration renders a duration in the token form RouterOS accepts for
// timeout attributes ("2d3h15m42s"). Zero renders as "0s".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)

	var b strings.Builder
	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dd", days)
		d -= days * 24 * time.Hour
	}
	if h := d / time.Hour; h > 0 {
		fmt.Fprintf(&b, "%dh", h)
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		fmt.Fprintf(&b, "%dm", m)
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

// parseDuration parses the RouterOS duration form, which extends Go's with
// week and day tokens ("1w2d3h4m5s") and may also appear as "hh:mm:ss".
// Unparseable input yields zero; uptime is advisory, not load-bearing.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}

	if strings.Contains(s, ":") {
		return parseClockDuration(s)
	}

	var total time.Duration
	var num strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num.WriteRune(r)
			continue
		}
		n, err := strconv.Atoi(num.String())
		if err != nil {
			return 0
		}
		num.Reset()
		switch r {
		case 'w':
			total += time.Duration(n) * 7 * 24 * time.Hour
		case 'd':
			total += time.Duration(n) * 24 * time.Hour
		case 'h':
			total += time.Duration(n) * time.Hour
		case 'm':
			total += time.Duration(n) * time.Minute
		case 's':
			total += time.Duration(n) * time.Second
		default:
			return 0
		}
	}
	return total
}

func parseClockDuration(s string) time.Duration {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}

	// Optional day prefix: "1d02:03:04".
	var days int
	if i := strings.IndexByte(parts[0], 'd'); i >= 0 {
		d, err := strconv.Atoi(parts[0][:i])
		if err != nil {
			return 0
		}
		days = d
		parts[0] = parts[0][i+1:]
	}

	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second
}

func parseBytes(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
