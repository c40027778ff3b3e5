package routeros

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the plaintext API port on RouterOS devices.
	DefaultPort = 8728

	// DefaultConnectTimeout bounds the TCP connect of a single attempt.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout bounds a single socket read.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds a single socket write.
	DefaultWriteTimeout = 5 * time.Second
)

// LoginFunc performs one authentication attempt on a freshly dialed
// connection. Implementations return a command error when the device rejects
// the credentials; any other error aborts the remaining attempts.
//
// The strategy is pluggable because firmware before 6.43 requires an MD5
// challenge-response instead of the plain name/password login. The default,
// PlainLogin, handles both.
type LoginFunc func(c *Conn, username, password string) error

// Config carries the connection settings for one device.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// FallbackLogins enables trying well-known default credentials after
	// the configured pair is rejected.
	FallbackLogins bool

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Login overrides the authentication strategy. Nil means PlainLogin.
	Login LoginFunc

	// Logger receives connection lifecycle events. Nil means no logging.
	Logger *zap.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Login == nil {
		cfg.Login = PlainLogin
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// credential is one username/password pair to try during Dial.
type credential struct {
	username string
	password string
}

// loginCandidates returns the ordered credential list for a dial: the
// configured pair first, then (when enabled) a blank password and the
// factory default.
func (cfg Config) loginCandidates() []credential {
	candidates := []credential{{cfg.Username, cfg.Password}}
	if !cfg.FallbackLogins {
		return candidates
	}
	for _, fb := range []credential{
		{cfg.Username, ""},
		{"admin", ""},
	} {
		if !containsCredential(candidates, fb) {
			candidates = append(candidates, fb)
		}
	}
	return candidates
}

func containsCredential(list []credential, c credential) bool {
	for _, have := range list {
		if have == c {
			return true
		}
	}
	return false
}

// Conn is one logical session with the device. It owns a single TCP socket
// and is not safe for concurrent use: commands are sent and their replies
// fully drained before the next command is issued.
type Conn struct {
	cfg       Config
	conn      net.Conn
	r         *bufio.Reader
	connected bool
	log       *zap.Logger
}

// Dial connects and authenticates, walking the credential list until one
// pair completes login without a trap. Each attempt uses its own socket; a
// failed attempt closes its socket before the next is tried. When every pair
// is rejected the returned error satisfies IsAuthExhausted and carries the
// attempted usernames (never the passwords).
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	var attempted []string
	for _, cred := range cfg.loginCandidates() {
		if err := ctx.Err(); err != nil {
			return nil, NewConnectionError("dial cancelled", err)
		}

		c, err := dialOnce(ctx, cfg, addr)
		if err != nil {
			return nil, err
		}

		err = cfg.Login(c, cred.username, cred.password)
		if err == nil {
			c.log.Debug("login accepted", zap.String("username", cred.username))
			return c, nil
		}

		_ = c.Close()
		if !IsCommandError(err) {
			// Socket or framing failure: trying other credentials
			// cannot help.
			return nil, err
		}

		c.log.Debug("login rejected",
			zap.String("username", cred.username),
			zap.String("reason", CommandMessage(err)),
		)
		attempted = append(attempted, cred.username)
	}

	return nil, newAuthExhausted(attempted)
}

func dialOnce(ctx context.Context, cfg Config, addr string) (*Conn, error) {
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, NewConnectionError("dial "+addr, err)
	}
	return newConn(nc, cfg), nil
}

// newConn wraps an established socket. Split out so tests can drive the
// protocol over an in-memory pipe.
func newConn(nc net.Conn, cfg Config) *Conn {
	cfg = cfg.withDefaults()
	return &Conn{
		cfg:       cfg,
		conn:      nc,
		r:         bufio.NewReader(nc),
		connected: true,
		log:       cfg.Logger.With(zap.String("device", cfg.Host)),
	}
}

// Connected reports whether the session is still usable.
func (c *Conn) Connected() bool {
	return c.connected
}

// Close tears down the socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.connected = false
	return c.conn.Close()
}

// fail marks the session dead and returns err unchanged.
func (c *Conn) fail(err error) error {
	c.connected = false
	return err
}

// writeSentence encodes and writes one full sentence including the
// zero-length terminator, bounded by the write timeout.
func (c *Conn) writeSentence(words []string) error {
	var buf []byte
	for _, w := range words {
		buf = AppendWord(buf, w)
	}
	buf = append(buf, 0x00) // end-of-sentence

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return c.fail(NewConnectionError("set write deadline", err))
	}
	if _, err := c.conn.Write(buf); err != nil {
		return c.fail(NewConnectionError("write sentence", err))
	}
	return nil
}

// readWord reads one word bounded by the read timeout (or the earlier of the
// read timeout and the supplied absolute deadline).
func (c *Conn) readWord(deadline time.Time) (string, error) {
	d := time.Now().Add(c.cfg.ReadTimeout)
	if !deadline.IsZero() && deadline.Before(d) {
		d = deadline
	}
	if err := c.conn.SetReadDeadline(d); err != nil {
		return "", c.fail(NewConnectionError("set read deadline", err))
	}

	w, err := ReadWord(c.r)
	if err != nil {
		return "", c.fail(err)
	}
	return w, nil
}

// PlainLogin is the default authentication strategy. It sends the post-6.43
// plain login and, when the reply carries a "ret" challenge (pre-6.43
// firmware), answers with the MD5 challenge-response.
func PlainLogin(c *Conn, username, password string) error {
	done, err := c.runLogin("/login", "=name="+username, "=password="+password)
	if err != nil {
		return err
	}

	challenge, ok := done.Get("ret")
	if !ok {
		return nil
	}

	// Pre-6.43 challenge-response: md5(0x00 + password + challenge),
	// sent back as "00" + hex digest.
	raw, err := hex.DecodeString(challenge)
	if err != nil {
		return NewFramingError("malformed login challenge", err)
	}
	h := md5.New()
	h.Write([]byte{0})
	h.Write([]byte(password))
	h.Write(raw)
	response := "00" + hex.EncodeToString(h.Sum(nil))

	_, err = c.runLogin("/login", "=name="+username, "=response="+response)
	return err
}

// runLogin issues one login sentence and returns the terminal !done reply,
// which carries the challenge attribute on pre-6.43 firmware.
func (c *Conn) runLogin(words ...string) (Sentence, error) {
	_, done, err := c.exchange(context.Background(), words[0], words[1:]...)
	return done, err
}
