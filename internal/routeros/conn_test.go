package routeros

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRouter accepts connections and drives the login handshake with the
// supplied per-connection handler.
func fakeRouter(t *testing.T, handle func(conn net.Conn)) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// readRequest consumes one sentence from the server side.
func readRequest(conn net.Conn) ([]string, error) {
	var words []string
	for {
		w, err := ReadWord(conn)
		if err != nil {
			return nil, err
		}
		if w == "" {
			return words, nil
		}
		words = append(words, w)
	}
}

func writeReply(conn net.Conn, words ...string) {
	var buf []byte
	for _, w := range words {
		buf = AppendWord(buf, w)
	}
	buf = append(buf, 0x00)
	_, _ = conn.Write(buf)
}

// attrOf extracts "=key=value" from a request word list.
func attrOf(words []string, key string) string {
	prefix := "=" + key + "="
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return w[len(prefix):]
		}
	}
	return ""
}

// loginOnly builds a handler that accepts exactly the given pairs.
func loginOnly(t *testing.T, accept map[string]string) func(net.Conn) {
	return func(conn net.Conn) {
		words, err := readRequest(conn)
		if err != nil {
			return
		}
		if words[0] != "/login" {
			t.Errorf("first command = %s, want /login", words[0])
			writeReply(conn, "!fatal", "not logged in")
			return
		}
		name := attrOf(words, "name")
		if pw, ok := accept[name]; ok && pw == attrOf(words, "password") {
			writeReply(conn, "!done")
			return
		}
		writeReply(conn, "!trap", "=message=invalid user name or password (6)")
		writeReply(conn, "!done")
	}
}

func TestDialPlainLogin(t *testing.T) {
	host, port := fakeRouter(t, loginOnly(t, map[string]string{"hotel-api": "s3cret"}))

	conn, err := Dial(context.Background(), Config{
		Host:     host,
		Port:     port,
		Username: "hotel-api",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if !conn.Connected() {
		t.Error("expected connected session")
	}
}

func TestDialFallbackLogin(t *testing.T) {
	// Device still has the factory default admin account with a blank
	// password; the configured pair is wrong.
	host, port := fakeRouter(t, loginOnly(t, map[string]string{"admin": ""}))

	conn, err := Dial(context.Background(), Config{
		Host:           host,
		Port:           port,
		Username:       "hotel-api",
		Password:       "stale",
		FallbackLogins: true,
	})
	if err != nil {
		t.Fatalf("Dial with fallback: %v", err)
	}
	defer conn.Close()
}

func TestDialAuthExhausted(t *testing.T) {
	host, port := fakeRouter(t, loginOnly(t, map[string]string{}))

	_, err := Dial(context.Background(), Config{
		Host:           host,
		Port:           port,
		Username:       "hotel-api",
		Password:       "wrong",
		FallbackLogins: true,
	})
	if !IsAuthExhausted(err) {
		t.Fatalf("error = %v, want auth exhausted", err)
	}

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error is not *Error: %v", err)
	}
	want := []string{"hotel-api", "hotel-api", "admin"}
	if len(perr.Attempted) != len(want) {
		t.Fatalf("attempted = %v, want %v", perr.Attempted, want)
	}
	for i := range want {
		if perr.Attempted[i] != want[i] {
			t.Errorf("attempted[%d] = %q, want %q", i, perr.Attempted[i], want[i])
		}
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Error("error text must not leak passwords")
	}
}

func TestDialNoFallback(t *testing.T) {
	var attempts atomic.Int32
	host, port := fakeRouter(t, func(conn net.Conn) {
		attempts.Add(1)
		loginOnly(t, map[string]string{})(conn)
	})

	_, err := Dial(context.Background(), Config{
		Host:     host,
		Port:     port,
		Username: "hotel-api",
		Password: "wrong",
	})
	if !IsAuthExhausted(err) {
		t.Fatalf("error = %v, want auth exhausted", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("saw %d attempts, want 1 with fallback disabled", n)
	}
}

func TestDialChallengeResponse(t *testing.T) {
	const challengeHex = "102030405060708090a0b0c0d0e0f001"
	const password = "s3cret"

	host, port := fakeRouter(t, func(conn net.Conn) {
		// First login: answer with a pre-6.43 challenge.
		words, err := readRequest(conn)
		if err != nil || words[0] != "/login" {
			return
		}
		writeReply(conn, "!done", "=ret="+challengeHex)

		// Second login must carry the MD5 response.
		words, err = readRequest(conn)
		if err != nil || words[0] != "/login" {
			return
		}

		raw, _ := hex.DecodeString(challengeHex)
		h := md5.New()
		h.Write([]byte{0})
		h.Write([]byte(password))
		h.Write(raw)
		want := "00" + hex.EncodeToString(h.Sum(nil))

		if attrOf(words, "response") != want {
			writeReply(conn, "!trap", "=message=invalid user name or password (6)")
			writeReply(conn, "!done")
			return
		}
		writeReply(conn, "!done")
	})

	conn, err := Dial(context.Background(), Config{
		Host:     host,
		Port:     port,
		Username: "admin",
		Password: password,
	})
	if err != nil {
		t.Fatalf("challenge-response Dial: %v", err)
	}
	defer conn.Close()
}

func TestDialConnectionRefused(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()

	_, err = Dial(context.Background(), Config{
		Host:           addr.IP.String(),
		Port:           addr.Port,
		Username:       "hotel-api",
		Password:       "x",
		ConnectTimeout: 500 * time.Millisecond,
	})
	if !IsConnectionLost(err) {
		t.Errorf("error = %v, want connection lost", err)
	}
}
