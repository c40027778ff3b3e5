package routeros

import (
	"context"
	"net"
	"testing"
	"time"
)

// encodeWords builds the wire form of a sequence of words. An empty string
// in the list encodes as the zero-length sentence terminator.
func encodeWords(words ...string) []byte {
	var buf []byte
	for _, w := range words {
		if w == "" {
			buf = append(buf, 0x00)
			continue
		}
		buf = AppendWord(buf, w)
	}
	return buf
}

// drainSentence consumes one request sentence from the far side of the pipe.
func drainSentence(t *testing.T, r net.Conn) []string {
	t.Helper()
	var words []string
	for {
		w, err := ReadWord(r)
		if err != nil {
			t.Errorf("server read: %v", err)
			return words
		}
		if w == "" {
			return words
		}
		words = append(words, w)
	}
}

// newTestConn returns a client Conn and the server side of an in-memory
// pipe.
func newTestConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	c := newConn(client, Config{Host: "test", ReadTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second})
	t.Cleanup(func() {
		_ = c.Close()
		_ = server.Close()
	})
	return c, server
}

func TestRunCollectsRecords(t *testing.T) {
	c, server := newTestConn(t)

	reply := encodeWords(
		"!re", "=.id=*1", "=name=101-1111", "",
		"!re", "=.id=*2", "=name=102-2222", "",
		"!re", "=.id=*3", "=name=103-3333", "",
		"!re", "=.id=*4", "=name=104-4444", "",
		"!done", "",
	)

	go func() {
		drainSentence(t, server)
		// Dribble the reply in 3-byte chunks so record boundaries
		// never line up with read boundaries.
		for i := 0; i < len(reply); i += 3 {
			end := i + 3
			if end > len(reply) {
				end = len(reply)
			}
			if _, err := server.Write(reply[i:end]); err != nil {
				return
			}
		}
	}()

	records, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	wantNames := []string{"101-1111", "102-2222", "103-3333", "104-4444"}
	for i, rec := range records {
		if rec.Attr("name") != wantNames[i] {
			t.Errorf("record %d name = %q, want %q", i, rec.Attr("name"), wantNames[i])
		}
	}
}

func TestRunWritesSentence(t *testing.T) {
	c, server := newTestConn(t)

	got := make(chan []string, 1)
	go func() {
		got <- drainSentence(t, server)
		_, _ = server.Write(encodeWords("!done", ""))
	}()

	if _, err := c.Run(context.Background(), "/ip/hotspot/user/add", "=name=101-1", "=password=x"); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	words := <-got
	want := []string{"/ip/hotspot/user/add", "=name=101-1", "=password=x"}
	if len(words) != len(want) {
		t.Fatalf("server saw %v, want %v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestRunTrap(t *testing.T) {
	tests := []struct {
		name    string
		reply   []byte
		wantMsg string
	}{
		{
			name:    "trap with message",
			reply:   encodeWords("!trap", "=message=already have user with this name", "", "!done", ""),
			wantMsg: "already have user with this name",
		},
		{
			name:    "trap without message",
			reply:   encodeWords("!trap", "", "!done", ""),
			wantMsg: "command rejected by device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, server := newTestConn(t)
			go func() {
				drainSentence(t, server)
				_, _ = server.Write(tt.reply)
			}()

			_, err := c.Run(context.Background(), "/ip/hotspot/user/add", "=name=101-1")
			if !IsCommandError(err) {
				t.Fatalf("error = %v, want command error", err)
			}
			if CommandMessage(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", CommandMessage(err), tt.wantMsg)
			}
			if !c.Connected() {
				t.Error("trap must not kill the session")
			}
		})
	}
}

func TestRunEmptyReply(t *testing.T) {
	c, server := newTestConn(t)
	go func() {
		drainSentence(t, server)
		_, _ = server.Write(encodeWords("!done", ""))
	}()

	records, err := c.Run(context.Background(), "/ip/hotspot/active/print")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

// A tag word arriving while a record is open must flush the open record
// instead of merging attributes across record boundaries.
func TestRunMissingTerminators(t *testing.T) {
	c, server := newTestConn(t)

	go func() {
		drainSentence(t, server)
		_, _ = server.Write(encodeWords(
			"!re", "=name=101-1111",
			"!re", "=name=102-2222",
			"!done", "",
		))
	}()

	records, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Attr("name") != "101-1111" || records[1].Attr("name") != "102-2222" {
		t.Errorf("record attributes crossed boundaries: %v, %v", records[0], records[1])
	}
}

func TestRunFatal(t *testing.T) {
	c, server := newTestConn(t)
	go func() {
		drainSentence(t, server)
		_, _ = server.Write(encodeWords("!fatal", "session terminated", ""))
	}()

	_, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if !IsConnectionLost(err) {
		t.Fatalf("error = %v, want connection lost", err)
	}
	if c.Connected() {
		t.Error("fatal reply must mark the session dead")
	}
}

func TestRunTruncatedReply(t *testing.T) {
	c, server := newTestConn(t)
	go func() {
		drainSentence(t, server)
		// Claim an 8-byte word, deliver 2 bytes, hang up.
		_, _ = server.Write(append(EncodeLength(8), '!', 'r'))
		_ = server.Close()
	}()

	_, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if !IsFraming(err) {
		t.Fatalf("error = %v, want framing error", err)
	}
	if c.Connected() {
		t.Error("framing failure must mark the session dead")
	}
}

func TestRunReadTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := newConn(client, Config{Host: "test", ReadTimeout: 50 * time.Millisecond, WriteTimeout: time.Second})
	go func() {
		drainSentence(t, server)
		// Never reply.
	}()

	start := time.Now()
	_, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if !IsConnectionLost(err) {
		t.Fatalf("error = %v, want connection lost", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, deadline not applied", elapsed)
	}
}

func TestRunContextDeadlineBoundsExchange(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := newConn(client, Config{Host: "test", ReadTimeout: 10 * time.Second, WriteTimeout: time.Second})

	go func() {
		drainSentence(t, server)
		// Keep the exchange alive forever, one record at a time.
		for {
			if _, err := server.Write(encodeWords("!re", "=name=x", "")); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Run(ctx, "/ip/hotspot/user/print")
	if !IsConnectionLost(err) {
		t.Fatalf("error = %v, want connection lost", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("context deadline not honoured, took %v", elapsed)
	}
}

func TestRunOnDeadSession(t *testing.T) {
	c, _ := newTestConn(t)
	_ = c.Close()

	_, err := c.Run(context.Background(), "/ip/hotspot/user/print")
	if !IsConnectionLost(err) {
		t.Errorf("error = %v, want connection lost", err)
	}
}
