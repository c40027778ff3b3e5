// Package routeros implements a client for the RouterOS binary management
// API used to provision hotspot users.
//
// The protocol exchanges sentences over a plain TCP connection (default port
// 8728). A sentence is an ordered list of words, each prefixed with a
// variable-width length (1-5 bytes), terminated by a zero-length word. The
// first word of a request carries the command path (e.g. "/ip/hotspot/user/add"),
// the remaining words carry "=key=value" arguments or "?key=value" filters.
// Reply sentences are tagged: "!re" for a result record, "!trap" for a
// command-level error, "!done" for end of reply, "!fatal" for a
// connection-level failure.
//
// # Layering
//
// The package splits into three layers:
//
//   - frame.go: the word-length codec (EncodeLength / ReadLength / ReadWord)
//   - conn.go: connection lifecycle - dial, authenticate with credential
//     fallback, timed reads and writes
//   - run.go: command execution - write one sentence, collect reply records
//     until the terminal sentence, classify traps
//
// Retry policy intentionally lives above this package: a *Conn that has seen
// a socket error or timeout is dead and every further call fails with a
// connection error. Callers reconnect with Dial and re-issue the logical
// operation.
//
// # Usage
//
//	conn, err := routeros.Dial(ctx, routeros.Config{
//	    Host:     "10.0.0.1",
//	    Username: "admin",
//	    Password: "secret",
//	})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	replies, err := conn.Run(ctx, "/ip/hotspot/user/print", "?name=101-4821")
package routeros
