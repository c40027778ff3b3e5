package routeros

import (
	"context"
	"strings"
)

// Run sends one command sentence and collects the reply records until the
// terminal sentence. A !trap reply is returned as a command error carrying
// the trap's message attribute; !fatal kills the session. The supplied
// context's deadline bounds the whole exchange, not just one read.
func (c *Conn) Run(ctx context.Context, command string, args ...string) ([]Sentence, error) {
	records, _, err := c.exchange(ctx, command, args...)
	return records, err
}

// exchange is Run plus the terminal !done sentence, which the login
// handshake needs for its challenge attribute.
func (c *Conn) exchange(ctx context.Context, command string, args ...string) ([]Sentence, Sentence, error) {
	if !c.connected {
		return nil, Sentence{}, NewConnectionError("session not connected", nil)
	}

	words := append([]string{command}, args...)
	if err := c.writeSentence(words); err != nil {
		return nil, Sentence{}, err
	}

	deadline, _ := ctx.Deadline()

	var (
		records []Sentence
		done    Sentence
		trap    *Sentence
		current []string
	)

	// flush closes the open record. Returns true once the terminal
	// sentence has been seen.
	flush := func() bool {
		if len(current) == 0 {
			return false
		}
		s := parseSentence(current)
		current = nil
		switch s.Tag {
		case TagReply:
			records = append(records, s)
		case TagTrap:
			trap = &s
		case TagDone:
			done = s
			return true
		case TagFatal:
			// handled by the caller below via the sentinel tag
			done = s
			return true
		}
		return false
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, Sentence{}, c.fail(NewConnectionError("command cancelled", err))
		}

		w, err := c.readWord(deadline)
		if err != nil {
			return nil, Sentence{}, err
		}

		if w == "" {
			// Zero-length word: sentence boundary.
			if flush() {
				break
			}
			continue
		}

		// A tag word while a record is open means the previous
		// terminator was swallowed somewhere upstream; flush the open
		// record so its attributes are not merged into the next one.
		if strings.HasPrefix(w, "!") && len(current) > 0 {
			if flush() {
				break
			}
		}

		if len(current) == 0 && !strings.HasPrefix(w, "!") {
			return nil, Sentence{}, c.fail(NewFramingError("reply sentence does not start with a tag word: "+w, nil))
		}
		current = append(current, w)
	}

	if done.Tag == TagFatal {
		msg := fatalMessage(done)
		return nil, Sentence{}, c.fail(NewConnectionError("device closed session: "+msg, nil))
	}

	if trap != nil {
		msg := trap.Attr("message")
		if msg == "" {
			msg = "command rejected by device"
		}
		return nil, Sentence{}, NewCommandError(msg)
	}

	return records, done, nil
}

// fatalMessage extracts whatever text a !fatal sentence carried. Fatal
// replies put the reason in a bare word rather than a key=value attribute,
// so it surfaces as an attribute key with an empty value.
func fatalMessage(s Sentence) string {
	if m := s.Attr("message"); m != "" {
		return m
	}
	for k, v := range s.Attrs {
		if v == "" && k != "" {
			return k
		}
	}
	return "no reason given"
}
