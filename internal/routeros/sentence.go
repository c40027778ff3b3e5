package routeros

import (
	"fmt"
	"strings"
)

// Reply sentence tags.
const (
	TagReply = "!re"
	TagDone  = "!done"
	TagTrap  = "!trap"
	TagFatal = "!fatal"
)

// Sentence is one reply unit: a tag word followed by key=value attribute
// words. Sentences are constructed per reply and discarded; they have no
// lifecycle beyond the call that produced them.
type Sentence struct {
	Tag   string
	Attrs map[string]string
}

// Get returns the named attribute and whether it was present.
func (s Sentence) Get(key string) (string, bool) {
	v, ok := s.Attrs[key]
	return v, ok
}

// Attr returns the named attribute, or "" when absent.
func (s Sentence) Attr(key string) string {
	return s.Attrs[key]
}

// String returns a debug representation of the sentence.
func (s Sentence) String() string {
	parts := make([]string, 0, len(s.Attrs)+1)
	parts = append(parts, s.Tag)
	for k, v := range s.Attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return "Sentence{" + strings.Join(parts, " ") + "}"
}

// parseSentence builds a Sentence from a slice of raw words. The first word
// is the tag; subsequent words are attributes. Attribute words may carry a
// leading '=' (as some firmware versions emit) which is stripped before the
// key is split at the first '='.
func parseSentence(words []string) Sentence {
	s := Sentence{Tag: words[0], Attrs: make(map[string]string, len(words)-1)}
	for _, w := range words[1:] {
		w = strings.TrimPrefix(w, "=")
		if i := strings.IndexByte(w, '='); i >= 0 {
			s.Attrs[w[:i]] = w[i+1:]
		} else if w != "" {
			s.Attrs[w] = ""
		}
	}
	return s
}
