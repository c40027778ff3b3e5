package routeros

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Word length encoding thresholds. Lengths below each bound use the
// corresponding prefix width, with the high bits of the first byte marking
// the form: 0xxxxxxx, 10xxxxxx, 110xxxxx, 1110xxxx, and 0xF0 followed by a
// 4-byte big-endian length.
const (
	lenBound1 = 0x80
	lenBound2 = 0x4000
	lenBound3 = 0x200000
	lenBound4 = 0x10000000
)

// maxWordLen caps how large a single word may claim to be. The hotspot
// management surface never produces words anywhere near this; a larger claim
// means the stream is corrupt.
const maxWordLen = 1 << 22 // 4 MiB

// EncodeLength encodes a word length into its 1-5 byte wire form.
func EncodeLength(n uint32) []byte {
	switch {
	case n < lenBound1:
		return []byte{byte(n)}
	case n < lenBound2:
		return []byte{byte(n>>8) | 0x80, byte(n)}
	case n < lenBound3:
		return []byte{byte(n>>16) | 0xC0, byte(n >> 8), byte(n)}
	case n < lenBound4:
		return []byte{byte(n>>24) | 0xE0, byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		buf := make([]byte, 5)
		buf[0] = 0xF0
		binary.BigEndian.PutUint32(buf[1:], n)
		return buf
	}
}

// ReadLength reads and decodes a variable-width length prefix from r.
// A stream that ends inside the prefix yields a framing error.
func ReadLength(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:1]); err != nil {
		return 0, classifyReadError("read length prefix", err)
	}

	first := b[0]
	switch {
	case first < 0x80:
		return uint32(first), nil

	case first&0xC0 == 0x80:
		if _, err := io.ReadFull(r, b[:1]); err != nil {
			return 0, classifyReadError("read 2-byte length", err)
		}
		return uint32(first&0x3F)<<8 | uint32(b[0]), nil

	case first&0xE0 == 0xC0:
		if _, err := io.ReadFull(r, b[:2]); err != nil {
			return 0, classifyReadError("read 3-byte length", err)
		}
		return uint32(first&0x1F)<<16 | uint32(b[0])<<8 | uint32(b[1]), nil

	case first&0xF0 == 0xE0:
		if _, err := io.ReadFull(r, b[:3]); err != nil {
			return 0, classifyReadError("read 4-byte length", err)
		}
		return uint32(first&0x0F)<<24 | uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil

	case first == 0xF0:
		if _, err := io.ReadFull(r, b[:4]); err != nil {
			return 0, classifyReadError("read 5-byte length", err)
		}
		return binary.BigEndian.Uint32(b[:4]), nil

	default:
		// 0xF1-0xFF are reserved for control bytes.
		return 0, NewFramingError(fmt.Sprintf("reserved control byte 0x%02x in length prefix", first), nil)
	}
}

// ReadWord reads one length-prefixed word from r. A zero-length word (the
// sentence terminator) is returned as the empty string.
func ReadWord(r io.Reader) (string, error) {
	n, err := ReadLength(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > maxWordLen {
		return "", NewFramingError(fmt.Sprintf("word length %d exceeds maximum %d", n, maxWordLen), nil)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", classifyReadError("read word payload", err)
	}
	return string(buf), nil
}

// AppendWord appends the encoded form of one word to dst.
func AppendWord(dst []byte, word string) []byte {
	dst = append(dst, EncodeLength(uint32(len(word)))...)
	return append(dst, word...)
}
