package routeros

import (
	"bytes"
	"testing"
)

func TestLengthRoundTrip(t *testing.T) {
	tests := []struct {
		n         uint32
		wantBytes int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{2097151, 3},
		{2097152, 4},
		{268435455, 4},
		{268435456, 5},
		{0xFFFFFFFF, 5},
	}

	for _, tt := range tests {
		encoded := EncodeLength(tt.n)
		if len(encoded) != tt.wantBytes {
			t.Errorf("EncodeLength(%d) = %d bytes, want %d", tt.n, len(encoded), tt.wantBytes)
		}

		decoded, err := ReadLength(bytes.NewReader(encoded))
		if err != nil {
			t.Errorf("ReadLength(EncodeLength(%d)) error: %v", tt.n, err)
			continue
		}
		if decoded != tt.n {
			t.Errorf("ReadLength(EncodeLength(%d)) = %d", tt.n, decoded)
		}
	}
}

func TestReadLengthTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"2-byte form cut short", []byte{0x80 | 0x3F}},
		{"3-byte form cut short", []byte{0xC1, 0x00}},
		{"4-byte form cut short", []byte{0xE0, 0x00, 0x00}},
		{"5-byte form cut short", []byte{0xF0, 0x10, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLength(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error for truncated prefix")
			}
			if !IsFraming(err) {
				t.Errorf("error = %v, want framing error", err)
			}
		})
	}
}

func TestReadLengthReservedByte(t *testing.T) {
	for _, first := range []byte{0xF1, 0xFE, 0xFF} {
		_, err := ReadLength(bytes.NewReader([]byte{first, 0, 0, 0, 0}))
		if !IsFraming(err) {
			t.Errorf("first byte 0x%02x: error = %v, want framing error", first, err)
		}
	}
}

func TestReadWord(t *testing.T) {
	var buf []byte
	buf = AppendWord(buf, "/ip/hotspot/user/add")
	buf = AppendWord(buf, "=name=101-4821")
	buf = append(buf, 0x00)

	r := bytes.NewReader(buf)

	for _, want := range []string{"/ip/hotspot/user/add", "=name=101-4821", ""} {
		got, err := ReadWord(r)
		if err != nil {
			t.Fatalf("ReadWord error: %v", err)
		}
		if got != want {
			t.Errorf("ReadWord = %q, want %q", got, want)
		}
	}
}

func TestReadWordTruncatedPayload(t *testing.T) {
	// Length prefix claims 10 bytes, only 4 available.
	data := append(EncodeLength(10), 'a', 'b', 'c', 'd')

	_, err := ReadWord(bytes.NewReader(data))
	if !IsFraming(err) {
		t.Errorf("error = %v, want framing error", err)
	}
}

func TestReadWordOversizedClaim(t *testing.T) {
	data := EncodeLength(maxWordLen + 1)

	_, err := ReadWord(bytes.NewReader(data))
	if !IsFraming(err) {
		t.Errorf("error = %v, want framing error", err)
	}
}

// Exhaustive sweep across every threshold neighbourhood to guard the bit
// masks at the form boundaries.
func TestLengthRoundTripBoundaries(t *testing.T) {
	for _, base := range []uint32{lenBound1, lenBound2, lenBound3, lenBound4} {
		for delta := -2; delta <= 2; delta++ {
			n := uint32(int64(base) + int64(delta))
			decoded, err := ReadLength(bytes.NewReader(EncodeLength(n)))
			if err != nil {
				t.Fatalf("n=%d: %v", n, err)
			}
			if decoded != n {
				t.Errorf("round trip %d = %d", n, decoded)
			}
		}
	}
}
