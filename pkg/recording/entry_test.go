package recording

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestEntry_MarshalRoundTrip(t *testing.T) {
	at := time.Unix(1700000000, 123)

	testCases := []struct {
		name   string
		source string
		data   []byte
	}{
		{name: "udp datagram", source: "udp 127.0.0.1:6665 -> 127.0.0.1:6666", data: []byte{14, 0, 1, 0, 2, 0, 1, 0, 1, 0, 2, 0, 'h', 'i'}},
		{name: "empty source", source: "", data: []byte{1, 2, 3}},
		{name: "empty datagram", source: "nats grams", data: nil},
		{name: "large datagram", source: "redis", data: bytes.Repeat([]byte{0xAB}, 8192)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewEntry(tc.source, tc.data, at)
			if err != nil {
				t.Fatalf("NewEntry failed: %v", err)
			}
			framed, err := e.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			if len(framed) != EntryHeaderSize+len(tc.source)+len(tc.data) {
				t.Errorf("framed length = %d", len(framed))
			}

			got, err := UnmarshalEntry(framed)
			if err != nil {
				t.Fatalf("UnmarshalEntry failed: %v", err)
			}
			if string(got.Source) != tc.source || !bytes.Equal(got.Data, tc.data) {
				t.Errorf("entry = %q %x, want %q %x", got.Source, got.Data, tc.source, tc.data)
			}
			if !got.Time().Equal(at) {
				t.Errorf("Time() = %v, want %v", got.Time(), at)
			}
		})
	}
}

func TestEntry_Corruption(t *testing.T) {
	e, _ := NewEntry("udp", []byte{1, 2, 3, 4}, time.Now())
	framed, _ := e.MarshalBinary()

	flipped := append([]byte{}, framed...)
	flipped[len(flipped)-1] ^= 0xFF
	if _, err := UnmarshalEntry(flipped); !errors.Is(err, ErrCorrupt) {
		t.Errorf("flipped data byte: got %v, want ErrCorrupt", err)
	}

	if _, err := UnmarshalEntry(framed[:len(framed)-1]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("short entry: got %v, want ErrCorrupt", err)
	}
	if _, err := UnmarshalEntry(framed[:10]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("short header: got %v, want ErrCorrupt", err)
	}
}

func TestNewEntry_TooLarge(t *testing.T) {
	if _, err := NewEntry("x", make([]byte, MaxEntryBody), time.Now()); !errors.Is(err, ErrEntryTooLarge) {
		t.Errorf("got %v, want ErrEntryTooLarge", err)
	}
}
