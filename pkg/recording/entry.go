// Package recording keeps an append-only session log of raw datagrams so a
// session can be inspected or replayed later.
package recording

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"time"
)

const (
	// EntryHeaderSize is the fixed prefix of every framed entry
	EntryHeaderSize = 20
	// MaxEntryBody bounds the source and datagram bytes of one entry
	MaxEntryBody = 1 << 20
)

var (
	// ErrCorrupt is returned for an entry whose checksum or length does not match
	ErrCorrupt = errors.New("recording: corrupt entry")
	// ErrEntryTooLarge is returned when a source or datagram cannot be framed
	ErrEntryTooLarge = errors.New("recording: entry too large")
)

// Entry is one recorded datagram
type Entry struct {
	CRC32      uint32 // checksum over everything after this field
	SourceSize uint32
	DataSize   uint32
	Timestamp  uint64 // Unix nanoseconds
	Source     []byte // transport the datagram arrived on
	Data       []byte // datagram bytes as received
}

// NewEntry frames data received from source at t
func NewEntry(source string, data []byte, t time.Time) (*Entry, error) {
	if len(source)+len(data) > MaxEntryBody {
		return nil, ErrEntryTooLarge
	}
	e := &Entry{
		SourceSize: uint32(len(source)),
		DataSize:   uint32(len(data)),
		Timestamp:  uint64(t.UnixNano()),
		Source:     []byte(source),
		Data:       data,
	}
	e.CRC32 = e.checksum()
	return e, nil
}

// Time returns when the datagram was recorded
func (e *Entry) Time() time.Time {
	return time.Unix(0, int64(e.Timestamp))
}

// Size returns the framed length of e
func (e *Entry) Size() int {
	return EntryHeaderSize + len(e.Source) + len(e.Data)
}

// MarshalBinary frames e as
// [CRC32(4)][SourceSize(4)][DataSize(4)][Timestamp(8)][Source][Data]
func (e *Entry) MarshalBinary() ([]byte, error) {
	buf := make([]byte, e.Size())
	binary.LittleEndian.PutUint32(buf[0:], e.CRC32)
	binary.LittleEndian.PutUint32(buf[4:], e.SourceSize)
	binary.LittleEndian.PutUint32(buf[8:], e.DataSize)
	binary.LittleEndian.PutUint64(buf[12:], e.Timestamp)
	copy(buf[EntryHeaderSize:], e.Source)
	copy(buf[EntryHeaderSize+len(e.Source):], e.Data)
	return buf, nil
}

// UnmarshalEntry parses one framed entry and verifies its checksum. The
// entry aliases data.
func UnmarshalEntry(data []byte) (*Entry, error) {
	if len(data) < EntryHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorrupt, len(data))
	}

	e := &Entry{
		CRC32:      binary.LittleEndian.Uint32(data[0:4]),
		SourceSize: binary.LittleEndian.Uint32(data[4:8]),
		DataSize:   binary.LittleEndian.Uint32(data[8:12]),
		Timestamp:  binary.LittleEndian.Uint64(data[12:20]),
	}
	need := uint64(EntryHeaderSize) + uint64(e.SourceSize) + uint64(e.DataSize)
	if uint64(len(data)) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrCorrupt, len(data), need)
	}
	end := EntryHeaderSize + int(e.SourceSize)
	e.Source = data[EntryHeaderSize:end]
	e.Data = data[end : end+int(e.DataSize)]

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the checksum of e
func (e *Entry) Validate() error {
	if sum := e.checksum(); sum != e.CRC32 {
		return fmt.Errorf("%w: crc %08x != %08x", ErrCorrupt, e.CRC32, sum)
	}
	return nil
}

func (e *Entry) checksum() uint32 {
	var fixed [16]byte
	binary.LittleEndian.PutUint32(fixed[0:], e.SourceSize)
	binary.LittleEndian.PutUint32(fixed[4:], e.DataSize)
	binary.LittleEndian.PutUint64(fixed[8:], e.Timestamp)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(fixed[:])
	_, _ = crc.Write(e.Source)
	_, _ = crc.Write(e.Data)
	return crc.Sum32()
}
