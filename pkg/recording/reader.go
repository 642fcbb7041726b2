package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader reads entries from a recording in order
type Reader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
}

// OpenReader opens the recording at path
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: file, reader: bufio.NewReader(file)}, nil
}

// Next returns the next entry, or io.EOF at a clean end of the file. A
// truncated or damaged entry returns an error wrapping ErrCorrupt.
func (r *Reader) Next() (*Entry, error) {
	header := make([]byte, EntryHeaderSize)
	n, err := io.ReadFull(r.reader, header)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: truncated header at offset %d", ErrCorrupt, r.offset)
	case err != nil:
		return nil, err
	}

	sourceSize := binary.LittleEndian.Uint32(header[4:8])
	dataSize := binary.LittleEndian.Uint32(header[8:12])
	body := uint64(sourceSize) + uint64(dataSize)
	if body > MaxEntryBody {
		return nil, fmt.Errorf("%w: entry of %d bytes at offset %d", ErrCorrupt, body, r.offset)
	}

	framed := make([]byte, EntryHeaderSize+int(body))
	copy(framed, header)
	if _, err := io.ReadFull(r.reader, framed[EntryHeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated entry at offset %d", ErrCorrupt, r.offset)
		}
		return nil, err
	}

	e, err := UnmarshalEntry(framed)
	if err != nil {
		return nil, fmt.Errorf("offset %d: %w", r.offset, err)
	}
	r.offset += int64(n) + int64(body)
	return e, nil
}

// Offset returns the offset of the next entry
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the file
func (r *Reader) Close() error {
	return r.file.Close()
}
