package gram

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// HeaderSize is the fixed size of every gram header
	HeaderSize = 12
	// MaxGramLength is the largest gram the 16-bit length fields can describe
	MaxGramLength = math.MaxUint16
	// MaxDim is the largest dimension a header can carry
	MaxDim = math.MaxUint16

	offsetTotalLength = 0
	offsetType        = 2
	offsetDataLength  = 4
	offsetElementSize = 6
	offsetDim1        = 8
	offsetDim2        = 10
)

// Header mirrors the 12-byte descriptor that prefixes every gram
type Header struct {
	TotalLength uint16 // Bytes in the gram including the header
	Type        Kind   // Kind tag
	DataLength  uint16 // Payload bytes
	ElementSize uint16 // Bytes per scalar element
	Dim1        uint16 // Rows, or Record field count
	Dim2        uint16 // Columns, or Record instance count
}

// WriteHeader writes h to the first HeaderSize bytes of buf
func WriteHeader(h Header, buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, have %d", ErrInsufficientBuffer, HeaderSize, len(buf))
	}

	binary.LittleEndian.PutUint16(buf[offsetTotalLength:], h.TotalLength)
	binary.LittleEndian.PutUint16(buf[offsetType:], uint16(h.Type))
	binary.LittleEndian.PutUint16(buf[offsetDataLength:], h.DataLength)
	binary.LittleEndian.PutUint16(buf[offsetElementSize:], h.ElementSize)
	binary.LittleEndian.PutUint16(buf[offsetDim1:], h.Dim1)
	binary.LittleEndian.PutUint16(buf[offsetDim2:], h.Dim2)

	return nil
}

// ReadHeader reads a header from the first HeaderSize bytes of buf
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformedHeader, HeaderSize, len(buf))
	}

	return Header{
		TotalLength: binary.LittleEndian.Uint16(buf[offsetTotalLength:]),
		Type:        Kind(binary.LittleEndian.Uint16(buf[offsetType:])),
		DataLength:  binary.LittleEndian.Uint16(buf[offsetDataLength:]),
		ElementSize: binary.LittleEndian.Uint16(buf[offsetElementSize:]),
		Dim1:        binary.LittleEndian.Uint16(buf[offsetDim1:]),
		Dim2:        binary.LittleEndian.Uint16(buf[offsetDim2:]),
	}, nil
}

// Count returns Dim1*Dim2
func (h Header) Count() int {
	return int(h.Dim1) * int(h.Dim2)
}

func (h Header) String() string {
	return fmt.Sprintf("%s %dx%d total=%d data=%d elem=%d",
		h.Type, h.Dim1, h.Dim2, h.TotalLength, h.DataLength, h.ElementSize)
}
