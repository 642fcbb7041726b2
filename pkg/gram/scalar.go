package gram

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	numberElementSize  = 8
	booleanElementSize = 1
)

// checkShape validates the dimensions of a matrix value holding n elements
func checkShape(kind Kind, rows, cols, n int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: %s has negative dimensions %dx%d", ErrInvalidValue, kind, rows, cols)
	}
	if rows > MaxDim || cols > MaxDim {
		return fmt.Errorf("%w: %s dimensions %dx%d", ErrOverflow, kind, rows, cols)
	}
	if rows*cols != n {
		return fmt.Errorf("%w: %s is %dx%d but holds %d elements", ErrInvalidValue, kind, rows, cols, n)
	}
	return nil
}

// checkPayload validates the size needed for a scalar payload against the
// 16-bit limit and the free space in payload
func checkPayload(kind Kind, size int, payload []byte) error {
	if size > MaxGramLength-HeaderSize {
		return fmt.Errorf("%w: %s payload of %d bytes", ErrOverflow, kind, size)
	}
	if size > len(payload) {
		return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrInsufficientBuffer, kind, size, len(payload))
	}
	return nil
}

// checkScalarHeader validates the element size and payload length of a
// scalar gram
func checkScalarHeader(h Header, payload []byte, sizes ...uint16) error {
	legal := false
	for _, s := range sizes {
		if h.ElementSize == s {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("%w: %s element size %d", ErrMalformedHeader, h.Type, h.ElementSize)
	}
	if want := int(h.ElementSize) * h.Count(); want != len(payload) {
		return fmt.Errorf("%w: %s %dx%d needs %d data bytes, header declares %d",
			ErrMalformedHeader, h.Type, h.Dim1, h.Dim2, want, len(payload))
	}
	return nil
}

func numberSize(n *Number) (int, error) {
	if err := checkShape(KindNumber, n.Rows, n.Cols, len(n.Data)); err != nil {
		return 0, err
	}
	return numberElementSize * len(n.Data), nil
}

func encodeNumber(n *Number, payload []byte) (Header, int, error) {
	size, err := numberSize(n)
	if err != nil {
		return Header{}, 0, err
	}
	if err := checkPayload(KindNumber, size, payload); err != nil {
		return Header{}, 0, err
	}

	for i, f := range n.Data {
		binary.LittleEndian.PutUint64(payload[i*numberElementSize:], math.Float64bits(f))
	}

	h := Header{Type: KindNumber, ElementSize: numberElementSize, Dim1: uint16(n.Rows), Dim2: uint16(n.Cols)}
	return h, size, nil
}

func decodeNumber(h Header, payload []byte) (Value, error) {
	if err := checkScalarHeader(h, payload, numberElementSize); err != nil {
		return nil, err
	}

	n := NewNumber(int(h.Dim1), int(h.Dim2))
	for i := range n.Data {
		n.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*numberElementSize:]))
	}
	return n, nil
}

func textSize(t *Text) (int, error) {
	if err := checkShape(KindText, t.Rows, t.Cols, len(t.Units)); err != nil {
		return 0, err
	}
	switch t.Width {
	case 1:
		for _, u := range t.Units {
			if u > 0xFF {
				return 0, fmt.Errorf("%w: code unit %#x does not fit width 1", ErrInvalidValue, u)
			}
		}
	case 2:
	default:
		return 0, fmt.Errorf("%w: text width %d", ErrInvalidValue, t.Width)
	}
	return t.Width * len(t.Units), nil
}

func encodeText(t *Text, payload []byte) (Header, int, error) {
	size, err := textSize(t)
	if err != nil {
		return Header{}, 0, err
	}
	if err := checkPayload(KindText, size, payload); err != nil {
		return Header{}, 0, err
	}

	if t.Width == 1 {
		for i, u := range t.Units {
			payload[i] = byte(u)
		}
	} else {
		for i, u := range t.Units {
			binary.LittleEndian.PutUint16(payload[2*i:], u)
		}
	}

	h := Header{Type: KindText, ElementSize: uint16(t.Width), Dim1: uint16(t.Rows), Dim2: uint16(t.Cols)}
	return h, size, nil
}

func decodeText(h Header, payload []byte) (Value, error) {
	if err := checkScalarHeader(h, payload, 1, 2); err != nil {
		return nil, err
	}

	t := &Text{
		Rows:  int(h.Dim1),
		Cols:  int(h.Dim2),
		Width: int(h.ElementSize),
		Units: make([]uint16, h.Count()),
	}
	if t.Width == 1 {
		for i := range t.Units {
			t.Units[i] = uint16(payload[i])
		}
	} else {
		for i := range t.Units {
			t.Units[i] = binary.LittleEndian.Uint16(payload[2*i:])
		}
	}
	return t, nil
}

func booleanSize(b *Boolean) (int, error) {
	if err := checkShape(KindBoolean, b.Rows, b.Cols, len(b.Data)); err != nil {
		return 0, err
	}
	return booleanElementSize * len(b.Data), nil
}

func encodeBoolean(b *Boolean, payload []byte) (Header, int, error) {
	size, err := booleanSize(b)
	if err != nil {
		return Header{}, 0, err
	}
	if err := checkPayload(KindBoolean, size, payload); err != nil {
		return Header{}, 0, err
	}

	for i, f := range b.Data {
		payload[i] = 0
		if f {
			payload[i] = 1
		}
	}

	h := Header{Type: KindBoolean, ElementSize: booleanElementSize, Dim1: uint16(b.Rows), Dim2: uint16(b.Cols)}
	return h, size, nil
}

func decodeBoolean(h Header, payload []byte) (Value, error) {
	if err := checkScalarHeader(h, payload, booleanElementSize); err != nil {
		return nil, err
	}

	b := NewBoolean(int(h.Dim1), int(h.Dim2))
	for i := range b.Data {
		b.Data[i] = payload[i] != 0
	}
	return b, nil
}
