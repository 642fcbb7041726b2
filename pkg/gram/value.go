package gram

import (
	"fmt"
	"unicode/utf16"
)

// Kind is the type tag carried in a gram header
type Kind uint16

const (
	KindNumber Kind = iota
	KindText
	KindBoolean
	KindList
	KindRecord
	KindCallable

	KindUnsupported Kind = 0xFFFF
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindText:
		return "Text"
	case KindBoolean:
		return "Boolean"
	case KindList:
		return "List"
	case KindRecord:
		return "Record"
	case KindCallable:
		return "Callable"
	case KindUnsupported:
		return "Unsupported"
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Value is implemented by every variant the codec can carry: *Number,
// *Text, *Boolean, *List, *Record and *Callable.
//
// Elements are addressed by a flat column-major index.
type Value interface {
	Kind() Kind
	Dims() (rows, cols int)
	Len() int
	ElementAt(i int) any
	SetElementAt(i int, v any) error
}

var (
	_ Value = &Number{}
	_ Value = &Text{}
	_ Value = &Boolean{}
	_ Value = &List{}
	_ Value = &Record{}
	_ Value = &Callable{}
)

// rowShape returns 1xn, or 0x0 for n == 0 like the host's empty literals
func rowShape(n int) (int, int) {
	if n == 0 {
		return 0, 0
	}
	return 1, n
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidValue, i, n)
	}
	return nil
}

func typeMismatch(want string, got any) error {
	return fmt.Errorf("%w: element must be %s, got %T", ErrInvalidValue, want, got)
}

// Number is a rows x cols matrix of doubles in column-major order
type Number struct {
	Rows int
	Cols int
	Data []float64
}

// NewNumber returns a zero-filled rows x cols matrix
func NewNumber(rows, cols int) *Number {
	return &Number{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Scalar returns a 1x1 Number
func Scalar(f float64) *Number {
	return &Number{Rows: 1, Cols: 1, Data: []float64{f}}
}

// RowVector returns a 1xn Number holding a copy of data
func RowVector(data ...float64) *Number {
	rows, cols := rowShape(len(data))
	return &Number{Rows: rows, Cols: cols, Data: append([]float64(nil), data...)}
}

func (n *Number) Kind() Kind { return KindNumber }
func (n *Number) Dims() (int, int) { return n.Rows, n.Cols }
func (n *Number) Len() int { return len(n.Data) }
func (n *Number) ElementAt(i int) any { return n.Data[i] }
func (n *Number) At(row, col int) float64 { return n.Data[col*n.Rows+row] }

func (n *Number) SetElementAt(i int, v any) error {
	if err := checkIndex(i, len(n.Data)); err != nil {
		return err
	}
	f, ok := v.(float64)
	if !ok {
		return typeMismatch("float64", v)
	}
	n.Data[i] = f
	return nil
}

// Text is a rows x cols matrix of character code units. Width is the number
// of bytes each unit occupies on the wire, 1 or 2.
type Text struct {
	Rows  int
	Cols  int
	Width int
	Units []uint16
}

// NewText returns a 1xn Text holding the UTF-16 code units of s. The width is
// 1 when every unit fits in a byte and 2 otherwise.
func NewText(s string) *Text {
	units := utf16.Encode([]rune(s))
	width := 1
	for _, u := range units {
		if u > 0xFF {
			width = 2
			break
		}
	}
	rows, cols := rowShape(len(units))
	return &Text{Rows: rows, Cols: cols, Width: width, Units: units}
}

func (t *Text) Kind() Kind { return KindText }
func (t *Text) Dims() (int, int) { return t.Rows, t.Cols }
func (t *Text) Len() int { return len(t.Units) }
func (t *Text) ElementAt(i int) any { return t.Units[i] }

func (t *Text) SetElementAt(i int, v any) error {
	if err := checkIndex(i, len(t.Units)); err != nil {
		return err
	}
	u, ok := v.(uint16)
	if !ok {
		return typeMismatch("uint16", v)
	}
	if t.Width == 1 && u > 0xFF {
		return fmt.Errorf("%w: code unit %#x does not fit width 1", ErrInvalidValue, u)
	}
	t.Units[i] = u
	return nil
}

// String decodes the code units in storage order
func (t *Text) String() string {
	return string(utf16.Decode(t.Units))
}

// Boolean is a rows x cols matrix of flags in column-major order
type Boolean struct {
	Rows int
	Cols int
	Data []bool
}

// NewBoolean returns an all-false rows x cols matrix
func NewBoolean(rows, cols int) *Boolean {
	return &Boolean{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
}

// Flags returns a 1xn Boolean holding a copy of data
func Flags(data ...bool) *Boolean {
	rows, cols := rowShape(len(data))
	return &Boolean{Rows: rows, Cols: cols, Data: append([]bool(nil), data...)}
}

func (b *Boolean) Kind() Kind { return KindBoolean }
func (b *Boolean) Dims() (int, int) { return b.Rows, b.Cols }
func (b *Boolean) Len() int { return len(b.Data) }
func (b *Boolean) ElementAt(i int) any { return b.Data[i] }

func (b *Boolean) SetElementAt(i int, v any) error {
	if err := checkIndex(i, len(b.Data)); err != nil {
		return err
	}
	f, ok := v.(bool)
	if !ok {
		return typeMismatch("bool", v)
	}
	b.Data[i] = f
	return nil
}
