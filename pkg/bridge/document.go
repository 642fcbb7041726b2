package bridge

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/TheGoldLab/mxgram/pkg/gram"
)

// ErrInvalidDocument is returned when a document does not describe a value
var ErrInvalidDocument = errors.New("bridge: invalid document")

// Document kinds
const (
	KindNumber   = "number"
	KindText     = "text"
	KindBoolean  = "boolean"
	KindList     = "list"
	KindRecord   = "record"
	KindCallable = "callable"
)

// Document is the host-neutral form of a value used by the JSON and
// msgpack representations.
//
// Numbers and booleans keep their elements in Data, column-major. Non-finite
// numbers are carried as the strings "NaN", "Inf" and "-Inf". Text is carried
// in Text when it is a single row that survives UTF-16 decoding, and as raw
// code units otherwise.
type Document struct {
	Kind      string        `json:"kind" msgpack:"kind"`
	Dims      []int         `json:"dims,omitempty" msgpack:"dims,omitempty"`
	Data      []any         `json:"data,omitempty" msgpack:"data,omitempty"`
	Width     int           `json:"width,omitempty" msgpack:"width,omitempty"`
	Text      *string       `json:"text,omitempty" msgpack:"text,omitempty"`
	Units     []uint16      `json:"units,omitempty" msgpack:"units,omitempty"`
	Items     []*Document   `json:"items,omitempty" msgpack:"items,omitempty"`
	Fields    []string      `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Instances [][]*Document `json:"instances,omitempty" msgpack:"instances,omitempty"`
	Source    string        `json:"source,omitempty" msgpack:"source,omitempty"`
}

// ToDocument converts v. A nil value becomes an empty number.
// Callables are rendered through s.
func ToDocument(v gram.Value, s gram.Stringifier) (*Document, error) {
	if v == nil {
		return &Document{Kind: KindNumber, Dims: []int{0, 0}}, nil
	}
	rows, cols := v.Dims()
	dims := []int{rows, cols}

	switch x := v.(type) {
	case *gram.Number:
		data := make([]any, len(x.Data))
		for i, f := range x.Data {
			data[i] = numberElement(f)
		}
		return &Document{Kind: KindNumber, Dims: dims, Data: data}, nil
	case *gram.Boolean:
		data := make([]any, len(x.Data))
		for i, b := range x.Data {
			data[i] = b
		}
		return &Document{Kind: KindBoolean, Dims: dims, Data: data}, nil
	case *gram.Text:
		d := &Document{Kind: KindText, Dims: dims, Width: x.Width}
		if str := x.String(); x.Rows <= 1 && sameUnits(utf16.Encode([]rune(str)), x.Units) {
			d.Text = &str
		} else {
			d.Units = append([]uint16{}, x.Units...)
		}
		return d, nil
	case *gram.List:
		d := &Document{Kind: KindList, Dims: dims, Items: make([]*Document, len(x.Items))}
		for i, item := range x.Items {
			child, err := ToDocument(item, s)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			d.Items[i] = child
		}
		return d, nil
	case *gram.Record:
		d := &Document{
			Kind:      KindRecord,
			Dims:      dims,
			Fields:    append([]string{}, x.Fields...),
			Instances: make([][]*Document, len(x.Instances)),
		}
		for i, inst := range x.Instances {
			d.Instances[i] = make([]*Document, len(inst))
			for f, value := range inst {
				child, err := ToDocument(value, s)
				if err != nil {
					return nil, fmt.Errorf("instance %d field %q: %w", i, x.Fields[f], err)
				}
				d.Instances[i][f] = child
			}
		}
		return d, nil
	case *gram.Callable:
		if s == nil {
			return nil, fmt.Errorf("%w: no stringifier for callable", gram.ErrUnsupportedType)
		}
		src, err := s.Stringify(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", gram.ErrCallableConversionFailed, err)
		}
		return &Document{Kind: KindCallable, Dims: dims, Source: src}, nil
	}
	return nil, fmt.Errorf("%w: %T", gram.ErrUnsupportedType, v)
}

// FromDocument converts d back into a value. Callable sources are parsed
// through s.
func FromDocument(d *Document, s gram.Stringifier) (gram.Value, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing document", ErrInvalidDocument)
	}

	switch d.Kind {
	case KindNumber:
		rows, cols, err := shape(d, len(d.Data))
		if err != nil {
			return nil, err
		}
		n := gram.NewNumber(rows, cols)
		for i, e := range d.Data {
			f, err := numberValue(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			n.Data[i] = f
		}
		return n, nil
	case KindBoolean:
		rows, cols, err := shape(d, len(d.Data))
		if err != nil {
			return nil, err
		}
		b := gram.NewBoolean(rows, cols)
		for i, e := range d.Data {
			flag, ok := e.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not a boolean", ErrInvalidDocument, i, e)
			}
			b.Data[i] = flag
		}
		return b, nil
	case KindText:
		return textFromDocument(d)
	case KindList:
		rows, cols, err := shape(d, len(d.Items))
		if err != nil {
			return nil, err
		}
		l := &gram.List{Rows: rows, Cols: cols, Items: make([]gram.Value, len(d.Items))}
		for i, item := range d.Items {
			v, err := FromDocument(item, s)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			l.Items[i] = v
		}
		return l, nil
	case KindRecord:
		r := gram.NewRecord(d.Fields, 0)
		for i, inst := range d.Instances {
			if len(inst) != len(d.Fields) {
				return nil, fmt.Errorf("%w: instance %d has %d values for %d fields",
					ErrInvalidDocument, i, len(inst), len(d.Fields))
			}
			values := make([]gram.Value, len(inst))
			for f, item := range inst {
				v, err := FromDocument(item, s)
				if err != nil {
					return nil, fmt.Errorf("instance %d field %q: %w", i, d.Fields[f], err)
				}
				values[f] = v
			}
			r.Instances = append(r.Instances, values)
		}
		return r, nil
	case KindCallable:
		if s == nil {
			return nil, fmt.Errorf("%w: no stringifier for callable", gram.ErrUnsupportedType)
		}
		c, err := s.Parse(d.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", gram.ErrCallableConversionFailed, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDocument, d.Kind)
}

func textFromDocument(d *Document) (gram.Value, error) {
	units := d.Units
	if d.Text != nil {
		if d.Units != nil {
			return nil, fmt.Errorf("%w: text carries both text and units", ErrInvalidDocument)
		}
		units = utf16.Encode([]rune(*d.Text))
	}
	rows, cols, err := shape(d, len(units))
	if err != nil {
		return nil, err
	}

	width := d.Width
	if width == 0 {
		width = 1
		for _, u := range units {
			if u > 0xFF {
				width = 2
				break
			}
		}
	}
	if width != 1 && width != 2 {
		return nil, fmt.Errorf("%w: text width %d", ErrInvalidDocument, width)
	}
	if width == 1 {
		for i, u := range units {
			if u > 0xFF {
				return nil, fmt.Errorf("%w: code unit %d (%#x) does not fit width 1", ErrInvalidDocument, i, u)
			}
		}
	}
	return &gram.Text{Rows: rows, Cols: cols, Width: width, Units: append([]uint16{}, units...)}, nil
}

// shape returns the document dims, defaulting to a row of n elements
func shape(d *Document, n int) (int, int, error) {
	if d.Dims == nil {
		if n == 0 {
			return 0, 0, nil
		}
		return 1, n, nil
	}
	if len(d.Dims) != 2 {
		return 0, 0, fmt.Errorf("%w: dims must have two entries, got %d", ErrInvalidDocument, len(d.Dims))
	}
	rows, cols := d.Dims[0], d.Dims[1]
	if rows < 0 || cols < 0 || rows*cols != n {
		return 0, 0, fmt.Errorf("%w: dims %dx%d do not match %d elements", ErrInvalidDocument, rows, cols, n)
	}
	return rows, cols, nil
}

func numberElement(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}

func numberValue(e any) (float64, error) {
	switch x := e.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		switch x {
		case "NaN":
			return math.NaN(), nil
		case "Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
	}
	return 0, fmt.Errorf("%w: %v (%T) is not a number", ErrInvalidDocument, e, e)
}

func sameUnits(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
