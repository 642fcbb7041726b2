package gram

import (
	"fmt"
	"unicode/utf8"
)

// List is a rows x cols array of heterogeneous values in column-major order.
// A nil item is carried as an empty Number.
type List struct {
	Rows  int
	Cols  int
	Items []Value
}

// NewList returns a 1xn List holding items
func NewList(items ...Value) *List {
	rows, cols := rowShape(len(items))
	return &List{Rows: rows, Cols: cols, Items: append([]Value(nil), items...)}
}

func (l *List) Kind() Kind { return KindList }
func (l *List) Dims() (int, int) { return l.Rows, l.Cols }
func (l *List) Len() int { return len(l.Items) }
func (l *List) ElementAt(i int) any { return l.Items[i] }

func (l *List) SetElementAt(i int, v any) error {
	if err := checkIndex(i, len(l.Items)); err != nil {
		return err
	}
	if v == nil {
		l.Items[i] = nil
		return nil
	}
	item, ok := v.(Value)
	if !ok {
		return typeMismatch("Value", v)
	}
	l.Items[i] = item
	return nil
}

// Record is an array of instances that share one ordered set of field names.
// Instances[i][f] holds field Fields[f] of instance i.
type Record struct {
	Fields    []string
	Instances [][]Value
}

// NewRecord returns a Record with count instances whose values are all nil
func NewRecord(fields []string, count int) *Record {
	r := &Record{Fields: append([]string(nil), fields...)}
	for i := 0; i < count; i++ {
		r.Append()
	}
	return r
}

func (r *Record) Kind() Kind { return KindRecord }

// Dims reports the instance array shape, 1xn
func (r *Record) Dims() (int, int) { return rowShape(len(r.Instances)) }

func (r *Record) Len() int { return len(r.Instances) }

// ElementAt returns the field values of instance i in field order
func (r *Record) ElementAt(i int) any { return r.Instances[i] }

func (r *Record) SetElementAt(i int, v any) error {
	if err := checkIndex(i, len(r.Instances)); err != nil {
		return err
	}
	values, ok := v.([]Value)
	if !ok {
		return typeMismatch("[]Value", v)
	}
	if len(values) != len(r.Fields) {
		return fmt.Errorf("%w: instance has %d values for %d fields", ErrInvalidValue, len(values), len(r.Fields))
	}
	r.Instances[i] = append([]Value(nil), values...)
	return nil
}

// Append adds an instance with nil values and returns its index
func (r *Record) Append() int {
	r.Instances = append(r.Instances, make([]Value, len(r.Fields)))
	return len(r.Instances) - 1
}

// FieldIndex returns the position of name in Fields, or -1
func (r *Record) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Get returns field name of instance i
func (r *Record) Get(i int, name string) (Value, bool) {
	f := r.FieldIndex(name)
	if f < 0 || i < 0 || i >= len(r.Instances) {
		return nil, false
	}
	return r.Instances[i][f], true
}

// Set assigns field name of instance i
func (r *Record) Set(i int, name string, v Value) error {
	if err := checkIndex(i, len(r.Instances)); err != nil {
		return err
	}
	f := r.FieldIndex(name)
	if f < 0 {
		return fmt.Errorf("%w: no field %q", ErrInvalidValue, name)
	}
	r.Instances[i][f] = v
	return nil
}

// validateSchema checks that field names are non-empty valid UTF-8 and unique,
// and that every instance has one value per field
func (r *Record) validateSchema() error {
	seen := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		if f == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidValue)
		}
		if !utf8.ValidString(f) {
			return fmt.Errorf("%w: field name %q is not valid UTF-8", ErrInvalidValue, f)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: duplicate field name %q", ErrInvalidValue, f)
		}
		seen[f] = struct{}{}
	}
	for i, inst := range r.Instances {
		if len(inst) != len(r.Fields) {
			return fmt.Errorf("%w: instance %d has %d values for %d fields", ErrInvalidValue, i, len(inst), len(r.Fields))
		}
	}
	return nil
}
