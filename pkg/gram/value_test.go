package gram

import (
	"errors"
	"math"
	"testing"
)

func TestValue_DimsAndLen(t *testing.T) {
	testCases := []struct {
		name       string
		value      Value
		rows, cols int
		length     int
	}{
		{name: "scalar", value: Scalar(1), rows: 1, cols: 1, length: 1},
		{name: "empty row vector", value: RowVector(), rows: 0, cols: 0, length: 0},
		{name: "matrix", value: NewNumber(3, 2), rows: 3, cols: 2, length: 6},
		{name: "text", value: NewText("abc"), rows: 1, cols: 3, length: 3},
		{name: "flags", value: Flags(true, false), rows: 1, cols: 2, length: 2},
		{name: "list", value: NewList(Scalar(1), Scalar(2)), rows: 1, cols: 2, length: 2},
		{name: "record", value: NewRecord([]string{"a"}, 4), rows: 1, cols: 4, length: 4},
		{name: "callable", value: &Callable{Ref: "f"}, rows: 1, cols: 1, length: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, cols := tc.value.Dims()
			if rows != tc.rows || cols != tc.cols {
				t.Errorf("Dims() = %dx%d, want %dx%d", rows, cols, tc.rows, tc.cols)
			}
			if tc.value.Len() != tc.length {
				t.Errorf("Len() = %d, want %d", tc.value.Len(), tc.length)
			}
		})
	}
}

func TestValue_SetElementAt(t *testing.T) {
	n := NewNumber(1, 2)
	if err := n.SetElementAt(1, 2.5); err != nil || n.ElementAt(1) != 2.5 {
		t.Errorf("Number.SetElementAt: %v, element %v", err, n.ElementAt(1))
	}
	if err := n.SetElementAt(2, 1.0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("out of range: got %v", err)
	}
	if err := n.SetElementAt(0, "x"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("wrong type: got %v", err)
	}

	text := NewText("ab")
	if err := text.SetElementAt(0, uint16('z')); err != nil || text.String() != "zb" {
		t.Errorf("Text.SetElementAt: %v, text %q", err, text.String())
	}
	if err := text.SetElementAt(0, uint16(0x3C0)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("wide unit in narrow text: got %v", err)
	}

	b := NewBoolean(2, 1)
	if err := b.SetElementAt(1, true); err != nil || !b.Data[1] {
		t.Errorf("Boolean.SetElementAt: %v", err)
	}

	l := NewList(Scalar(1))
	if err := l.SetElementAt(0, NewText("x")); err != nil || l.Items[0].Kind() != KindText {
		t.Errorf("List.SetElementAt: %v", err)
	}
	if err := l.SetElementAt(0, 3.0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("List.SetElementAt non-value: got %v", err)
	}
	if err := l.SetElementAt(0, nil); err != nil || l.Items[0] != nil {
		t.Errorf("List.SetElementAt nil: %v", err)
	}

	r := NewRecord([]string{"a", "b"}, 1)
	if err := r.SetElementAt(0, []Value{Scalar(1), Scalar(2)}); err != nil {
		t.Errorf("Record.SetElementAt: %v", err)
	}
	if err := r.SetElementAt(0, []Value{Scalar(1)}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Record.SetElementAt short tuple: got %v", err)
	}

	c := &Callable{}
	if err := c.SetElementAt(0, "max"); err != nil || c.Ref != "max" {
		t.Errorf("Callable.SetElementAt: %v", err)
	}
}

func TestRecord_Accessors(t *testing.T) {
	r := NewRecord([]string{"x", "y"}, 0)
	i := r.Append()
	if i != 0 || r.Len() != 1 {
		t.Fatalf("Append returned %d, Len %d", i, r.Len())
	}

	if err := r.Set(0, "y", Scalar(7)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := r.Set(0, "z", Scalar(7)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set unknown field: got %v", err)
	}
	if err := r.Set(3, "x", Scalar(7)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set out of range: got %v", err)
	}

	v, ok := r.Get(0, "y")
	if !ok || !Equal(v, Scalar(7)) {
		t.Errorf("Get = %#v, %v", v, ok)
	}
	if _, ok := r.Get(0, "z"); ok {
		t.Error("Get unknown field succeeded")
	}
	if r.FieldIndex("x") != 0 || r.FieldIndex("missing") != -1 {
		t.Error("FieldIndex returned unexpected positions")
	}
}

func TestEqual(t *testing.T) {
	nan := math.NaN()

	testCases := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "same numbers", a: RowVector(1, 2), b: RowVector(1, 2), want: true},
		{name: "different numbers", a: RowVector(1, 2), b: RowVector(1, 3), want: false},
		{name: "different shapes", a: RowVector(1, 2), b: &Number{Rows: 2, Cols: 1, Data: []float64{1, 2}}, want: false},
		{name: "nan equals itself", a: Scalar(nan), b: Scalar(nan), want: true},
		{name: "signed zero", a: Scalar(0), b: Scalar(math.Copysign(0, -1)), want: false},
		{name: "text width matters", a: NewText("a"), b: &Text{Rows: 1, Cols: 1, Width: 2, Units: []uint16{'a'}}, want: false},
		{name: "kinds differ", a: Scalar(1), b: Flags(true), want: false},
		{name: "nil equals empty number", a: nil, b: &Number{}, want: true},
		{name: "lists", a: NewList(Scalar(1), NewText("x")), b: NewList(Scalar(1), NewText("x")), want: true},
		{name: "field order matters", a: NewRecord([]string{"a", "b"}, 1), b: NewRecord([]string{"b", "a"}, 1), want: false},
		{name: "callables", a: &Callable{Ref: "f"}, b: &Callable{Ref: "g"}, want: false},
		{name: "foreign value with same kind", a: &Number{}, b: &foreignValue{}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal = %v, want %v", got, tc.want)
			}
		})
	}
}
