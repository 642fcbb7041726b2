package gram

import (
	"math"
	"reflect"
)

// Equal reports whether a and b have the same kind, shape and elements.
// Numbers compare by IEEE-754 bit pattern, so NaN equals an identical NaN and
// 0.0 differs from -0.0. Missing list and record entries equal the empty
// Number they are encoded as.
func Equal(a, b Value) bool {
	a, b = child(a), child(b)
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case *Number:
		bv, ok := b.(*Number)
		if !ok {
			return false
		}
		if av.Rows != bv.Rows || av.Cols != bv.Cols || len(av.Data) != len(bv.Data) {
			return false
		}
		for i := range av.Data {
			if math.Float64bits(av.Data[i]) != math.Float64bits(bv.Data[i]) {
				return false
			}
		}
		return true
	case *Text:
		bv, ok := b.(*Text)
		if !ok {
			return false
		}
		if av.Rows != bv.Rows || av.Cols != bv.Cols || av.Width != bv.Width || len(av.Units) != len(bv.Units) {
			return false
		}
		for i := range av.Units {
			if av.Units[i] != bv.Units[i] {
				return false
			}
		}
		return true
	case *Boolean:
		bv, ok := b.(*Boolean)
		if !ok {
			return false
		}
		if av.Rows != bv.Rows || av.Cols != bv.Cols || len(av.Data) != len(bv.Data) {
			return false
		}
		for i := range av.Data {
			if av.Data[i] != bv.Data[i] {
				return false
			}
		}
		return true
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return false
		}
		if av.Rows != bv.Rows || av.Cols != bv.Cols || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Record:
		bv, ok := b.(*Record)
		if !ok {
			return false
		}
		if len(av.Fields) != len(bv.Fields) || len(av.Instances) != len(bv.Instances) {
			return false
		}
		for i := range av.Fields {
			if av.Fields[i] != bv.Fields[i] {
				return false
			}
		}
		for i := range av.Instances {
			if len(av.Instances[i]) != len(bv.Instances[i]) {
				return false
			}
			for f := range av.Instances[i] {
				if !Equal(av.Instances[i][f], bv.Instances[i][f]) {
					return false
				}
			}
		}
		return true
	case *Callable:
		bv, ok := b.(*Callable)
		if !ok {
			return false
		}
		return reflect.DeepEqual(av.Ref, bv.Ref)
	}
	return false
}
