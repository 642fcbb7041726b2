package gram

import "fmt"

// encodeChildren writes each value as a complete gram at the start of
// payload, one after another, and returns the bytes used
func (c *Codec) encodeChildren(label string, values []Value, payload []byte, used, depth int) (int, error) {
	for i, v := range values {
		n, err := c.encode(child(v), payload[used:], depth+1)
		if err != nil {
			return 0, fmt.Errorf("%s %d: %w", label, i, err)
		}
		used += n
		if used > MaxGramLength-HeaderSize {
			return 0, fmt.Errorf("%w: payload of %d bytes", ErrOverflow, used)
		}
	}
	return used, nil
}

func (c *Codec) sizeChildren(label string, values []Value, depth int) (int, error) {
	total := 0
	for i, v := range values {
		n, err := c.size(child(v), depth+1)
		if err != nil {
			return 0, fmt.Errorf("%s %d: %w", label, i, err)
		}
		total += n
	}
	return total, nil
}

// decodeChildren reads n grams from payload starting at offset used
func (c *Codec) decodeChildren(label string, n int, payload []byte, used, depth int) ([]Value, int, error) {
	values := make([]Value, n)
	for i := range values {
		v, consumed, err := c.decode(payload[used:], depth+1)
		if err != nil {
			return nil, 0, fmt.Errorf("%s %d: %w", label, i, err)
		}
		values[i] = v
		used += consumed
	}
	return values, used, nil
}

// checkChildCount rejects headers announcing more children than the payload
// could hold before anything is allocated for them
func checkChildCount(h Header, children int, payload []byte) error {
	if children*HeaderSize > len(payload) {
		return fmt.Errorf("%w: %s %dx%d needs at least %d data bytes, header declares %d",
			ErrMalformedHeader, h.Type, h.Dim1, h.Dim2, children*HeaderSize, len(payload))
	}
	return nil
}

func checkConsumed(h Header, used int, payload []byte) error {
	if used != len(payload) {
		return fmt.Errorf("%w: %s children use %d of %d data bytes", ErrMalformedHeader, h.Type, used, len(payload))
	}
	return nil
}

func (c *Codec) encodeList(l *List, payload []byte, depth int) (Header, int, error) {
	if err := checkShape(KindList, l.Rows, l.Cols, len(l.Items)); err != nil {
		return Header{}, 0, err
	}
	n, err := c.encodeChildren("list element", l.Items, payload, 0, depth)
	if err != nil {
		return Header{}, 0, err
	}
	return Header{Type: KindList, Dim1: uint16(l.Rows), Dim2: uint16(l.Cols)}, n, nil
}

func (c *Codec) listSize(l *List, depth int) (int, error) {
	if err := checkShape(KindList, l.Rows, l.Cols, len(l.Items)); err != nil {
		return 0, err
	}
	return c.sizeChildren("list element", l.Items, depth)
}

func (c *Codec) decodeList(h Header, payload []byte, depth int) (Value, error) {
	if err := checkChildCount(h, h.Count(), payload); err != nil {
		return nil, err
	}
	items, used, err := c.decodeChildren("list element", h.Count(), payload, 0, depth)
	if err != nil {
		return nil, err
	}
	if err := checkConsumed(h, used, payload); err != nil {
		return nil, err
	}
	return &List{Rows: int(h.Dim1), Cols: int(h.Dim2), Items: items}, nil
}

// recordNames returns the field names as Text values
func recordNames(r *Record) []Value {
	names := make([]Value, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = NewText(f)
	}
	return names
}

// recordValues flattens the instances in field-major, instance-minor order
func recordValues(r *Record) []Value {
	values := make([]Value, 0, len(r.Fields)*len(r.Instances))
	for f := range r.Fields {
		for _, inst := range r.Instances {
			values = append(values, inst[f])
		}
	}
	return values
}

func checkRecordShape(r *Record) error {
	if len(r.Fields) > MaxDim || len(r.Instances) > MaxDim {
		return fmt.Errorf("%w: record with %d fields and %d instances", ErrOverflow, len(r.Fields), len(r.Instances))
	}
	return r.validateSchema()
}

func (c *Codec) encodeRecord(r *Record, payload []byte, depth int) (Header, int, error) {
	if err := checkRecordShape(r); err != nil {
		return Header{}, 0, err
	}
	n, err := c.encodeChildren("record field name", recordNames(r), payload, 0, depth)
	if err != nil {
		return Header{}, 0, err
	}
	n, err = c.encodeChildren("record value", recordValues(r), payload, n, depth)
	if err != nil {
		return Header{}, 0, err
	}
	return Header{Type: KindRecord, Dim1: uint16(len(r.Fields)), Dim2: uint16(len(r.Instances))}, n, nil
}

func (c *Codec) recordSize(r *Record, depth int) (int, error) {
	if err := checkRecordShape(r); err != nil {
		return 0, err
	}
	names, err := c.sizeChildren("record field name", recordNames(r), depth)
	if err != nil {
		return 0, err
	}
	values, err := c.sizeChildren("record value", recordValues(r), depth)
	if err != nil {
		return 0, err
	}
	return names + values, nil
}

func (c *Codec) decodeRecord(h Header, payload []byte, depth int) (Value, error) {
	fields, count := int(h.Dim1), int(h.Dim2)
	if err := checkChildCount(h, fields+fields*count, payload); err != nil {
		return nil, err
	}

	names, used, err := c.decodeChildren("record field name", fields, payload, 0, depth)
	if err != nil {
		return nil, err
	}
	r := &Record{Fields: make([]string, fields)}
	for i, name := range names {
		t, ok := name.(*Text)
		if !ok {
			return nil, fmt.Errorf("%w: record field name %d is %s", ErrMalformedHeader, i, name.Kind())
		}
		r.Fields[i] = t.String()
	}
	for i := 0; i < count; i++ {
		r.Append()
	}
	if err := r.validateSchema(); err != nil {
		return nil, err
	}

	values, used, err := c.decodeChildren("record value", fields*count, payload, used, depth)
	if err != nil {
		return nil, err
	}
	if err := checkConsumed(h, used, payload); err != nil {
		return nil, err
	}
	for f := 0; f < fields; f++ {
		for i := 0; i < count; i++ {
			r.Instances[i][f] = values[f*count+i]
		}
	}
	return r, nil
}

func (c *Codec) callableSource(fn *Callable) (*Text, error) {
	if c.stringifier == nil {
		return nil, fmt.Errorf("%w: callables are disabled", ErrUnsupportedType)
	}
	src, err := c.stringifier.Stringify(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallableConversionFailed, err)
	}
	return NewText(src), nil
}

func (c *Codec) encodeCallable(fn *Callable, payload []byte, depth int) (Header, int, error) {
	src, err := c.callableSource(fn)
	if err != nil {
		return Header{}, 0, err
	}
	n, err := c.encodeChildren("callable source", []Value{src}, payload, 0, depth)
	if err != nil {
		return Header{}, 0, err
	}
	return Header{Type: KindCallable, Dim1: 1, Dim2: 1}, n, nil
}

func (c *Codec) callableSize(fn *Callable, depth int) (int, error) {
	src, err := c.callableSource(fn)
	if err != nil {
		return 0, err
	}
	return c.sizeChildren("callable source", []Value{src}, depth)
}

func (c *Codec) decodeCallable(h Header, payload []byte, depth int) (Value, error) {
	if c.stringifier == nil {
		return nil, fmt.Errorf("%w: callables are disabled", ErrUnsupportedType)
	}
	src, used, err := c.decode(payload, depth+1)
	if err != nil {
		return nil, fmt.Errorf("callable source: %w", err)
	}
	if err := checkConsumed(h, used, payload); err != nil {
		return nil, err
	}
	t, ok := src.(*Text)
	if !ok {
		return nil, fmt.Errorf("%w: callable source is %s", ErrCallableConversionFailed, src.Kind())
	}
	fn, err := c.stringifier.Parse(t.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallableConversionFailed, err)
	}
	return fn, nil
}
