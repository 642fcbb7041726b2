package gram

import "fmt"

// DefaultMaxDepth bounds nesting when CodecConfig.MaxDepth is not set
const DefaultMaxDepth = 32

// CodecConfig holds configuration for a Codec
type CodecConfig struct {
	// MaxDepth is the deepest nesting level accepted on encode and decode.
	// The top-level value is level 0. Zero or negative means DefaultMaxDepth.
	MaxDepth int
	// Stringifier converts callables; nil rejects the Callable kind
	Stringifier Stringifier
}

// Codec encodes values into grams and decodes them back
type Codec struct {
	maxDepth    int
	stringifier Stringifier
}

// Default is the codec used by the package-level functions. It supports
// callables through SourceStringifier.
var Default = NewCodec(CodecConfig{Stringifier: SourceStringifier{}})

// NewCodec creates a new codec instance
func NewCodec(config CodecConfig) *Codec {
	maxDepth := config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Codec{maxDepth: maxDepth, stringifier: config.Stringifier}
}

// MaxDepth returns the nesting limit of the codec
func (c *Codec) MaxDepth() int {
	return c.maxDepth
}

// Stringifier returns the callable converter, nil when callables are disabled
func (c *Codec) Stringifier() Stringifier {
	return c.stringifier
}

// SupportsCallables reports whether the codec has a Stringifier
func (c *Codec) SupportsCallables() bool {
	return c.stringifier != nil
}

// Encode writes v as a gram to the start of buf and returns the number of
// bytes written. On error the contents of buf are undefined.
func (c *Codec) Encode(v Value, buf []byte) (int, error) {
	if isNilValue(v) {
		return 0, fmt.Errorf("%w: nil value", ErrInvalidValue)
	}
	return c.encode(v, buf, 0)
}

// Decode reads one gram from the start of buf and returns the value and the
// number of bytes consumed, which always equals the header's TotalLength.
// Bytes after the gram are ignored. The returned value never aliases buf.
func (c *Codec) Decode(buf []byte) (Value, int, error) {
	return c.decode(buf, 0)
}

// Size returns the number of bytes Encode needs for v
func (c *Codec) Size(v Value) (int, error) {
	if isNilValue(v) {
		return 0, fmt.Errorf("%w: nil value", ErrInvalidValue)
	}
	return c.size(v, 0)
}

// Marshal returns v encoded into a new buffer of exactly the gram's length
func (c *Codec) Marshal(v Value) ([]byte, error) {
	size, err := c.Size(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := c.Encode(v, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Unmarshal decodes data, which must hold exactly one gram
func (c *Codec) Unmarshal(data []byte) (Value, error) {
	v, n, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after gram", ErrMalformedHeader, len(data)-n)
	}
	return v, nil
}

func (c *Codec) checkDepth(depth int) error {
	if depth > c.maxDepth {
		return fmt.Errorf("%w: level %d, limit %d", ErrDepthExceeded, depth, c.maxDepth)
	}
	return nil
}

func (c *Codec) encode(v Value, buf []byte, depth int) (int, error) {
	if err := c.checkDepth(depth); err != nil {
		return 0, err
	}
	if len(buf) < HeaderSize {
		return 0, fmt.Errorf("%w: %s header needs %d bytes, have %d", ErrInsufficientBuffer, v.Kind(), HeaderSize, len(buf))
	}
	payload := buf[HeaderSize:]

	var (
		h   Header
		n   int
		err error
	)
	switch tv := v.(type) {
	case *Number:
		h, n, err = encodeNumber(tv, payload)
	case *Text:
		h, n, err = encodeText(tv, payload)
	case *Boolean:
		h, n, err = encodeBoolean(tv, payload)
	case *List:
		h, n, err = c.encodeList(tv, payload, depth)
	case *Record:
		h, n, err = c.encodeRecord(tv, payload, depth)
	case *Callable:
		h, n, err = c.encodeCallable(tv, payload, depth)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	if err != nil {
		return 0, err
	}

	h.DataLength = uint16(n)
	h.TotalLength = uint16(HeaderSize + n)
	if err := WriteHeader(h, buf); err != nil {
		return 0, err
	}
	return HeaderSize + n, nil
}

func (c *Codec) decode(buf []byte, depth int) (Value, int, error) {
	if err := c.checkDepth(depth); err != nil {
		return nil, 0, err
	}
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if int(h.TotalLength) != HeaderSize+int(h.DataLength) {
		return nil, 0, fmt.Errorf("%w: total length %d does not match data length %d",
			ErrMalformedHeader, h.TotalLength, h.DataLength)
	}
	if int(h.DataLength) > len(buf)-HeaderSize {
		return nil, 0, fmt.Errorf("%w: %s declares %d data bytes, %d remain",
			ErrInsufficientBuffer, h.Type, h.DataLength, len(buf)-HeaderSize)
	}
	payload := buf[HeaderSize:h.TotalLength]

	var v Value
	switch h.Type {
	case KindNumber:
		v, err = decodeNumber(h, payload)
	case KindText:
		v, err = decodeText(h, payload)
	case KindBoolean:
		v, err = decodeBoolean(h, payload)
	case KindList:
		v, err = c.decodeList(h, payload, depth)
	case KindRecord:
		v, err = c.decodeRecord(h, payload, depth)
	case KindCallable:
		v, err = c.decodeCallable(h, payload, depth)
	default:
		return nil, 0, fmt.Errorf("%w: type tag %d", ErrUnsupportedType, uint16(h.Type))
	}
	if err != nil {
		return nil, 0, err
	}
	return v, int(h.TotalLength), nil
}

func (c *Codec) size(v Value, depth int) (int, error) {
	if err := c.checkDepth(depth); err != nil {
		return 0, err
	}

	var (
		n   int
		err error
	)
	switch tv := v.(type) {
	case *Number:
		n, err = numberSize(tv)
	case *Text:
		n, err = textSize(tv)
	case *Boolean:
		n, err = booleanSize(tv)
	case *List:
		n, err = c.listSize(tv, depth)
	case *Record:
		n, err = c.recordSize(tv, depth)
	case *Callable:
		n, err = c.callableSize(tv, depth)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	if err != nil {
		return 0, err
	}
	if n > MaxGramLength-HeaderSize {
		return 0, fmt.Errorf("%w: %s payload of %d bytes", ErrOverflow, v.Kind(), n)
	}
	return HeaderSize + n, nil
}

// isNilValue reports an untyped nil or a nil pointer of a known variant
func isNilValue(v Value) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case *Number:
		return tv == nil
	case *Text:
		return tv == nil
	case *Boolean:
		return tv == nil
	case *List:
		return tv == nil
	case *Record:
		return tv == nil
	case *Callable:
		return tv == nil
	}
	return false
}

// child substitutes the empty matrix for missing list and record entries
func child(v Value) Value {
	if isNilValue(v) {
		return &Number{}
	}
	return v
}

// Encode writes v to buf with the Default codec
func Encode(v Value, buf []byte) (int, error) {
	return Default.Encode(v, buf)
}

// Decode reads one gram from buf with the Default codec
func Decode(buf []byte) (Value, int, error) {
	return Default.Decode(buf)
}

// Size returns the encoded length of v with the Default codec
func Size(v Value) (int, error) {
	return Default.Size(v)
}

// Marshal encodes v into a new buffer with the Default codec
func Marshal(v Value) ([]byte, error) {
	return Default.Marshal(v)
}

// Unmarshal decodes exactly one gram with the Default codec
func Unmarshal(data []byte) (Value, error) {
	return Default.Unmarshal(data)
}
