package gram

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strings"
)

// Describe writes one line per gram header found in buf, indented by nesting
// level. It walks the structure without building values, so it also helps to
// locate the point where a malformed datagram goes wrong: the lines written
// before the returned error are the grams that parsed.
func Describe(w io.Writer, buf []byte) error {
	_, err := describe(w, buf, 0, "")
	return err
}

func describe(w io.Writer, buf []byte, depth int, label string) (int, error) {
	if depth > DefaultMaxDepth {
		return 0, fmt.Errorf("%w: level %d, limit %d", ErrDepthExceeded, depth, DefaultMaxDepth)
	}
	h, err := ReadHeader(buf)
	if err != nil {
		return 0, err
	}
	if int(h.TotalLength) != HeaderSize+int(h.DataLength) {
		return 0, fmt.Errorf("%w: total length %d does not match data length %d",
			ErrMalformedHeader, h.TotalLength, h.DataLength)
	}
	if int(h.DataLength) > len(buf)-HeaderSize {
		return 0, fmt.Errorf("%w: %s declares %d data bytes, %d remain",
			ErrInsufficientBuffer, h.Type, h.DataLength, len(buf)-HeaderSize)
	}
	payload := buf[HeaderSize:h.TotalLength]

	line := strings.Repeat("  ", depth) + label + h.String()
	if h.Type == KindText {
		if t, err := decodeText(h, payload); err == nil {
			line += fmt.Sprintf(" %q", t.(*Text).String())
		}
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return 0, err
	}

	used := 0
	walk := func(label string) error {
		n, err := describe(w, payload[used:], depth+1, label)
		used += n
		return err
	}

	switch h.Type {
	case KindList:
		for i := 0; i < h.Count(); i++ {
			if err := walk(fmt.Sprintf("[%d] ", i)); err != nil {
				return 0, err
			}
		}
	case KindRecord:
		for i := 0; i < int(h.Dim1); i++ {
			if err := walk("field "); err != nil {
				return 0, err
			}
		}
		for f := 0; f < int(h.Dim1); f++ {
			for i := 0; i < int(h.Dim2); i++ {
				if err := walk(fmt.Sprintf("(%d).%d ", i, f)); err != nil {
					return 0, err
				}
			}
		}
	case KindCallable:
		if err := walk("source "); err != nil {
			return 0, err
		}
	}
	if h.Type == KindList || h.Type == KindRecord || h.Type == KindCallable {
		if used != len(payload) {
			return 0, fmt.Errorf("%w: %s children use %d of %d data bytes", ErrMalformedHeader, h.Type, used, len(payload))
		}
	}
	return int(h.TotalLength), nil
}

// HexDump returns a hex listing of buf
func HexDump(buf []byte) string {
	return hex.Dump(buf)
}

var selfTestDoubles = []float64{-6000, -1.1, 0, 1.1, 6000, 3.14159265358979, math.Copysign(0, -1), math.Inf(1), math.SmallestNonzeroFloat64}

// SelfTest round-trips the header integer and double primitives through the
// wire byte order and writes a report to w. It fails on the first mismatch.
func SelfTest(w io.Writer) error {
	buf := make([]byte, 8)

	fmt.Fprintln(w, "Sanity test for uint16:")
	for i := 0; i < 65536; i += 100 {
		binary.LittleEndian.PutUint16(buf, uint16(i))
		got := binary.LittleEndian.Uint16(buf)
		fmt.Fprintf(w, "%d -> %d %d -> %d\n", i, buf[0], buf[1], got)
		if int(got) != i {
			return fmt.Errorf("uint16 %d read back as %d", i, got)
		}
	}

	fmt.Fprintln(w, "Sanity test for double:")
	for _, f := range selfTestDoubles {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		got := math.Float64frombits(binary.LittleEndian.Uint64(buf))
		fmt.Fprintf(w, "%.15g -> %.15g\n", f, got)
		if math.Float64bits(got) != math.Float64bits(f) {
			return fmt.Errorf("double %v read back as %v", f, got)
		}
	}

	return nil
}
