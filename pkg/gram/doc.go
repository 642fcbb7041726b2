// Package gram provides value serialization for mxgram datagrams.
//
// A gram is one encoded value: a fixed 12-byte header followed by a payload.
// Grams are self-delimiting, so a decoder can find the end of a value from
// its header alone. Nested values (lists, records, callables) carry their
// children as a concatenation of complete grams.
//
// # Header Format
//
//	[TotalLength(2)][Type(2)][DataLength(2)][ElementSize(2)][Dim1(2)][Dim2(2)][Payload]
//
// Fields:
//   - TotalLength: bytes in the gram including the header (little-endian)
//   - Type: kind tag, 0 Number, 1 Text, 2 Boolean, 3 List, 4 Record, 5 Callable
//   - DataLength: payload bytes following the header
//   - ElementSize: bytes per scalar element, 0 for composite kinds
//   - Dim1: rows, or the field count of a Record
//   - Dim2: columns, or the instance count of a Record
//
// TotalLength is always 12 + DataLength. All lengths are 16-bit, so a gram
// never exceeds 65535 bytes.
//
// # Payloads
//
// Scalar kinds store their elements in column-major order: element i lives at
// row i%rows and column i/rows.
//   - Number: 8-byte IEEE-754 doubles, bit patterns copied verbatim
//   - Text: 1- or 2-byte code units, width taken from the value
//   - Boolean: one byte per element, nonzero is true
//
// A List payload is Dim1*Dim2 child grams in column-major order. A Record
// payload is Dim1 field names (Text grams) followed by Dim1*Dim2 values in
// field-major, instance-minor order. A Callable payload is a single Text gram
// holding the callable's source form, produced and parsed by a Stringifier.
//
// # Usage
//
//	codec := gram.NewCodec(gram.CodecConfig{})
//
//	buf := make([]byte, gram.MaxGramLength)
//	n, err := codec.Encode(gram.RowVector(1, -2.5, 3.25), buf)
//	if err != nil {
//	    return err
//	}
//
//	v, consumed, err := codec.Decode(buf[:n])
//	if err != nil {
//	    return err
//	}
//
// # Errors
//
// Every failure wraps one of the sentinel errors (ErrMalformedHeader,
// ErrInsufficientBuffer, ErrUnsupportedType, ErrCallableConversionFailed,
// ErrDepthExceeded, ErrOverflow, ErrInvalidValue); test with errors.Is.
// ErrorCode maps an error to the negative status code reported by the
// datagram tools. Encoding stops at the first error and leaves the
// destination buffer in an undefined state.
//
// # Byte Order
//
// Headers and payloads are little-endian. There is no negotiation field, so
// peers on big-endian hosts are not supported.
//
// # Thread Safety
//
// A Codec is immutable after construction and safe for concurrent use.
// Callers must not share one destination buffer between goroutines.
package gram
