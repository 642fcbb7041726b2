package gram

import "errors"

// CodecError is a gram codec failure with a stable negative status code
type CodecError struct {
	Code    int
	Message string
}

func (e *CodecError) Error() string {
	return "gram: " + e.Message
}

// Errors
var (
	ErrMalformedHeader          = &CodecError{Code: -1, Message: "malformed header"}
	ErrInsufficientBuffer       = &CodecError{Code: -2, Message: "insufficient buffer"}
	ErrUnsupportedType          = &CodecError{Code: -3, Message: "unsupported type"}
	ErrCallableConversionFailed = &CodecError{Code: -4, Message: "callable conversion failed"}
	ErrDepthExceeded            = &CodecError{Code: -5, Message: "max nesting depth exceeded"}
	ErrOverflow                 = &CodecError{Code: -6, Message: "value exceeds 16-bit gram limits"}
	ErrInvalidValue             = &CodecError{Code: -7, Message: "invalid value"}
)

// ErrorCode returns the negative status code carried by err, 0 for nil and
// -1000 for errors that did not come from the codec.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return -1000
}
