package gram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Callable is an opaque reference to host code. The codec never looks inside
// Ref; a Stringifier converts it to and from a textual source form.
type Callable struct {
	Ref any
}

func (c *Callable) Kind() Kind { return KindCallable }
func (c *Callable) Dims() (int, int) { return 1, 1 }
func (c *Callable) Len() int { return 1 }

func (c *Callable) ElementAt(i int) any { return c.Ref }

func (c *Callable) SetElementAt(i int, v any) error {
	if err := checkIndex(i, 1); err != nil {
		return err
	}
	c.Ref = v
	return nil
}

// Stringifier converts callables to source text and back
type Stringifier interface {
	Stringify(c *Callable) (string, error)
	Parse(source string) (*Callable, error)
}

var (
	namedFunction     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)
	anonymousFunction = regexp.MustCompile(`^@\(\s*([A-Za-z][A-Za-z0-9_]*(\s*,\s*[A-Za-z][A-Za-z0-9_]*)*)?\s*\)\s*\S`)

	errNotSource = errors.New("not a function name or anonymous function")
)

// SourceStringifier treats a callable's Ref as its source text: either a
// (possibly package-qualified) function name such as "max" or "pkg.run", or
// an anonymous function such as "@(x, y) x + y".
type SourceStringifier struct{}

var _ Stringifier = SourceStringifier{}

// Stringify returns the source held in c.Ref. Ref may be a string or a
// fmt.Stringer.
func (SourceStringifier) Stringify(c *Callable) (string, error) {
	var src string
	switch ref := c.Ref.(type) {
	case string:
		src = ref
	case fmt.Stringer:
		src = ref.String()
	default:
		return "", fmt.Errorf("reference of type %T has no source form", c.Ref)
	}
	if err := validateSource(src); err != nil {
		return "", err
	}
	return src, nil
}

// Parse returns a Callable whose Ref is source
func (SourceStringifier) Parse(source string) (*Callable, error) {
	if err := validateSource(source); err != nil {
		return nil, err
	}
	return &Callable{Ref: source}, nil
}

func validateSource(src string) error {
	s := strings.TrimSpace(src)
	if s != src || s == "" {
		return fmt.Errorf("%w: %q", errNotSource, src)
	}
	if strings.HasPrefix(s, "@") {
		if anonymousFunction.MatchString(s) {
			return nil
		}
	} else if namedFunction.MatchString(s) {
		return nil
	}
	return fmt.Errorf("%w: %q", errNotSource, src)
}
