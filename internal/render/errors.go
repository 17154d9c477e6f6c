package render

import (
	"fmt"

	vferrors "github.com/veriforge/veriforge/internal/errors"
)

// UnresolvedPlaceholderError reports a placeholder or condition whose value
// is absent from the environment.
type UnresolvedPlaceholderError struct {
	Placeholder string
	Template    string
	Line        int
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("%s:%d: unresolved placeholder %q", e.Template, e.Line, e.Placeholder)
}

func (e *UnresolvedPlaceholderError) Code() vferrors.Code { return vferrors.EUnresolvedPlaceholder }
func (e *UnresolvedPlaceholderError) Subject() string {
	return fmt.Sprintf("%s@%s:%d", e.Placeholder, e.Template, e.Line)
}

// ParseError is a malformed template. Templates ship with the binary, so a
// parse error is a defect rather than a user mistake.
type ParseError struct {
	Template string
	Line     int
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Template, e.Line, e.Msg)
}

func (e *ParseError) Code() vferrors.Code { return vferrors.EInternalConsistency }
func (e *ParseError) Subject() string     { return e.Template }
