// Package macro implements the macro line grammar, the macro document format
// and argument substitution.
package macro

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested macro does not exist.
	ErrNotFound = errors.New("macro not found")
	// ErrValidation indicates a macro definition was rejected on save.
	ErrValidation = errors.New("invalid macro")
	// ErrMissingArgument indicates a placeholder refers past the supplied arguments.
	ErrMissingArgument = errors.New("missing macro argument")
	// ErrParse indicates a macro document or body line could not be parsed.
	ErrParse = errors.New("malformed macro")
)

// ParseError reports where a document or body line failed to parse.
type ParseError struct {
	Macro string
	Msg   string
	Line  int
}

func (e *ParseError) Error() string {
	switch {
	case e.Macro != "" && e.Line > 0:
		return fmt.Sprintf("macro %q line %d: %s", e.Macro, e.Line, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return e.Msg
	}
}

// Is makes errors.Is(err, ErrParse) true.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// MissingArgumentError reports the first placeholder with no supplied value.
type MissingArgumentError struct {
	Index    int
	Supplied int
	Line     int
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("line %d references %%%d but only %d argument(s) supplied", e.Line, e.Index, e.Supplied)
}

// Is makes errors.Is(err, ErrMissingArgument) true.
func (e *MissingArgumentError) Is(target error) bool {
	return target == ErrMissingArgument
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
