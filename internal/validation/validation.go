// Package validation provides input validation and sanitization utilities.
package validation

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrInputTooLong indicates input exceeds maximum length.
	ErrInputTooLong = errors.New("input exceeds maximum length")
	// ErrInputInvalid indicates input contains invalid characters.
	ErrInputInvalid = errors.New("input contains invalid characters")
	// ErrInputEmpty indicates a required field is blank.
	ErrInputEmpty = errors.New("input is required")
	// ErrTooManyArguments indicates more arguments than allowed were supplied.
	ErrTooManyArguments = errors.New("too many arguments")
)

const (
	// MaxNameLength bounds macro names.
	MaxNameLength = 128
	// MaxDescriptionLength bounds descriptions and categories.
	MaxDescriptionLength = 512
	// MaxLineLength bounds a single body line.
	MaxLineLength = 4096
	// MaxArgumentLength bounds a single execution argument.
	MaxArgumentLength = 1024
)

// ValidateName validates a macro name. Names are case-sensitive, must not be
// blank and must not contain block delimiters or control characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInputEmpty
	}
	if len(name) > MaxNameLength {
		return ErrInputTooLong
	}
	if strings.ContainsAny(name, "[]") {
		return ErrInputInvalid
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInputInvalid
		}
	}
	return nil
}

// ValidateDescription validates a description field.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return ErrInputTooLong
	}
	return nil
}

// ValidateLine validates one macro body line.
func ValidateLine(line string) error {
	if len(line) > MaxLineLength {
		return ErrInputTooLong
	}
	if strings.ContainsAny(line, "\x00\n\r") {
		return ErrInputInvalid
	}
	return nil
}

// ValidateArguments validates execution arguments. max <= 0 disables the
// count check.
func ValidateArguments(args []string, max int) error {
	if max > 0 && len(args) > max {
		return ErrTooManyArguments
	}
	for _, a := range args {
		if len(a) > MaxArgumentLength {
			return ErrInputTooLong
		}
		if strings.Contains(a, "\x00") {
			return ErrInputInvalid
		}
	}
	return nil
}

// SingleLine collapses any run of whitespace, including line breaks, into a
// single space and trims the result.
func SingleLine(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
