package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed matches the error returned by Validate.
	ErrValidationFailed = errors.New("validation failed")
)

// DecodeError reports a file that could not be decoded. Line and Column
// are 1-based and zero when the decoder gave no position.
type DecodeError struct {
	File   string
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	pos := e.File
	if e.Line > 0 {
		pos += fmt.Sprintf(":%d", e.Line)
		if e.Column > 0 {
			pos += fmt.Sprintf(":%d", e.Column)
		}
	}
	return pos + ": " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FieldError is one setting rejected by Validate. Key is the dotted key as
// written in the file.
type FieldError struct {
	Key     string
	Problem string
	Value   any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s, got %v", e.Key, e.Problem, e.Value)
}

// FieldErrors lists every rejected setting in the order Validate checks
// them.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	var b strings.Builder
	b.WriteString("invalid config")
	for i, e := range fe {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidationFailed
}
