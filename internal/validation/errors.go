package validation

import (
	"fmt"
	"strings"
)

// Kind classifies why a payload was rejected.
type Kind string

const (
	// KindMalformedInput marks payloads that are not a JSON object.
	KindMalformedInput Kind = "malformed_input"
	// KindMissingField marks payloads lacking one or more required fields.
	KindMissingField Kind = "missing_field"
	// KindInvalidType marks required fields carrying the wrong type.
	KindInvalidType Kind = "invalid_type"
)

// Error is a structured rejection of an inbound payload. Fields lists the
// offending field names for missing-field and invalid-type rejections.
type Error struct {
	Kind   Kind
	Fields []string
	msg    string
}

func (e *Error) Error() string {
	return e.msg
}

func malformed(format string, args ...interface{}) *Error {
	return &Error{
		Kind: KindMalformedInput,
		msg:  fmt.Sprintf(format, args...),
	}
}

func missing(fields []string) *Error {
	return &Error{
		Kind:   KindMissingField,
		Fields: fields,
		msg:    fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", ")),
	}
}

func invalidType(field, want string) *Error {
	return &Error{
		Kind:   KindInvalidType,
		Fields: []string{field},
		msg:    fmt.Sprintf("field %s must be %s", field, want),
	}
}
