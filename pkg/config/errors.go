package config

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration errors.
type ErrorKind string

const (
	// ErrorKindParse indicates a structural error in nested-block text.
	ErrorKindParse ErrorKind = "parse"

	// ErrorKindRequired indicates a declared parameter with neither a default
	// nor a supplied value.
	ErrorKindRequired ErrorKind = "required"

	// ErrorKindDeclaration indicates an invalid parameter declaration.
	// This is a programming error, not a configuration error.
	ErrorKindDeclaration ErrorKind = "declaration"

	// ErrorKindCoercion indicates a custom coercion function rejected a value.
	ErrorKindCoercion ErrorKind = "coercion"

	// ErrorKindValidation indicates a decoded struct failed validation.
	ErrorKindValidation ErrorKind = "validation"
)

// Error is a classified configuration error.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// File is the display name of the source, for parse errors.
	File string `json:"file,omitempty"`

	// Line is the 0-based line index, for parse errors.
	Line int `json:"line,omitempty"`

	// Type is the component type whose schema was involved, if any.
	Type string `json:"type,omitempty"`

	// Param is the parameter name involved, if any.
	Param string `json:"param,omitempty"`

	// Dump is the serialized element that was being configured.
	Dump string `json:"dump,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Dump != "" {
		msg += "\nconfig error in:\n" + e.Dump
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Class returns the error kind as a plain string for metric labels.
func (e *Error) Class() string {
	return string(e.Kind)
}

// NewParseError creates a structural parse error located at file:line.
func NewParseError(file string, line int) *Error {
	return &Error{
		Kind:    ErrorKindParse,
		Message: fmt.Sprintf("parse error at %s:%d", file, line),
		File:    file,
		Line:    line,
	}
}

// NewRequiredError creates a required-parameter error carrying the offending
// configuration text.
func NewRequiredError(param string, conf *Element) *Error {
	e := &Error{
		Kind:    ErrorKindRequired,
		Message: fmt.Sprintf("'%s' parameter is required", param),
		Param:   param,
	}
	if conf != nil {
		e.Dump = conf.String()
	}
	return e
}

// NewDeclarationError creates a schema declaration error.
func NewDeclarationError(typeName, param, message string) *Error {
	return &Error{
		Kind:    ErrorKindDeclaration,
		Message: fmt.Sprintf("%s.%s: %s", typeName, param, message),
		Type:    typeName,
		Param:   param,
	}
}

// NewCoercionError wraps an error returned by a coercion function.
func NewCoercionError(param string, err error) *Error {
	return &Error{
		Kind:    ErrorKindCoercion,
		Message: fmt.Sprintf("invalid value for '%s'", param),
		Param:   param,
		Err:     err,
	}
}

// NewValidationError wraps a struct validation failure.
func NewValidationError(typeName string, err error) *Error {
	return &Error{
		Kind:    ErrorKindValidation,
		Message: "validation failed",
		Type:    typeName,
		Err:     err,
	}
}

// WithType adds the component type to the error.
func (e *Error) WithType(typeName string) *Error {
	e.Type = typeName
	return e
}

// IsParseError returns true if err is a structural parse error.
func IsParseError(err error) bool {
	return isKind(err, ErrorKindParse)
}

// IsRequiredError returns true if err is a required-parameter error.
func IsRequiredError(err error) bool {
	return isKind(err, ErrorKindRequired)
}

// IsDeclarationError returns true if err is a schema declaration error.
func IsDeclarationError(err error) bool {
	return isKind(err, ErrorKindDeclaration)
}

// IsValidationError returns true if err is a decode validation error.
func IsValidationError(err error) bool {
	return isKind(err, ErrorKindValidation)
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
