// Package errors defines the stable error codes shared by every stage of a
// generation run.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable error code string.
type Code string

const (
	// EConfiguration covers unknown protocol/simulator/template, unsupported
	// features, invalid project names and catalog schema violations.
	EConfiguration Code = "E_CONFIGURATION"
	// ENamingCollision means two identifiers rendered to the same name.
	ENamingCollision Code = "E_NAMING_COLLISION"
	// EUnresolvedPlaceholder means a template referenced a missing field.
	EUnresolvedPlaceholder Code = "E_UNRESOLVED_PLACEHOLDER"
	// EConflict means a target path already exists.
	EConflict Code = "E_CONFLICT"
	// EIO is a filesystem failure during commit.
	EIO Code = "E_IO"
	// EInternalConsistency is a synthesizer invariant violation.
	EInternalConsistency Code = "E_INTERNAL_CONSISTENCY"
)

// Coded is implemented by every typed error in the module.
type Coded interface {
	error
	Code() Code
	// Subject names the file, identifier or configuration key at fault.
	Subject() string
}

// Error is the generic coded error used where no dedicated type exists.
type Error struct {
	C     Code
	Subj  string
	Msg   string
	Cause error
}

// Error returns "CODE: message".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.C, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.C, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error { return e.Cause }

// Code returns the error code.
func (e *Error) Code() Code { return e.C }

// Subject returns the offending file, identifier or key.
func (e *Error) Subject() string { return e.Subj }

// New creates a coded error.
func New(code Code, subject, msg string) error {
	return &Error{C: code, Subj: subject, Msg: msg}
}

// Wrap creates a coded error wrapping cause.
func Wrap(code Code, subject, msg string, cause error) error {
	return &Error{C: code, Subj: subject, Msg: msg, Cause: cause}
}

// IOFailure wraps a filesystem error for path.
func IOFailure(path string, cause error) error {
	return Wrap(EIO, path, fmt.Sprintf("write %s", path), cause)
}

// InternalConsistency reports a synthesizer invariant violation.
func InternalConsistency(subject, msg string) error {
	return New(EInternalConsistency, subject, msg)
}

// GetCode extracts the code from err, or "" when err is not coded.
func GetCode(err error) Code {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// Descriptor is the serializable form of a failure reported to the front end.
type Descriptor struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
}

// Describe converts err into a Descriptor. Uncoded errors are reported as
// internal consistency failures since every expected failure is coded.
func Describe(err error) *Descriptor {
	if err == nil {
		return nil
	}
	var c Coded
	if errors.As(err, &c) {
		return &Descriptor{Code: c.Code(), Message: err.Error(), Subject: c.Subject()}
	}
	return &Descriptor{Code: EInternalConsistency, Message: err.Error()}
}
