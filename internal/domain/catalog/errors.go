package catalog

import (
	"fmt"
	"strings"

	vferrors "github.com/veriforge/veriforge/internal/errors"
)

// UnknownProtocolError is returned when a request names a protocol the
// catalog does not define.
type UnknownProtocolError struct {
	Name  string
	Valid []string
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnknownProtocolError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *UnknownProtocolError) Subject() string     { return e.Name }

// UnknownSimulatorError is returned when a request names an undefined simulator.
type UnknownSimulatorError struct {
	Name  string
	Valid []string
}

func (e *UnknownSimulatorError) Error() string {
	return fmt.Sprintf("unknown simulator %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnknownSimulatorError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *UnknownSimulatorError) Subject() string     { return e.Name }

// UnknownTemplateError is returned when a request names an undefined named template.
type UnknownTemplateError struct {
	Name  string
	Valid []string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown template %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnknownTemplateError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *UnknownTemplateError) Subject() string     { return e.Name }

// UnsupportedFeatureError names a feature flag the protocol cannot honor.
type UnsupportedFeatureError struct {
	Feature  string
	Protocol string
	Reason   string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("feature %q not supported by protocol %s: %s", e.Feature, e.Protocol, e.Reason)
}

func (e *UnsupportedFeatureError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *UnsupportedFeatureError) Subject() string     { return e.Feature }

// InvalidProjectNameError is returned for names that fail the identifier-safety rule.
type InvalidProjectNameError struct {
	Name   string
	Reason string
}

func (e *InvalidProjectNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: %s", e.Name, e.Reason)
}

func (e *InvalidProjectNameError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *InvalidProjectNameError) Subject() string     { return "project_name" }

// InvalidScenarioError is returned for malformed or duplicate scenario names.
type InvalidScenarioError struct {
	Name   string
	Reason string
}

func (e *InvalidScenarioError) Error() string {
	return fmt.Sprintf("invalid scenario %q: %s", e.Name, e.Reason)
}

func (e *InvalidScenarioError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *InvalidScenarioError) Subject() string     { return e.Name }

// SchemaError is a catalog document violation. Key is the dotted path of the
// offending entry, e.g. "protocols.AXI4.signals".
type SchemaError struct {
	Key    string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog schema: %s: %s", e.Key, e.Reason)
}

func (e *SchemaError) Code() vferrors.Code { return vferrors.EConfiguration }
func (e *SchemaError) Subject() string     { return e.Key }
