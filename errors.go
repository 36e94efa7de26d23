package isostream

import (
	"fmt"
	"strings"
)

// APIError reports a non-success response from the service. Message is the
// joined per-field validation summary when the body carried one, otherwise
// the raw response text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("isostream: error in API call: %s", e.Message)
}

// MissingArgumentError reports a required declared parameter absent from
// the caller's arguments.
type MissingArgumentError struct {
	Method string
	Name   string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("isostream: %s missing required argument %q", e.Method, e.Name)
}

// UnexpectedArgumentError reports caller arguments outside the declared
// parameter set.
type UnexpectedArgumentError struct {
	Method string
	Names  []string
}

func (e *UnexpectedArgumentError) Error() string {
	return fmt.Sprintf("isostream: %s got unexpected arguments: %s", e.Method, strings.Join(e.Names, ","))
}

// UnknownMethodError reports a call to a method name the fetched schema
// does not declare.
type UnknownMethodError struct {
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("isostream: unknown method %q (see Methods() for the available set)", e.Name)
}
