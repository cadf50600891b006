package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds for fetch failures. A FetchError always wraps exactly one
// of these, so call sites can classify with errors.Is.
var (
	ErrTimeout    = errors.New("request timed out")
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrTransport  = errors.New("transport failure")
)

// ErrMissingIdentity marks a record whose entity id could not be resolved.
// Unlike any other missing field, this drops the whole record.
var ErrMissingIdentity = errors.New("no resolvable entity id")

// FetchError describes a failed network fetch. It is always recoverable at
// the call site: logged, skipped, never propagated past the unit of work
// that produced it.
type FetchError struct {
	URL    string
	Status int   // non-zero only for ErrHTTPStatus
	Kind   error // one of ErrTimeout, ErrHTTPStatus, ErrTransport
	Cause  error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// ExtractError describes a record-level extraction failure. MissingIdentity
// is the only kind that exists: any other missing field degrades to nil on
// the record instead of failing.
type ExtractError struct {
	URL  string
	Kind error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Kind)
}

func (e *ExtractError) Unwrap() error { return e.Kind }

// StageExhaustedError reports a pipeline stage that produced zero usable
// records. It is a structured warning: partial results from earlier stages
// remain valid and are still handed off.
type StageExhaustedError struct {
	Stage string
}

func (e *StageExhaustedError) Error() string {
	return fmt.Sprintf("stage %q produced no usable records", e.Stage)
}

// ValidationError wraps a configuration sentinel with field context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }
