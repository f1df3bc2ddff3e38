package covid

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload is wrapped by every ParseError.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSuperseded is returned by Planner.Plan when a newer cycle started
	// before this one finished. The older cycle's result is dropped.
	ErrSuperseded = errors.New("refresh cycle superseded")

	// ErrAbandoned is returned by Planner.Plan when the caller's context ended
	// before the cycle completed.
	ErrAbandoned = errors.New("refresh cycle abandoned")
)

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind int

const (
	FetchNetworkFailure FetchErrorKind = iota
	FetchTimeout
	FetchNonSuccessStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetworkFailure:
		return "network failure"
	case FetchTimeout:
		return "timeout"
	case FetchNonSuccessStatus:
		return "non-success status"
	default:
		return "unknown"
	}
}

// FetchError is returned by a Fetcher when the summary could not be retrieved.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // set for FetchNonSuccessStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchNonSuccessStatus {
		return fmt.Sprintf("fetch failed: %s %d", e.Kind, e.StatusCode)
	}
	if e.Err == nil {
		return "fetch failed: " + e.Kind.String()
	}
	return fmt.Sprintf("fetch failed: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned by Parse for any payload that does not match the
// expected summary shape.
type ParseError struct {
	Field  string // JSON path that failed validation, empty for the document itself
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrMalformedPayload, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrMalformedPayload, e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedPayload
}
