package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")

	ErrConfigMissing         = errors.New("configuration missing")
	ErrResourceUnreachable   = errors.New("resource unreachable")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrSubmissionRejected    = errors.New("submission rejected")
	ErrStatusCheckFailed     = errors.New("status check failed")
	ErrProcessingFailed      = errors.New("processing failed")
	ErrProcessingTimedOut    = errors.New("processing timed out")
	ErrPublishRejected       = errors.New("publish rejected")

	// Non-fatal: reported as warnings on an otherwise successful run.
	ErrPublishIncomplete         = errors.New("published, but no media id returned")
	ErrReferenceResolutionFailed = errors.New("permalink resolution failed")
)

// APIErrorKind tells where a remote call failed.
type APIErrorKind string

const (
	KindNetwork    APIErrorKind = "network"
	KindHTTPStatus APIErrorKind = "http_status"
	KindDecode     APIErrorKind = "decode"
	KindEnvelope   APIErrorKind = "envelope"
)

// APIError is the single failure value returned by every remote operation,
// whether the call failed in transport, at the HTTP layer or in-band.
type APIError struct {
	Op         string
	Kind       APIErrorKind
	Message    string
	Type       string
	Code       int
	Subcode    int
	TraceID    string
	HTTPStatus int
	Body       string // truncated excerpt, set for KindDecode
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindNetwork:
		fmt.Fprintf(&b, "request failed: %v", e.Err)
	case KindDecode:
		fmt.Fprintf(&b, "non-JSON response (%d): %s", e.HTTPStatus, e.Body)
	case KindHTTPStatus:
		fmt.Fprintf(&b, "HTTP %d", e.HTTPStatus)
		if e.Message != "" {
			fmt.Fprintf(&b, ": %s", e.Message)
		}
	default:
		fmt.Fprintf(&b, "%s (code=%s, subcode=%s)", e.Message, optInt(e.Code), optInt(e.Subcode))
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// IsAPIError extracts an *APIError from err's chain.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func optInt(v int) string {
	if v == 0 {
		return "none"
	}
	return fmt.Sprint(v)
}
