package flightapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType is the category of a submission failure.
type ErrorType int

const (
	ErrTypeNetwork           ErrorType = iota // failed before any response
	ErrTypeAuth                               // 401 or 403
	ErrTypeHTTP                               // any other non-2xx
	ErrTypeParse                              // payload could not be encoded
	ErrTypeValidation                         // rejected locally, never sent
	ErrTypeTimeout                            // per-attempt deadline hit
	ErrTypeConnectionRefused                  // nothing listening
	ErrTypeDNS                                // host did not resolve
)

var errorTypeNames = [...]string{
	ErrTypeNetwork:           "network",
	ErrTypeAuth:              "auth",
	ErrTypeHTTP:              "http",
	ErrTypeParse:             "encode",
	ErrTypeValidation:        "validation",
	ErrTypeTimeout:           "timeout",
	ErrTypeConnectionRefused: "connection refused",
	ErrTypeDNS:               "dns",
}

func (t ErrorType) String() string {
	if t >= 0 && int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// APIError is a failed call to the flight-info endpoint. Message is for
// logs only; errreport decides what users see.
type APIError struct {
	Type      ErrorType
	Message   string
	Status    int // 0 when no response arrived
	Err       error
	Retryable bool
}

func (e *APIError) Error() string {
	msg := "flightapi " + e.Type.String() + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status, or 0 when no response was received.
func (e *APIError) StatusCode() int {
	return e.Status
}

// Timeout reports whether the call timed out.
func (e *APIError) Timeout() bool {
	return e.Type == ErrTypeTimeout
}

// Network reports whether the call failed before a response arrived.
func (e *APIError) Network() bool {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// ClassifyNetworkError types a transport error. Only failures while
// dialing are retryable; once a connection exists the request may have
// been received, so timeouts and other errors are final.
func ClassifyNetworkError(err error) *APIError {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}

	e := &APIError{Type: ErrTypeNetwork, Message: "request failed", Err: err}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	dial := errors.As(err, &opErr) && opErr.Op == "dial"
	switch {
	case errors.As(err, &dnsErr):
		e.Type, e.Message = ErrTypeDNS, "cannot resolve "+dnsErr.Name
	case os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded):
		e.Type, e.Message = ErrTypeTimeout, "request timed out"
	case dial && errors.Is(opErr.Err, syscall.ECONNREFUSED):
		e.Type, e.Message, e.Retryable = ErrTypeConnectionRefused, "connection refused", true
	case dial && errors.Is(opErr.Err, syscall.EHOSTUNREACH):
		e.Message, e.Retryable = "host unreachable", true
	case dial && errors.Is(opErr.Err, syscall.ENETUNREACH):
		e.Message, e.Retryable = "network unreachable", true
	}
	return e
}

// NewNetworkError classifies err and replaces its message.
func NewNetworkError(message string, err error) *APIError {
	e := ClassifyNetworkError(err)
	if e == nil {
		return &APIError{Type: ErrTypeNetwork, Message: message}
	}
	e.Message = message
	return e
}

// NewAuthError is returned for 401 and 403 responses.
func NewAuthError(status int, message string) *APIError {
	return &APIError{Type: ErrTypeAuth, Message: message, Status: status}
}

// NewHTTPError is returned for other non-2xx responses. A response means
// the endpoint saw the request, so it is never retried.
func NewHTTPError(status int, message string) *APIError {
	return &APIError{Type: ErrTypeHTTP, Message: message, Status: status}
}

func NewParseError(message string, err error) *APIError {
	return &APIError{Type: ErrTypeParse, Message: message, Err: err}
}

func NewValidationError(message string) *APIError {
	return &APIError{Type: ErrTypeValidation, Message: message}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsNetworkError reports whether err happened before any response arrived.
func IsNetworkError(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Network()
}

func IsAuthError(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Type == ErrTypeAuth
}

func IsHTTPError(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Type == ErrTypeHTTP
}

func IsValidationError(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Type == ErrTypeValidation
}

// IsRetryable reports whether the same request may be sent again.
func IsRetryable(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.Retryable
}
