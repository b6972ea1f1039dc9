package flightapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{
			name:          "connection refused",
			err:           &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType:      ErrTypeConnectionRefused,
			wantRetryable: true,
		},
		{
			name:          "dns",
			err:           &net.DNSError{Name: "api.invalid", Err: "no such host"},
			wantType:      ErrTypeDNS,
			wantRetryable: false,
		},
		{
			name:          "refused after connecting",
			err:           &net.OpError{Op: "read", Err: syscall.ECONNREFUSED},
			wantType:      ErrTypeNetwork,
			wantRetryable: false,
		},
		{
			name:          "host unreachable while dialing",
			err:           &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}},
			wantType:      ErrTypeNetwork,
			wantRetryable: true,
		},
		{
			name:          "deadline",
			err:           &url.Error{Op: "Post", URL: "http://x", Err: context.DeadlineExceeded},
			wantType:      ErrTypeTimeout,
			wantRetryable: false,
		},
		{
			name:          "generic",
			err:           errors.New("boom"),
			wantType:      ErrTypeNetwork,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestNewHTTPError_NeverRetryable(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusServiceUnavailable} {
		if NewHTTPError(status, "x").Retryable {
			t.Errorf("HTTP %d should not be retryable", status)
		}
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outbound leg: %w", NewAuthError(http.StatusForbidden, "nope"))
	if !IsAuthError(err) {
		t.Error("IsAuthError() should unwrap")
	}
	if IsRetryable(err) {
		t.Error("IsRetryable() = true for auth error")
	}
}

func TestErrorString(t *testing.T) {
	err := NewNetworkError("POST request failed", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED})
	want := "flightapi connection refused: POST request failed: dial: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("String() = %q", ErrorType(99).String())
	}
}
