// Package errreport records failures for diagnostics and maps them to the
// short sentences shown to users. Raw error text never reaches a user.
package errreport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/logging"
)

// User-facing messages.
const (
	MsgGeneric         = "An error occurred. Please try again."
	MsgBadRequest      = "Invalid request. Please check your input and try again."
	MsgUnauthorized    = "Unauthorized. Please sign in again."
	MsgNotFound        = "Error occurred. Please try again."
	MsgTooManyRequests = "Too many requests. Please wait a moment and try again."
	MsgServer          = "Server error. Please try again later."
	MsgNetwork         = "Network error. Please check your connection and try again."
	MsgCredentials     = "Authentication failed. Please check your credentials and try again."
	MsgInvalidLink     = "Invalid credentials. Please check your information and try again."
	MsgSessionExpired  = "Please request a new magic link. Your previous session has expired."
	MsgRecentLogin     = "Please sign in again to complete this action."
	MsgAuthGeneric     = "Authentication error. Please try again."
)

// Entry is one reported failure.
type Entry struct {
	Context string
	Err     error
}

// Reporter logs failures with their context label and keeps the most
// recent ones for display in diagnostics views.
type Reporter struct {
	mu      sync.Mutex
	recent  []Entry
	maxKeep int
}

// New returns a reporter that keeps the last maxKeep entries.
func New(maxKeep int) *Reporter {
	if maxKeep < 1 {
		maxKeep = 1
	}
	return &Reporter{maxKeep: maxKeep}
}

// Report records err under the given context label.
func (r *Reporter) Report(err error, where string) {
	if err == nil {
		return
	}
	logging.Error("Error occurred",
		zap.String("context", where),
		zap.String("error_type", fmt.Sprintf("%T", err)),
		zap.Error(err),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = append(r.recent, Entry{Context: where, Err: err})
	if len(r.recent) > r.maxKeep {
		r.recent = r.recent[len(r.recent)-r.maxKeep:]
	}
}

// Recent returns the retained entries, oldest first.
func (r *Reporter) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.recent...)
}

type statusCoder interface {
	StatusCode() int
}

type coder interface {
	Code() string
}

type networker interface {
	Network() bool
}

// UserMessage maps err to one sentence per failure class. HTTP statuses,
// identity error codes and network failures are recognised anywhere in the
// wrap chain; everything else gets MsgGeneric.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return httpMessage(sc.StatusCode())
	}

	var c coder
	if errors.As(err, &c) {
		return codeMessage(c.Code())
	}

	var nw networker
	if errors.As(err, &nw) && nw.Network() {
		return MsgNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return MsgNetwork
	}

	return MsgGeneric
}

func httpMessage(status int) string {
	switch status {
	case 400:
		return MsgBadRequest
	case 401, 403:
		return MsgUnauthorized
	case 404:
		return MsgNotFound
	case 422, 429:
		return MsgTooManyRequests
	case 500, 502, 503, 504:
		return MsgServer
	default:
		return MsgGeneric
	}
}

func codeMessage(code string) string {
	switch code {
	case "auth/user-not-found", "auth/invalid-email", "auth/user-disabled":
		return MsgCredentials
	case "auth/invalid-link", "auth/invalid-credential":
		return MsgInvalidLink
	case "auth/session-expired":
		return MsgSessionExpired
	case "auth/requires-recent-login", "auth/not-signed-in":
		return MsgRecentLogin
	case "auth/network-request-failed":
		return MsgNetwork
	case "auth/too-many-requests":
		return MsgTooManyRequests
	default:
		return MsgAuthGeneric
	}
}
