package auth

// Error is an identity failure with a stable code. errreport maps codes to
// user-facing sentences.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the machine-readable code, e.g. "auth/session-expired".
func (e *Error) Code() string { return e.code }

var (
	// ErrSessionExpired means no pending sign-in is cached on this machine.
	ErrSessionExpired = &Error{"auth/session-expired", "Please request a new magic link. Your previous session has expired."}
	// ErrNotSignedIn means an operation needs a current user.
	ErrNotSignedIn = &Error{"auth/not-signed-in", "no user is signed in"}
	// ErrInvalidLink covers malformed, expired and mismatched sign-in links.
	ErrInvalidLink = &Error{"auth/invalid-link", "sign-in link is invalid or has expired"}
	// ErrInvalidEmail is returned for an unparseable address.
	ErrInvalidEmail = &Error{"auth/invalid-email", "email address is invalid"}
	// ErrInvalidSession is returned for a bad or expired session token.
	ErrInvalidSession = &Error{"auth/invalid-credential", "session token is invalid or has expired"}
)
