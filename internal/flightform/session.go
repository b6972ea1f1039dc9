package flightform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/muurk/skylog/internal/logging"
)

var (
	// ErrSubmitInFlight is returned by Session.Submit while an earlier
	// submission is still sending its legs.
	ErrSubmitInFlight = errors.New("flightform: a submission is already in flight")
	// ErrSessionClosed is returned by Session.Submit after Close.
	ErrSessionClosed = errors.New("flightform: session closed")
)

// InvalidFormError is returned by Session.Submit when the form did not pass
// validation. The form stays in Editing with its errors visible.
type InvalidFormError struct {
	Problems []string
}

func (e *InvalidFormError) Error() string {
	return "form is not valid: " + strings.Join(e.Problems, ", ")
}

// Session hosts a Form for callers that are not a UI event loop. It
// serializes events, runs deferred events on timers and drives submission.
type Session struct {
	mu        sync.Mutex
	form      *Form
	sched     *Scheduler
	submitter *Submitter
}

// NewSession wraps form. The session owns the form from here on.
func NewSession(form *Form, submitter *Submitter) *Session {
	s := &Session{form: form, submitter: submitter}
	s.sched = NewScheduler(s.Dispatch)
	return s
}

// Dispatch applies ev and schedules whatever it defers.
func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(ev)
}

func (s *Session) dispatchLocked(ev Event) {
	deferred := s.form.Dispatch(ev)
	logging.LogFormEvent(fmt.Sprintf("%T", ev), s.form.Phase().String(), s.form.Valid())
	if len(deferred) > 0 {
		s.sched.Schedule(deferred...)
	}
}

// View snapshots the form.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.View()
}

// Submit validates the form and, when it is valid, sends every leg. Events
// dispatched while the legs are in flight do not change field values, and a
// second Submit returns ErrSubmitInFlight without sending anything.
func (s *Session) Submit(ctx context.Context) (Receipt, error) {
	s.mu.Lock()
	switch {
	case s.form.Disposed():
		s.mu.Unlock()
		return Receipt{}, ErrSessionClosed
	case s.form.Phase() == Submitting:
		s.mu.Unlock()
		return Receipt{}, ErrSubmitInFlight
	}
	s.dispatchLocked(Submit{})
	if s.form.Phase() != Submitting {
		problems := s.form.Problems()
		s.mu.Unlock()
		return Receipt{}, &InvalidFormError{Problems: problems}
	}
	legs := s.form.Legs()
	s.mu.Unlock()

	receipt, err := s.submitter.Submit(ctx, legs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.dispatchLocked(SubmitFailed{Message: s.submitter.UserMessage(err)})
		return receipt, err
	}
	s.dispatchLocked(SubmitSucceeded{})
	return receipt, nil
}

// Close disposes the form and stops pending timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Dispose()
	s.sched.Close()
}
