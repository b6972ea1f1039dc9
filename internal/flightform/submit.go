package flightform

import (
	"context"
	"fmt"

	"github.com/muurk/skylog/internal/flightapi"
	"github.com/muurk/skylog/internal/logging"
)

// Publisher forwards one leg to the external flight-info endpoint.
// *flightapi.Client satisfies it.
type Publisher interface {
	SubmitFlightInfo(ctx context.Context, info flightapi.FlightInfo, candidate string) error
}

// Recorder persists one leg and returns the new record's id.
type Recorder interface {
	RecordLeg(ctx context.Context, leg Leg) (string, error)
}

// Reporter receives failures for diagnostics. Nothing it receives is shown
// to the user.
type Reporter interface {
	Report(err error, where string)
}

// GenericFailure is shown when no message mapper is configured.
const GenericFailure = "An error occurred. Please try again."

// Stage names the step of a leg that failed.
type Stage string

const (
	StagePublish Stage = "publish"
	StageRecord  Stage = "record"
)

// LegError wraps the failure of one leg.
type LegError struct {
	Direction Direction
	Stage     Stage
	Err       error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("%s leg %s: %v", e.Direction, e.Stage, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

// Submitter sends legs strictly in order: for each leg the endpoint call
// completes before the store write, and a leg starts only after the
// previous one fully succeeded.
type Submitter struct {
	Publisher Publisher
	Recorder  Recorder
	Reporter  Reporter
	// Message maps a failure to a user-safe sentence.
	Message func(error) string
}

// Receipt lists the record ids written, in leg order.
type Receipt struct {
	RecordIDs []string
}

// Submit runs every leg. The first failure stops the sequence, is reported,
// and is returned as a *LegError.
func (s *Submitter) Submit(ctx context.Context, legs []Leg) (Receipt, error) {
	var receipt Receipt
	for _, leg := range legs {
		if err := s.Publisher.SubmitFlightInfo(ctx, leg.Payload(), leg.Candidate); err != nil {
			return receipt, s.fail(leg, StagePublish, err)
		}
		id, err := s.Recorder.RecordLeg(ctx, leg)
		if err != nil {
			return receipt, s.fail(leg, StageRecord, err)
		}
		receipt.RecordIDs = append(receipt.RecordIDs, id)
		logging.LogLegSubmitted(leg.Direction.String(), leg.FromCode, leg.ToCode, leg.FlightNumber, id)
	}
	return receipt, nil
}

func (s *Submitter) fail(leg Leg, stage Stage, err error) error {
	legErr := &LegError{Direction: leg.Direction, Stage: stage, Err: err}
	if s.Reporter != nil {
		s.Reporter.Report(legErr, "flightform.Submitter.Submit")
	}
	return legErr
}

// UserMessage maps a submission failure to the sentence shown in the form.
func (s *Submitter) UserMessage(err error) string {
	if s.Message == nil {
		return GenericFailure
	}
	return s.Message(err)
}
