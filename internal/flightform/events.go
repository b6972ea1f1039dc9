package flightform

import "time"

// Event is an input to Form.Dispatch.
type Event interface {
	event()
}

// Input replaces a field's raw text, as typed.
type Input struct {
	Field FieldID
	Value string
}

// Focus marks a field as focused.
type Focus struct {
	Field FieldID
}

// Blur marks a field as no longer focused. Closing its dropdown is deferred.
type Blur struct {
	Field FieldID
}

// Commit picks the record with Key from a lookup field's reference list.
type Commit struct {
	Field FieldID
	Key   string
}

// Clear empties a field. Lookup fields also release their selection.
type Clear struct {
	Field FieldID
}

// PickDate sets FlightDate or ReturnDate. Disabled days are ignored.
type PickDate struct {
	Field FieldID
	Day   time.Time
}

// PickTime sets ArrivalTime or ReturnArrivalTime.
type PickTime struct {
	Field FieldID
	Time  ClockTime
}

// IncrementGuests adds one guest.
type IncrementGuests struct{}

// DecrementGuests removes one guest, never going below one.
type DecrementGuests struct{}

// ToggleRoundTrip enables or disables the return leg.
type ToggleRoundTrip struct {
	On bool
}

// PrefillCandidate sets the candidate name if it is still empty.
type PrefillCandidate struct {
	Name string
}

// Submit asks for submission. The form moves to Submitting only if valid.
type Submit struct{}

// SubmitSucceeded reports that every leg was published and recorded.
type SubmitSucceeded struct{}

// SubmitFailed reports a failed submission with a user-safe message.
type SubmitFailed struct {
	Message string
}

// Reset returns every field to its initial value.
type Reset struct{}

type blurSettled struct {
	field FieldID
	gen   uint64
}

type resetSettled struct {
	gen uint64
}

func (Input) event()            {}
func (Focus) event()            {}
func (Blur) event()             {}
func (Commit) event()           {}
func (Clear) event()            {}
func (PickDate) event()         {}
func (PickTime) event()         {}
func (IncrementGuests) event()  {}
func (DecrementGuests) event()  {}
func (ToggleRoundTrip) event()  {}
func (PrefillCandidate) event() {}
func (Submit) event()           {}
func (SubmitSucceeded) event()  {}
func (SubmitFailed) event()     {}
func (Reset) event()            {}
func (blurSettled) event()      {}
func (resetSettled) event()     {}

// Deferred is an event the host must dispatch back after a delay, unless
// the form has been disposed in the meantime.
type Deferred struct {
	After time.Duration
	Event Event
}
