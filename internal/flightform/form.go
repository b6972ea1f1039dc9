package flightform

import (
	"strconv"
	"strings"
	"time"

	"github.com/muurk/skylog/internal/reference"
)

const (
	// BlurCloseDelay lets a click on a candidate land before the dropdown
	// closes.
	BlurCloseDelay = 200 * time.Millisecond
	// ResetSettleDelay is how long dropdowns stay suppressed after a reset.
	ResetSettleDelay = 200 * time.Millisecond
	// BookingWindow is how far ahead a flight date may be picked.
	BookingWindow = 365 * 24 * time.Hour
)

// User-facing messages.
const (
	ErrSameAirports          = "Departure and arrival airports cannot be the same."
	ErrReturnBeforeDeparture = "Return date must be after departure date"
	MsgLogged                = "Flight logged successfully!"
	MsgRoundTripLogged       = "Roundtrip flight logged successfully!"
)

// Phase is the submission lifecycle state of a Form.
type Phase int

const (
	Editing Phase = iota
	Submitting
	// SuccessReset follows a successful submit until ResetSettleDelay has
	// passed. The form is already cleared and editable, and Submit is
	// accepted; only dropdowns stay suppressed.
	SuccessReset
)

// Editable reports whether inputs and Submit are accepted in p.
func (p Phase) Editable() bool {
	return p == Editing || p == SuccessReset
}

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case SuccessReset:
		return "success_reset"
	default:
		return "unknown"
	}
}

// Form is the aggregate state of one flight-logging session. It is mutated
// only through Dispatch and is not safe for concurrent use; Session wraps it
// for that.
type Form struct {
	catalog *reference.Catalog
	now     func() time.Time

	phase    Phase
	disposed bool

	departure Lookup[reference.Airport]
	arrival   Lookup[reference.Airport]
	airline   Lookup[reference.Airline]

	flightDate    time.Time
	flightNumber  string
	// dateProblems holds why the last date given to a field was refused.
	// A refused date leaves the field unset.
	dateProblems map[FieldID]string
	arrivalTime   string
	guests        int
	candidateName string
	comments      string

	roundTrip          bool
	returnDate         time.Time
	returnFlightNumber string
	returnArrivalTime  string
	returnComments     string
	returnGuests       int

	hasAttemptedSubmit bool
	touched            map[FieldID]bool
	focused            FieldID
	hasFocus           bool

	resetting bool
	resetGen  uint64

	banner  string // airport collision, set at submit
	notice  string // last success message
	failure string // last submission failure
}

// Option configures a Form.
type Option func(*Form)

// WithClock overrides the clock used for date bounds.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// New creates a form in its initial Editing state.
func New(catalog *reference.Catalog, opts ...Option) *Form {
	f := &Form{
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.clearFields()
	return f
}

// clearFields returns every field to its initial value.
func (f *Form) clearFields() {
	f.departure.clear(f.catalog.Airports())
	f.arrival.clear(f.catalog.Airports())
	f.airline.clear(f.catalog.Airlines())
	f.flightDate = time.Time{}
	f.dateProblems = make(map[FieldID]string)
	f.flightNumber = ""
	f.arrivalTime = ""
	f.guests = 1
	f.candidateName = ""
	f.comments = ""
	f.roundTrip = false
	f.returnDate = time.Time{}
	f.returnFlightNumber = ""
	f.returnArrivalTime = ""
	f.returnComments = ""
	f.returnGuests = 1
	f.hasAttemptedSubmit = false
	f.touched = make(map[FieldID]bool)
	f.banner = ""
}

// Dispose tears the form down. Every later event, including deferred ones
// already scheduled, is ignored.
func (f *Form) Dispose() {
	f.disposed = true
}

// Disposed reports whether Dispose was called.
func (f *Form) Disposed() bool {
	return f.disposed
}

// Dispatch applies ev and returns the events the host must schedule.
func (f *Form) Dispatch(ev Event) []Deferred {
	if f.disposed {
		return nil
	}

	switch e := ev.(type) {
	case Submit:
		return f.submit()
	case SubmitSucceeded:
		return f.succeed()
	case SubmitFailed:
		if f.phase == Submitting {
			f.phase = Editing
			f.failure = e.Message
		}
		return nil
	case resetSettled:
		if e.gen == f.resetGen && f.resetting {
			f.resetting = false
			if f.phase == SuccessReset {
				f.phase = Editing
			}
		}
		return nil
	case blurSettled:
		f.settleBlur(e)
		return nil
	}

	// Inputs are locked while legs are in flight.
	if f.phase == Submitting {
		return nil
	}

	switch e := ev.(type) {
	case Input:
		f.input(e.Field, e.Value)
	case Focus:
		f.focus(e.Field)
	case Blur:
		return f.blur(e.Field)
	case Commit:
		f.commit(e.Field, e.Key)
	case Clear:
		f.clear(e.Field)
	case PickDate:
		f.pickDate(e.Field, e.Day)
	case PickTime:
		f.pickTime(e.Field, e.Time)
	case IncrementGuests:
		f.setGuests(f.guests + 1)
	case DecrementGuests:
		if f.guests > 1 {
			f.setGuests(f.guests - 1)
		}
	case ToggleRoundTrip:
		f.toggleRoundTrip(e.On)
	case PrefillCandidate:
		if strings.TrimSpace(f.candidateName) == "" {
			f.candidateName = strings.TrimSpace(e.Name)
		}
	case Reset:
		return f.reset()
	}
	return nil
}

func (f *Form) airport(id FieldID) *Lookup[reference.Airport] {
	if id == ArrivalAirport {
		return &f.arrival
	}
	return &f.departure
}

func (f *Form) opposite(id FieldID) FieldID {
	if id == ArrivalAirport {
		return DepartureAirport
	}
	return ArrivalAirport
}

// refilter recomputes a lookup field's candidates from its raw text. Airport
// fields never offer the airport committed in the opposite field.
func (f *Form) refilter(id FieldID, open bool) {
	switch id {
	case DepartureAirport, ArrivalAirport:
		l := f.airport(id)
		l.Candidates = FilterAirports(l.Raw, f.catalog.Airports(), f.airport(f.opposite(id)).Selected)
		if open {
			l.Open = true
		}
	case Airline:
		f.airline.Candidates = FilterAirlines(f.airline.Raw, f.catalog.Airlines())
		if open {
			f.airline.Open = true
		}
	}
}

func (f *Form) input(id FieldID, value string) {
	switch id {
	case DepartureAirport, ArrivalAirport:
		if f.airport(id).edit(value) {
			f.refilter(id, true)
		}
	case Airline:
		if f.airline.edit(value) {
			f.refilter(id, true)
		}
	case FlightNumber:
		f.flightNumber = value
	case ReturnFlightNumber:
		f.returnFlightNumber = value
	case ArrivalTime:
		f.arrivalTime = value
	case ReturnArrivalTime:
		f.returnArrivalTime = value
	case CandidateName:
		f.candidateName = value
	case Comments:
		f.comments = value
	case ReturnComments:
		f.returnComments = value
	case NumberOfGuests:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			n = 0
		}
		f.setGuests(n)
	case FlightDate, ReturnDate:
		if strings.TrimSpace(value) == "" {
			f.clear(id)
			return
		}
		day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), f.now().Location())
		if err != nil {
			f.refuseDate(id, ProblemInvalid)
			return
		}
		f.pickDate(id, day)
	}
}

// lookupMeta exposes the parts of a lookup field that do not depend on its
// record type.
func (f *Form) lookupMeta(id FieldID) (committed bool, gen *uint64, open *bool) {
	if id == Airline {
		return f.airline.Committed(), &f.airline.blurGen, &f.airline.Open
	}
	l := f.airport(id)
	return l.Committed(), &l.blurGen, &l.Open
}

func (f *Form) focus(id FieldID) {
	f.focused = id
	f.hasFocus = true
	if !id.IsLookup() {
		return
	}

	committed, gen, open := f.lookupMeta(id)
	*gen++
	if f.resetting {
		return
	}
	if committed {
		*open = false
		return
	}
	f.refilter(id, true)
}

func (f *Form) blur(id FieldID) []Deferred {
	if f.hasFocus && f.focused == id {
		f.hasFocus = false
	}
	if !id.IsLookup() {
		f.touched[id] = true
		return nil
	}

	_, gen, _ := f.lookupMeta(id)
	*gen++
	return []Deferred{{After: BlurCloseDelay, Event: blurSettled{field: id, gen: *gen}}}
}

// settleBlur closes the dropdown and marks the field for validation display,
// unless the field was focused or blurred again since.
func (f *Form) settleBlur(e blurSettled) {
	if !e.field.IsLookup() {
		return
	}
	_, gen, open := f.lookupMeta(e.field)
	if *gen != e.gen {
		return
	}
	*open = false
	f.touched[e.field] = true
}

func (f *Form) commit(id FieldID, key string) {
	switch id {
	case DepartureAirport, ArrivalAirport:
		a, ok := f.catalog.AirportByCode(key)
		if !ok {
			return
		}
		f.airport(id).commit(a)
		f.banner = ""
		// The other side opens next unless it already holds a selection.
		other := f.opposite(id)
		f.refilter(other, !f.airport(other).Committed() && !f.resetting)
	case Airline:
		a, ok := f.catalog.AirlineByCode(key)
		if !ok {
			return
		}
		f.airline.commit(a)
	}
}

func (f *Form) clear(id FieldID) {
	switch id {
	case DepartureAirport, ArrivalAirport:
		f.airport(id).clear(f.catalog.Airports())
		f.refilter(f.opposite(id), false)
	case Airline:
		f.airline.clear(f.catalog.Airlines())
	case FlightDate:
		f.flightDate = time.Time{}
		delete(f.dateProblems, id)
	case ReturnDate:
		f.returnDate = time.Time{}
		delete(f.dateProblems, id)
	case FlightNumber, ReturnFlightNumber, ArrivalTime, ReturnArrivalTime,
		CandidateName, Comments, ReturnComments:
		f.input(id, "")
	case NumberOfGuests:
		f.setGuests(1)
	}
}

// Bounds returns the selectable range of a date field. The flight date runs
// from today to BookingWindow ahead; the return date starts at the flight
// date when one is set.
func (f *Form) Bounds(id FieldID) (min, max time.Time) {
	now := f.now()
	min = Day(now)
	max = Day(now.Add(BookingWindow))
	if id == ReturnDate && !f.flightDate.IsZero() {
		min = f.flightDate
	}
	return min, max
}

func (f *Form) pickDate(id FieldID, day time.Time) {
	if id != FlightDate && id != ReturnDate {
		return
	}
	if day.IsZero() {
		f.clear(id)
		return
	}
	min, max := f.Bounds(id)
	if IsDateDisabled(day, min, max) {
		f.refuseDate(id, ProblemOutOfRange)
		return
	}
	delete(f.dateProblems, id)
	if id == FlightDate {
		f.flightDate = Day(day)
	} else {
		f.returnDate = Day(day)
	}
}

// refuseDate unsets a date field and records why.
func (f *Form) refuseDate(id FieldID, problem string) {
	if id == FlightDate {
		f.flightDate = time.Time{}
	} else {
		f.returnDate = time.Time{}
	}
	f.dateProblems[id] = problem
}

func (f *Form) pickTime(id FieldID, t ClockTime) {
	if !t.Valid() {
		return
	}
	switch id {
	case ArrivalTime:
		f.arrivalTime = t.String()
	case ReturnArrivalTime:
		f.returnArrivalTime = t.String()
	}
}

// setGuests keeps the return leg's count equal to the departure count.
func (f *Form) setGuests(n int) {
	f.guests = n
	if f.roundTrip {
		f.returnGuests = n
	}
}

func (f *Form) toggleRoundTrip(on bool) {
	if on == f.roundTrip {
		return
	}
	f.roundTrip = on
	if !on {
		return
	}
	f.returnGuests = f.guests
	f.returnDate = time.Time{}
	delete(f.dateProblems, ReturnDate)
	f.returnFlightNumber = ""
	f.returnArrivalTime = ""
	f.returnComments = ""
	for _, id := range Fields() {
		if id.IsReturn() {
			delete(f.touched, id)
		}
	}
}

func (f *Form) submit() []Deferred {
	if !f.phase.Editable() {
		return nil
	}
	f.notice = ""
	f.failure = ""
	f.hasAttemptedSubmit = true
	for _, id := range Fields() {
		f.touched[id] = true
	}

	f.banner = ""
	if f.airportCollision() {
		f.banner = ErrSameAirports
	}
	if !f.Valid() {
		return nil
	}
	f.phase = Submitting
	return nil
}

func (f *Form) succeed() []Deferred {
	if f.phase != Submitting {
		return nil
	}
	notice := MsgLogged
	if f.roundTrip {
		notice = MsgRoundTripLogged
	}
	deferred := f.reset()
	f.phase = SuccessReset
	f.notice = notice
	return deferred
}

// reset clears every field and suppresses dropdowns until the deferred
// resetSettled arrives.
func (f *Form) reset() []Deferred {
	f.clearFields()
	f.failure = ""
	f.notice = ""
	f.resetting = true
	f.resetGen++
	return []Deferred{{After: ResetSettleDelay, Event: resetSettled{gen: f.resetGen}}}
}
