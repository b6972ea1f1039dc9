package flightform

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldID names a validated form field.
type FieldID int

const (
	DepartureAirport FieldID = iota
	ArrivalAirport
	Airline
	FlightDate
	FlightNumber
	ArrivalTime
	NumberOfGuests
	CandidateName
	Comments
	ReturnDate
	ReturnFlightNumber
	ReturnArrivalTime
	ReturnComments

	fieldCount
)

var fieldNames = [fieldCount]string{
	DepartureAirport:   "departureAirport",
	ArrivalAirport:     "arrivalAirport",
	Airline:            "airline",
	FlightDate:         "flightDate",
	FlightNumber:       "flightNumber",
	ArrivalTime:        "arrivalTime",
	NumberOfGuests:     "numberOfGuests",
	CandidateName:      "candidateName",
	Comments:           "comments",
	ReturnDate:         "returnDate",
	ReturnFlightNumber: "returnFlightNumber",
	ReturnArrivalTime:  "returnArrivalTime",
	ReturnComments:     "returnComments",
}

// Fields lists every field in display order.
func Fields() []FieldID {
	out := make([]FieldID, fieldCount)
	for i := range out {
		out[i] = FieldID(i)
	}
	return out
}

func (id FieldID) String() string {
	if id < 0 || id >= fieldCount {
		return fmt.Sprintf("field(%d)", int(id))
	}
	return fieldNames[id]
}

// ParseFieldID resolves a field by its String() name.
func ParseFieldID(name string) (FieldID, error) {
	for i, n := range fieldNames {
		if n == name {
			return FieldID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// IsReturn reports whether the field belongs to the return leg.
func (id FieldID) IsReturn() bool {
	switch id {
	case ReturnDate, ReturnFlightNumber, ReturnArrivalTime, ReturnComments:
		return true
	}
	return false
}

// IsLookup reports whether the field is an autocomplete field.
func (id FieldID) IsLookup() bool {
	return id == DepartureAirport || id == ArrivalAirport || id == Airline
}

// Optional reports whether the field may be left empty.
func (id FieldID) Optional() bool {
	return id == Comments || id == ReturnComments
}

// FieldStatus is the derived validity of one field.
// Valid is never true while Empty is true, except for optional fields.
type FieldStatus struct {
	Empty bool `json:"empty"`
	Valid bool `json:"valid"`
}

var (
	statusActive   = FieldStatus{Empty: false, Valid: true}
	statusRequired = FieldStatus{Empty: true, Valid: false}
)

// flightNumberPattern is one to three letters followed by one to four digits.
var flightNumberPattern = regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]{1,4}$`)

// ValidFlightNumber reports whether s is an airline designator followed by a
// flight number, 3 to 6 characters in total.
func ValidFlightNumber(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 || len(s) > 6 {
		return false
	}
	return flightNumberPattern.MatchString(s)
}

// ValidClock reports whether s parses as a time of day.
func ValidClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

func textStatus(raw string, valid func(string) bool) FieldStatus {
	if strings.TrimSpace(raw) == "" {
		return statusRequired
	}
	return FieldStatus{Valid: valid(raw)}
}

// Reasons reported by Problems for a field that holds a value.
const (
	ProblemInvalid    = "invalid"
	ProblemOutOfRange = "out of range"
)

func always(string) bool { return true }

// Status derives (Empty, Valid) for a field from the current form state.
// Return-leg fields report active and valid while round trip is off.
func (f *Form) Status(id FieldID) FieldStatus {
	if id.IsReturn() && !f.roundTrip {
		return statusActive
	}

	switch id {
	case DepartureAirport, ArrivalAirport:
		l := f.airport(id)
		if strings.TrimSpace(l.Raw) == "" {
			return statusRequired
		}
		_, ok := l.match(f.catalog.Airports(), airportNames)
		return FieldStatus{Valid: ok}
	case Airline:
		if strings.TrimSpace(f.airline.Raw) == "" {
			return statusRequired
		}
		_, ok := f.airline.match(f.catalog.Airlines(), airlineNames)
		return FieldStatus{Valid: ok}
	case FlightNumber:
		return textStatus(f.flightNumber, ValidFlightNumber)
	case ReturnFlightNumber:
		return textStatus(f.returnFlightNumber, ValidFlightNumber)
	case ArrivalTime:
		return textStatus(f.arrivalTime, ValidClock)
	case ReturnArrivalTime:
		return textStatus(f.returnArrivalTime, ValidClock)
	case FlightDate:
		return f.dateStatus(id, f.flightDate)
	case ReturnDate:
		return f.dateStatus(id, f.returnDate)
	case NumberOfGuests:
		if f.guests <= 0 {
			return statusRequired
		}
		return statusActive
	case CandidateName:
		return textStatus(f.candidateName, always)
	case Comments, ReturnComments:
		return statusActive
	}
	return statusRequired
}

// dateStatus reports a refused date as given but invalid, so it is not
// mistaken for a field the user left blank.
func (f *Form) dateStatus(id FieldID, day time.Time) FieldStatus {
	switch {
	case !day.IsZero():
		return statusActive
	case f.dateProblems[id] != "":
		return FieldStatus{}
	}
	return statusRequired
}

// DateProblem returns why the last date given to id was refused, or "".
func (f *Form) DateProblem(id FieldID) string {
	return f.dateProblems[id]
}

// ShowError reports whether a renderer should flag the field. Lookup fields
// are flagged after they lose focus with non-matching text; every invalid
// field is flagged once a submit has been attempted.
func (f *Form) ShowError(id FieldID) bool {
	st := f.Status(id)
	if st.Valid {
		return false
	}
	if f.hasAttemptedSubmit {
		return true
	}
	return f.touched[id] && !st.Empty
}

// ReturnDateValid reports whether the return day is strictly after the
// flight day. It holds trivially when round trip is off or either date is
// unset.
func (f *Form) ReturnDateValid() bool {
	if !f.roundTrip || f.flightDate.IsZero() || f.returnDate.IsZero() {
		return true
	}
	return dayBefore(f.flightDate, f.returnDate)
}

// ReturnDateError returns the cross-field message for an out-of-order
// return date, or "".
func (f *Form) ReturnDateError() string {
	if f.ReturnDateValid() {
		return ""
	}
	return ErrReturnBeforeDeparture
}

// airportCollision reports whether both airports resolve to the same code.
func (f *Form) airportCollision() bool {
	from := f.airportCode(DepartureAirport)
	to := f.airportCode(ArrivalAirport)
	return from != "" && strings.EqualFold(from, to)
}

// airportCode resolves an airport field to a code: the committed record, a
// record matched by its text, or the part before " - ".
func (f *Form) airportCode(id FieldID) string {
	l := f.airport(id)
	if a, ok := l.match(f.catalog.Airports(), airportNames); ok {
		return a.Code
	}
	raw := strings.TrimSpace(l.Raw)
	if raw == "" {
		return ""
	}
	code, _, _ := strings.Cut(raw, " - ")
	return strings.TrimSpace(code)
}

// Valid is the submit-eligibility predicate: every active field valid, the
// airports distinct and, on a round trip, the return day after the flight
// day.
func (f *Form) Valid() bool {
	for _, id := range Fields() {
		if !f.Status(id).Valid {
			return false
		}
	}
	if f.airportCollision() {
		return false
	}
	return f.ReturnDateValid()
}

// Problems lists the fields and cross-field rules currently blocking
// submission, in display order.
func (f *Form) Problems() []string {
	var out []string
	for _, id := range Fields() {
		st := f.Status(id)
		switch {
		case st.Valid:
		case st.Empty:
			out = append(out, id.String()+": required")
		case f.dateProblems[id] != "":
			out = append(out, id.String()+": "+f.dateProblems[id])
		default:
			out = append(out, id.String()+": "+ProblemInvalid)
		}
	}
	if f.airportCollision() {
		out = append(out, ErrSameAirports)
	}
	if msg := f.ReturnDateError(); msg != "" {
		out = append(out, msg)
	}
	return out
}
