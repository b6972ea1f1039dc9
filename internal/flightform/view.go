package flightform

import (
	"strconv"
	"time"
)

// Phase returns the current lifecycle phase.
func (f *Form) Phase() Phase { return f.phase }

// RoundTrip reports whether the return leg is enabled.
func (f *Form) RoundTrip() bool { return f.roundTrip }

// Guests returns the departure guest count.
func (f *Form) Guests() int { return f.guests }

// ReturnGuests returns the return leg's guest count, which mirrors Guests
// while round trip is on.
func (f *Form) ReturnGuests() int { return f.returnGuests }

// HasAttemptedSubmit reports whether Submit was dispatched since the last
// reset.
func (f *Form) HasAttemptedSubmit() bool { return f.hasAttemptedSubmit }

// Resetting reports whether the post-reset window is still open.
func (f *Form) Resetting() bool { return f.resetting }

// Banner returns the airport collision message set by the last submit.
func (f *Form) Banner() string { return f.banner }

// Notice returns the last success message.
func (f *Form) Notice() string { return f.notice }

// Failure returns the last user-safe submission failure message.
func (f *Form) Failure() string { return f.failure }

// Focused returns the focused field, if any.
func (f *Form) Focused() (FieldID, bool) { return f.focused, f.hasFocus }

// Date returns the picked day of a date field, or the zero time.
func (f *Form) Date(id FieldID) time.Time {
	switch id {
	case FlightDate:
		return f.flightDate
	case ReturnDate:
		return f.returnDate
	}
	return time.Time{}
}

// Value returns the text a renderer should show for a field.
func (f *Form) Value(id FieldID) string {
	switch id {
	case DepartureAirport, ArrivalAirport:
		return f.airport(id).Raw
	case Airline:
		return f.airline.Raw
	case FlightDate, ReturnDate:
		d := f.Date(id)
		if d.IsZero() {
			return ""
		}
		return d.Format(DisplayDateLayout)
	case FlightNumber:
		return f.flightNumber
	case ReturnFlightNumber:
		return f.returnFlightNumber
	case ArrivalTime:
		return displayClock(f.arrivalTime)
	case ReturnArrivalTime:
		return displayClock(f.returnArrivalTime)
	case NumberOfGuests:
		if f.guests <= 0 {
			return ""
		}
		return strconv.Itoa(f.guests)
	case CandidateName:
		return f.candidateName
	case Comments:
		return f.comments
	case ReturnComments:
		return f.returnComments
	}
	return ""
}

// Clock returns the parsed time of a time field.
func (f *Form) Clock(id FieldID) (ClockTime, bool) {
	raw := f.arrivalTime
	if id == ReturnArrivalTime {
		raw = f.returnArrivalTime
	} else if id != ArrivalTime {
		return ClockTime{}, false
	}
	c, err := ParseClock(raw)
	return c, err == nil
}

// displayClock shows parsed times in 12-hour form and leaves anything else
// as typed.
func displayClock(raw string) string {
	c, err := ParseClock(raw)
	if err != nil {
		return raw
	}
	return c.Format12()
}

// Committed reports whether a lookup field holds a selection.
func (f *Form) Committed(id FieldID) bool {
	if !id.IsLookup() {
		return false
	}
	committed, _, _ := f.lookupMeta(id)
	return committed
}

// DropdownOpen reports whether a lookup field's candidates are showing.
func (f *Form) DropdownOpen(id FieldID) bool {
	if !id.IsLookup() {
		return false
	}
	_, _, open := f.lookupMeta(id)
	return *open
}

// Candidates returns a lookup field's current candidates.
func (f *Form) Candidates(id FieldID) []Candidate {
	switch id {
	case DepartureAirport, ArrivalAirport:
		return f.airport(id).candidates()
	case Airline:
		return f.airline.candidates()
	}
	return nil
}

// FieldView is the rendered state of one field.
type FieldView struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	Empty     bool   `json:"empty"`
	Valid     bool   `json:"valid"`
	ShowError bool   `json:"show_error"`
}

// View is a serializable snapshot of the form.
type View struct {
	Phase           string      `json:"phase"`
	RoundTrip       bool        `json:"round_trip"`
	Valid           bool        `json:"valid"`
	Fields          []FieldView `json:"fields"`
	Banner          string      `json:"banner,omitempty"`
	ReturnDateError string      `json:"return_date_error,omitempty"`
	Notice          string      `json:"notice,omitempty"`
	Failure         string      `json:"failure,omitempty"`
}

// View snapshots the form.
func (f *Form) View() View {
	v := View{
		Phase:           f.phase.String(),
		RoundTrip:       f.roundTrip,
		Valid:           f.Valid(),
		Banner:          f.banner,
		ReturnDateError: f.ReturnDateError(),
		Notice:          f.notice,
		Failure:         f.failure,
	}
	for _, id := range Fields() {
		st := f.Status(id)
		v.Fields = append(v.Fields, FieldView{
			Field:     id.String(),
			Value:     f.Value(id),
			Empty:     st.Empty,
			Valid:     st.Valid,
			ShowError: f.ShowError(id),
		})
	}
	return v
}
