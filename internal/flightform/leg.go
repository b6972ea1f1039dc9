package flightform

import (
	"strings"
	"time"

	"github.com/muurk/skylog/internal/flightapi"
	"github.com/muurk/skylog/internal/reference"
)

// ReturnSuffix is appended to the comments of a return leg.
const ReturnSuffix = " (Return flight)"

// Direction tells the outbound leg from the return leg.
type Direction int

const (
	Outbound Direction = iota
	Return
)

func (d Direction) String() string {
	if d == Return {
		return "return"
	}
	return "outbound"
}

// Leg is one directional flight record produced by a submission.
type Leg struct {
	Direction    Direction
	From         string // canonical "<code> - <city>"
	To           string
	FromCode     string
	ToCode       string
	Date         time.Time
	Airline      string
	FlightNumber string
	ArrivalTime  string // HH:MM, empty if not given
	Guests       int
	Candidate    string
	Comments     string
}

// Payload converts the leg into the endpoint's JSON payload.
func (l Leg) Payload() flightapi.FlightInfo {
	return flightapi.FlightInfo{
		Airline:      l.Airline,
		ArrivalDate:  l.Date.Format(DateLayout),
		ArrivalTime:  l.ArrivalTime,
		FlightNumber: l.FlightNumber,
		NumOfGuests:  l.Guests,
		Comments:     l.Comments,
	}
}

// Legs builds the outbound leg and, on a round trip, the return leg with
// the airports swapped. It is meaningful once the form has entered
// Submitting.
func (f *Form) Legs() []Leg {
	from, fromCode := f.airportLabel(DepartureAirport)
	to, toCode := f.airportLabel(ArrivalAirport)
	airline := f.airlineName()
	candidate := strings.TrimSpace(f.candidateName)

	legs := []Leg{{
		Direction:    Outbound,
		From:         from,
		To:           to,
		FromCode:     fromCode,
		ToCode:       toCode,
		Date:         f.flightDate,
		Airline:      airline,
		FlightNumber: normalizeFlightNumber(f.flightNumber),
		ArrivalTime:  clockValue(f.arrivalTime),
		Guests:       f.guests,
		Candidate:    candidate,
		Comments:     f.comments,
	}}

	if f.roundTrip {
		legs = append(legs, Leg{
			Direction:    Return,
			From:         to,
			To:           from,
			FromCode:     toCode,
			ToCode:       fromCode,
			Date:         f.returnDate,
			Airline:      airline,
			FlightNumber: normalizeFlightNumber(f.returnFlightNumber),
			ArrivalTime:  clockValue(f.returnArrivalTime),
			Guests:       f.returnGuests,
			Candidate:    candidate,
			Comments:     f.returnComments + ReturnSuffix,
		})
	}
	return legs
}

// airportLabel returns the canonical string and code of an airport field.
func (f *Form) airportLabel(id FieldID) (string, string) {
	l := f.airport(id)
	if a, ok := l.match(f.catalog.Airports(), airportNames); ok {
		return a.Display(), a.Code
	}
	return strings.TrimSpace(l.Raw), f.airportCode(id)
}

func (f *Form) airlineName() string {
	if a, ok := f.airline.match(f.catalog.Airlines(), airlineNames); ok {
		return a.Name
	}
	return strings.TrimSpace(f.airline.Raw)
}

func normalizeFlightNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func clockValue(raw string) string {
	c, err := ParseClock(raw)
	if err != nil {
		return ""
	}
	return c.String()
}

var _ Record = reference.Airport{}
var _ Record = reference.Airline{}
