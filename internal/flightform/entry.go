package flightform

import (
	"strconv"
	"strings"

	"github.com/muurk/skylog/internal/reference"
)

// Entry is a complete set of field values supplied at once, as by the HTTP
// API or command-line flags. Airports and airlines may be given by code or
// by display text; dates are YYYY-MM-DD and times HH:MM or h:mm AM/PM.
type Entry struct {
	DepartureAirport   string `json:"departureAirport"`
	ArrivalAirport     string `json:"arrivalAirport"`
	Airline            string `json:"airline"`
	FlightDate         string `json:"flightDate"`
	FlightNumber       string `json:"flightNumber"`
	ArrivalTime        string `json:"arrivalTime"`
	NumberOfGuests     int    `json:"numberOfGuests"`
	CandidateName      string `json:"candidateName"`
	Comments           string `json:"comments"`
	RoundTrip          bool   `json:"roundTrip"`
	ReturnDate         string `json:"returnDate,omitempty"`
	ReturnFlightNumber string `json:"returnFlightNumber,omitempty"`
	ReturnArrivalTime  string `json:"returnArrivalTime,omitempty"`
	ReturnComments     string `json:"returnComments,omitempty"`
}

// Events translates the entry into the events a user filling the form
// would produce. Values that name a reference record by code are committed.
func (e Entry) Events(catalog *reference.Catalog) []Event {
	var evs []Event
	// Toggling clears the return fields, so it comes first.
	if e.RoundTrip {
		evs = append(evs, ToggleRoundTrip{On: true})
	}

	lookup := func(id FieldID, value string, known func(string) bool) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		evs = append(evs, Input{Field: id, Value: value})
		if known(value) {
			evs = append(evs, Commit{Field: id, Key: value})
		}
	}
	isAirport := func(code string) bool { _, ok := catalog.AirportByCode(code); return ok }
	isAirline := func(code string) bool { _, ok := catalog.AirlineByCode(code); return ok }

	lookup(DepartureAirport, e.DepartureAirport, isAirport)
	lookup(ArrivalAirport, e.ArrivalAirport, isAirport)
	lookup(Airline, e.Airline, isAirline)

	text := func(id FieldID, value string) {
		if value != "" {
			evs = append(evs, Input{Field: id, Value: value})
		}
	}
	text(FlightDate, e.FlightDate)
	text(FlightNumber, e.FlightNumber)
	text(ArrivalTime, e.ArrivalTime)
	if e.NumberOfGuests > 0 {
		evs = append(evs, Input{Field: NumberOfGuests, Value: strconv.Itoa(e.NumberOfGuests)})
	}
	text(CandidateName, e.CandidateName)
	text(Comments, e.Comments)

	if e.RoundTrip {
		text(ReturnDate, e.ReturnDate)
		text(ReturnFlightNumber, e.ReturnFlightNumber)
		text(ReturnArrivalTime, e.ReturnArrivalTime)
		text(ReturnComments, e.ReturnComments)
	}
	return evs
}
