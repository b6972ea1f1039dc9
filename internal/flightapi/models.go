package flightapi

import (
	"fmt"
	"strings"
	"time"
)

// FlightInfo is the JSON payload accepted by the flight-info endpoint, one
// per leg.
type FlightInfo struct {
	Airline      string `json:"airline"`
	ArrivalDate  string `json:"arrivalDate"`  // ISO date, YYYY-MM-DD
	ArrivalTime  string `json:"arrivalTime"`  // 24-hour HH:MM
	FlightNumber string `json:"flightNumber"` // e.g. AA123
	NumOfGuests  int    `json:"numOfGuests"`
	Comments     string `json:"comments"`
}

// Validate checks the payload before it leaves the process.
// Returns a slice of errors (empty if valid).
func (fi *FlightInfo) Validate() []error {
	var errs []error

	if strings.TrimSpace(fi.Airline) == "" {
		errs = append(errs, NewValidationError("airline is required"))
	}
	if _, err := time.Parse("2006-01-02", fi.ArrivalDate); err != nil {
		errs = append(errs, fmt.Errorf("arrivalDate: %w",
			NewValidationError(fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", fi.ArrivalDate))))
	}
	if fi.ArrivalTime != "" {
		if _, err := time.Parse("15:04", fi.ArrivalTime); err != nil {
			errs = append(errs, fmt.Errorf("arrivalTime: %w",
				NewValidationError(fmt.Sprintf("invalid time %q (expected HH:MM)", fi.ArrivalTime))))
		}
	}
	if strings.TrimSpace(fi.FlightNumber) == "" {
		errs = append(errs, NewValidationError("flightNumber is required"))
	}
	if fi.NumOfGuests < 1 {
		errs = append(errs, NewValidationError(fmt.Sprintf("numOfGuests must be at least 1, got %d", fi.NumOfGuests)))
	}

	return errs
}

// FormatValidationErrors joins validation errors into one message.
func FormatValidationErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
