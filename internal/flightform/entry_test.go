package flightform

import "testing"

func TestEntry_FillsValidRoundTrip(t *testing.T) {
	f := newTestForm(t)
	e := Entry{
		DepartureAirport:   "LAX",
		ArrivalAirport:     "SFO - San Francisco",
		Airline:            "AA",
		FlightDate:         "2024-06-10",
		FlightNumber:       "aa123",
		ArrivalTime:        "2:30 PM",
		NumberOfGuests:     3,
		CandidateName:      "Ada Lovelace",
		RoundTrip:          true,
		ReturnDate:         "2024-06-14",
		ReturnFlightNumber: "AA456",
		ReturnArrivalTime:  "09:15",
	}
	for _, ev := range e.Events(f.catalog) {
		f.Dispatch(ev)
	}

	if !f.Valid() {
		t.Fatalf("form should be valid, problems: %v", f.Problems())
	}
	legs := f.Legs()
	if len(legs) != 2 {
		t.Fatalf("Legs() = %d, want 2", len(legs))
	}
	out, ret := legs[0], legs[1]
	if out.FromCode != "LAX" || out.ToCode != "SFO" || out.ArrivalTime != "14:30" || out.Guests != 3 {
		t.Errorf("outbound = %+v", out)
	}
	if out.FlightNumber != "AA123" || out.Airline != "American Airlines" {
		t.Errorf("outbound flight = %q %q", out.FlightNumber, out.Airline)
	}
	if ret.FromCode != "SFO" || ret.ToCode != "LAX" || ret.Guests != 3 || ret.Comments != ReturnSuffix {
		t.Errorf("return = %+v", ret)
	}
}

func TestEntry_IgnoresReturnFieldsOneWay(t *testing.T) {
	e := Entry{DepartureAirport: "LAX", ReturnDate: "2024-06-14", ReturnFlightNumber: "AA1"}
	for _, ev := range e.Events(newTestForm(t).catalog) {
		switch v := ev.(type) {
		case Input:
			if v.Field.IsReturn() {
				t.Errorf("one-way entry produced %v", v)
			}
		case ToggleRoundTrip:
			t.Error("one-way entry toggled round trip")
		}
	}
}

func TestEntry_UnknownCodeLeftAsText(t *testing.T) {
	f := newTestForm(t)
	for _, ev := range (Entry{DepartureAirport: "ZZZ"}).Events(f.catalog) {
		if _, ok := ev.(Commit); ok {
			t.Error("unknown airport code should not be committed")
		}
		f.Dispatch(ev)
	}
	if f.Committed(DepartureAirport) {
		t.Error("DepartureAirport committed for unknown code")
	}
	if f.Status(DepartureAirport).Valid {
		t.Error("unknown airport should be invalid")
	}
}

func TestEntry_OutOfRangeDates(t *testing.T) {
	f := newTestForm(t)
	e := Entry{
		DepartureAirport:   "LAX",
		ArrivalAirport:     "SFO",
		Airline:            "AA",
		FlightDate:         "2023-01-01",
		FlightNumber:       "AA123",
		ArrivalTime:        "14:30",
		CandidateName:      "Ada Lovelace",
		RoundTrip:          true,
		ReturnDate:         "2026-01-01",
		ReturnFlightNumber: "AA456",
		ReturnArrivalTime:  "09:15",
	}
	for _, ev := range e.Events(f.catalog) {
		f.Dispatch(ev)
	}

	got := f.Problems()
	want := []string{"flightDate: out of range", "returnDate: out of range"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Problems() = %v, want %v", got, want)
	}
}
