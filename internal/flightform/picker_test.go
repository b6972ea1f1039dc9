package flightform

import (
	"testing"
	"time"
)

func TestCalendarGrid(t *testing.T) {
	for year := 2020; year <= 2030; year++ {
		for month := time.January; month <= time.December; month++ {
			anchor := time.Date(year, month, 17, 15, 4, 5, 0, time.UTC)
			grid := CalendarGrid(anchor)

			if len(grid) != 42 {
				t.Fatalf("len(grid) = %d, want 42", len(grid))
			}
			if grid[0].Weekday() != time.Sunday {
				t.Errorf("%s: grid[0] = %s, want a Sunday", anchor.Format("2006-01"), grid[0].Weekday())
			}
			first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			if grid[0].After(first) {
				t.Errorf("%s: grid starts %s, after the 1st", anchor.Format("2006-01"), grid[0].Format(DateLayout))
			}
			last := first.AddDate(0, 1, -1)
			if grid[41].Before(last) {
				t.Errorf("%s: grid ends %s, before the last day", anchor.Format("2006-01"), grid[41].Format(DateLayout))
			}
			for i := 1; i < len(grid); i++ {
				if grid[i].Sub(grid[i-1]) != 24*time.Hour {
					t.Fatalf("%s: entries %d and %d are not consecutive days", anchor.Format("2006-01"), i-1, i)
				}
			}
		}
	}
}

func TestCalendarGrid_ZeroAnchor(t *testing.T) {
	grid := CalendarGrid(time.Time{})
	if grid[0].Weekday() != time.Sunday {
		t.Errorf("grid[0] = %s, want a Sunday", grid[0].Weekday())
	}
	now := time.Now()
	found := false
	for _, d := range grid {
		if SameDay(d, now) {
			found = true
		}
	}
	if !found {
		t.Error("zero anchor should produce the grid for the current month")
	}
}

func TestIsDateDisabled(t *testing.T) {
	min := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	max := time.Date(2024, 6, 20, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		day  time.Time
		min  time.Time
		max  time.Time
		want bool
	}{
		{"before min", time.Date(2024, 6, 9, 23, 0, 0, 0, time.UTC), min, max, true},
		{"same day as min, earlier hour", time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC), min, max, false},
		{"inside", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), min, max, false},
		{"same day as max, later hour", time.Date(2024, 6, 20, 23, 0, 0, 0, time.UTC), min, max, false},
		{"after max", time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), min, max, true},
		{"no bounds", time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, time.Time{}, false},
		{"only max", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, max, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDateDisabled(tt.day, tt.min, tt.max); got != tt.want {
				t.Errorf("IsDateDisabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdjustTime_Inverse(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += 5 {
			start := ClockTime{Hour: h, Minute: m}
			for _, unit := range []TimeUnit{Hours, Minutes} {
				for _, delta := range []int{1, MinuteStep, -MinuteStep, 25, 61} {
					got := AdjustTime(AdjustTime(start, unit, delta), unit, -delta)
					if got != start {
						t.Fatalf("AdjustTime round trip of %v by %d = %v", start, delta, got)
					}
				}
			}
		}
	}
}

func TestAdjustTime_Wrap(t *testing.T) {
	tests := []struct {
		in    ClockTime
		unit  TimeUnit
		delta int
		want  ClockTime
	}{
		{ClockTime{23, 45}, Hours, 1, ClockTime{0, 45}},
		{ClockTime{0, 0}, Hours, -1, ClockTime{23, 0}},
		{ClockTime{10, 45}, Minutes, MinuteStep, ClockTime{10, 0}},
		{ClockTime{10, 0}, Minutes, -MinuteStep, ClockTime{10, 45}},
	}
	for _, tt := range tests {
		if got := AdjustTime(tt.in, tt.unit, tt.delta); got != tt.want {
			t.Errorf("AdjustTime(%v, %v, %d) = %v, want %v", tt.in, tt.unit, tt.delta, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"14:30", ClockTime{14, 30}, false},
		{"09:05", ClockTime{9, 5}, false},
		{"3:15 pm", ClockTime{15, 15}, false},
		{"12:00 AM", ClockTime{0, 0}, false},
		{"12:00 PM", ClockTime{12, 0}, false},
		{"24:00", ClockTime{}, true},
		{"13:00 PM", ClockTime{}, true},
		{"noon", ClockTime{}, true},
		{"", ClockTime{}, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClockTimeFormat(t *testing.T) {
	c := ClockTime{Hour: 15, Minute: 5}
	if c.String() != "15:05" {
		t.Errorf("String() = %q, want 15:05", c.String())
	}
	if c.Format12() != "3:05 PM" {
		t.Errorf("Format12() = %q, want 3:05 PM", c.Format12())
	}
	if (ClockTime{0, 30}).Format12() != "12:30 AM" {
		t.Errorf("Format12() of 00:30 = %q", (ClockTime{0, 30}).Format12())
	}
}

func TestDatePicker_Navigation(t *testing.T) {
	now := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	p := NewDatePicker(time.Time{}, Day(now), Day(now.AddDate(1, 0, 0)), now)

	next := p.NextMonth()
	if next.Month.Month() != time.February {
		t.Errorf("NextMonth().Month = %s, want February", next.Month.Month())
	}
	if next.Cursor.Day() != 29 {
		t.Errorf("NextMonth().Cursor = %s, want clamped to Feb 29", next.Cursor.Format(DateLayout))
	}

	back := next.PrevMonth()
	if back.Cursor.Day() != 29 || back.Cursor.Month() != time.January {
		t.Errorf("PrevMonth().Cursor = %s, want 2024-01-29", back.Cursor.Format(DateLayout))
	}
	if _, ok := back.Selection(); ok {
		t.Error("Jan 29 is before min and should not be selectable")
	}
	if today, ok := back.Today(now); !ok || !SameDay(today.Cursor, now) {
		t.Errorf("Today() = %s, %v", today.Cursor.Format(DateLayout), ok)
	}

	before := p.Move(-1)
	if _, ok := before.Selection(); ok {
		t.Error("a day before min should not be selectable")
	}
	if before.Month.Month() != time.January {
		t.Errorf("Move(-1).Month = %s, want January", before.Month.Month())
	}

	after := p.Move(1)
	if after.Month.Month() != time.February {
		t.Errorf("Move(1).Month = %s, want February", after.Month.Month())
	}
}

func TestTimePicker_OpensOnSelectionOrNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 13, 52, 0, 0, time.UTC)

	if got := NewTimePicker(ClockTime{Hour: 8, Minute: 5}, true, now).Selection(); got != (ClockTime{Hour: 8, Minute: 5}) {
		t.Errorf("with a selection: %v, want 08:05", got)
	}
	if got := NewTimePicker(ClockTime{}, false, now).Selection(); got != (ClockTime{Hour: 13, Minute: 45}) {
		t.Errorf("without a selection: %v, want 13:45", got)
	}
}

func TestTimePicker_Adjust(t *testing.T) {
	p := TimePicker{Current: ClockTime{Hour: 23, Minute: 45}}

	if got := p.AddSteps(1).Selection(); got != (ClockTime{Hour: 23, Minute: 0}) {
		t.Errorf("AddSteps(1) = %v, want 23:00 (no carry into the hour)", got)
	}
	if got := p.AddHours(1).Selection(); got != (ClockTime{Hour: 0, Minute: 45}) {
		t.Errorf("AddHours(1) = %v, want 00:45", got)
	}
	if got := p.AddSteps(-2).AddHours(-24).Selection(); got != (ClockTime{Hour: 23, Minute: 15}) {
		t.Errorf("AddSteps(-2).AddHours(-24) = %v, want 23:15", got)
	}
}

func TestTimePicker_ToggleMeridiem(t *testing.T) {
	p := TimePicker{Current: ClockTime{Hour: 9, Minute: 30}}
	if p.PM() {
		t.Fatal("09:30 reported as PM")
	}
	p = p.ToggleMeridiem()
	if !p.PM() || p.Selection().Format12() != "9:30 PM" {
		t.Errorf("toggled = %s", p.Selection().Format12())
	}
	if got := p.ToggleMeridiem().Selection(); got != (ClockTime{Hour: 9, Minute: 30}) {
		t.Errorf("toggled twice = %v, want 09:30", got)
	}

	midnight := TimePicker{Current: ClockTime{Hour: 0, Minute: 0}}.ToggleMeridiem()
	if midnight.Selection().Format12() != "12:00 PM" {
		t.Errorf("12:00 AM toggled = %s, want 12:00 PM", midnight.Selection().Format12())
	}
}

func TestTimePicker_QuickAndNow(t *testing.T) {
	p := TimePicker{Current: ClockTime{Hour: 1, Minute: 15}}

	for i, want := range []string{"9:00 AM", "12:00 PM", "3:00 PM", "6:00 PM"} {
		q, ok := p.Quick(i)
		if !ok || q.Selection().Format12() != want {
			t.Errorf("Quick(%d) = %s, %v; want %s", i, q.Selection().Format12(), ok, want)
		}
	}
	if q, ok := p.Quick(len(QuickTimes)); ok || q != p {
		t.Error("an out of range shortcut should leave the picker unchanged")
	}

	now := time.Date(2024, 6, 1, 16, 7, 0, 0, time.UTC)
	if got := p.Now(now).Selection(); got != (ClockTime{Hour: 16, Minute: 7}) {
		t.Errorf("Now() = %v, want 16:07", got)
	}
}
