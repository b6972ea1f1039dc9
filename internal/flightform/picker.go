package flightform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinuteStep is the minute increment used by the time picker.
const MinuteStep = 15

// GridSize is the number of days in a calendar grid (six weeks).
const GridSize = 42

const (
	// DateLayout is the ISO date layout used in payloads and documents.
	DateLayout = "2006-01-02"
	// DisplayDateLayout is the layout used when showing a picked date.
	DisplayDateLayout = "Jan 02, 2006"
)

// TimeUnit selects which part of a ClockTime AdjustTime changes.
type TimeUnit int

const (
	Hours TimeUnit = iota
	Minutes
)

// ClockTime is a time of day with minute resolution.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// QuickTimes are the picker shortcuts: 9:00 AM, 12:00 PM, 3:00 PM, 6:00 PM.
var QuickTimes = []ClockTime{{9, 0}, {12, 0}, {15, 0}, {18, 0}}

// Valid reports whether the time is a well-formed time of day.
func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// String returns the 24-hour "HH:MM" form sent to the submission endpoint.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Format12 returns the 12-hour display form, e.g. "3:15 PM".
func (c ClockTime) Format12() string {
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}

// ParseClock accepts "HH:MM" (24-hour) or "h:mm AM"/"h:mm PM".
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return ClockTime{}, fmt.Errorf("empty time")
	}

	meridiem := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return ClockTime{}, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid hour %q", hh)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid minute %q", mm)
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return ClockTime{}, fmt.Errorf("hour %d out of range for 12-hour time", hour)
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}

	c := ClockTime{Hour: hour, Minute: minute}
	if !c.Valid() {
		return ClockTime{}, fmt.Errorf("time %q out of range", s)
	}
	return c, nil
}

// AdjustTime adds delta to the selected unit with wraparound (hours mod 24,
// minutes mod 60). The other unit is preserved, so a carry out of the minutes
// never changes the hour.
func AdjustTime(t ClockTime, unit TimeUnit, delta int) ClockTime {
	switch unit {
	case Hours:
		t.Hour = wrap(t.Hour+delta, 24)
	case Minutes:
		t.Minute = wrap(t.Minute+delta, 60)
	}
	return t
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayBefore reports whether a is on an earlier calendar day than b.
func dayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// CalendarGrid returns the six-week grid for the month containing anchor.
// Entry 0 is the Sunday on or before the 1st of the month. A zero anchor is
// replaced by the current time.
func CalendarGrid(anchor time.Time) [GridSize]time.Time {
	if anchor.IsZero() {
		anchor = time.Now()
	}
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var grid [GridSize]time.Time
	for i := range grid {
		grid[i] = start.AddDate(0, 0, i)
	}
	return grid
}

// IsDateDisabled reports whether day falls outside [min, max] at day
// granularity. A zero min or max leaves that side unbounded.
func IsDateDisabled(day, min, max time.Time) bool {
	if !min.IsZero() && dayBefore(day, min) {
		return true
	}
	if !max.IsZero() && dayBefore(max, day) {
		return true
	}
	return false
}

// DatePicker is the navigation state of a calendar popup. It never holds a
// disabled day as its selection.
type DatePicker struct {
	Month  time.Time // first day of the displayed month
	Cursor time.Time // highlighted day
	Min    time.Time
	Max    time.Time
}

// NewDatePicker opens a picker on selected, or on now when nothing is
// selected yet.
func NewDatePicker(selected, min, max, now time.Time) DatePicker {
	cursor := selected
	if cursor.IsZero() {
		cursor = now
	}
	if cursor.IsZero() {
		cursor = time.Now()
	}
	cursor = Day(cursor)
	if !min.IsZero() && dayBefore(cursor, min) {
		cursor = Day(min)
	}
	return DatePicker{
		Month:  time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location()),
		Cursor: cursor,
		Min:    min,
		Max:    max,
	}
}

// Grid returns the calendar grid for the displayed month.
func (p DatePicker) Grid() [GridSize]time.Time {
	return CalendarGrid(p.Month)
}

// NextMonth moves the displayed month forward.
func (p DatePicker) NextMonth() DatePicker {
	return p.shiftMonth(1)
}

// PrevMonth moves the displayed month back.
func (p DatePicker) PrevMonth() DatePicker {
	return p.shiftMonth(-1)
}

// shiftMonth keeps the cursor's day of month, clamped to the new month.
func (p DatePicker) shiftMonth(n int) DatePicker {
	p.Month = p.Month.AddDate(0, n, 0)
	last := p.Month.AddDate(0, 1, -1).Day()
	day := p.Cursor.Day()
	if day > last {
		day = last
	}
	p.Cursor = time.Date(p.Month.Year(), p.Month.Month(), day, 0, 0, 0, 0, p.Month.Location())
	return p
}

// Move shifts the cursor by days, following it into adjacent months.
func (p DatePicker) Move(days int) DatePicker {
	p.Cursor = p.Cursor.AddDate(0, 0, days)
	if p.Cursor.Month() != p.Month.Month() || p.Cursor.Year() != p.Month.Year() {
		p.Month = time.Date(p.Cursor.Year(), p.Cursor.Month(), 1, 0, 0, 0, 0, p.Cursor.Location())
	}
	return p
}

// Disabled reports whether day cannot be selected.
func (p DatePicker) Disabled(day time.Time) bool {
	return IsDateDisabled(day, p.Min, p.Max)
}

// Selection returns the cursor day and whether it may be selected.
func (p DatePicker) Selection() (time.Time, bool) {
	return p.Cursor, !p.Disabled(p.Cursor)
}

// Today moves the cursor to now's day when that day is selectable.
func (p DatePicker) Today(now time.Time) (DatePicker, bool) {
	if p.Disabled(now) {
		return p, false
	}
	return NewDatePicker(now, p.Min, p.Max, now), true
}

// TimePicker is the working time of a time popup. Nothing reaches the form
// until the host dispatches PickTime with Selection.
type TimePicker struct {
	Current ClockTime
}

// NewTimePicker opens on selected when it is set, otherwise on now rounded
// down to the minute step.
func NewTimePicker(selected ClockTime, ok bool, now time.Time) TimePicker {
	if ok && selected.Valid() {
		return TimePicker{Current: selected}
	}
	if now.IsZero() {
		now = time.Now()
	}
	return TimePicker{Current: ClockTime{Hour: now.Hour(), Minute: now.Minute() / MinuteStep * MinuteStep}}
}

// AddHours moves the hour by n, wrapping at midnight.
func (p TimePicker) AddHours(n int) TimePicker {
	p.Current = AdjustTime(p.Current, Hours, n)
	return p
}

// AddSteps moves the minutes by n steps of MinuteStep. The hour is kept.
func (p TimePicker) AddSteps(n int) TimePicker {
	p.Current = AdjustTime(p.Current, Minutes, n*MinuteStep)
	return p
}

// ToggleMeridiem flips between AM and PM at the same clock reading.
func (p TimePicker) ToggleMeridiem() TimePicker {
	p.Current = AdjustTime(p.Current, Hours, 12)
	return p
}

// PM reports whether the working time is after noon.
func (p TimePicker) PM() bool {
	return p.Current.Hour >= 12
}

// Quick jumps to QuickTimes[i]. An index out of range leaves p as is.
func (p TimePicker) Quick(i int) (TimePicker, bool) {
	if i < 0 || i >= len(QuickTimes) {
		return p, false
	}
	p.Current = QuickTimes[i]
	return p, true
}

// Now jumps to the minute of now.
func (p TimePicker) Now(now time.Time) TimePicker {
	p.Current = ClockTime{Hour: now.Hour(), Minute: now.Minute()}
	return p
}

// Selection returns the time to dispatch on confirm.
func (p TimePicker) Selection() ClockTime {
	return p.Current
}
