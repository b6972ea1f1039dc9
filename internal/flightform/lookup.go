package flightform

import (
	"strings"

	"github.com/muurk/skylog/internal/reference"
)

// Record is a reference entry that a lookup field can commit to.
type Record interface {
	Key() string
	Display() string
	Detail() string
	Matches(query string) bool
}

// Candidate is a dropdown row as presented to a renderer.
type Candidate struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// Filter returns the records matching query in reference order. Records for
// which exclude returns true are dropped. An empty query matches everything.
func Filter[T Record](query string, list []T, exclude func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, r := range list {
		if exclude != nil && exclude(r) {
			continue
		}
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}

// FilterAirports matches query against code, name and city. When exclude is
// non-nil, the airport with its code is never offered.
func FilterAirports(query string, list []reference.Airport, exclude *reference.Airport) []reference.Airport {
	var skip func(reference.Airport) bool
	if exclude != nil {
		code := exclude.Code
		skip = func(a reference.Airport) bool { return strings.EqualFold(a.Code, code) }
	}
	return Filter(query, list, skip)
}

// FilterAirlines matches query against code and name.
func FilterAirlines(query string, list []reference.Airline) []reference.Airline {
	return Filter(query, list, nil)
}

// Lookup is the state of one autocomplete field: the raw text, at most one
// committed record, the current candidates and whether the dropdown shows.
type Lookup[T Record] struct {
	Raw        string
	Selected   *T
	Candidates []T
	Open       bool

	blurGen uint64
}

// Committed reports whether a record has been picked.
func (l *Lookup[T]) Committed() bool {
	return l.Selected != nil
}

// Canonical returns the display string of the committed record.
func (l *Lookup[T]) Canonical() string {
	if l.Selected == nil {
		return ""
	}
	return (*l.Selected).Display()
}

// commit pins r as the selection and collapses the dropdown.
func (l *Lookup[T]) commit(r T) {
	l.Selected = &r
	l.Raw = r.Display()
	l.Candidates = nil
	l.Open = false
}

// clear drops the selection and restores the full list, closed.
func (l *Lookup[T]) clear(full []T) {
	l.Selected = nil
	l.Raw = ""
	l.Candidates = append([]T(nil), full...)
	l.Open = false
}

// edit applies a keystroke and reports whether it changed free text. A
// committed field keeps its canonical string whatever was typed.
func (l *Lookup[T]) edit(value string) bool {
	if l.Selected != nil {
		l.Raw = l.Canonical()
		return false
	}
	l.Raw = value
	return true
}

// match returns the record whose canonical string or name equals the raw
// input, ignoring case.
func (l *Lookup[T]) match(list []T, names func(T) []string) (T, bool) {
	if l.Selected != nil {
		return *l.Selected, true
	}
	var zero T
	raw := strings.TrimSpace(l.Raw)
	if raw == "" {
		return zero, false
	}
	for _, r := range list {
		for _, n := range names(r) {
			if strings.EqualFold(raw, n) {
				return r, true
			}
		}
	}
	return zero, false
}

// candidates renders the current candidate list.
func (l *Lookup[T]) candidates() []Candidate {
	out := make([]Candidate, len(l.Candidates))
	for i, r := range l.Candidates {
		out[i] = Candidate{Key: r.Key(), Label: r.Display(), Detail: r.Detail()}
	}
	return out
}

func airportNames(a reference.Airport) []string {
	return []string{a.Display(), a.Name}
}

func airlineNames(a reference.Airline) []string {
	return []string{a.Name, a.Code}
}
