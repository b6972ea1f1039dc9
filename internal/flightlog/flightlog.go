// Package flightlog persists submitted flight legs per user and serves
// them back as live lists.
package flightlog

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/store"
)

// Collection holds one document per recorded leg.
const Collection = "flights"

// Flight is one recorded leg as stored.
type Flight struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flightNumber"`
	ArrivalTime   string    `json:"arrivalTime"`
	NumOfGuests   int       `json:"numOfGuests"`
	CandidateName string    `json:"candidateName"`
	Comments      string    `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Identity supplies the signed-in user. *auth.Provider satisfies it.
type Identity interface {
	CurrentUser() (auth.User, bool)
}

// Service records legs and lists a user's flights.
type Service struct {
	store    *store.Store
	identity Identity
	now      func() time.Time
}

// NewService returns a Service over st. identity may be nil when every
// call names its user explicitly.
func NewService(st *store.Store, identity Identity) *Service {
	return &Service{store: st, identity: identity, now: time.Now}
}

func (s *Service) currentUID() (string, error) {
	if s.identity == nil {
		return "", auth.ErrNotSignedIn
	}
	u, ok := s.identity.CurrentUser()
	if !ok {
		return "", auth.ErrNotSignedIn
	}
	return u.UID, nil
}

// RecordLeg stores leg for the signed-in user.
func (s *Service) RecordLeg(ctx context.Context, leg flightform.Leg) (string, error) {
	uid, err := s.currentUID()
	if err != nil {
		return "", err
	}
	return s.RecordFor(ctx, uid, leg)
}

// RecordFor stores leg for uid.
func (s *Service) RecordFor(ctx context.Context, uid string, leg flightform.Leg) (string, error) {
	id, err := s.store.AddRecord(ctx, Collection, uid, map[string]any{
		"userId":        uid,
		"from":          leg.From,
		"to":            leg.To,
		"date":          leg.Date.Format(flightform.DateLayout),
		"airline":       leg.Airline,
		"flightNumber":  leg.FlightNumber,
		"arrivalTime":   leg.ArrivalTime,
		"numOfGuests":   leg.Guests,
		"candidateName": leg.Candidate,
		"comments":      leg.Comments,
		"createdAt":     s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to record %s leg: %w", leg.Direction, err)
	}
	return id, nil
}

// ForUser returns a Recorder bound to uid, for hosts that authenticate
// each request rather than holding a signed-in user.
func (s *Service) ForUser(uid string) flightform.Recorder {
	return userRecorder{s: s, uid: uid}
}

type userRecorder struct {
	s   *Service
	uid string
}

func (r userRecorder) RecordLeg(ctx context.Context, leg flightform.Leg) (string, error) {
	return r.s.RecordFor(ctx, r.uid, leg)
}

// Flights lists the signed-in user's flights, newest first.
func (s *Service) Flights(ctx context.Context) ([]Flight, error) {
	uid, err := s.currentUID()
	if err != nil {
		return nil, err
	}
	return s.FlightsFor(ctx, uid)
}

// FlightsFor lists uid's flights, newest first.
func (s *Service) FlightsFor(ctx context.Context, uid string) ([]Flight, error) {
	docs, err := s.store.Query(ctx, Collection, uid)
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs), nil
}

// Watch streams uid's flights: once now and again after every write made
// through this process.
func (s *Service) Watch(ctx context.Context, uid string, fn func([]Flight, error)) *feed.Subscription {
	return s.store.Watch(ctx, Collection, uid, func(snap store.Snapshot) {
		fn(fromDocuments(snap.Docs), snap.Err)
	})
}

// Follow streams uid's flights including writes from other processes
// until ctx is done.
func (s *Service) Follow(ctx context.Context, uid string, fn func([]Flight, error)) error {
	return s.store.Follow(ctx, Collection, uid, func(snap store.Snapshot) {
		fn(fromDocuments(snap.Docs), snap.Err)
	})
}

func fromDocuments(docs []store.Document) []Flight {
	flights := make([]Flight, 0, len(docs))
	for _, d := range docs {
		flights = append(flights, FromDocument(d))
	}
	return flights
}

// FromDocument decodes a stored flight. Missing fields stay zero.
func FromDocument(doc store.Document) Flight {
	f := Flight{ID: doc.ID, CreatedAt: doc.CreatedAt}
	str := func(key string) string {
		v, _ := doc.Data[key].(string)
		return v
	}
	f.UserID = str("userId")
	f.From = str("from")
	f.To = str("to")
	f.Date = str("date")
	f.Airline = str("airline")
	f.FlightNumber = str("flightNumber")
	f.ArrivalTime = str("arrivalTime")
	f.CandidateName = str("candidateName")
	f.Comments = str("comments")
	if n, ok := doc.Data["numOfGuests"].(float64); ok {
		f.NumOfGuests = int(n)
	}
	if t, err := time.Parse(time.RFC3339, str("createdAt")); err == nil {
		f.CreatedAt = t
	}
	return f
}

var _ flightform.Recorder = (*Service)(nil)
