package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/flightapi"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/reference"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu    sync.Mutex
	err   error
	calls []flightapi.FlightInfo
}

func (p *fakePublisher) SubmitFlightInfo(ctx context.Context, info flightapi.FlightInfo, candidate string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, info)
	return p.err
}

type fakeRecorder struct {
	mu   sync.Mutex
	legs []flightform.Leg
}

func (r *fakeRecorder) RecordLeg(ctx context.Context, leg flightform.Leg) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legs = append(r.legs, leg)
	return "rec-" + leg.Direction.String(), nil
}

type fakeSource struct {
	mu           sync.Mutex
	uid          string
	fn           func([]flightlog.Flight, error)
	initial      []flightlog.Flight
	unsubscribed bool
}

func (s *fakeSource) Watch(ctx context.Context, uid string, fn func([]flightlog.Flight, error)) *feed.Subscription {
	s.mu.Lock()
	s.uid = uid
	s.fn = fn
	s.mu.Unlock()
	fn(s.initial, nil)
	return feed.NewSubscription(func() {
		s.mu.Lock()
		s.unsubscribed = true
		s.mu.Unlock()
	})
}

func (s *fakeSource) emit(flights []flightlog.Flight, err error) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	fn(flights, err)
}

type fixture struct {
	app       AppModel
	publisher *fakePublisher
	recorder  *fakeRecorder
	source    *fakeSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		publisher: &fakePublisher{},
		recorder:  &fakeRecorder{},
		source:    &fakeSource{initial: []flightlog.Flight{{ID: "f1", From: "LAX - Los Angeles", To: "SFO - San Francisco", Date: "2024-05-20", FlightNumber: "AA100", NumOfGuests: 1}}},
	}
	fx.app = NewAppModel(Options{
		Catalog: reference.Default(),
		Submitter: &flightform.Submitter{
			Publisher: fx.publisher,
			Recorder:  fx.recorder,
			Message:   func(error) string { return "Could not reach the flight service." },
		},
		Flights: fx.source,
		User:    auth.User{UID: "uid-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		Now:     func() time.Time { return testNow },
	})
	t.Cleanup(fx.app.Close)
	return fx
}

func (fx *fixture) form() *flightform.Form {
	return fx.app.LogModel.Form()
}

func (fx *fixture) send(msg tea.Msg) tea.Cmd {
	m, cmd := fx.app.Update(msg)
	fx.app = m.(AppModel)
	return cmd
}

func (fx *fixture) press(keys ...tea.KeyType) {
	for _, k := range keys {
		fx.send(tea.KeyMsg{Type: k})
	}
}

func (fx *fixture) typeText(s string) {
	fx.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// collect runs cmd and any batch it expands to, returning every message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findSubmitDone(t *testing.T, cmd tea.Cmd) submitDoneMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if done, ok := msg.(submitDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no submission result in command")
	return submitDoneMsg{}
}

func fillValid(f *flightform.Form) {
	f.Dispatch(flightform.Commit{Field: flightform.DepartureAirport, Key: "LAX"})
	f.Dispatch(flightform.Commit{Field: flightform.ArrivalAirport, Key: "SFO"})
	f.Dispatch(flightform.Commit{Field: flightform.Airline, Key: "AA"})
	f.Dispatch(flightform.PickDate{Field: flightform.FlightDate, Day: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)})
	f.Dispatch(flightform.Input{Field: flightform.FlightNumber, Value: "AA123"})
	f.Dispatch(flightform.PickTime{Field: flightform.ArrivalTime, Time: flightform.ClockTime{Hour: 14, Minute: 30}})
}

func TestNewAppModelPrefillsCandidate(t *testing.T) {
	fx := newFixture(t)

	require.Equal(t, ScreenLog, fx.app.CurrentScreen)
	require.Equal(t, "Ada Lovelace", fx.form().Value(flightform.CandidateName))
	focused, ok := fx.form().Focused()
	require.True(t, ok)
	require.Equal(t, flightform.DepartureAirport, focused)
	require.Equal(t, "uid-1", fx.source.uid)
}

func TestTypeAndCommitAirport(t *testing.T) {
	fx := newFixture(t)

	fx.typeText("LAX")
	require.Equal(t, "LAX", fx.form().Value(flightform.DepartureAirport))
	require.True(t, fx.form().DropdownOpen(flightform.DepartureAirport))
	require.NotEmpty(t, fx.form().Candidates(flightform.DepartureAirport))

	fx.press(tea.KeyEnter)
	require.True(t, fx.form().Committed(flightform.DepartureAirport))
	require.Equal(t, 1, fx.app.LogModel.Cursor)
	focused, _ := fx.form().Focused()
	require.Equal(t, flightform.ArrivalAirport, focused)
}

func TestEscClearsLookup(t *testing.T) {
	fx := newFixture(t)
	fx.typeText("LAX")
	fx.press(tea.KeyEnter, tea.KeyShiftTab)
	require.True(t, fx.form().Committed(flightform.DepartureAirport))

	fx.press(tea.KeyEsc)
	require.False(t, fx.form().Committed(flightform.DepartureAirport))
	require.Empty(t, fx.form().Value(flightform.DepartureAirport))
}

func TestDatePicker(t *testing.T) {
	fx := newFixture(t)
	fx.press(tea.KeyTab, tea.KeyTab, tea.KeyTab)
	require.Equal(t, 3, fx.app.LogModel.Cursor)

	fx.press(tea.KeyEnter)
	require.NotNil(t, fx.app.LogModel.Picker)

	fx.press(tea.KeyRight, tea.KeyEnter)
	require.Nil(t, fx.app.LogModel.Picker)
	require.True(t, flightform.SameDay(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), fx.form().Date(flightform.FlightDate)))
}

func TestDatePickerRejectsPastDay(t *testing.T) {
	fx := newFixture(t)
	fx.press(tea.KeyTab, tea.KeyTab, tea.KeyTab, tea.KeyEnter)

	fx.press(tea.KeyLeft, tea.KeyEnter)
	require.NotNil(t, fx.app.LogModel.Picker, "a disabled day keeps the picker open")
	require.True(t, fx.form().Date(flightform.FlightDate).IsZero())

	fx.press(tea.KeyEsc)
	require.Nil(t, fx.app.LogModel.Picker)
}

func TestTimePicker(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 5; i++ {
		fx.press(tea.KeyTab)
	}
	require.Equal(t, rowTime, fx.app.LogModel.current().kind)

	fx.press(tea.KeyEnter)
	require.NotNil(t, fx.app.LogModel.Clock)
	require.Equal(t, flightform.ClockTime{Hour: 10, Minute: 0}, fx.app.LogModel.Clock.Selection())
	require.Contains(t, fx.app.LogModel.HelpView(), "am/pm")

	fx.press(tea.KeyUp, tea.KeyRight)
	fx.typeText("p")
	require.Contains(t, fx.app.View(), "11:15 PM")
	require.Empty(t, fx.form().Value(flightform.ArrivalTime), "nothing is set before confirming")

	fx.press(tea.KeyEnter)
	require.Nil(t, fx.app.LogModel.Clock)
	c, ok := fx.form().Clock(flightform.ArrivalTime)
	require.True(t, ok)
	require.Equal(t, flightform.ClockTime{Hour: 23, Minute: 15}, c)
	require.Equal(t, "11:15 PM", fx.app.LogModel.Input.Value())
}

func TestTimePickerQuickAndClear(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 5; i++ {
		fx.press(tea.KeyTab)
	}

	fx.press(tea.KeyEnter)
	fx.typeText("3")
	fx.press(tea.KeyEnter)
	require.Equal(t, "3:00 PM", fx.form().Value(flightform.ArrivalTime))

	fx.press(tea.KeyEnter)
	require.Equal(t, flightform.ClockTime{Hour: 15, Minute: 0}, fx.app.LogModel.Clock.Selection(), "reopens on the picked time")
	fx.press(tea.KeyEsc)
	require.Nil(t, fx.app.LogModel.Clock)
	require.Equal(t, "3:00 PM", fx.form().Value(flightform.ArrivalTime), "cancel keeps the field")

	fx.press(tea.KeyEnter, tea.KeyBackspace)
	require.Nil(t, fx.app.LogModel.Clock)
	require.Empty(t, fx.form().Value(flightform.ArrivalTime))
}

func TestTimeRowAcceptsTyping(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 5; i++ {
		fx.press(tea.KeyTab)
	}
	fx.typeText("9:05 AM")
	c, ok := fx.form().Clock(flightform.ArrivalTime)
	require.True(t, ok)
	require.Equal(t, flightform.ClockTime{Hour: 9, Minute: 5}, c)
}

func TestGuestsAndRoundTrip(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 6; i++ {
		fx.press(tea.KeyTab)
	}
	fx.typeText("+")
	fx.typeText("+")
	fx.typeText("-")
	require.Equal(t, 2, fx.form().Guests())

	rows := len(fx.app.LogModel.rows())
	fx.press(tea.KeyTab, tea.KeyTab, tea.KeyTab)
	require.Equal(t, rowToggle, fx.app.LogModel.current().kind)
	fx.press(tea.KeyEnter)
	require.True(t, fx.form().RoundTrip())
	require.Equal(t, rows+4, len(fx.app.LogModel.rows()))
	require.Equal(t, 2, fx.form().ReturnGuests())
}

func TestSubmitInvalidShowsErrors(t *testing.T) {
	fx := newFixture(t)

	cmd := fx.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Empty(t, collect(cmd))
	require.Equal(t, flightform.Editing, fx.form().Phase())
	require.True(t, fx.form().HasAttemptedSubmit())
	require.Contains(t, fx.app.View(), "Required")
	require.Empty(t, fx.publisher.calls)
}

func TestSubmitSuccess(t *testing.T) {
	fx := newFixture(t)
	fillValid(fx.form())

	cmd := fx.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, flightform.Submitting, fx.form().Phase())

	done := findSubmitDone(t, cmd)
	require.NoError(t, done.err)
	require.Equal(t, []string{"rec-outbound"}, done.receipt.RecordIDs)

	fx.send(done)
	require.Equal(t, flightform.SuccessReset, fx.form().Phase())
	require.Equal(t, flightform.MsgLogged, fx.form().Notice())
	require.Equal(t, "Ada Lovelace", fx.form().Value(flightform.CandidateName))
	require.Empty(t, fx.form().Value(flightform.DepartureAirport))
	require.Equal(t, 0, fx.app.LogModel.Cursor)
	require.Len(t, fx.recorder.legs, 1)
	require.Contains(t, fx.app.View(), flightform.MsgLogged)

	// A second flight can go out before the reset window settles.
	fillValid(fx.form())
	again := fx.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, flightform.Submitting, fx.form().Phase())
	require.NoError(t, findSubmitDone(t, again).err)
}

func TestSubmitFailure(t *testing.T) {
	fx := newFixture(t)
	fx.publisher.err = errors.New("connection refused")
	fillValid(fx.form())

	done := findSubmitDone(t, fx.send(tea.KeyMsg{Type: tea.KeyCtrlS}))
	require.Error(t, done.err)

	fx.send(done)
	require.Equal(t, flightform.Editing, fx.form().Phase())
	require.Equal(t, "Could not reach the flight service.", fx.form().Failure())
	require.Error(t, fx.app.LogModel.LastError)
	require.Equal(t, "AA123", fx.form().Value(flightform.FlightNumber), "fields survive a failed submission")
	require.Empty(t, fx.recorder.legs)
}

func TestKeysIgnoredWhileSubmitting(t *testing.T) {
	fx := newFixture(t)
	fillValid(fx.form())
	fx.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	cursor := fx.app.LogModel.Cursor
	fx.press(tea.KeyTab)
	require.Equal(t, cursor, fx.app.LogModel.Cursor)
	require.Contains(t, fx.app.View(), "Submitting")
}

func TestResetKey(t *testing.T) {
	fx := newFixture(t)
	fillValid(fx.form())

	fx.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, fx.form().Resetting())
	require.Empty(t, fx.form().Value(flightform.FlightNumber))
	require.Equal(t, "Ada Lovelace", fx.form().Value(flightform.CandidateName))
}

func TestDeferredEventsComeBackAsTicks(t *testing.T) {
	fx := newFixture(t)
	fx.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, fx.form().Resetting())

	// Reset defers exactly one settle event; run the batch and feed it back.
	for _, msg := range collect(fx.app.LogModel.dispatch(flightform.Reset{})) {
		if d, ok := msg.(deferredMsg); ok {
			fx.send(d)
		}
	}
	require.False(t, fx.form().Resetting())
}

func TestFlightsScreenFollowsLiveQuery(t *testing.T) {
	fx := newFixture(t)

	fx.send(fx.app.FlightsModel.live.next()())
	require.True(t, fx.app.FlightsModel.Loaded)
	require.Len(t, fx.app.FlightsModel.Flights, 1)

	fx.send(tea.KeyMsg{Type: tea.KeyCtrlF})
	require.Equal(t, ScreenFlights, fx.app.CurrentScreen)
	view := fx.app.View()
	require.Contains(t, view, "My flights (1)")
	require.Contains(t, view, "AA100")

	fx.source.emit([]flightlog.Flight{{ID: "f2", FlightNumber: "DL9"}, {ID: "f1", FlightNumber: "AA100"}}, nil)
	fx.send(fx.app.FlightsModel.live.next()())
	require.Len(t, fx.app.FlightsModel.Flights, 2)

	fx.source.emit(nil, errors.New("database is locked"))
	fx.send(fx.app.FlightsModel.live.next()())
	require.Len(t, fx.app.FlightsModel.Flights, 2, "an error keeps the last good list")
	require.Contains(t, fx.app.View(), "database is locked")

	fx.press(tea.KeyEsc)
	require.Equal(t, ScreenLog, fx.app.CurrentScreen)
}

func TestQuitUnsubscribes(t *testing.T) {
	fx := newFixture(t)

	cmd := fx.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.True(t, fx.source.unsubscribed)
	require.True(t, fx.form().Disposed())
	require.Nil(t, fx.app.FlightsModel.live.next()(), "next returns nothing once stopped")
}

func TestLiveFlightsKeepsLatest(t *testing.T) {
	lf := &liveFlights{ch: make(chan flightsMsg, 1), done: make(chan struct{})}
	lf.offer(flightsMsg{flights: []flightlog.Flight{{ID: "old"}}})
	lf.offer(flightsMsg{flights: []flightlog.Flight{{ID: "new"}}})

	msg := lf.next()().(flightsMsg)
	require.Equal(t, "new", msg.flights[0].ID)
}

func TestAirportCodeAndTruncate(t *testing.T) {
	require.Equal(t, "LAX", airportCode("LAX - Los Angeles"))
	require.Equal(t, "Somewhere", airportCode("Somewhere"))
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "abc…", truncate("abcdef", 4))
	require.True(t, strings.HasSuffix(truncate("long airline name", 8), "…"))
}
