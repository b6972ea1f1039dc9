package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/flightlog"
)

// FlightSource streams a user's flights. *flightlog.Service satisfies it.
type FlightSource interface {
	Watch(ctx context.Context, uid string, fn func([]flightlog.Flight, error)) *feed.Subscription
}

type flightsMsg struct {
	flights []flightlog.Flight
	err     error
}

// liveFlights bridges a feed subscription into the Bubble Tea loop. Only
// the latest snapshot is kept; the loop reads it with next().
type liveFlights struct {
	ch   chan flightsMsg
	done chan struct{}
	sub  *feed.Subscription
}

func watchFlights(src FlightSource, uid string) *liveFlights {
	lf := &liveFlights{
		ch:   make(chan flightsMsg, 1),
		done: make(chan struct{}),
	}
	lf.sub = src.Watch(context.Background(), uid, func(flights []flightlog.Flight, err error) {
		lf.offer(flightsMsg{flights: flights, err: err})
	})
	return lf
}

func (lf *liveFlights) offer(msg flightsMsg) {
	for {
		select {
		case <-lf.done:
			return
		case lf.ch <- msg:
			return
		default:
		}
		select {
		case <-lf.ch:
		default:
		}
	}
}

func (lf *liveFlights) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-lf.done:
			return nil
		default:
		}
		select {
		case msg := <-lf.ch:
			return msg
		case <-lf.done:
			return nil
		}
	}
}

func (lf *liveFlights) stop() {
	select {
	case <-lf.done:
		return
	default:
	}
	lf.sub.Unsubscribe()
	close(lf.done)
}

// flightsKeyMap defines key bindings for the flight list
type flightsKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Back key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k flightsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k flightsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// FlightsModel lists the signed-in user's flights, newest first, and
// redraws whenever the live query delivers a new snapshot.
type FlightsModel struct {
	live *liveFlights

	Flights []flightlog.Flight
	Err     error
	Loaded  bool
	Offset  int

	Width  int
	Height int

	Help help.Model
	Keys flightsKeyMap
}

// NewFlightsModel subscribes to uid's flights. Call Close to unsubscribe.
func NewFlightsModel(src FlightSource, uid string) FlightsModel {
	m := FlightsModel{
		Help: help.New(),
		Keys: flightsKeyMap{
			Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Back: key.NewBinding(key.WithKeys("esc", "ctrl+f"), key.WithHelp("esc", "back to form")),
			Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
	if src != nil {
		m.live = watchFlights(src, uid)
	}
	return m
}

// Init waits for the first snapshot
func (m FlightsModel) Init() tea.Cmd {
	if m.live == nil {
		return nil
	}
	return m.live.next()
}

// Close unsubscribes from the live query. Safe to call more than once.
func (m FlightsModel) Close() {
	if m.live != nil {
		m.live.stop()
	}
}

// Update handles messages for the flight list
func (m FlightsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case flightsMsg:
		m.Loaded = true
		m.Err = msg.err
		if msg.err == nil {
			m.Flights = msg.flights
		}
		if m.Offset >= len(m.Flights) {
			m.Offset = 0
		}
		if m.live == nil {
			return m, nil
		}
		return m, m.live.next()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Down):
			if m.Offset < len(m.Flights)-1 {
				m.Offset++
			}
		case key.Matches(msg, m.Keys.Up):
			if m.Offset > 0 {
				m.Offset--
			}
		}
	}
	return m, nil
}

// visibleRows is how many flights fit under the header and table header.
func (m FlightsModel) visibleRows() int {
	h := m.Height
	if h <= 0 {
		h = DefaultHeight
	}
	if n := h - 14; n > 3 {
		return n
	}
	return 3
}

// HelpView renders the context help for the footer
func (m FlightsModel) HelpView() string {
	return m.Help.View(m.Keys)
}

// View renders the flight list
func (m FlightsModel) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("My flights (%d)", len(m.Flights))))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(RenderWarning("Could not refresh flights: " + m.Err.Error()))
		b.WriteString("\n")
	}
	if !m.Loaded {
		b.WriteString(RenderSubtitle("Loading..."))
		return b.String()
	}
	if len(m.Flights) == 0 {
		b.WriteString(RenderSubtitle("No flights logged yet. Press esc to log one."))
		return b.String()
	}

	cols := []int{12, 6, 6, 10, 10, 7, 24}
	cell := func(i int, s string) string {
		return lipgloss.NewStyle().Width(cols[i]).Render(truncate(s, cols[i]-1))
	}
	b.WriteString(TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		cell(0, "Date"), cell(1, "From"), cell(2, "To"), cell(3, "Flight"),
		cell(4, "Arrives"), cell(5, "Guests"), cell(6, "Airline"))))
	b.WriteString("\n")

	end := m.Offset + m.visibleRows()
	if end > len(m.Flights) {
		end = len(m.Flights)
	}
	for _, f := range m.Flights[m.Offset:end] {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			cell(0, f.Date), cell(1, airportCode(f.From)), cell(2, airportCode(f.To)), cell(3, f.FlightNumber),
			cell(4, f.ArrivalTime), cell(5, fmt.Sprint(f.NumOfGuests)), cell(6, f.Airline)))
		b.WriteString("\n")
	}
	if end < len(m.Flights) {
		b.WriteString(RenderSubtitle(fmt.Sprintf("… %d more", len(m.Flights)-end)))
	}
	return b.String()
}

// airportCode reduces "LAX - Los Angeles" to "LAX".
func airportCode(label string) string {
	if code, _, ok := strings.Cut(label, " - "); ok {
		return code
	}
	return label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
