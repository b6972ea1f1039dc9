package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/reference"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenLog     Screen = "log"
	ScreenFlights Screen = "flights"
)

// Options wires the TUI to the rest of the application.
type Options struct {
	Catalog   *reference.Catalog
	Submitter *flightform.Submitter
	Flights   FlightSource
	User      auth.User
	Now       func() time.Time
}

// AppModel is the top-level coordinator model that switches between the
// flight form and the flight list
type AppModel struct {
	CurrentScreen Screen

	LogModel     LogFormModel
	FlightsModel FlightsModel

	User string

	Width  int
	Height int
}

// NewAppModel creates the application on the form screen. The flight list
// subscription starts here; Close releases it.
func NewAppModel(opts Options) AppModel {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = reference.Default()
	}

	form := flightform.New(catalog, flightform.WithClock(now))
	w, h := InitialSize()

	m := AppModel{
		CurrentScreen: ScreenLog,
		LogModel:      NewLogFormModel(form, opts.Submitter, opts.User.DisplayName(), now),
		FlightsModel:  NewFlightsModel(opts.Flights, opts.User.UID),
		User:          opts.User.Email,
		Width:         w,
		Height:        h,
	}
	m.LogModel.Width, m.LogModel.Height = w, h
	m.FlightsModel.Width, m.FlightsModel.Height = w, h
	return m
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.LogModel.Init(), m.FlightsModel.Init())
}

// Close disposes the form and unsubscribes the flight list. Safe to call
// more than once.
func (m AppModel) Close() {
	m.LogModel.Form().Dispose()
	m.FlightsModel.Close()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		lm, _ := m.LogModel.Update(msg)
		m.LogModel = lm.(LogFormModel)
		fm, _ := m.FlightsModel.Update(msg)
		m.FlightsModel = fm.(FlightsModel)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if msg.String() == "ctrl+f" {
			if m.CurrentScreen == ScreenLog {
				m.CurrentScreen = ScreenFlights
			} else {
				m.CurrentScreen = ScreenLog
			}
			return m, nil
		}
		if m.CurrentScreen == ScreenFlights {
			switch msg.String() {
			case "q":
				m.Close()
				return m, tea.Quit
			case "esc":
				m.CurrentScreen = ScreenLog
				return m, nil
			}
			fm, cmd := m.FlightsModel.Update(msg)
			m.FlightsModel = fm.(FlightsModel)
			return m, cmd
		}
		lm, cmd := m.LogModel.Update(msg)
		m.LogModel = lm.(LogFormModel)
		return m, cmd

	case flightsMsg:
		fm, cmd := m.FlightsModel.Update(msg)
		m.FlightsModel = fm.(FlightsModel)
		return m, cmd
	}

	// Timers, spinner ticks and submission results belong to the form
	// whichever screen is showing.
	lm, cmd := m.LogModel.Update(msg)
	m.LogModel = lm.(LogFormModel)
	return m, cmd
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenFlights:
		return RenderApplicationContainer(m.FlightsModel.View(), m.FlightsModel.HelpView(), m.User, m.Width, m.Height)
	default:
		return RenderApplicationContainer(m.LogModel.View(), m.LogModel.HelpView(), m.User, m.Width, m.Height)
	}
}

// Run shows the TUI full screen until the user quits.
func Run(opts Options) error {
	m := NewAppModel(opts)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
