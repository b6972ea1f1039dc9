package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/logging"
)

// Message types for async operations
type deferredMsg struct {
	event flightform.Event
}

type submitDoneMsg struct {
	receipt flightform.Receipt
	err     error
	message string
}

// rowKind selects how a form row takes input.
type rowKind int

const (
	rowText rowKind = iota
	rowLookup
	rowDate
	rowTime
	rowGuests
	rowToggle
	rowSubmit
)

type row struct {
	kind  rowKind
	field flightform.FieldID
}

var fieldLabels = map[flightform.FieldID]string{
	flightform.DepartureAirport:   "Departure airport",
	flightform.ArrivalAirport:     "Arrival airport",
	flightform.Airline:            "Airline",
	flightform.FlightDate:         "Flight date",
	flightform.FlightNumber:       "Flight number",
	flightform.ArrivalTime:        "Arrival time",
	flightform.NumberOfGuests:     "Guests",
	flightform.CandidateName:      "Candidate name",
	flightform.Comments:           "Comments",
	flightform.ReturnDate:         "Return date",
	flightform.ReturnFlightNumber: "Return flight number",
	flightform.ReturnArrivalTime:  "Return arrival time",
	flightform.ReturnComments:     "Return comments",
}

var placeholders = map[flightform.FieldID]string{
	flightform.DepartureAirport:   "type a code or city",
	flightform.ArrivalAirport:     "type a code or city",
	flightform.Airline:            "type a name or code",
	flightform.FlightNumber:       "AA123",
	flightform.ArrivalTime:        "14:30 or 2:30 PM",
	flightform.CandidateName:      "who is flying",
	flightform.Comments:           "optional",
	flightform.ReturnFlightNumber: "AA456",
	flightform.ReturnArrivalTime:  "14:30 or 2:30 PM",
	flightform.ReturnComments:     "optional",
}

// logFormKeyMap defines key bindings for the flight form
type logFormKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Select  key.Binding
	Clear   key.Binding
	More    key.Binding
	Less    key.Binding
	Submit  key.Binding
	Reset   key.Binding
	Flights key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k logFormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Select, k.Submit, k.Flights, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k logFormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Select, k.Clear},
		{k.More, k.Less, k.Submit, k.Reset},
		{k.Flights, k.Quit},
	}
}

func newLogFormKeyMap() logFormKeyMap {
	return logFormKeyMap{
		Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "previous field")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		More:    key.NewBinding(key.WithKeys("+", "right"), key.WithHelp("+", "add guest")),
		Less:    key.NewBinding(key.WithKeys("-", "left"), key.WithHelp("-", "remove guest")),
		Submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Reset:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Flights: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "my flights")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// datePickerKeyMap defines key bindings while a calendar is open
type datePickerKeyMap struct {
	Day   key.Binding
	Week  key.Binding
	Month key.Binding
	Today key.Binding
	Pick  key.Binding
	Close key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k datePickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Day, k.Week, k.Month, k.Today, k.Pick, k.Close}
}

// FullHelp returns keybindings for the expanded help view
func (k datePickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newDatePickerKeyMap() datePickerKeyMap {
	return datePickerKeyMap{
		Day:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "day")),
		Week:  key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "week")),
		Month: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "month")),
		Today: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Pick:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick")),
		Close: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// timePickerKeyMap defines key bindings while a time popup is open
type timePickerKeyMap struct {
	Hours    key.Binding
	Minutes  key.Binding
	Meridiem key.Binding
	Quick    key.Binding
	Now      key.Binding
	Pick     key.Binding
	Clear    key.Binding
	Close    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k timePickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hours, k.Minutes, k.Meridiem, k.Quick, k.Pick, k.Close}
}

// FullHelp returns keybindings for the expanded help view
func (k timePickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Hours, k.Minutes, k.Meridiem, k.Quick},
		{k.Now, k.Pick, k.Clear, k.Close},
	}
}

func newTimePickerKeyMap() timePickerKeyMap {
	return timePickerKeyMap{
		Hours:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "hour")),
		Minutes:  key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", fmt.Sprintf("%d min", flightform.MinuteStep))),
		Meridiem: key.NewBinding(key.WithKeys("a", "p"), key.WithHelp("a/p", "am/pm")),
		Quick:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "quick pick")),
		Now:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "now")),
		Pick:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Clear:    key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("del", "clear")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// LogFormModel hosts a flightform.Form: keys become form events, deferred
// events come back through tea.Tick and submission runs in a tea.Cmd.
type LogFormModel struct {
	form      *flightform.Form
	submitter *flightform.Submitter
	candidate string // prefilled after every reset
	now       func() time.Time

	// UI state
	Width  int
	Height int

	Cursor    int
	Choice    int // highlighted dropdown candidate
	Input     textinput.Model
	Picker    *flightform.DatePicker
	Clock     *flightform.TimePicker
	Spinner   spinner.Model
	LastError error

	Help       help.Model
	Keys       logFormKeyMap
	PickerKeys datePickerKeyMap
	ClockKeys  timePickerKeyMap
}

// NewLogFormModel creates the form screen. candidate prefills the
// candidate name when non-empty.
func NewLogFormModel(form *flightform.Form, submitter *flightform.Submitter, candidate string, now func() time.Time) LogFormModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40
	ti.Prompt = ""

	if now == nil {
		now = time.Now
	}

	m := LogFormModel{
		form:       form,
		submitter:  submitter,
		candidate:  candidate,
		now:        now,
		Input:      ti,
		Spinner:    s,
		Help:       help.New(),
		Keys:       newLogFormKeyMap(),
		PickerKeys: newDatePickerKeyMap(),
		ClockKeys:  newTimePickerKeyMap(),
	}
	m.dispatch(flightform.PrefillCandidate{Name: candidate})
	m.enterRow()
	return m
}

// Form exposes the hosted form for rendering elsewhere.
func (m LogFormModel) Form() *flightform.Form {
	return m.form
}

// Init initializes the form screen
func (m LogFormModel) Init() tea.Cmd {
	return textinput.Blink
}

// rows lists the visible rows; return-leg rows appear only on a round trip.
func (m LogFormModel) rows() []row {
	rows := []row{
		{rowLookup, flightform.DepartureAirport},
		{rowLookup, flightform.ArrivalAirport},
		{rowLookup, flightform.Airline},
		{rowDate, flightform.FlightDate},
		{rowText, flightform.FlightNumber},
		{rowTime, flightform.ArrivalTime},
		{rowGuests, flightform.NumberOfGuests},
		{rowText, flightform.CandidateName},
		{rowText, flightform.Comments},
		{kind: rowToggle},
	}
	if m.form.RoundTrip() {
		rows = append(rows,
			row{rowDate, flightform.ReturnDate},
			row{rowText, flightform.ReturnFlightNumber},
			row{rowTime, flightform.ReturnArrivalTime},
			row{rowText, flightform.ReturnComments},
		)
	}
	return append(rows, row{kind: rowSubmit})
}

func (m LogFormModel) current() row {
	rows := m.rows()
	if m.Cursor >= len(rows) {
		return rows[len(rows)-1]
	}
	return rows[m.Cursor]
}

// typed reports whether the row edits through the text input.
func (r row) typed() bool {
	return r.kind == rowText || r.kind == rowLookup || r.kind == rowTime
}

func (r row) hasField() bool {
	return r.kind != rowToggle && r.kind != rowSubmit
}

// dispatch applies ev and turns whatever it defers into ticks.
func (m *LogFormModel) dispatch(ev flightform.Event) tea.Cmd {
	deferred := m.form.Dispatch(ev)
	logging.LogFormEvent(fmt.Sprintf("%T", ev), m.form.Phase().String(), m.form.Valid())

	var cmds []tea.Cmd
	for _, d := range deferred {
		next := d.Event
		cmds = append(cmds, tea.Tick(d.After, func(time.Time) tea.Msg {
			return deferredMsg{event: next}
		}))
	}
	return tea.Batch(cmds...)
}

// enterRow focuses the row under the cursor.
func (m *LogFormModel) enterRow() tea.Cmd {
	r := m.current()
	m.Choice = 0
	m.Input.Blur()
	if !r.hasField() {
		return nil
	}
	cmd := m.dispatch(flightform.Focus{Field: r.field})
	if r.typed() {
		m.Input.Placeholder = placeholders[r.field]
		m.Input.SetValue(m.form.Value(r.field))
		m.Input.CursorEnd()
		return tea.Batch(cmd, m.Input.Focus())
	}
	return cmd
}

// leaveRow blurs the row under the cursor.
func (m *LogFormModel) leaveRow() tea.Cmd {
	r := m.current()
	m.Picker = nil
	m.Clock = nil
	if !r.hasField() {
		return nil
	}
	return m.dispatch(flightform.Blur{Field: r.field})
}

func (m *LogFormModel) move(delta int) tea.Cmd {
	n := len(m.rows())
	blur := m.leaveRow()
	m.Cursor = (m.Cursor + delta + n) % n
	return tea.Batch(blur, m.enterRow())
}

// Update handles messages for the form screen
func (m LogFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case deferredMsg:
		return m, m.dispatch(msg.event)

	case submitDoneMsg:
		return m.finishSubmit(msg)

	case spinner.TickMsg:
		if m.form.Phase() != flightform.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.form.Phase() == flightform.Submitting {
			return m, nil
		}
		if m.Picker != nil {
			return m.updatePicker(msg)
		}
		if m.Clock != nil {
			return m.updateClock(msg)
		}
		return m.updateKeys(msg)
	}

	if m.Input.Focused() {
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m LogFormModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := m.current()
	dropdown := r.kind == rowLookup && m.form.DropdownOpen(r.field) && len(m.form.Candidates(r.field)) > 0

	switch {
	case key.Matches(msg, m.Keys.Submit):
		return m.startSubmit()

	case key.Matches(msg, m.Keys.Reset):
		blur := m.leaveRow()
		cmd := tea.Batch(blur, m.dispatch(flightform.Reset{}))
		m.dispatch(flightform.PrefillCandidate{Name: m.candidate})
		m.Cursor = 0
		return m, tea.Batch(cmd, m.enterRow())

	case dropdown && (msg.String() == "down" || msg.String() == "up"):
		n := len(m.form.Candidates(r.field))
		if msg.String() == "down" {
			m.Choice = (m.Choice + 1) % n
		} else {
			m.Choice = (m.Choice - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.Keys.Next):
		return m, m.move(1)

	case key.Matches(msg, m.Keys.Prev):
		return m, m.move(-1)
	}

	switch r.kind {
	case rowLookup:
		if dropdown && key.Matches(msg, m.Keys.Select) {
			candidates := m.form.Candidates(r.field)
			if m.Choice >= len(candidates) {
				m.Choice = 0
			}
			cmd := m.dispatch(flightform.Commit{Field: r.field, Key: candidates[m.Choice].Key})
			m.Input.SetValue(m.form.Value(r.field))
			return m, tea.Batch(cmd, m.move(1))
		}
		if key.Matches(msg, m.Keys.Clear) {
			cmd := m.dispatch(flightform.Clear{Field: r.field})
			m.Input.SetValue("")
			m.Choice = 0
			return m, cmd
		}
		if key.Matches(msg, m.Keys.Select) {
			return m, m.move(1)
		}
		return m.updateInput(msg, r.field, true)

	case rowText:
		if key.Matches(msg, m.Keys.Select) {
			return m, m.move(1)
		}
		return m.updateInput(msg, r.field, false)

	case rowDate:
		switch {
		case key.Matches(msg, m.Keys.Select):
			min, max := m.form.Bounds(r.field)
			p := flightform.NewDatePicker(m.form.Date(r.field), min, max, m.now())
			m.Picker = &p
		case msg.String() == "backspace" || msg.String() == "delete" || key.Matches(msg, m.Keys.Clear):
			return m, m.dispatch(flightform.Clear{Field: r.field})
		}
		return m, nil

	case rowTime:
		switch {
		case key.Matches(msg, m.Keys.Select):
			c, ok := m.form.Clock(r.field)
			p := flightform.NewTimePicker(c, ok, m.now())
			m.Clock = &p
			return m, nil
		case key.Matches(msg, m.Keys.Clear):
			m.Input.SetValue("")
			return m, m.dispatch(flightform.Clear{Field: r.field})
		}
		return m.updateInput(msg, r.field, false)

	case rowGuests:
		switch {
		case key.Matches(msg, m.Keys.More):
			return m, m.dispatch(flightform.IncrementGuests{})
		case key.Matches(msg, m.Keys.Less):
			return m, m.dispatch(flightform.DecrementGuests{})
		case key.Matches(msg, m.Keys.Select):
			return m, m.move(1)
		}
		return m, nil

	case rowToggle:
		if key.Matches(msg, m.Keys.Select) || msg.String() == " " {
			return m, m.dispatch(flightform.ToggleRoundTrip{On: !m.form.RoundTrip()})
		}
		return m, nil

	case rowSubmit:
		if key.Matches(msg, m.Keys.Select) {
			return m.startSubmit()
		}
	}
	return m, nil
}

// updateInput feeds a key to the text input and mirrors the new value into
// the form. Lookup fields show the form's value back, since a committed
// selection ignores typing.
func (m LogFormModel) updateInput(msg tea.KeyMsg, field flightform.FieldID, lookup bool) (tea.Model, tea.Cmd) {
	before := m.Input.Value()
	var inputCmd tea.Cmd
	m.Input, inputCmd = m.Input.Update(msg)
	if m.Input.Value() == before {
		return m, inputCmd
	}
	cmd := m.dispatch(flightform.Input{Field: field, Value: m.Input.Value()})
	if lookup {
		m.Input.SetValue(m.form.Value(field))
		m.Choice = 0
	}
	return m, tea.Batch(inputCmd, cmd)
}

func (m LogFormModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := *m.Picker
	switch msg.String() {
	case "left":
		p = p.Move(-1)
	case "right":
		p = p.Move(1)
	case "up":
		p = p.Move(-7)
	case "down":
		p = p.Move(7)
	case "pgup":
		p = p.PrevMonth()
	case "pgdown":
		p = p.NextMonth()
	case "t":
		p, _ = p.Today(m.now())
	case "esc":
		m.Picker = nil
		return m, nil
	case "enter":
		day, ok := p.Selection()
		if !ok {
			return m, nil
		}
		m.Picker = nil
		return m, m.dispatch(flightform.PickDate{Field: m.current().field, Day: day})
	}
	m.Picker = &p
	return m, nil
}

func (m LogFormModel) updateClock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := *m.Clock
	field := m.current().field
	switch {
	case msg.String() == "up":
		p = p.AddHours(1)
	case msg.String() == "down":
		p = p.AddHours(-1)
	case msg.String() == "right":
		p = p.AddSteps(1)
	case msg.String() == "left":
		p = p.AddSteps(-1)
	case key.Matches(msg, m.ClockKeys.Meridiem):
		if p.PM() != (msg.String() == "p") {
			p = p.ToggleMeridiem()
		}
	case key.Matches(msg, m.ClockKeys.Quick):
		p, _ = p.Quick(int(msg.String()[0] - '1'))
	case key.Matches(msg, m.ClockKeys.Now):
		p = p.Now(m.now())
	case key.Matches(msg, m.ClockKeys.Close):
		m.Clock = nil
		return m, nil
	case key.Matches(msg, m.ClockKeys.Clear):
		m.Clock = nil
		m.Input.SetValue("")
		return m, m.dispatch(flightform.Clear{Field: field})
	case key.Matches(msg, m.ClockKeys.Pick):
		m.Clock = nil
		cmd := m.dispatch(flightform.PickTime{Field: field, Time: p.Selection()})
		m.Input.SetValue(m.form.Value(field))
		m.Input.CursorEnd()
		return m, cmd
	}
	m.Clock = &p
	return m, nil
}

// startSubmit validates and, when the form enters Submitting, sends the
// legs off the event loop.
func (m LogFormModel) startSubmit() (tea.Model, tea.Cmd) {
	cmd := m.dispatch(flightform.Submit{})
	if m.form.Phase() != flightform.Submitting {
		return m, cmd
	}
	m.LastError = nil
	legs := m.form.Legs()
	submitter := m.submitter
	run := func() tea.Msg {
		receipt, err := submitter.Submit(context.Background(), legs)
		if err != nil {
			return submitDoneMsg{receipt: receipt, err: err, message: submitter.UserMessage(err)}
		}
		return submitDoneMsg{receipt: receipt}
	}
	return m, tea.Batch(cmd, m.Spinner.Tick, run)
}

func (m LogFormModel) finishSubmit(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.LastError = msg.err
		return m, m.dispatch(flightform.SubmitFailed{Message: msg.message})
	}
	cmd := m.dispatch(flightform.SubmitSucceeded{})
	blur := m.leaveRow()
	m.dispatch(flightform.PrefillCandidate{Name: m.candidate})
	m.Cursor = 0
	return m, tea.Batch(blur, cmd, m.enterRow())
}

// HelpView renders the context help for the footer
func (m LogFormModel) HelpView() string {
	if m.Picker != nil {
		return m.Help.View(m.PickerKeys)
	}
	if m.Clock != nil {
		return m.Help.View(m.ClockKeys)
	}
	return m.Help.View(m.Keys)
}

// View renders the form
func (m LogFormModel) View() string {
	var b strings.Builder
	f := m.form

	title := "Log a flight"
	if f.RoundTrip() {
		title = "Log a round trip"
	}
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")

	if f.Notice() != "" {
		b.WriteString(RenderSuccess(f.Notice()) + "\n")
	}
	if f.Banner() != "" {
		b.WriteString(RenderError(f.Banner()) + "\n")
	}
	if f.Failure() != "" {
		b.WriteString(RenderError(f.Failure()) + "\n")
	}

	for i, r := range m.rows() {
		b.WriteString(m.renderRow(r, i == m.Cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m LogFormModel) renderRow(r row, focused bool) string {
	f := m.form
	switch r.kind {
	case rowToggle:
		box := "[ ]"
		if f.RoundTrip() {
			box = "[x]"
		}
		return m.label("Round trip", focused) + ValueStyle.Render(box) + "\n"

	case rowSubmit:
		if f.Phase() == flightform.Submitting {
			return "\n" + m.Spinner.View() + " Submitting..."
		}
		style := ButtonStyle
		if focused {
			style = FocusedButtonStyle
		}
		return "\n" + style.Render("Submit")
	}

	var value string
	switch {
	case focused && r.typed():
		value = m.Input.View()
	case r.kind == rowGuests:
		value = ValueStyle.Render(fmt.Sprintf("‹ %s ›", strconv.Itoa(f.Guests())))
	default:
		value = f.Value(r.field)
		if value == "" {
			hint := placeholders[r.field]
			if r.kind == rowDate {
				hint = "press enter to pick"
			}
			value = PlaceholderStyle.Render(hint)
		} else {
			value = ValueStyle.Render(value)
		}
	}
	if r.kind == rowLookup && f.Committed(r.field) {
		value += " " + CheckStyle.Render("✓")
	}

	line := m.label(fieldLabels[r.field], focused) + value
	if msg := m.fieldError(r.field); msg != "" {
		line += "  " + FieldErrorStyle.Render(msg)
	}

	switch {
	case focused && r.kind == rowLookup && f.DropdownOpen(r.field):
		line += "\n" + m.renderCandidates(r.field)
	case focused && r.kind == rowDate && m.Picker != nil:
		line += "\n" + m.renderPicker()
	case focused && r.kind == rowTime && m.Clock != nil:
		line += "\n" + m.renderClock()
	}
	return line
}

func (m LogFormModel) label(text string, focused bool) string {
	if focused {
		return FocusedLabelStyle.Render("› " + text)
	}
	return LabelStyle.Render("  " + text)
}

// fieldError returns the message shown next to a field, or "".
func (m LogFormModel) fieldError(id flightform.FieldID) string {
	f := m.form
	if id == flightform.ReturnDate && f.ReturnDateError() != "" {
		return f.ReturnDateError()
	}
	if !f.ShowError(id) {
		return ""
	}
	if f.Status(id).Empty {
		return "Required"
	}
	switch id {
	case flightform.DepartureAirport, flightform.ArrivalAirport, flightform.Airline:
		return "Pick an entry from the list"
	case flightform.FlightNumber, flightform.ReturnFlightNumber:
		return "1-3 letters then 1-4 digits"
	case flightform.ArrivalTime, flightform.ReturnArrivalTime:
		return "Use 14:30 or 2:30 PM"
	case flightform.NumberOfGuests:
		return "At least one guest"
	case flightform.FlightDate, flightform.ReturnDate:
		if f.DateProblem(id) == flightform.ProblemOutOfRange {
			return "Outside the booking window"
		}
	}
	return "Invalid"
}

func (m LogFormModel) renderCandidates(id flightform.FieldID) string {
	candidates := m.form.Candidates(id)
	if len(candidates) == 0 {
		return CandidateStyle.Render(PlaceholderStyle.Render("no matches"))
	}

	start := 0
	if m.Choice >= MaxDropdownRows {
		start = m.Choice - MaxDropdownRows + 1
	}
	end := start + MaxDropdownRows
	if end > len(candidates) {
		end = len(candidates)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		c := candidates[i]
		text := c.Label
		if c.Detail != "" {
			text += "  " + SubtitleStyle.Render(c.Detail)
		}
		if i == m.Choice {
			lines = append(lines, SelectedCandidateStyle.Render("→ "+text))
		} else {
			lines = append(lines, CandidateStyle.Render(text))
		}
	}
	if len(candidates) > end {
		lines = append(lines, CandidateStyle.Render(PlaceholderStyle.Render(fmt.Sprintf("… %d more", len(candidates)-end))))
	}
	return strings.Join(lines, "\n")
}

func (m LogFormModel) renderPicker() string {
	p := *m.Picker
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(p.Month.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")

	grid := p.Grid()
	for i, day := range grid {
		cell := fmt.Sprintf("%2d", day.Day())
		switch {
		case flightform.SameDay(day, p.Cursor):
			cell = CursorDayStyle.Render(cell)
		case p.Disabled(day) || day.Month() != p.Month.Month():
			cell = DisabledDayStyle.Render(cell)
		}
		b.WriteString(cell)
		if i%7 == 6 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return lipgloss.NewStyle().PaddingLeft(4).Render(b.String())
}

func (m LogFormModel) renderClock() string {
	c := m.Clock.Selection()
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(c.Format12()))
	b.WriteString("  " + SubtitleStyle.Render(c.String()))
	b.WriteString("\n")

	quick := make([]string, len(flightform.QuickTimes))
	for i, q := range flightform.QuickTimes {
		text := fmt.Sprintf("%d %s", i+1, q.Format12())
		if q == c {
			quick[i] = CursorDayStyle.Render(text)
		} else {
			quick[i] = SubtitleStyle.Render(text)
		}
	}
	b.WriteString(strings.Join(quick, "  "))
	return lipgloss.NewStyle().PaddingLeft(4).Render(b.String())
}
