// Package tui implements the full-screen terminal flight logger.
//
// Built on Bubble Tea, the TUI hosts a flightform.Form and translates key
// presses into form events. The form never starts timers itself: every
// Deferred it returns becomes a tea.Tick that dispatches the event back,
// and submission runs in a tea.Cmd so the event loop stays responsive.
//
// # Screens
//
//   - Log: the flight form, with airport and airline dropdowns, a calendar
//     for dates, a time popup for arrival times, a guest counter and the
//     round-trip toggle
//   - Flights: the signed-in user's flights, newest first, redrawn from a
//     live query subscription
//
// ctrl+f switches screens. ctrl+c quits from anywhere; quitting disposes
// the form and unsubscribes the live query.
//
// # Usage Example
//
//	err := tui.Run(tui.Options{
//	    Catalog:   reference.Default(),
//	    Submitter: submitter,
//	    Flights:   flights,
//	    User:      user,
//	})
//
// # Key Bindings
//
//   - Form: tab/↓ next field, shift+tab/↑ previous, enter select, esc clear
//     a lookup, +/- guests, ctrl+s submit, ctrl+r reset
//   - Calendar: ←/→ day, ↑/↓ week, pgup/pgdn month, t today, enter pick,
//     esc close
//   - Time: ↑/↓ hour, ←/→ 15 minutes, a/p am or pm, 1-4 quick times, n now,
//     enter select, del clear, esc cancel
//   - Flights: ↑/↓ scroll, esc back, q quit
package tui
