// Package flightform is the flight-logging form core: picker values,
// autocomplete lookups, per-field validation and the aggregate state
// machine that decides when a submission may go out.
//
// # State Machine
//
// A Form is mutated only through Dispatch. Each call returns the Deferred
// events the host must feed back after a delay (dropdown close after blur,
// end of the post-reset window). Deferred events carry a generation token,
// so a later focus or reset supersedes an earlier timer, and Dispose makes
// every subsequent event a no-op.
//
//	form := flightform.New(reference.Default())
//	form.Dispatch(flightform.Focus{Field: flightform.DepartureAirport})
//	form.Dispatch(flightform.Input{Field: flightform.DepartureAirport, Value: "lax"})
//	form.Dispatch(flightform.Commit{Field: flightform.DepartureAirport, Key: "LAX"})
//
// Phases run Editing -> Submitting -> SuccessReset -> Editing, or back to
// Editing with a failure message when a leg fails. SuccessReset is as
// editable as Editing; it only keeps dropdowns closed for a moment after the
// fields are cleared.
//
// # Submission
//
// Submitter sends each leg to the flight-info endpoint and then to the
// store, outbound first. A failure stops the sequence. Session glues a
// Form, a Scheduler and a Submitter together for headless callers such as
// the HTTP API; the terminal UI drives a Form directly from its event loop.
package flightform
