// Package server implements the SkyLog HTTP API.
//
// Routes:
//
//	GET  /api/health          liveness
//	GET  /api/airports        airport candidates for ?q=, minus ?exclude=
//	GET  /api/airlines        airline candidates for ?q=
//	POST /api/auth/link       send a magic sign-in link
//	POST /api/auth/complete   exchange a link for a session token
//	GET  /api/flights         the caller's flights, newest first
//	POST /api/flights         submit a flight entry (one-way or round trip)
//	GET  /api/flights/live    websocket feed of flight snapshots
//
// The /api/flights routes require "Authorization: Bearer <token>". The live
// feed also accepts ?token= because browsers cannot set headers on a
// websocket handshake.
//
// POST /api/flights drives the same form state machine as the terminal
// client, so validation and the publish-then-record sequence are shared.
//
// # Graceful Shutdown
//
// Serve returns when its context ends. Shutdown stops the listener, closes
// live connections with a going-away frame and waits for their handlers.
package server
