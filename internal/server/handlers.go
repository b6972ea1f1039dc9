package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/errreport"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/reference"
	"github.com/muurk/skylog/internal/version"
)

var errMissingToken = auth.ErrNotSignedIn

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func (s *Server) message(err error) string {
	if s.deps.Message != nil {
		return s.deps.Message(err)
	}
	return errreport.UserMessage(err)
}

func (s *Server) report(err error, where string) {
	if s.deps.Reporter != nil {
		s.deps.Reporter.Report(err, where)
	}
}

// GET /api/health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Get(),
		"time":    s.deps.Now().UTC(),
	})
}

// GET /api/airports?q=lax&exclude=JFK
func (s *Server) handleAirports(c *gin.Context) {
	var exclude *reference.Airport
	if code := c.Query("exclude"); code != "" {
		if a, ok := s.deps.Catalog.AirportByCode(code); ok {
			exclude = &a
		}
	}
	matches := flightform.FilterAirports(c.Query("q"), s.deps.Catalog.Airports(), exclude)
	out := make([]flightform.Candidate, len(matches))
	for i, a := range matches {
		out[i] = flightform.Candidate{Key: a.Key(), Label: a.Display(), Detail: a.Detail()}
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/airlines?q=delta
func (s *Server) handleAirlines(c *gin.Context) {
	matches := flightform.FilterAirlines(c.Query("q"), s.deps.Catalog.Airlines())
	out := make([]flightform.Candidate, len(matches))
	for i, a := range matches {
		out[i] = flightform.Candidate{Key: a.Key(), Label: a.Display(), Detail: a.Detail()}
	}
	c.JSON(http.StatusOK, out)
}

type sendLinkRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// POST /api/auth/link
func (s *Server) handleSendLink(c *gin.Context) {
	var req sendLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, errreport.MsgBadRequest)
		return
	}

	if err := s.deps.Auth.SendMagicLink(c.Request.Context(), req.Email, req.FirstName, req.LastName); err != nil {
		s.report(err, "server.handleSendLink")
		abortError(c, authStatus(err), s.message(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

type completeLinkRequest struct {
	Link string `json:"link" binding:"required"`
}

type sessionResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// POST /api/auth/complete
func (s *Server) handleCompleteLink(c *gin.Context) {
	var req completeLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, errreport.MsgBadRequest)
		return
	}

	user, err := s.deps.Auth.CompleteMagicLink(c.Request.Context(), strings.TrimSpace(req.Link))
	if err != nil {
		s.report(err, "server.handleCompleteLink")
		abortError(c, authStatus(err), s.message(err))
		return
	}

	token, err := s.deps.Auth.IssueSession(user)
	if err != nil {
		s.report(err, "server.handleCompleteLink")
		abortError(c, http.StatusInternalServerError, s.message(err))
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Token: token, User: user})
}

// authStatus picks the HTTP status for an identity failure.
func authStatus(err error) int {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	if ae == auth.ErrInvalidEmail {
		return http.StatusBadRequest
	}
	return http.StatusUnauthorized
}

type flightsResponse struct {
	Flights []flightlog.Flight `json:"flights"`
}

// GET /api/flights
func (s *Server) handleListFlights(c *gin.Context) {
	flights, err := s.deps.Flights.FlightsFor(c.Request.Context(), c.GetString(uidKey))
	if err != nil {
		s.report(err, "server.handleListFlights")
		abortError(c, http.StatusInternalServerError, s.message(err))
		return
	}
	c.JSON(http.StatusOK, flightsResponse{Flights: flights})
}

type createFlightResponse struct {
	RecordIDs []string `json:"recordIds"`
	Message   string   `json:"message"`
}

// POST /api/flights runs the entry through the same form and submission
// sequence as the interactive client.
func (s *Server) handleCreateFlight(c *gin.Context) {
	var entry flightform.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		abortError(c, http.StatusBadRequest, errreport.MsgBadRequest)
		return
	}

	uid := c.GetString(uidKey)
	form := flightform.New(s.deps.Catalog, flightform.WithClock(s.deps.Now))
	session := flightform.NewSession(form, &flightform.Submitter{
		Publisher: s.deps.Publisher,
		Recorder:  s.deps.Flights.ForUser(uid),
		Reporter:  s.deps.Reporter,
		Message:   s.message,
	})
	defer session.Close()

	for _, ev := range entry.Events(s.deps.Catalog) {
		session.Dispatch(ev)
	}

	receipt, err := session.Submit(c.Request.Context())
	var invalid *flightform.InvalidFormError
	switch {
	case errors.As(err, &invalid):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
			Error:    errreport.MsgBadRequest,
			Problems: invalid.Problems,
		})
	case err != nil:
		// The form already reported the failure and holds the mapped text.
		abortError(c, http.StatusBadGateway, session.View().Failure)
	default:
		c.JSON(http.StatusCreated, createFlightResponse{
			RecordIDs: receipt.RecordIDs,
			Message:   session.View().Notice,
		})
	}
}
