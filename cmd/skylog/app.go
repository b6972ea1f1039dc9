package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/config"
	"github.com/muurk/skylog/internal/errreport"
	"github.com/muurk/skylog/internal/flightapi"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/reference"
	"github.com/muurk/skylog/internal/store"
	"github.com/muurk/skylog/internal/urls"
)

var errNotSignedIn = errors.New("not signed in; run 'skylog login send <email>' first (see " + urls.SignIn + ")")

// app holds the services every command builds from the settings file.
type app struct {
	settings *config.Settings
	store    *store.Store
	auth     *auth.Provider
	flights  *flightlog.Service
	catalog  *reference.Catalog
	reporter *errreport.Reporter
}

// initLogging configures zap from --log-level, then the settings file,
// then SKYLOG_LOG_LEVEL.
func initLogging(output string) error {
	level := logLevel
	if level == "" {
		if settings, err := config.LoadSettings(); err == nil {
			level = settings.Preferences.LogLevel
		}
	}
	return logging.InitializeWithOutput(level, output)
}

// openApp opens the store and restores the saved session. mailOut
// receives sign-in links.
func openApp(mailOut io.Writer) (*app, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	dsn, err := settings.StoreDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store location: %w", err)
	}
	st, err := store.Open(settings.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}

	stateFile, err := config.DefaultStateFile()
	if err != nil {
		st.Close()
		return nil, err
	}

	provider, err := auth.NewProvider(st, stateFile, auth.WriterMailer{Out: mailOut}, auth.WithSettings(*settings.Auth))
	if err != nil {
		st.Close()
		return nil, err
	}

	catalog, err := reference.Load()
	if err != nil {
		provider.Close()
		st.Close()
		return nil, err
	}

	return &app{
		settings: settings,
		store:    st,
		auth:     provider,
		flights:  flightlog.NewService(st, provider),
		catalog:  catalog,
		reporter: errreport.New(50),
	}, nil
}

func (a *app) Close() {
	a.auth.Close()
	if err := a.store.Close(); err != nil {
		logging.Warn("Failed to close store")
	}
}

// requireUser restores the saved session or explains how to sign in.
func (a *app) requireUser(ctx context.Context) (auth.User, error) {
	user, err := a.auth.Restore(ctx)
	if err != nil {
		return auth.User{}, err
	}
	if user == nil {
		return auth.User{}, errNotSignedIn
	}
	return *user, nil
}

// publisher builds the flight-info client from settings.
func (a *app) publisher() (*flightapi.Client, error) {
	if a.settings.API.URL == "" {
		path, _ := config.GetConfigPath()
		return nil, fmt.Errorf("api.url is not configured; set it in %s or via %s (see %s)", path, config.EnvAPIURL, urls.Configuration)
	}
	client := flightapi.NewClient(a.settings.API.URL, a.settings.API.Token)
	client.SetTimeout(a.settings.Timeout())
	client.SetRetry(a.settings.API.MaxRetries, flightapi.DefaultRetryDelay)
	return client, nil
}

// submitter wires publishing, recording and error reporting for one user.
func (a *app) submitter(pub flightform.Publisher) *flightform.Submitter {
	return &flightform.Submitter{
		Publisher: pub,
		Recorder:  a.flights,
		Reporter:  a.reporter,
		Message:   errreport.UserMessage,
	}
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
