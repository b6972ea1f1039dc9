package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Settings represents the user configuration file.
type Settings struct {
	Version     int             `yaml:"version"`
	API         *APISettings    `yaml:"api,omitempty"`
	Store       *StoreSettings  `yaml:"store,omitempty"`
	Auth        *AuthSettings   `yaml:"auth,omitempty"`
	Server      *ServerSettings `yaml:"server,omitempty"`
	Preferences *Preferences    `yaml:"preferences,omitempty"`
}

// APISettings configures the flight-info endpoint.
type APISettings struct {
	URL            string `yaml:"url"`                       // POST target for each leg
	Token          string `yaml:"token,omitempty"`           // Sent in the "token" header
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Per-attempt timeout
	MaxRetries     int    `yaml:"max_retries"`               // Retries for failures while connecting
}

// StoreSettings selects the document store.
type StoreSettings struct {
	Driver string `yaml:"driver"`        // "sqlite" or "mysql"
	DSN    string `yaml:"dsn,omitempty"` // sqlite file path or mysql DSN; empty means skylog.db in the config dir
}

// AuthSettings configures magic-link sign-in.
type AuthSettings struct {
	LinkBaseURL  string `yaml:"link_base_url"`           // Sign-in links are this URL plus ?token=...
	SenderName   string `yaml:"sender_name,omitempty"`   // From name on sign-in mail
	SenderEmail  string `yaml:"sender_email,omitempty"`  // From address on sign-in mail
	SupportEmail string `yaml:"support_email,omitempty"` // Shown in the footer of sign-in mail
}

// ServerSettings configures `skylog serve`.
type ServerSettings struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	Advertise      bool     `yaml:"advertise"`               // Register on the LAN via mDNS
	InstanceName   string   `yaml:"instance_name,omitempty"` // mDNS instance name, defaults to the hostname
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	LogLevel string `yaml:"log_level,omitempty"` // debug, info, warn, error; empty disables logging
}

// State is machine-written data kept apart from Settings: the pending
// sign-in, the session token and the token signing key.
type State struct {
	Version       int            `yaml:"version"`
	PendingSignIn *PendingSignIn `yaml:"pending_sign_in,omitempty"`
	SessionToken  string         `yaml:"session_token,omitempty"`
	SigningKey    string         `yaml:"signing_key,omitempty"`
}

// PendingSignIn is cached between sending a magic link and completing it.
type PendingSignIn struct {
	Email       string    `yaml:"email"`
	FirstName   string    `yaml:"first_name,omitempty"`
	LastName    string    `yaml:"last_name,omitempty"`
	RequestedAt time.Time `yaml:"requested_at"`
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	s := &Settings{Version: 1}
	s.applyDefaults()
	return s
}

// NewState creates an empty State.
func NewState() *State {
	return &State{Version: 1}
}

func (s *Settings) applyDefaults() {
	if s.API == nil {
		s.API = &APISettings{}
	}
	if s.API.TimeoutSeconds <= 0 {
		s.API.TimeoutSeconds = 15
	}
	if s.API.MaxRetries < 0 {
		s.API.MaxRetries = 0
	}

	if s.Store == nil {
		s.Store = &StoreSettings{}
	}
	if s.Store.Driver == "" {
		s.Store.Driver = "sqlite"
	}

	if s.Auth == nil {
		s.Auth = &AuthSettings{}
	}
	if s.Auth.LinkBaseURL == "" {
		s.Auth.LinkBaseURL = "skylog://sign-in"
	}
	if s.Auth.SenderName == "" {
		s.Auth.SenderName = "SkyLog"
	}

	if s.Server == nil {
		s.Server = &ServerSettings{}
	}
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}

	if s.Preferences == nil {
		s.Preferences = &Preferences{}
	}
}

// ApplyEnv overlays SKYLOG_API_URL and SKYLOG_API_TOKEN.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		s.API.URL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		s.API.Token = v
	}
}

// Validate checks the values that cannot be defaulted.
func (s *Settings) Validate() error {
	switch s.Store.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("store.driver must be sqlite or mysql, got %q", s.Store.Driver)
	}
	if s.Store.Driver == "mysql" && s.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for the mysql driver")
	}
	if s.API.URL != "" && !strings.HasPrefix(s.API.URL, "http://") && !strings.HasPrefix(s.API.URL, "https://") {
		return fmt.Errorf("api.url must be an http or https URL, got %q", s.API.URL)
	}
	switch s.Preferences.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("preferences.log_level must be debug, info, warn or error, got %q", s.Preferences.LogLevel)
	}
	return nil
}

// Timeout returns the per-attempt API timeout.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.API.TimeoutSeconds) * time.Second
}
