// Package config provides user configuration management for SkyLog.
//
// Two YAML files live in the configuration directory:
//   - config.yaml holds user Settings: the flight-info endpoint, the store
//     driver, sign-in link settings, the HTTP server and preferences.
//   - state.yaml holds machine-written State: the pending magic-link
//     sign-in, the session token and the token signing key.
//
// # Configuration File Location
//
// SKYLOG_CONFIG_DIR overrides the directory. Otherwise:
//   - Linux: $XDG_CONFIG_HOME/skylog or $HOME/.config/skylog
//   - macOS: $HOME/.config/skylog
//   - Windows: %LOCALAPPDATA%\skylog
//
// # Usage Example
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings.API.URL = "https://example.com/flight-info"
//	if err := settings.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// Writes go to a temporary file that is renamed into place under a mutex.
package config
