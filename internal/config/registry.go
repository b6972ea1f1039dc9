package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName      = "skylog"
	settingsFile = "config.yaml"
	stateFile    = "state.yaml"
	databaseFile = "skylog.db"

	// EnvConfigDir overrides the configuration directory on every platform.
	EnvConfigDir = "SKYLOG_CONFIG_DIR"
	EnvAPIURL    = "SKYLOG_API_URL"
	EnvAPIToken  = "SKYLOG_API_TOKEN"
)

var (
	// Global settings instance (loaded lazily)
	globalSettings     *Settings
	globalSettingsOnce sync.Once
	globalSettingsErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// SKYLOG_CONFIG_DIR wins when set; otherwise:
//   - Linux: $XDG_CONFIG_HOME/skylog or $HOME/.config/skylog
//   - macOS: $HOME/.config/skylog
//   - Windows: %LOCALAPPDATA%\skylog
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

func configFilePath(name string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

// GetConfigPath returns the full path to the settings file.
func GetConfigPath() (string, error) {
	return configFilePath(settingsFile)
}

// GetStatePath returns the full path to the state file.
func GetStatePath() (string, error) {
	return configFilePath(stateFile)
}

// DatabasePath returns the default sqlite database path.
func DatabasePath() (string, error) {
	return configFilePath(databaseFile)
}

// StoreDSN returns the configured DSN, falling back to DatabasePath for sqlite.
func (s *Settings) StoreDSN() (string, error) {
	if s.Store.DSN != "" || s.Store.Driver != "sqlite" {
		return s.Store.DSN, nil
	}
	return DatabasePath()
}

// LoadSettings loads the settings from disk, applies defaults and
// environment overrides. Thread-safe - multiple calls return the same instance.
func LoadSettings() (*Settings, error) {
	globalSettingsOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalSettingsErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalSettings, globalSettingsErr = LoadSettingsFrom(path)
	})
	return globalSettings, globalSettingsErr
}

// LoadSettingsFrom reads settings from path. A missing file yields defaults.
func LoadSettingsFrom(path string) (*Settings, error) {
	settings := NewSettings()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		settings.ApplyEnv()
		return settings, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings = &Settings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if settings.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", settings.Version)
	}

	settings.applyDefaults()
	settings.ApplyEnv()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return settings, nil
}

// ReloadSettings reloads the settings from disk, discarding any in-memory changes.
func ReloadSettings() (*Settings, error) {
	fileMutex.Lock()
	globalSettingsOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadSettings()
}

// Save writes the settings to the default path.
func (s *Settings) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings to path atomically.
func (s *Settings) SaveTo(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# SkyLog Configuration File
# API tokens may also be supplied through SKYLOG_API_URL and SKYLOG_API_TOKEN.
#
# Location: ` + path + `

`)
	return writeAtomic(path, append(header, data...))
}

// CreateDefaultConfig writes a default settings file if none exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return path, NewSettings().SaveTo(path)
}

// writeAtomic writes to a temporary file and renames it over path.
func writeAtomic(path string, data []byte) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}

	return nil
}
