// Package config provides configuration management for the taxonomy CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// taxonomy.yaml, TAXONOMY_* environment variables, explicitly set flags.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	// APIURL is the taxonomy API base, including the version prefix
	APIURL    string        `koanf:"api_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
	Output    string        `koanf:"output"`
	Verbose   bool          `koanf:"verbose"`
	LogFormat string        `koanf:"log_format"`
	UI        UIConfig      `koanf:"ui"`
	Mock      MockConfig    `koanf:"mock"`
}

// UIConfig holds configuration for the admin console.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	SessionSecret string `koanf:"session_secret"`
	// RefreshInterval is how often the console polls the API; negative disables
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// MockConfig holds configuration for the development mock API.
type MockConfig struct {
	Port int `koanf:"port"`
	// DBPath is the SQLite file, ":memory:" for a throwaway store
	DBPath string `koanf:"db_path"`
	// Seed is a YAML fixture file; empty uses the built-in fixture
	Seed  string `koanf:"seed"`
	Watch bool   `koanf:"watch"`
}

// Default configuration values.
const (
	DefaultAPIURL        = "http://localhost:8080/api/v1"
	DefaultTimeout       = 10 * time.Second
	DefaultRetries       = 2
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat     = "text"
	DefaultUIPort        = 8765
	DefaultMockPort      = 8080
	DefaultMockDBPath    = ":memory:"
	DefaultSessionSecret = "taxonomy-dev-secret-change-in-production" //nolint:gosec
	DefaultRefresh       = 15 * time.Second
)

// Config file names searched in the working directory.
var configFileNames = []string{"taxonomy.yaml", "taxonomy.yml"}

func defaults() map[string]any {
	return map[string]any{
		"api_url":             DefaultAPIURL,
		"timeout":             DefaultTimeout.String(),
		"retries":             DefaultRetries,
		"output":              DefaultOutput,
		"verbose":             false,
		"log_format":          DefaultLogFormat,
		"ui.port":             DefaultUIPort,
		"ui.auto_open":        true,
		"ui.session_secret":   DefaultSessionSecret,
		"ui.refresh_interval": DefaultRefresh.String(),
		"mock.port":           DefaultMockPort,
		"mock.db_path":        DefaultMockDBPath,
		"mock.seed":           "",
		"mock.watch":          true,
	}
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
		Output:    DefaultOutput,
		LogFormat: DefaultLogFormat,
		UI: UIConfig{
			Port:            DefaultUIPort,
			AutoOpen:        true,
			SessionSecret:   DefaultSessionSecret,
			RefreshInterval: DefaultRefresh,
		},
		Mock: MockConfig{
			Port:   DefaultMockPort,
			DBPath: DefaultMockDBPath,
			Watch:  true,
		},
	}
}
