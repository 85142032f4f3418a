package config

import "time"

// Config holds runtime settings for the MedCare CLI.
//
// Fields:
//   - ServerURL: base URL of the backend REST API, including the /api prefix.
//   - RequestTimeout: per-request deadline applied by the HTTP gateway.
//   - StoragePath: path of the local credential database file.
//   - GoogleClientID: OAuth client id for the "google" sign-in command.
//
// Units: RequestTimeout is a time.Duration (e.g., 10*time.Second).
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	StoragePath    string
	GoogleClientID string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000/api"
	c.RequestTimeout = 10 * time.Second
	c.StoragePath = "medcare.db"
	c.GoogleClientID = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
