package config

import "time"

// Config holds runtime settings for an embedding note-taking client.
//
// Fields:
//   - DatabasePath: path of the local SQLite file (":memory:" for tests).
//   - RemoteBaseURL: sync server root; empty runs local-only.
//   - AIBaseURL: assistant service root; empty disables AI features.
//   - DebounceInterval: quiescence window before queued edits are pushed.
//   - OnlineCheckInterval: how often the client probes remote reachability.
type Config struct {
	DatabasePath        string
	RemoteBaseURL       string
	AIBaseURL           string
	DebounceInterval    time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "offnote.db"
	c.RemoteBaseURL = ""
	c.AIBaseURL = ""
	c.DebounceInterval = 1 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
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
