package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/offnote/offnote/internal/flagx"
	"github.com/offnote/offnote/pkg/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so the file can carry either strings like "1s" or integer
// nanoseconds.
type JsonConfig struct {
	DatabasePath        string         `json:"database_path"`
	RemoteBaseURL       string         `json:"remote_base_url"`
	AIBaseURL           string         `json:"ai_base_url"`
	DebounceInterval    timex.Duration `json:"debounce_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Without the flag it is a no-op. Read and unmarshal errors
// panic; misconfiguration should stop startup. Fields absent from the file
// keep their current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RemoteBaseURL != "" {
		cfg.RemoteBaseURL = jc.RemoteBaseURL
	}
	if jc.AIBaseURL != "" {
		cfg.AIBaseURL = jc.AIBaseURL
	}
	if jc.DebounceInterval.Duration > 0 {
		cfg.DebounceInterval = time.Duration(jc.DebounceInterval.Duration)
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
}
