package session

import (
	"encoding/json"
	"os"
)

// Config is the parsed session_config.json, read from the session root on
// every start.
type Config struct {
	// SessionScripts lists auxiliary command lines launched alongside the
	// CV pipeline, e.g. "python ProcessedData/synthesizer.py".
	SessionScripts []string `json:"session_scripts,omitempty" jsonschema:"description=Command lines spawned alongside the CV pipeline, one program with space-separated arguments per entry"`
}

// LoadConfig reads session_config.json from the given path. Absence, read
// failure, and parse failure all yield an empty config: a session with no
// auxiliary scripts is a normal state, so nothing here is an error.
func LoadConfig(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
