package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// SessionSettings configures how the CV session is launched.
type SessionSettings struct {
	// Script is the frame-producing pipeline script, relative to the
	// session root.
	Script string `yaml:"script,omitempty" toml:"script,omitempty" jsonschema:"description=Path to the CV pipeline script relative to the session root"`

	// Launchers are the interpreter names tried in order when spawning
	// the pipeline.
	Launchers []string `yaml:"launchers,omitempty" toml:"launchers,omitempty" jsonschema:"description=Interpreter names tried in order when launching the pipeline"`
}

// Config is the parsed kinera.yml.
type Config struct {
	Version string           `yaml:"version,omitempty" jsonschema:"description=Config format version"`
	Session *SessionSettings `yaml:"session,omitempty" jsonschema:"description=CV session launch settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" jsonschema:"-"`
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Session == nil {
		c.Session = &SessionSettings{}
	}
	if c.Session.Script == "" {
		c.Session.Script = "cv/cv_stdout_frames.py"
	}
	if len(c.Session.Launchers) == 0 {
		c.Session.Launchers = []string{"python3", "python"}
	}
}

// UnmarshalExtension decodes an arbitrary top-level section of the loaded
// kinera.yml into the provided target struct. The target must be a pointer.
// This gives subsystems (logging, TUI) type-safe access to their own config
// sections without the core schema knowing about them.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// Not an error; the target stays zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
