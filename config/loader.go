package config

import (
	"os"
	"path/filepath"

	"github.com/knivier/kinera/errors"
	"github.com/knivier/kinera/pkg/paths"
	"gopkg.in/yaml.v3"
)

const configFileName = "kinera.yml"

// Load reads and parses a kinera configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// LoadDefault finds and loads the configuration. A missing config file is
// not fatal: every setting has a default, so callers get a defaulted Config
// when no kinera.yml exists anywhere.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		cfg := &Config{}
		cfg.SetDefaults()
		return cfg, nil
	}

	return Load(path)
}

// FindConfigFile locates kinera.yml by walking up from startDir, falling
// back to the user config directory.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if configDir := paths.ConfigDir(); configDir != "" {
		candidate := filepath.Join(configDir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.ConfigNotFound(configFileName)
}
