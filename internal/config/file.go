package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rodja/ChatGPT/internal/constants"
)

// Config file names, checked in order at each location. JSON is the
// primary format; YAML is accepted for people who keep the rest of
// their tool config in YAML.
var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// ConfigPaths returns the candidate config file paths in priority order:
// current directory, then $XDG_CONFIG_HOME, then ~/.config.
func ConfigPaths() []string {
	var paths []string

	for _, name := range configFileNames {
		paths = append(paths, filepath.Join(".", name))
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		for _, name := range configFileNames {
			paths = append(paths, filepath.Join(xdg, constants.AppDirName, name))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range configFileNames {
			paths = append(paths, filepath.Join(home, ".config", constants.AppDirName, name))
		}
	}

	return paths
}

// Load finds and loads the first existing config file. Returns
// ErrNoConfigFile when none of the candidate paths exist.
func Load() (*Config, error) {
	for _, path := range ConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadPath(path)
		}
	}
	return nil, ErrNoConfigFile
}

// LoadPath loads config from a specific path, choosing the decoder by
// file extension.
func LoadPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}
