package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are the recognized configuration file names, in lookup
// order within each directory: the YAML spellings win over TOML.
var ConfigFileNames = []string{"specsync.yaml", "specsync.yml", "specsync.toml"}

// FindConfigFile walks up from the given directory to find a configuration
// file. Returns the absolute path to the first match, or an empty string if
// none exists up to the filesystem root.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root.
			return "", nil
		}
		dir = parent
	}
}

// LoadFromFile parses the configuration file at the given path. The format
// follows the extension: .toml decodes with BurntSushi/toml and returns the
// decoder metadata so Validate can flag unknown keys via MetaData.Undecoded();
// .yaml and .yml decode with yaml.v3 and return nil metadata.
func LoadFromFile(path string) (*Config, *toml.MetaData, error) {
	var cfg Config
	switch filepath.Ext(path) {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return &cfg, &md, nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return &cfg, nil, nil
	default:
		return nil, nil, fmt.Errorf("loading config %s: unsupported extension %q", path, filepath.Ext(path))
	}
}
