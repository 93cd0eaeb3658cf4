package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory. Settings missing from
// config.yaml, or the whole file, fall back to the defaults.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	out := defaultConfig()
	configContents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Use defaults.
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(configContents, out); err != nil {
			return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
		}
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}

	out.configFs = afero.NewBasePathFs(fsys, path)
	return out, nil
}

// Initialize creates the configuration directory with a default config.yaml
// if one doesn't exist yet, then loads it.
func Initialize(fsys afero.Fs, path string, logger *log.Logger) (*Configuration, error) {
	if err := fsys.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(path, ConfigurationName)
	switch exists, err := afero.Exists(fsys, configPath); {
	case err != nil:
		return nil, err
	case exists:
		logger.Printf("Config %s already exists, leaving it alone.", configPath)
	default:
		if err := afero.WriteFile(fsys, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
		logger.Printf("Wrote %s", configPath)
	}

	return Load(fsys, path)
}
