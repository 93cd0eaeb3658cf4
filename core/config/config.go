package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppName           = "aorta"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	Prompt      string   `json:"prompt" validate:"required"`
	HistoryFile string   `json:"history_file" validate:"required"`
	HistorySize int      `json:"history_size" validate:"gte=1"`
	RCFiles     []string `json:"rc_files" validate:"dive,required"`
	Color       string   `json:"color" validate:"oneof=auto always never"`
	Quiet       bool     `json:"quiet"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Fs returns the filesystem rooted at the configuration directory.
func (c *Configuration) Fs() afero.Fs {
	return c.configFs
}

// ReadHistory opens the history file for reading.
func (c *Configuration) ReadHistory() (afero.File, error) {
	return c.Fs().OpenFile(c.HistoryFile, os.O_RDONLY, 0600)
}

// DefaultDir returns the directory aorta keeps its configuration in.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// Default returns the built-in configuration backed by an in-memory
// directory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
