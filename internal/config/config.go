// Package config loads the CLI settings from defaults, .specslim.yaml, the environment and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// FileName is the settings file looked up in the working directory.
	FileName = ".specslim.yaml"
	// EnvPrefix prefixes the environment variables read, e.g. SPECSLIM_LOG_FORMAT.
	EnvPrefix = "SPECSLIM"

	ErrInvalidSettings = errors.Error("invalid settings")
)

// Settings are the tool-wide options. Trimming rules live in profiles.
type Settings struct {
	Verbose   bool   `mapstructure:"verbose"`
	Quiet     bool   `mapstructure:"quiet"`
	LogFormat string `mapstructure:"log-format" validate:"oneof=text json"`
	// Concurrency bounds how many profiles a batch run processes at once.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// CacheSize is how many parsed sources a batch run keeps.
	CacheSize int `mapstructure:"cache-size" validate:"gte=1"`
	// MaxPasses bounds repeated cycle breaking when resolving until acyclic.
	MaxPasses       int    `mapstructure:"max-passes" validate:"gte=1"`
	JSONPathVersion string `mapstructure:"jsonpath-version" validate:"oneof=rfc9535 legacy"`
}

var defaults = map[string]any{
	"verbose":          false,
	"quiet":            false,
	"log-format":       "text",
	"concurrency":      4,
	"cache-size":       document.DefaultCacheSize,
	"max-passes":       10,
	"jsonpath-version": "rfc9535",
}

var validate = validator.New()

// Defaults returns the settings Load produces when nothing overrides them.
func Defaults() *Settings {
	return &Settings{
		LogFormat:       "text",
		Concurrency:     4,
		CacheSize:       document.DefaultCacheSize,
		MaxPasses:       10,
		JSONPathVersion: "rfc9535",
	}
}

// Load reads settings with the precedence flags > environment > settings file > defaults.
// A .env file in dir is loaded into the environment first; variables already set win.
// Flags are bound by name, so only flags named like a setting key take part.
func Load(dir string, flags *pflag.FlagSet) (*Settings, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key := range defaults {
			if flag := flags.Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", key, err)
				}
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %w", err)
	}

	if err := validate.Struct(&settings); err != nil {
		return nil, ErrInvalidSettings.Wrap(err)
	}

	return &settings, nil
}
