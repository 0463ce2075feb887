package app

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/mcmc"
)

// ErrInvalidConfig wraps every validation failure of Config.
var ErrInvalidConfig = errors.New("invalid config")

// ConfigFile is the filename looked up inside .decipher/ when --config is not given.
const ConfigFile = "config.yaml"

// Environment overrides, applied after the config file.
const (
	EnvAttempts = "DECIPHER_ATTEMPTS"
	EnvSteps    = "DECIPHER_STEPS"
	EnvWorkers  = "DECIPHER_WORKERS"
	EnvSeed     = "DECIPHER_SEED"
	EnvCorpus   = "DECIPHER_CORPUS"
	EnvLogLevel = "DECIPHER_LOG_LEVEL"
)

// configValidate is shared; validator caches struct metadata per instance.
var configValidate = validator.New()

// Config holds the user-tunable settings. Zero values are never used
// directly: DefaultConfig fills everything in and the YAML file overlays it.
type Config struct {
	Alphabet    string `json:"alphabet" yaml:"alphabet" validate:"required"`
	Corpus      string `json:"corpus" yaml:"corpus"`
	Attempts    int    `json:"attempts" yaml:"attempts" validate:"gte=1"`
	Steps       int    `json:"steps" yaml:"steps" validate:"gte=0"`
	Workers     int    `json:"workers" yaml:"workers" validate:"gte=1,lte=1024"`
	Seed        uint64 `json:"seed" yaml:"seed"`
	FullRescore bool   `json:"full_rescore" yaml:"full_rescore"`
	NGram       int    `json:"ngram" yaml:"ngram" validate:"gte=1,lte=8"`
	LogLevel    string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	History     bool   `json:"history" yaml:"history"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Alphabet: alphabet.English,
		Attempts: mcmc.DefaultAttempts,
		Steps:    mcmc.DefaultSteps,
		Workers:  1,
		NGram:    1,
		LogLevel: "info",
		History:  true,
	}
}

// LoadConfig builds the effective config: defaults, then the YAML file at
// path (a missing file is not an error), then environment overrides.
// The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadConfigFromEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty file decodes to io.EOF; keep the defaults.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadConfigFromEnv(cfg *Config) error {
	ints := []struct {
		env string
		dst *int
	}{
		{EnvAttempts, &cfg.Attempts},
		{EnvSteps, &cfg.Steps},
		{EnvWorkers, &cfg.Workers},
	}
	for _, e := range ints {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, e.env, v)
		}
		*e.dst = i
	}
	if v := os.Getenv(EnvSeed); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an unsigned integer", ErrInvalidConfig, EnvSeed, v)
		}
		cfg.Seed = s
	}
	if v := os.Getenv(EnvCorpus); v != "" {
		cfg.Corpus = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Validate checks struct tags and that the alphabet is usable.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := alphabet.New(c.Alphabet); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Search converts the MCMC fields into a decoder config.
func (c Config) Search() mcmc.Config {
	return mcmc.Config{
		Attempts:    c.Attempts,
		Steps:       c.Steps,
		Workers:     c.Workers,
		Seed:        c.Seed,
		FullRescore: c.FullRescore,
	}
}

// Level maps LogLevel onto slog. Unknown names fall back to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// YAML renders the config in the same format LoadConfig reads.
func (c Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
