// Package config loads calctutor settings from an optional YAML file and
// CALCTUTOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/cache"
	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CALCTUTOR_"

// ServerConfig is where the API listens and where clients find it.
type ServerConfig struct {
	Addr string `env:"ADDR" yaml:"addr"`
	URL  string `env:"URL" yaml:"url"`
}

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `envPrefix:"SERVER_" yaml:"server"`

	// DB is a SQLite file path or a postgres:// DSN. Empty uses the XDG
	// data directory.
	DB string `env:"DB" yaml:"db"`

	// RedisURL enables the student cache when set.
	RedisURL string        `env:"REDIS_URL" yaml:"redis_url"`
	CacheTTL time.Duration `env:"CACHE_TTL" yaml:"cache_ttl"`

	OpenAI assistant.Config      `envPrefix:"OPENAI_" yaml:"openai"`
	Relay  assistant.RelayConfig `envPrefix:"RELAY_" yaml:"relay"`
	LLM    llm.Config            `envPrefix:"LLM_" yaml:"llm"`
	Log    logging.Config        `envPrefix:"LOG_" yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", URL: "http://localhost:8080"},
		CacheTTL: cache.DefaultTTL,
		OpenAI:   assistant.Config{Model: "gpt-4o"},
		Relay:    assistant.DefaultRelayConfig(),
		LLM:      llm.DefaultConfig(),
		Log:      logging.Config{Level: "info", Format: "text"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/calctutor/config.yml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "calctutor", "config.yml"), nil
}

// Load reads path (or the default file when path is empty and the file
// exists), then applies the environment on top.
func Load(path string) (Config, error) {
	return load(path, environ())
}

func load(path string, environment map[string]string) (Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return c, err
		}
		path = p
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &c); err != nil {
			return c, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return c, fmt.Errorf("read config file: %w", err)
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix, Environment: environment}); err != nil {
		return c, fmt.Errorf("parse environment: %w", err)
	}

	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = environment["OPENAI_API_KEY"]
	}

	return c, c.Validate()
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	if c.Relay.PollInterval <= 0 {
		errs = append(errs, errors.New("relay poll interval must be positive"))
	}
	if c.Relay.RunTimeout < c.Relay.PollInterval {
		errs = append(errs, errors.New("relay run timeout must not be shorter than the poll interval"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache ttl must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
