package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                 `yaml:"app"`
	Server     ServerConfig              `yaml:"server"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Store      StoreConfig               `yaml:"store"`
	Memory     MemoryConfig              `yaml:"memory"`
	Guard      GuardConfig               `yaml:"guard"`
	Logging    LoggingConfig             `yaml:"logging"`
	Prompts    PromptsConfig             `yaml:"prompts"`
	Validation ValidationConfig          `yaml:"validation"`
}

type AppConfig struct {
	Name string `yaml:"name"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// StoreConfig bounds the volatile strategy store. Zero values keep it unbounded.
type StoreConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// MemoryConfig points at the optional sqlite database. An empty path runs stateless.
type MemoryConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

type GuardConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	LLMLogPath string `yaml:"llm_log_path"`
}

type PromptsConfig struct {
	Directory string `yaml:"directory"`
}

// ValidationConfig limits caller input before it reaches a prompt.
type ValidationConfig struct {
	MaxInputChars  int      `yaml:"max_input_chars"`
	DeniedPatterns []string `yaml:"denied_patterns"`
}

// providerPriority fixes which enabled provider wins when several are configured.
var providerPriority = []string{"gemini", "openai", "openrouter"}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "aria"},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			UpstreamTimeout: 20 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Providers: map[string]ProviderConfig{
			"gemini": {Model: "gemini-1.5-flash", Enabled: true},
		},
		Memory: MemoryConfig{Type: "sqlite"},
		Guard: GuardConfig{
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Logging:    LoggingConfig{Level: "info"},
		Validation: ValidationConfig{MaxInputChars: 4000},
	}
}

// LoadConfig reads the YAML file at path on top of Default and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("ARIA_DB_PATH"); v != "" {
		c.Memory.Path = v
	}
	if v := os.Getenv("ARIA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		p := c.Providers["gemini"]
		p.APIKey = v
		p.Enabled = true
		c.Providers["gemini"] = p
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		p := c.Providers["openai"]
		p.APIKey = v
		p.Enabled = true
		c.Providers["openai"] = p
	}
	return nil
}

// Validate reports configuration values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.UpstreamTimeout < 0 {
		errs = append(errs, errors.New("server.upstream_timeout must not be negative"))
	}
	if c.Store.MaxEntries < 0 {
		errs = append(errs, errors.New("store.max_entries must not be negative"))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}
	if c.Validation.MaxInputChars < 0 {
		errs = append(errs, errors.New("validation.max_input_chars must not be negative"))
	}
	if c.Guard.MaxFailures < 0 {
		errs = append(errs, errors.New("guard.max_failures must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDefaultProvider returns the highest priority usable provider, then any
// other usable one. A provider is usable when enabled and given an API key.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for _, name := range providerPriority {
		if p, ok := c.Providers[name]; ok && p.usable() {
			return name, p
		}
	}
	for name, p := range c.Providers {
		if p.usable() {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

func (p ProviderConfig) usable() bool {
	return p.Enabled && p.APIKey != ""
}
