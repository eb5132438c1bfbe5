// Package config provides configuration loading and structs for the History Studio server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by ai.provider / AI_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Storage backends accepted by storage.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	AI      AIConfig      `yaml:"ai"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// StorageConfig holds the sync document backend and upload directory.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	SyncPath     string `yaml:"sync_path"`
	DatabasePath string `yaml:"database_path"`
	RedisURL     string `yaml:"redis_url"`
	RedisKey     string `yaml:"redis_key"`
	UploadsDir   string `yaml:"uploads_dir"`
}

// AuthConfig holds the shared secret guarding sync and upload routes.
// An empty SyncToken leaves those routes open.
type AuthConfig struct {
	SyncToken string `yaml:"sync_token"`
}

// AIConfig holds provider settings for the authoring gateway.
type AIConfig struct {
	Provider      string        `yaml:"provider"`
	OpenAIAPIKey  string        `yaml:"openai_api_key"`
	OpenAIModel   string        `yaml:"openai_model"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	OllamaURL     string        `yaml:"ollama_url"`
	OllamaModel   string        `yaml:"ollama_model"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ResolveProvider returns the provider used for the whole process lifetime:
// the explicit override, else openai when an API key is present, else ollama.
func (a *AIConfig) ResolveProvider() (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(a.Provider)); p {
	case ProviderOpenAI, ProviderOllama:
		return p, nil
	case "":
		if strings.TrimSpace(a.OpenAIAPIKey) != "" {
			return ProviderOpenAI, nil
		}
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("unknown ai provider %q", a.Provider)
	}
}

// Load reads and parses the config file at path, applies environment overrides and defaults,
// and expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load, but a missing file yields a config built from
// environment variables and defaults alone, with paths relative to the working directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	cfg = &Config{}
	if err := finish(cfg, cwd); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config, baseDir string) error {
	ApplyEnv(cfg, os.Getenv)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	cfg.Storage.SyncPath = expandPath(cfg.Storage.SyncPath, baseDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, baseDir)
	cfg.Storage.UploadsDir = expandPath(cfg.Storage.UploadsDir, baseDir)
	return nil
}

// Validate rejects values no component can serve.
func Validate(cfg *Config) error {
	if _, err := cfg.AI.ResolveProvider(); err != nil {
		return err
	}
	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite:
	case BackendRedis:
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage backend %q requires redis_url", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// Save writes the config to path. Used by "studio init".
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
