package config

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ApplyEnv overrides cfg with any of the supported environment variables that are set.
// getenv is os.Getenv outside of tests.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("HOST", &cfg.Server.Host)
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(getenv("DEBUG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	str("STUDIO_CORS_ORIGIN", &cfg.Server.CORSOrigin)

	if dir := strings.TrimSpace(getenv("STUDIO_DATA_DIR")); dir != "" {
		join := func(name string) string {
			p := filepath.Join(dir, name)
			if !filepath.IsAbs(p) {
				p = "./" + p
			}
			return p
		}
		cfg.Storage.SyncPath = join("sync.json")
		cfg.Storage.DatabasePath = join("sync.db")
		cfg.Storage.UploadsDir = join("uploads")
	}
	str("STUDIO_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("REDIS_URL", &cfg.Storage.RedisURL)

	str("SYNC_TOKEN", &cfg.Auth.SyncToken)

	str("AI_PROVIDER", &cfg.AI.Provider)
	str("OPENAI_API_KEY", &cfg.AI.OpenAIAPIKey)
	str("OPENAI_MODEL", &cfg.AI.OpenAIModel)
	str("OPENAI_BASE_URL", &cfg.AI.OpenAIBaseURL)
	str("OLLAMA_URL", &cfg.AI.OllamaURL)
	str("OLLAMA_MODEL", &cfg.AI.OllamaModel)
}
