package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 180 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 25 << 20
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.SyncPath == "" {
		cfg.Storage.SyncPath = "./data/sync.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/sync.db"
	}
	if cfg.Storage.RedisKey == "" {
		cfg.Storage.RedisKey = "studio:sync"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "./data/uploads"
	}
	if cfg.AI.OllamaURL == "" {
		cfg.AI.OllamaURL = "http://127.0.0.1:11434"
	}
	if cfg.AI.OllamaModel == "" {
		cfg.AI.OllamaModel = "llama3.1"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 120 * time.Second
	}
}
