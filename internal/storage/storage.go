// Package storage persists the single sync document behind a small interface
// with file, SQLite and Redis backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/pkg/utils"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("sync document not found")

// DocumentStore holds one opaque document. Save replaces it whole; a reader sees
// either the old or the new bytes, never a mix.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, body []byte) error
	Close() error
}

// Open builds the backend named by cfg.Backend.
func Open(cfg config.StorageConfig, logger *zap.Logger) (DocumentStore, error) {
	var (
		store    DocumentStore
		location string
		err      error
	)
	backend := cfg.Backend
	switch backend {
	case "", config.BackendFile:
		backend = config.BackendFile
		store, location = NewFileStore(cfg.SyncPath), cfg.SyncPath
	case config.BackendSQLite:
		store, err = NewSQLiteStore(cfg.DatabasePath)
		location = cfg.DatabasePath
	case config.BackendRedis:
		store, err = NewRedisStore(cfg.RedisURL, cfg.RedisKey)
		location = cfg.RedisKey
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	utils.OrNop(logger).Debug("sync store opened", zap.String("backend", backend), zap.String("location", location))
	return store, nil
}
