// Package syncdoc reads and replaces the single JSON snapshot the client syncs.
package syncdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/storage"
	"github.com/hyperjump/studio/pkg/utils"
)

// TimestampLayout is RFC 3339 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// EmptyDocument is returned before the first write.
var EmptyDocument = []byte(`{"updatedAt":null}`)

// ErrNotObject rejects a body that is not a JSON object. null counts as not an object.
var ErrNotObject = errors.New("sync body must be a JSON object")

// Service stamps and stores the document. Writers are not serialized against each
// other; the last completed save wins.
type Service struct {
	store  storage.DocumentStore
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewService wraps store.
func NewService(store storage.DocumentStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: utils.OrNop(logger), now: time.Now}
}

// Read returns the stored document bytes, or EmptyDocument when nothing was written.
func (s *Service) Read(ctx context.Context) ([]byte, error) {
	data, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return EmptyDocument, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// UpdatedAt returns the stamp of the stored document, or nil when there is none.
func (s *Service) UpdatedAt(ctx context.Context) (*string, error) {
	data, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var head struct {
		UpdatedAt *string `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return head.UpdatedAt, nil
}

// Write replaces the document with body, overwriting any client-supplied updatedAt,
// and returns the stamp it stored.
func (s *Service) Write(ctx context.Context, body []byte) (string, error) {
	doc, err := decodeObject(body)
	if err != nil {
		return "", err
	}
	stamp := s.stamp()
	doc["updatedAt"] = json.RawMessage(`"` + stamp + `"`)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sync document: %w", err)
	}
	if err := s.store.Save(ctx, out); err != nil {
		s.logger.Error("sync write failed", zap.Error(err))
		return "", err
	}
	s.logger.Debug("sync document written", zap.String("updatedAt", stamp), zap.Int("bytes", len(out)))
	return stamp, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

// stamp returns the current time, bumped by a millisecond when it would not be
// later than the previous stamp.
func (s *Service) stamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now().UTC().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t.Format(TimestampLayout)
}
