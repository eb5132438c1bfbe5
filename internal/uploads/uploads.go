// Package uploads stores client attachments as flat files and serves them back.
package uploads

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/extract"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
)

const (
	// URLPrefix is where stored files are served.
	URLPrefix = "/uploads/"
	// DefaultName replaces a file name that sanitizes to nothing.
	DefaultName = "upload"
	// MaxTextChars bounds the text returned by Text.
	MaxTextChars = 200_000

	maxNameAttempts = 16
)

var (
	// ErrInvalidInput marks a missing file name or payload.
	ErrInvalidInput = errors.New("fileName and data are required")
	// ErrInvalidName marks a lookup name that is not a single stored file name.
	ErrInvalidName = errors.New("invalid upload name")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// SanitizeName replaces every character outside [A-Za-z0-9_.-] with '_'. Leading dots
// are replaced too, so the result is never "." or ".." or a hidden file.
func SanitizeName(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	if trimmed := strings.TrimLeft(safe, "."); len(trimmed) != len(safe) {
		safe = strings.Repeat("_", len(safe)-len(trimmed)) + trimmed
	}
	if safe == "" {
		return DefaultName
	}
	return safe
}

// Store writes uploads into one directory.
type Store struct {
	dir       string
	extractor *extract.Extractor
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{
		dir:       dir,
		extractor: extract.NewExtractor(),
		logger:    utils.OrNop(logger),
		now:       time.Now,
	}
}

// Dir is the uploads directory.
func (s *Store) Dir() string { return s.dir }

// Save decodes in.Data and writes it under a new timestamp-prefixed name.
// Nothing is left on disk when decoding or writing fails.
func (s *Store) Save(ctx context.Context, in models.UploadInput) (*models.UploadedAsset, error) {
	if strings.TrimSpace(in.FileName) == "" || in.Data == "" {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := decodePayload(in.Data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	safe := SanitizeName(in.FileName)
	f, stored, err := s.create(safe)
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close upload: %w", err)
	}

	fileType := strings.TrimSpace(in.FileType)
	if fileType == "" {
		fileType = mime.TypeByExtension(filepath.Ext(safe))
	}
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	s.logger.Info("upload stored", zap.String("name", stored), zap.Int("bytes", len(data)))
	return &models.UploadedAsset{
		URL:        URLPrefix + stored,
		FileName:   safe,
		FileType:   fileType,
		Size:       int64(len(data)),
		StoredName: stored,
	}, nil
}

// create opens a fresh <unixmillis>-<safe> file, moving the prefix forward when the
// name is already taken.
func (s *Store) create(safe string) (*os.File, string, error) {
	ms := s.now().UnixMilli()
	for i := 0; i < maxNameAttempts; i++ {
		name := fmt.Sprintf("%d-%s", ms+int64(i), safe)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create upload: %w", err)
		}
		return f, name, nil
	}
	return nil, "", fmt.Errorf("create upload: no free name for %s", safe)
}

// decodePayload accepts a data URL or bare base64, in padded or unpadded form.
func decodePayload(data string) ([]byte, error) {
	if i := strings.Index(data, "base64,"); i >= 0 {
		data = data[i+len("base64,"):]
	}
	data = strings.TrimSpace(data)
	out, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return out, nil
	}
	out, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("decode upload: %w", err)
	}
	return out, nil
}

// Path resolves a stored name inside the uploads directory.
func (s *Store) Path(name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00") && filepath.Base(name) == name
}

// Open returns the stored file for reading.
func (s *Store) Open(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Text extracts readable text from a stored upload, clipped to MaxTextChars.
func (s *Store) Text(ctx context.Context, name string) (*models.AssetText, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := s.extractor.ExtractBytes(content, filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	return &models.AssetText{FileName: name, Text: utils.Truncate(strings.TrimSpace(text), MaxTextChars)}, nil
}

// Stats counts stored files and their total size. A missing directory is empty.
func (s *Store) Stats() (count int, size int64, err error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read uploads directory: %w", err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, 0, err
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}
