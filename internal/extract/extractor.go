// Package extract pulls readable text out of uploaded documents so it can be
// handed to the authoring gateway as reading material.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for media that carries no extractable text.
var ErrUnsupported = errors.New("no text can be extracted from this file type")

// binaryExts are upload types the notebook stores but never reads as text.
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true,
	".tif": true, ".tiff": true, ".heic": true, ".ico": true,
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true,
	".mp4": true, ".mov": true, ".webm": true, ".avi": true,
	".zip": true, ".gz": true, ".tar": true, ".7z": true,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ExtractBytes can read files with the given extension.
func Supported(ext string) bool {
	return !binaryExts[strings.ToLower(ext)]
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on its extension (with the leading dot).
// Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if binaryExts[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".pptx":
		return extractPPTX(content)
	case ".xlsx", ".xlsm":
		return extractSpreadsheet(content)
	case ".odt", ".odp", ".ods":
		return extractOpenDocument(content)
	default:
		return extractPlain(content)
	}
}
