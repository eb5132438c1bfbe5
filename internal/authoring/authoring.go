// Package authoring is the AI gateway: it validates a request, builds the prompt,
// calls the configured provider and shapes the result.
package authoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/internal/prompt"
	"github.com/hyperjump/studio/internal/provider"
	"github.com/hyperjump/studio/internal/setup"
	"github.com/hyperjump/studio/pkg/utils"
)

// FormatHTML asks for a rendered copy of the reply next to the raw text.
const FormatHTML = "html"

// ErrInvalidRequest marks a request rejected before any provider call.
var ErrInvalidRequest = errors.New("invalid authoring request")

// Service answers authoring requests with one provider.
type Service struct {
	provider provider.Provider
	markdown goldmark.Markdown
	logger   *zap.Logger
}

// NewService creates the gateway around p.
func NewService(p provider.Provider, logger *zap.Logger) *Service {
	return &Service{
		provider: p,
		markdown: goldmark.New(),
		logger:   utils.OrNop(logger),
	}
}

// Provider returns the provider chosen at startup.
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// Validate checks the parts of req the prompt builder relies on.
func Validate(req *models.AuthoringRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if !req.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, req.Action)
	}
	if req.Context == nil {
		return fmt.Errorf("%w: context is required", ErrInvalidRequest)
	}
	return nil
}

// Author runs one request. Provider errors are returned unchanged so the caller can
// shape them; the result text may be empty but is never missing.
func (s *Service) Author(ctx context.Context, req *models.AuthoringRequest) (*models.AuthoringResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	requestID := uuid.New().String()
	log := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("action", string(req.Action)),
		zap.String("provider", s.provider.Name()),
	)

	built := prompt.Build(req)
	start := time.Now()
	out, err := s.provider.Complete(ctx, provider.Request{Messages: built.Messages, JSON: built.JSON})
	if err != nil {
		log.Error("ai request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	log.Info("ai request completed",
		zap.String("model", out.Model),
		zap.Int("chars", len(out.Text)),
		zap.Duration("elapsed", time.Since(start)))

	result := &models.AuthoringResult{
		Text:     out.Text,
		Model:    out.Model,
		Provider: s.provider.Name(),
	}
	if req.Action == models.ActionSetup {
		parsed, ok := setup.Parse(out.Text)
		if !ok {
			log.Warn("setup reply is not a json object", zap.String("reply", utils.Truncate(out.Text, 200)))
		}
		result.Setup = parsed.Skeleton(fallbackFor(req), ok)
	}
	if strings.EqualFold(req.Format, FormatHTML) && out.Text != "" {
		html, err := s.render(out.Text)
		if err != nil {
			log.Warn("render html failed", zap.Error(err))
		} else {
			result.HTML = html
		}
	}
	return result, nil
}

func (s *Service) render(text string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackFor picks the text a setup title falls back to: the user's message,
// then the context prompt, then the context title.
func fallbackFor(req *models.AuthoringRequest) setup.Fallback {
	source := strings.TrimSpace(req.Message)
	if source == "" {
		source = strings.TrimSpace(req.Context.Prompt)
	}
	if source == "" {
		source = strings.TrimSpace(req.Context.Title)
	}
	return setup.Fallback{Source: source, Range: strings.TrimSpace(req.Context.Range)}
}
