// Package provider dispatches chat conversations to the configured LLM backend.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
	"go.uber.org/zap"
)

// Temperature is used for every completion.
const Temperature = 0.4

var (
	// ErrNotConfigured is returned before any network call when the hosted provider has no API key.
	ErrNotConfigured = errors.New("openai api key is not configured")
	// ErrNoAvailableModel is returned when the candidate list is empty.
	ErrNoAvailableModel = errors.New("no available model")
)

// Request is one completion call.
type Request struct {
	Messages []models.ChatMessage
	// JSON asks the backend for a JSON object reply.
	JSON bool
}

// Completion is the trimmed reply and the model that produced it.
type Completion struct {
	Text  string
	Model string
}

// Provider is a chat backend selected once per process.
type Provider interface {
	// Name is "openai" or "ollama".
	Name() string
	// Model is the preferred model reported in status output.
	Model() string
	Complete(ctx context.Context, req Request) (Completion, error)
}

// New builds the provider chosen by cfg.ResolveProvider.
func New(cfg config.AIConfig, logger *zap.Logger) (Provider, error) {
	name, err := cfg.ResolveProvider()
	if err != nil {
		return nil, err
	}
	logger = utils.OrNop(logger)
	switch name {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:         cfg.OpenAIAPIKey,
			PreferredModel: cfg.OpenAIModel,
			BaseURL:        cfg.OpenAIBaseURL,
			Timeout:        cfg.Timeout,
		}, logger), nil
	default:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, &http.Client{Timeout: cfg.Timeout}, logger), nil
	}
}
