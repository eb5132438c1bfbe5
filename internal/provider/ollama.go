package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
)

const ollamaFailure = "Ollama request failed"

// Ollama calls a local Ollama daemon with one fixed model. There is no fallback list.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewOllama builds the local provider. A nil client uses http.DefaultClient.
func NewOllama(baseURL, model string, client *http.Client, logger *zap.Logger) *Ollama {
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:   model,
		client:  client,
		logger:  utils.OrNop(logger),
	}
}

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Format   string               `json:"format,omitempty"`
	Options  ollamaOptions        `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

func (o *Ollama) Name() string  { return config.ProviderOllama }
func (o *Ollama) Model() string { return o.model }

// Complete issues a single non-streaming chat request.
func (o *Ollama) Complete(ctx context.Context, req Request) (Completion, error) {
	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: req.Messages,
		Options:  ollamaOptions{Temperature: Temperature},
	}
	if req.JSON {
		payload.Format = "json"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, fmt.Errorf("encode ollama request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	utils.OrNop(o.logger).Debug("ollama request", zap.String("model", o.model), zap.Bool("json", req.JSON))
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Completion{}, &APIError{Provider: config.ProviderOllama, Message: ollamaFailure, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Completion{}, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = ollamaFailure
		}
		return Completion{}, &APIError{Provider: config.ProviderOllama, StatusCode: resp.StatusCode, Message: msg}
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Completion{}, fmt.Errorf("decode ollama response: %w", err)
	}
	return Completion{Text: strings.TrimSpace(out.Message.Content), Model: o.model}, nil
}
