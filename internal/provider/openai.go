package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
)

// FallbackModels are tried, in order, after the preferred model.
var FallbackModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"}

// OpenAIOptions configures the hosted provider.
type OpenAIOptions struct {
	APIKey         string
	PreferredModel string
	BaseURL        string
	Timeout        time.Duration
}

type chatFunc func(ctx context.Context, model string, req Request) (string, error)

// OpenAI talks to an OpenAI-compatible API and walks a candidate model list.
type OpenAI struct {
	apiKey     string
	candidates []string
	chat       chatFunc
	logger     *zap.Logger
}

// NewOpenAI builds the hosted provider. The SDK's own retries are disabled;
// the candidate loop is the only retry.
func NewOpenAI(opts OpenAIOptions, logger *zap.Logger) *OpenAI {
	p := &OpenAI{
		apiKey:     strings.TrimSpace(opts.APIKey),
		candidates: Candidates(opts.PreferredModel, FallbackModels),
		logger:     utils.OrNop(logger),
	}
	if p.apiKey != "" {
		reqOpts := []option.RequestOption{
			option.WithAPIKey(p.apiKey),
			option.WithMaxRetries(0),
		}
		if opts.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
		}
		if opts.Timeout > 0 {
			reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
		}
		client := openai.NewClient(reqOpts...)
		p.chat = sdkChat(client)
	}
	return p
}

// Candidates returns preferred followed by fallbacks, without blanks or duplicates.
func Candidates(preferred string, fallbacks []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range append([]string{preferred}, fallbacks...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (p *OpenAI) Name() string { return config.ProviderOpenAI }

func (p *OpenAI) Model() string {
	if len(p.candidates) == 0 {
		return ""
	}
	return p.candidates[0]
}

// Complete tries each candidate in order. Only a model-unavailable error advances
// to the next one; anything else is returned at once.
func (p *OpenAI) Complete(ctx context.Context, req Request) (Completion, error) {
	if p.apiKey == "" || p.chat == nil {
		return Completion{}, ErrNotConfigured
	}
	log := utils.OrNop(p.logger)
	var lastErr error
	for i, model := range p.candidates {
		log.Debug("openai attempt", zap.String("model", model), zap.Int("attempt", i+1))
		text, err := p.chat(ctx, model, req)
		if err == nil {
			return Completion{Text: strings.TrimSpace(text), Model: model}, nil
		}
		if !IsModelUnavailable(err) {
			return Completion{}, err
		}
		log.Warn("openai model unavailable, trying next candidate",
			zap.String("model", model), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		return Completion{}, ErrNoAvailableModel
	}
	return Completion{}, lastErr
}

func sdkChat(client openai.Client) chatFunc {
	return func(ctx context.Context, model string, req Request) (string, error) {
		params := openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(model),
			Messages:    toSDKMessages(req.Messages),
			Temperature: openai.Float(Temperature),
		}
		if req.JSON {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		}
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			var sdkErr *openai.Error
			if errors.As(err, &sdkErr) {
				return "", &APIError{
					Provider:   config.ProviderOpenAI,
					StatusCode: sdkErr.StatusCode,
					Code:       sdkErr.Code,
					Message:    sdkErr.Message,
					Err:        err,
				}
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}
}

func toSDKMessages(msgs []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
