package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/models"
)

// scriptedChat answers each model with a fixed error or text and records the call order.
type scriptedChat struct {
	mu      sync.Mutex
	calls   []string
	replies map[string]error
	text    string
}

func (s *scriptedChat) fn(_ context.Context, model string, _ Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, model)
	if err, ok := s.replies[model]; ok && err != nil {
		return "", err
	}
	return s.text, nil
}

func newScripted(candidates []string, chat *scriptedChat) *OpenAI {
	return &OpenAI{apiKey: "sk-test", candidates: candidates, chat: chat.fn, logger: zap.NewNop()}
}

func TestOpenAI_nilLogger(t *testing.T) {
	chat := &scriptedChat{
		text:    "ok",
		replies: map[string]error{"preferred": &APIError{Provider: "openai", StatusCode: http.StatusNotFound}},
	}
	p := &OpenAI{apiKey: "sk-test", candidates: []string{"preferred", "gpt-4o-mini"}, chat: chat.fn}
	got, err := p.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", got.Model)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates(" gpt-4o ", []string{"gpt-4o-mini", "gpt-4o", "", "gpt-3.5-turbo"})
	want := []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
	if got := Candidates("", FallbackModels); !reflect.DeepEqual(got, FallbackModels) {
		t.Errorf("no preferred model: got %v", got)
	}
}

func TestOpenAI_fallbackOrderStopsAtFirstSuccess(t *testing.T) {
	chat := &scriptedChat{
		text: "  narrative  ",
		replies: map[string]error{
			"preferred":   &APIError{Provider: "openai", StatusCode: http.StatusNotFound},
			"gpt-4o-mini": &APIError{Provider: "openai", StatusCode: http.StatusBadRequest, Code: "model_not_found"},
		},
	}
	p := newScripted(Candidates("preferred", FallbackModels), chat)
	got, err := p.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Model != "gpt-4o" || got.Text != "narrative" {
		t.Errorf("got %+v, want model gpt-4o with trimmed text", got)
	}
	if want := []string{"preferred", "gpt-4o-mini", "gpt-4o"}; !reflect.DeepEqual(chat.calls, want) {
		t.Errorf("attempts = %v, want %v", chat.calls, want)
	}
}

func TestOpenAI_fallbackTriggers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		advance bool
	}{
		{"status 404", &APIError{Provider: "openai", StatusCode: 404, Message: "gone"}, true},
		{"model_not_found code", &APIError{Provider: "openai", StatusCode: 400, Code: "model_not_found"}, true},
		{"model not found message", &APIError{Provider: "openai", StatusCode: 400, Message: "The Model gpt-x was NOT FOUND"}, true},
		{"does not exist message", &APIError{Provider: "openai", StatusCode: 400, Message: "The model `x` Does Not Exist"}, true},
		{"plain error message", errors.New("model foo not found on server"), true},
		{"server error", &APIError{Provider: "openai", StatusCode: 500, Message: "internal"}, false},
		{"invalid auth", &APIError{Provider: "openai", StatusCode: 401, Code: "invalid_api_key", Message: "Incorrect API key provided"}, false},
		{"rate limit", &APIError{Provider: "openai", StatusCode: 429, Code: "rate_limit_exceeded"}, false},
		{"timeout", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &scriptedChat{text: "ok", replies: map[string]error{"first": tt.err}}
			p := newScripted([]string{"first", "second"}, chat)
			got, err := p.Complete(context.Background(), Request{})
			if tt.advance {
				if err != nil || got.Model != "second" {
					t.Fatalf("expected fallback to second, got %+v, %v", got, err)
				}
				if len(chat.calls) != 2 {
					t.Errorf("attempts = %v", chat.calls)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected the original error, got %v", err)
			}
			if len(chat.calls) != 1 {
				t.Errorf("no further candidates may be tried, attempts = %v", chat.calls)
			}
		})
	}
}

func TestOpenAI_allCandidatesUnavailable(t *testing.T) {
	last := &APIError{Provider: "openai", StatusCode: 404, Message: "last"}
	chat := &scriptedChat{replies: map[string]error{
		"a": &APIError{Provider: "openai", StatusCode: 404, Message: "first"},
		"b": last,
	}}
	p := newScripted([]string{"a", "b"}, chat)
	_, err := p.Complete(context.Background(), Request{})
	if err != last {
		t.Errorf("expected the last unavailable error, got %v", err)
	}
}

func TestOpenAI_emptyCandidateList(t *testing.T) {
	p := newScripted(nil, &scriptedChat{})
	if _, err := p.Complete(context.Background(), Request{}); !errors.Is(err, ErrNoAvailableModel) {
		t.Errorf("expected ErrNoAvailableModel, got %v", err)
	}
}

func TestOpenAI_missingKeyFailsFast(t *testing.T) {
	var hits int
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer mock.Close()

	p := NewOpenAI(OpenAIOptions{BaseURL: mock.URL + "/"}, nil)
	if _, err := p.Complete(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if hits != 0 {
		t.Errorf("no request may be sent without a key, got %d", hits)
	}
}

func TestOpenAI_sdkRoundTrip(t *testing.T) {
	var (
		mu       sync.Mutex
		tried  []string
		lastBody map[string]any
	)
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		model, _ := body["model"].(string)
		mu.Lock()
		tried = append(tried, model)
		lastBody = body
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if model == "retired-model" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"The model retired-model does not exist","type":"invalid_request_error","code":"model_not_found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"` + model +
			`","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  {\"title\":\"Reform Era\"}  "}}]}`))
	}))
	defer mock.Close()

	p := NewOpenAI(OpenAIOptions{APIKey: "sk-test", PreferredModel: "retired-model", BaseURL: mock.URL + "/"}, nil)
	got, err := p.Complete(context.Background(), Request{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "sys"},
			{Role: models.RoleAssistant, Content: "earlier"},
			{Role: models.RoleUser, Content: "hi"},
		},
		JSON: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Model != "gpt-4o-mini" || got.Text != `{"title":"Reform Era"}` {
		t.Errorf("got %+v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if want := []string{"retired-model", "gpt-4o-mini"}; !reflect.DeepEqual(tried, want) {
		t.Errorf("models tried = %v, want %v", tried, want)
	}
	if temp, _ := lastBody["temperature"].(float64); temp != Temperature {
		t.Errorf("temperature = %v, want %v", lastBody["temperature"], Temperature)
	}
	rf, _ := lastBody["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", lastBody["response_format"])
	}
	msgs, _ := lastBody["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("messages = %v", lastBody["messages"])
	}
	if m, _ := msgs[1].(map[string]any); m["role"] != "assistant" {
		t.Errorf("second message role = %v", m["role"])
	}
}

func TestOpenAI_sdkFatalErrorNotRetried(t *testing.T) {
	var hits int
	var mu sync.Mutex
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer mock.Close()

	p := NewOpenAI(OpenAIOptions{APIKey: "sk-wrong", BaseURL: mock.URL + "/"}, nil)
	_, err := p.Complete(context.Background(), Request{Messages: []models.ChatMessage{{Role: "user", Content: "x"}}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 APIError, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("expected exactly one request, got %d", hits)
	}
}

func TestOpenAI_emptyChoicesIsEmptyText(t *testing.T) {
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer mock.Close()

	p := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: mock.URL + "/"}, nil)
	got, err := p.Complete(context.Background(), Request{Messages: []models.ChatMessage{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "" || got.Model != "gpt-4o-mini" {
		t.Errorf("got %+v", got)
	}
}
