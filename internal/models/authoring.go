// Package models defines the request and response shapes shared by the gateway, stores and CLI.
package models

import "encoding/json"

// Action is one of the supported authoring operations.
type Action string

const (
	ActionDraft    Action = "draft"
	ActionEdit     Action = "edit"
	ActionOverview Action = "overview"
	ActionChat     Action = "chat"
	ActionSetup    Action = "setup"
)

// Valid reports whether a is in the closed set of actions.
func (a Action) Valid() bool {
	switch a {
	case ActionDraft, ActionEdit, ActionOverview, ActionChat, ActionSetup:
		return true
	}
	return false
}

// Context kinds and scopes. Values outside these are passed through as free-form text.
const (
	KindPhase  = "phase"
	KindEntity = "entity"

	ScopeSummary  = "summary"
	ScopeSubphase = "subphase"
)

// AuthoringContext describes the record being authored. All fields are free-form.
type AuthoringContext struct {
	Kind        string `json:"kind"`
	Scope       string `json:"scope"`
	Title       string `json:"title"`
	Range       string `json:"range"`
	Focus       string `json:"focus,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	Draft       string `json:"draft,omitempty"`
	ReadingText string `json:"readingText,omitempty"`
}

// AuthoringRequest is the body of POST /api/ai.
// ChatHistory entries are kept raw so malformed turns can be dropped instead of failing the request.
type AuthoringRequest struct {
	Action      Action            `json:"action"`
	Context     *AuthoringContext `json:"context"`
	Message     string            `json:"message,omitempty"`
	ChatHistory []json.RawMessage `json:"chatHistory,omitempty"`
	Format      string            `json:"format,omitempty"`
}

// ChatMessage is one message of the outbound provider conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AuthoringResult is the normalized gateway response. Text is never null but may be empty.
type AuthoringResult struct {
	Text     string         `json:"text"`
	Model    string         `json:"model"`
	Provider string         `json:"provider"`
	HTML     string         `json:"html,omitempty"`
	Setup    *SetupSkeleton `json:"setup,omitempty"`
}

// SetupSkeleton is the structured reading of a setup response with fallbacks applied.
type SetupSkeleton struct {
	Title          string   `json:"title"`
	Range          string   `json:"range,omitempty"`
	Prompt         string   `json:"prompt,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	SubphaseTitle  string   `json:"subphaseTitle,omitempty"`
	SubphaseRange  string   `json:"subphaseRange,omitempty"`
	SubphasePrompt string   `json:"subphasePrompt,omitempty"`
	Themes         []string `json:"themes,omitempty"`
	Questions      []string `json:"questions,omitempty"`
	Parsed         bool     `json:"parsed"`
}
