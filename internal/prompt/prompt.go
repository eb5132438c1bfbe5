// Package prompt turns an authoring request into the provider message sequence.
package prompt

import (
	"encoding/json"
	"strings"

	"github.com/hyperjump/studio/internal/models"
)

// SystemInstruction fixes the assistant's role for every request.
const SystemInstruction = "You are a careful research assistant inside a history notebook. " +
	"Work only from the context you are given and do not invent facts, names, or dates. " +
	"If information needed for the task is missing, ask one short clarifying question instead of guessing. " +
	"Respond in plain text."

// DefaultChatMessage is sent when a chat request carries no new message.
const DefaultChatMessage = "Continue helping me with this research."

// HistoryWindow is the number of trailing chat turns forwarded to the provider.
const HistoryWindow = 8

// Messages is the outbound conversation plus the structured-output request.
type Messages struct {
	Messages []models.ChatMessage
	JSON     bool
}

// Build assembles the message sequence for req. req.Context must be non-nil.
func Build(req *models.AuthoringRequest) Messages {
	ctx := req.Context
	block := ContextBlock(ctx)
	task := TaskInstruction(req.Action, ctx.Scope, ctx.Kind)

	msgs := []models.ChatMessage{
		{Role: models.RoleSystem, Content: SystemInstruction},
		{Role: models.RoleSystem, Content: "Context:\n" + block},
	}

	if req.Action == models.ActionChat {
		msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: task})
		msgs = append(msgs, RecentTurns(req.ChatHistory, HistoryWindow)...)
		text := strings.TrimSpace(req.Message)
		if text == "" {
			text = DefaultChatMessage
		}
		msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: text})
		return Messages{Messages: msgs}
	}

	parts := []string{task}
	if m := strings.TrimSpace(req.Message); m != "" {
		parts = append(parts, "User direction: "+m)
	}
	parts = append(parts, block)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: strings.Join(parts, "\n\n")})

	return Messages{Messages: msgs, JSON: req.Action == models.ActionSetup}
}

// ContextBlock renders ctx as labelled lines. Kind, Scope, Title and Range are always present;
// the optional fields appear only when non-blank.
func ContextBlock(ctx *models.AuthoringContext) string {
	lines := []string{
		"Kind: " + ctx.Kind,
		"Scope: " + ctx.Scope,
		"Title: " + ctx.Title,
		"Range: " + ctx.Range,
	}
	optional := []struct {
		label, value string
	}{
		{"Focus", ctx.Focus},
		{"Summary", ctx.Summary},
		{"Prompt", ctx.Prompt},
		{"Draft", ctx.Draft},
		{"Reading text", ctx.ReadingText},
	}
	for _, f := range optional {
		if strings.TrimSpace(f.value) != "" {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	return strings.Join(lines, "\n")
}

// RecentTurns keeps the last limit entries of history and drops any that are not
// a user or assistant turn with string content. Relative order is preserved.
func RecentTurns(history []json.RawMessage, limit int) []models.ChatMessage {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]models.ChatMessage, 0, len(history))
	for _, raw := range history {
		var turn map[string]any
		if err := json.Unmarshal(raw, &turn); err != nil {
			continue
		}
		role, _ := turn["role"].(string)
		if role != models.RoleUser && role != models.RoleAssistant {
			continue
		}
		content, ok := turn["content"].(string)
		if !ok {
			continue
		}
		out = append(out, models.ChatMessage{Role: role, Content: content})
	}
	return out
}
