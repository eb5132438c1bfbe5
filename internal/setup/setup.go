// Package setup reads the JSON skeleton a model returns for a setup request.
// Parsing is best effort: surrounding prose and code fences are tolerated and
// a malformed reply yields no result rather than an error.
package setup

import (
	"encoding/json"
	"strings"

	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
)

// TitleLimit bounds a title derived from the user's prompt.
const TitleLimit = 80

// Result holds the fields found in a setup reply. A nil string or list means absent.
type Result struct {
	Title          *string
	Range          *string
	Prompt         *string
	Summary        *string
	SubphaseTitle  *string
	SubphaseRange  *string
	SubphasePrompt *string
	Themes         []string
	Questions      []string
}

// Parse slices raw from its first '{' to its last '}' and decodes that object.
// ok is false when no brace pair exists or the slice is not a JSON object.
func Parse(raw string) (Result, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || start >= end {
		return Result{}, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return Result{}, false
	}
	return Result{
		Title:          stringField(obj, "title"),
		Range:          stringField(obj, "range"),
		Prompt:         stringField(obj, "prompt"),
		Summary:        stringField(obj, "summary"),
		SubphaseTitle:  stringField(obj, "subphaseTitle"),
		SubphaseRange:  stringField(obj, "subphaseRange"),
		SubphasePrompt: stringField(obj, "subphasePrompt"),
		Themes:         listField(obj, "themes"),
		Questions:      listField(obj, "questions"),
	}, true
}

func stringField(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func listField(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fallback supplies the values used when a field is absent or blank.
type Fallback struct {
	// Source is the user's original prompt; a missing title is derived from it.
	Source string
	Range  string
}

// Skeleton merges r with fb. parsed records whether Parse found an object.
func (r Result) Skeleton(fb Fallback, parsed bool) *models.SetupSkeleton {
	pick := func(v *string, def string) string {
		if v != nil && *v != "" {
			return *v
		}
		return def
	}
	return &models.SetupSkeleton{
		Title:          pick(r.Title, utils.Clip(strings.TrimSpace(fb.Source), TitleLimit)),
		Range:          pick(r.Range, fb.Range),
		Prompt:         pick(r.Prompt, strings.TrimSpace(fb.Source)),
		Summary:        pick(r.Summary, ""),
		SubphaseTitle:  pick(r.SubphaseTitle, ""),
		SubphaseRange:  pick(r.SubphaseRange, ""),
		SubphasePrompt: pick(r.SubphasePrompt, ""),
		Themes:         r.Themes,
		Questions:      r.Questions,
		Parsed:         parsed,
	}
}
