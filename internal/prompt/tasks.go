package prompt

import "github.com/hyperjump/studio/internal/models"

// anyValue in a rule matches every scope or kind.
const anyValue = ""

type taskRule struct {
	action      models.Action
	scope       string
	kind        string
	instruction string
}

const setupSkeletonKeys = "title, range, summary, subphaseTitle, subphaseRange, subphasePrompt, themes, questions"

func setupSummaryInstruction(target string) string {
	return "Set up a new " + target + " from the user's request. Return JSON only with the keys " +
		setupSkeletonKeys + ". " +
		"summary is 2-4 short paragraphs; subphaseTitle, subphaseRange and subphasePrompt describe a first sub-phase to research; " +
		"themes and questions are arrays of short strings. Be concise. Do not add any text or code fences outside the JSON."
}

// taskRules is matched top to bottom; the first row whose action, scope and kind
// match wins. Rows with anyValue match every scope or kind.
var taskRules = []taskRule{
	{models.ActionDraft, models.ScopeSummary, models.KindPhase,
		"Write a long narrative for this phase in 4-6 paragraphs, grounded in the context."},
	{models.ActionDraft, models.ScopeSummary, anyValue,
		"Write a short summary of 3-5 sentences, grounded in the context."},
	{models.ActionDraft, models.ScopeSubphase, anyValue,
		"Write a working draft of 3-6 paragraphs for this sub-phase, grounded in the context and reading text."},
	{models.ActionEdit, models.ScopeSummary, models.KindPhase,
		"Revise the narrative draft for clarity and accuracy. Keep it to 4-6 paragraphs."},
	{models.ActionEdit, models.ScopeSummary, anyValue,
		"Revise the summary for clarity and accuracy. Keep it to 3-5 sentences."},
	{models.ActionEdit, models.ScopeSubphase, anyValue,
		"Revise the draft. Preserve its length and align its claims with the evidence in the reading text."},
	{models.ActionOverview, anyValue, anyValue,
		"Write a 4-6 sentence overview of this topic. Do not include citations."},
	{models.ActionChat, anyValue, anyValue,
		"Answer the user's question from the context, then suggest concrete next steps for the research."},
	{models.ActionSetup, models.ScopeSubphase, anyValue,
		"Set up a new sub-phase from the user's request. Return JSON only with the keys title, range, prompt. " +
			"Be concise. Do not add any text or code fences outside the JSON."},
	{models.ActionSetup, models.ScopeSummary, models.KindEntity, setupSummaryInstruction("entity")},
	{models.ActionSetup, models.ScopeSummary, models.KindPhase, setupSummaryInstruction("phase")},
}

// FallbackInstruction is used when no rule matches.
const FallbackInstruction = "Respond helpfully to the user's request using the context."

// TaskInstruction selects the instruction for (action, scope, kind).
func TaskInstruction(action models.Action, scope, kind string) string {
	for _, r := range taskRules {
		if r.action != action {
			continue
		}
		if r.scope != anyValue && r.scope != scope {
			continue
		}
		if r.kind != anyValue && r.kind != kind {
			continue
		}
		return r.instruction
	}
	return FallbackInstruction
}
