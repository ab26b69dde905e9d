package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// recentContextTurns is how many trailing messages the analysis prompt renders
// as raw conversational context.
const recentContextTurns = 6

// QueryUnderstander classifies a query as ambiguous or not, rewrites it, and
// determines what stored memory is relevant to answering it.
type QueryUnderstander struct {
	gen Generator
	log *slog.Logger
}

func NewQueryUnderstander(gen Generator, log *slog.Logger) *QueryUnderstander {
	if log == nil {
		log = slog.Default()
	}
	return &QueryUnderstander{gen: gen, log: log}
}

func formatRecentContext(messages []Message) string {
	recent := messages
	if len(recent) > recentContextTurns {
		recent = recent[len(recent)-recentContextTurns:]
	}
	var lines []string
	for _, m := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// formatMemoryDigest renders a summary as a labeled, human-readable memory
// digest, or a fixed sentinel when absent or entirely empty.
func formatMemoryDigest(summary *SessionSummary) string {
	const none = "No session memory yet."
	if summary == nil {
		return none
	}
	var parts []string
	add := func(label string, items []string) {
		if len(items) > 0 {
			parts = append(parts, label+": "+strings.Join(items, ", "))
		}
	}
	add("Preferences", summary.UserProfile.Preferences)
	add("Constraints", summary.UserProfile.Constraints)
	add("Interests", summary.UserProfile.Interests)
	add("Key facts", summary.KeyFacts)
	add("Decisions", summary.Decisions)
	add("Open questions", summary.OpenQuestions)
	add("Todos", summary.Todos)
	if len(parts) == 0 {
		return none
	}
	return strings.Join(parts, "\n")
}

// UnderstandQuery runs the full analysis pipeline: recent context, memory
// digest, language hint, one structured generator call, tolerant mapping of
// the result. A generation or parse failure degrades to a safe non-ambiguous
// analysis (confidence 0.5, recent context verbatim) so the orchestrator can
// answer directly rather than stall.
func (u *QueryUnderstander) UnderstandQuery(ctx context.Context, query string, recentMessages []Message, summary *SessionSummary) QueryAnalysis {
	recentContext := formatRecentContext(recentMessages)
	memory := formatMemoryDigest(summary)
	languageHint := detectLanguageHint(query)

	prompt := buildQueryAnalysisPrompt(query, recentContext, memory, languageHint)

	data, err := GenerateJSON(ctx, u.gen, prompt)
	if err != nil {
		u.log.Warn("query analysis failed, using fallback", "error", err)
		return QueryAnalysis{
			OriginalQuery:           query,
			IsAmbiguous:             false,
			NeededContextFromMemory: []string{},
			ClarifyingQuestions:     []string{},
			FinalAugmentedContext:   recentContext,
			ConfidenceScore:         0.5,
		}
	}

	needed := normalizeStringList(data["needed_context_from_memory"])
	clarifying := normalizeStringList(data["clarifying_questions"])

	memoryContext := memory
	if len(needed) > 0 {
		memoryContext = strings.Join(needed, "\n")
	}
	finalContext := fmt.Sprintf("Session memory:\n%s\n\nRecent conversation:\n%s", memoryContext, recentContext)

	isAmbiguous, _ := data["is_ambiguous"].(bool)
	rewritten, _ := data["rewritten_query"].(string)

	confidence := 0.5
	if f, ok := data["confidence_score"].(float64); ok {
		confidence = f
	}

	result := QueryAnalysis{
		OriginalQuery:           query,
		IsAmbiguous:             isAmbiguous,
		RewrittenQuery:          rewritten,
		NeededContextFromMemory: needed,
		ClarifyingQuestions:     clarifying,
		FinalAugmentedContext:   finalContext,
		ConfidenceScore:         confidence,
	}

	u.log.Info("query analyzed",
		"is_ambiguous", result.IsAmbiguous,
		"confidence", result.ConfidenceScore,
		"clarifying_questions", len(result.ClarifyingQuestions))
	return result
}
