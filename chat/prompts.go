package chat

import (
	"fmt"
	"strings"
)

const summarizationPrompt = `Analyze the following conversation and extract structured information.

Conversation:
%s

Extract the following as valid JSON (no markdown, no extra text):
{
  "user_profile": {
    "preferences": ["list of user preferences mentioned"],
    "constraints": ["limitations or constraints"],
    "interests": ["user interests expressed"]
  },
  "key_facts": ["important facts from the conversation"],
  "decisions": ["decisions made or agreed upon"],
  "open_questions": ["questions that remain unanswered"],
  "todos": ["action items or tasks to do"]
}

Return ONLY valid JSON. No explanations before or after.`

const queryAnalysisPrompt = `Analyze the following user query in context.

IMPORTANT: All output (rewritten_query, clarifying_questions, needed_context_from_memory) MUST be in the SAME language as the user's query. If user writes in Vietnamese, respond in Vietnamese. If in English, respond in English. Never use a different language.
%s

User query: "%s"

Recent conversation context:
%s

Session memory (if any):
%s

Determine:
1. Is the query ambiguous? (multiple interpretations, vague references, missing context)
2. If ambiguous, provide a rewritten/clearer version
3. What context from session memory would help answer this?
4. If still unclear, suggest 1-3 clarifying questions
5. Confidence score (0.0-1.0) in understanding the query

Return ONLY valid JSON:
{
  "is_ambiguous": true or false,
  "rewritten_query": "clearer version or null if not ambiguous",
  "needed_context_from_memory": ["relevant memory items"],
  "clarifying_questions": ["question 1", "question 2"] or [],
  "confidence_score": 0.0 to 1.0
}

No markdown, no explanations. JSON only.`

const answerPrompt = `You are a helpful chat assistant. Respond in the same language as the user, never mix languages. Use the context below to respond.

%s

Recent conversation:
%s

User: %s
Assistant:`

// buildSummarizationPrompt renders the full transcript, prefixed with a short
// rendering of the previous summary when one exists, into the extraction
// prompt. Folding the prior summary in as plain text is what lets each
// summarization start again from message zero without losing earlier facts.
func buildSummarizationPrompt(messages []Message, prev *SessionSummary) string {
	var lines []string
	for i, m := range messages {
		lines = append(lines, fmt.Sprintf("[%d] %s: %s", i, m.Role, m.Content))
	}
	conversation := strings.Join(lines, "\n")

	if prev != nil {
		prior := fmt.Sprintf(
			"Previous summary - Key facts: %v; Decisions: %v; Open questions: %v",
			prev.KeyFacts, prev.Decisions, prev.OpenQuestions,
		)
		conversation = prior + "\n\n---\n\nCurrent conversation:\n" + conversation
	}

	return fmt.Sprintf(summarizationPrompt, conversation)
}

func buildQueryAnalysisPrompt(query, recentContext, memory, languageHint string) string {
	if recentContext == "" {
		recentContext = "(no recent messages)"
	}
	return fmt.Sprintf(queryAnalysisPrompt, languageHint, query, recentContext, memory)
}

// buildAnswerPrompt assembles the final answer prompt from the augmented
// context, the last answerHistoryTurns role-tagged turns, and the user's
// message.
func buildAnswerPrompt(augmentedContext string, messages []Message, userMessage string) string {
	recent := messages
	if len(recent) > answerHistoryTurns {
		recent = recent[len(recent)-answerHistoryTurns:]
	}
	var lines []string
	for _, m := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return fmt.Sprintf(answerPrompt, augmentedContext, strings.Join(lines, "\n"), userMessage)
}

// answerHistoryTurns is how many trailing turns of raw history the answer
// prompt carries alongside the augmented context.
const answerHistoryTurns = 8
