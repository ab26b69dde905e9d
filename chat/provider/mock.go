package provider

import (
	"context"
	"fmt"
	"strings"
)

// Mock is a deterministic offline generator for local runs and demos. It
// recognizes the two structured tasks by their prompt markers and returns
// benign JSON; any other prompt gets a canned conversational echo.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, `"confidence_score"`):
		return `{"is_ambiguous": false, "rewritten_query": "", "needed_context_from_memory": [], "clarifying_questions": [], "confidence_score": 0.9}`, nil
	case strings.Contains(prompt, `"key_facts"`):
		return `{"user_profile": {"preferences": [], "constraints": [], "interests": []}, "key_facts": ["mock summary"], "decisions": [], "open_questions": [], "todos": []}`, nil
	default:
		last := prompt
		if i := strings.LastIndex(prompt, "User: "); i >= 0 {
			last = prompt[i+len("User: "):]
			if j := strings.IndexByte(last, '\n'); j >= 0 {
				last = last[:j]
			}
		}
		return fmt.Sprintf("You said %q. (mock reply)", strings.TrimSpace(last)), nil
	}
}
