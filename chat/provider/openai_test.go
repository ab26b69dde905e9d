package provider

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func assertStrictObject(t *testing.T, schema map[string]any, wantProps []string) {
	t.Helper()

	if got := schema["type"]; got != "object" {
		t.Fatalf("type=%v, want object", got)
	}
	if got := schema["additionalProperties"]; got != false {
		t.Fatalf("additionalProperties=%v, want false", got)
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing: %v", schema["properties"])
	}
	for _, name := range wantProps {
		if _, ok := props[name]; !ok {
			t.Fatalf("property %q missing from %v", name, props)
		}
	}

	required, ok := schema["required"].([]string)
	if !ok {
		// Reflected schemas carry required as []any after the JSON round trip.
		raw, rawOK := schema["required"].([]any)
		if !rawOK {
			t.Fatalf("required missing: %v", schema["required"])
		}
		for _, v := range raw {
			required = append(required, v.(string))
		}
	}
	sort.Strings(required)
	want := append([]string(nil), wantProps...)
	sort.Strings(want)
	if len(required) != len(want) {
		t.Fatalf("required=%v, want %v", required, want)
	}
	for i := range want {
		if required[i] != want[i] {
			t.Fatalf("required=%v, want %v", required, want)
		}
	}
}

func TestSummarySchemaIsStrict(t *testing.T) {
	t.Parallel()

	assertStrictObject(t, SummarySchema,
		[]string{"user_profile", "key_facts", "decisions", "open_questions", "todos"})

	props := SummarySchema["properties"].(map[string]any)
	profile, ok := props["user_profile"].(map[string]any)
	if !ok {
		t.Fatalf("user_profile schema: %v", props["user_profile"])
	}
	assertStrictObject(t, profile, []string{"preferences", "constraints", "interests"})
}

func TestQueryAnalysisSchemaIsStrict(t *testing.T) {
	t.Parallel()

	assertStrictObject(t, QueryAnalysisSchema,
		[]string{"is_ambiguous", "rewritten_query", "needed_context_from_memory", "clarifying_questions", "confidence_score"})
}

func TestEnsureOpenAIComplianceRecursesIntoItems(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
	ensureOpenAICompliance(schema)

	rows := schema["properties"].(map[string]any)["rows"].(map[string]any)
	item := rows["items"].(map[string]any)
	if item["additionalProperties"] != false {
		t.Fatalf("nested item not strict: %v", item)
	}
	required, _ := item["required"].([]string)
	if len(required) != 1 || required[0] != "name" {
		t.Fatalf("nested required=%v", item["required"])
	}
}

func TestGenerateGuards(t *testing.T) {
	t.Parallel()

	g := NewOpenAI(nil, "gpt-5-mini")
	if _, err := g.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("nil client accepted")
	}

	g = NewOpenAI(NewClient("test-key"), "")
	if _, err := g.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("empty model accepted")
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		rateLimit  bool
		serverSide bool
	}{
		{errors.New("429 Too Many Requests"), true, false},
		{errors.New("rate limit exceeded"), true, false},
		{errors.New("500 Internal Server Error"), false, true},
		{errors.New("server_error: upstream hiccup"), false, true},
		{errors.New("401 Unauthorized"), false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		if got := isRateLimitError(tt.err); got != tt.rateLimit {
			t.Errorf("isRateLimitError(%v)=%v, want %v", tt.err, got, tt.rateLimit)
		}
		if got := isServerError(tt.err); got != tt.serverSide {
			t.Errorf("isServerError(%v)=%v, want %v", tt.err, got, tt.serverSide)
		}
	}
}
