package chat

import (
	"context"
	"errors"
	"testing"
)

func TestExtractJSONObject_PlainObject(t *testing.T) {
	t.Parallel()

	out, err := ExtractJSONObject(`{"a": 1, "b": "two"}`)
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if out["a"] != float64(1) || out["b"] != "two" {
		t.Fatalf("out=%v", out)
	}
}

func TestExtractJSONObject_MarkdownFenced(t *testing.T) {
	t.Parallel()

	raw := "Here is the result:\n```json\n{\"is_ambiguous\": true}\n```\nHope that helps!"
	out, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if out["is_ambiguous"] != true {
		t.Fatalf("out=%v", out)
	}
}

func TestExtractJSONObject_RepairsTrailingCommas(t *testing.T) {
	t.Parallel()

	raw := `{"key_facts": ["a", "b",], "decisions": [],}`
	out, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	facts, ok := out["key_facts"].([]any)
	if !ok || len(facts) != 2 {
		t.Fatalf("key_facts=%v", out["key_facts"])
	}
}

func TestExtractJSONObject_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   \n "},
		{name: "no_object", raw: "just some prose"},
		{name: "array_only", raw: "[1, 2, 3]"},
		{name: "unbalanced", raw: "{\"a\": "},
		{name: "unrepairable", raw: "{not json at all}"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractJSONObject(tc.raw)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("err=%v, want *MalformedResponseError", err)
			}
		})
	}
}

func TestGenerateJSON_PassesThroughGenerationError(t *testing.T) {
	t.Parallel()

	genErr := errors.New("service unreachable")
	g := &scriptedGenerator{err: genErr}
	_, err := GenerateJSON(context.Background(), g, "prompt")
	if !errors.Is(err, genErr) {
		t.Fatalf("err=%v, want wrapped %v", err, genErr)
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		t.Fatalf("generation failure must not look like a parse failure")
	}
}

func TestGenerateJSON_ExtractsFromResponse(t *testing.T) {
	t.Parallel()

	g := &scriptedGenerator{responses: []string{"sure thing:\n{\"x\": 5}"}}
	out, err := GenerateJSON(context.Background(), g, "prompt")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out["x"] != float64(5) {
		t.Fatalf("out=%v", out)
	}
}
