package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Generator is the boundary to the text-generation model. Implementations
// block until the model responds; the orchestrator runs one turn at a time
// and relies on that.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MalformedResponseError reports that no valid JSON object could be recovered
// from a model response. Call sites treat it as an ordinary result variant and
// fall back rather than propagate.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSONObject pulls the first well-formed {...} JSON object out of raw
// model output. It tolerates markdown fences and surrounding prose, and on a
// first parse failure applies one cheap repair: stripping trailing commas
// before closing braces and brackets. Returns *MalformedResponseError when
// nothing parses.
func ExtractJSONObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &MalformedResponseError{Reason: "empty response"}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("no JSON object found (len=%d)", len(s))}
	}
	sub := s[start : end+1]

	var out map[string]any
	if err := json.Unmarshal([]byte(sub), &out); err == nil {
		return out, nil
	}

	repaired := trailingCommaRe.ReplaceAllString(sub, "$1")
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("unparseable JSON (len=%d): %v", len(sub), err)}
	}
	return out, nil
}

// GenerateJSON invokes the generator and extracts a JSON object from its raw
// output. Generation failures pass through wrapped; parse failures surface as
// *MalformedResponseError.
func GenerateJSON(ctx context.Context, g Generator, prompt string) (map[string]any, error) {
	raw, err := g.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return ExtractJSONObject(raw)
}
