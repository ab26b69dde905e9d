package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
)

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("transcript-import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags(newTestFlagSet(), []string{"-in", "transcripts/demo.jsonl", "-mock"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if want := filepath.Clean("transcripts/demo.jsonl"); cfg.InPath != want {
		t.Fatalf("InPath=%q, want %q", cfg.InPath, want)
	}
	if !cfg.Mock {
		t.Fatalf("Mock=false")
	}
	if cfg.TokenThreshold != chat.DefaultTokenThreshold {
		t.Fatalf("TokenThreshold=%d", cfg.TokenThreshold)
	}
}

func TestConfigValidateRequiresInput(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted config without -in")
	}
	cfg.InPath = "x.jsonl"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadTranscript(t *testing.T) {
	t.Parallel()

	path := writeTranscript(t, strings.Join([]string{
		`{"role": "user", "content": "xin chào"}`,
		``,
		`{"role": "assistant", "content": "chào bạn"}`,
		`{"role": "system", "content": "note"}`,
	}, "\n"))

	records, err := readTranscript(path)
	if err != nil {
		t.Fatalf("readTranscript: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3 (blank line skipped)", len(records))
	}
	if records[0].Role != chat.RoleUser || records[0].Content != "xin chào" {
		t.Fatalf("records[0]=%+v", records[0])
	}
	if records[1].Role != chat.RoleAssistant {
		t.Fatalf("records[1]=%+v", records[1])
	}
	// Role coercion happens at import time, not parse time.
	if records[2].Role != "system" {
		t.Fatalf("records[2]=%+v", records[2])
	}
}

func TestReadTranscriptMalformedLineReportsNumber(t *testing.T) {
	t.Parallel()

	path := writeTranscript(t, strings.Join([]string{
		`{"role": "user", "content": "ok"}`,
		`{not json}`,
	}, "\n"))

	_, err := readTranscript(path)
	if err == nil {
		t.Fatalf("malformed line accepted")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error does not name the line: %v", err)
	}
}

func TestReadTranscriptRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	path := writeTranscript(t, `{"role": "user", "content": ""}`)
	_, err := readTranscript(path)
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("err=%v", err)
	}
}

func TestReadTranscriptMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := readTranscript(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
