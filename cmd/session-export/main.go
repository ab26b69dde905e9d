// Command session-export renders a persisted session into a human-readable
// markdown file: the structured summary first, then the full transcript.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat/storage"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	store := storage.NewFileStore(cfg.StorageDir)
	state, err := store.LoadSession(cfg.SessionID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if state == nil {
		fmt.Fprintf(os.Stderr, "unknown session: %s\n", cfg.SessionID)
		os.Exit(1)
	}

	outPath := cfg.OutPath
	if outPath == "" {
		outPath = filepath.Join(cfg.StorageDir, cfg.SessionID+".md")
	}
	if !cfg.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(os.Stderr, "output exists: %s (pass -overwrite)\n", outPath)
			os.Exit(1)
		} else if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	md := renderSessionMarkdown(state)
	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("write export: %w", err).Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "session_id=%s messages=%d out=%s\n", state.SessionID, len(state.Messages), outPath)
}

func renderSessionMarkdown(state *chat.ConversationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", state.SessionID)
	fmt.Fprintf(&b, "- messages: %d\n", len(state.Messages))
	fmt.Fprintf(&b, "- total_tokens: ~%d\n\n", state.TotalTokens)

	if s := state.CurrentSummary; s != nil {
		fmt.Fprintf(&b, "## Summary (messages %d-%d)\n\n", s.SummarizedRange.From, s.SummarizedRange.To)
		writeList(&b, "Preferences", s.UserProfile.Preferences)
		writeList(&b, "Constraints", s.UserProfile.Constraints)
		writeList(&b, "Interests", s.UserProfile.Interests)
		writeList(&b, "Key facts", s.KeyFacts)
		writeList(&b, "Decisions", s.Decisions)
		writeList(&b, "Open questions", s.OpenQuestions)
		writeList(&b, "Todos", s.Todos)
	}

	b.WriteString("## Transcript\n\n")
	for _, m := range state.Messages {
		content := strings.TrimSpace(m.Content)
		if m.Timestamp != nil {
			fmt.Fprintf(&b, "**%s** (%s):\n\n%s\n\n", m.Role, m.Timestamp.Format("2006-01-02 15:04:05"), content)
		} else {
			fmt.Fprintf(&b, "**%s**:\n\n%s\n\n", m.Role, content)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n", label)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
