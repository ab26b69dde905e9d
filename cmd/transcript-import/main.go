// Command transcript-import bulk-loads a pre-existing conversation from a
// JSONL file into a session. Every record goes through the same append path
// as interactive use, so summarization triggers exactly as it would have
// live.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat/provider"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := readTranscript(cfg.InPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no records found in transcript")
		os.Exit(2)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store := storage.NewFileStore(cfg.StorageDir)
	registry := storage.NewRegistry(0)

	var summaryGen chat.Generator
	if cfg.Mock {
		summaryGen = provider.NewMock()
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key, or use -mock)")
			os.Exit(2)
		}
		summaryGen = provider.NewOpenAI(provider.NewClient(apiKey), cfg.Model,
			provider.WithJSONSchema("SessionSummary", provider.SummarySchema))
	}

	manager := chat.NewSessionManager(summaryGen, store, cfg.TokenThreshold, log)
	understander := chat.NewQueryUnderstander(summaryGen, log)
	orch := chat.NewOrchestrator(registry, store, manager, understander, summaryGen, log)

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID, err = orch.NewSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	status, err := orch.LoadTranscript(ctx, sessionID, records)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "session_id=%s records=%d status=%q\n", sessionID, len(records), status)
}

// readTranscript parses a JSONL file of {role, content} records. Blank lines
// are skipped; a malformed line aborts the import with its line number.
func readTranscript(path string) ([]chat.TranscriptRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var records []chat.TranscriptRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec chat.TranscriptRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse transcript line %d: %w", lineNo, err)
		}
		if rec.Content == "" {
			return nil, fmt.Errorf("transcript line %d: empty content", lineNo)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return records, nil
}
