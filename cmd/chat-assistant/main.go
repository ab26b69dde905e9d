// Command chat-assistant is an interactive conversational assistant with
// session memory: the transcript is compressed into a structured summary once
// a token budget is exceeded, and ambiguous queries are answered with
// clarifying questions before a real reply.
package main

import (
	"bufio"
	"context"
	"errors"
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

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	orch, err := buildOrchestrator(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID, err = orch.NewSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
	fmt.Printf("Session %.8s... ready. Type a message, /new for a new session, /quit to exit.\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/new":
			sessionID, err = orch.NewSession()
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			fmt.Printf("New session started. ID: %.8s...\n", sessionID)
			continue
		}

		result, err := orch.SubmitMessage(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Printf("\n%s\n\n[%s]\n", result.Reply, result.Status)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// buildOrchestrator wires the store, registry, generators, and core services.
// With -mock all three generator roles share the offline mock; against OpenAI
// the summarizer and understander get schema-constrained instances while
// answers stay free-form.
func buildOrchestrator(cfg Config, log *slog.Logger) (*chat.Orchestrator, error) {
	store := storage.NewFileStore(cfg.StorageDir)
	registry := storage.NewRegistry(0)

	var answerGen, summaryGen, analysisGen chat.Generator
	if cfg.Mock {
		mock := provider.NewMock()
		answerGen, summaryGen, analysisGen = mock, mock, mock
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("missing OPENAI_API_KEY (or pass -api-key, or use -mock)")
		}
		client := provider.NewClient(apiKey)
		answerGen = provider.NewOpenAI(client, cfg.Model)
		summaryGen = provider.NewOpenAI(client, cfg.Model,
			provider.WithJSONSchema("SessionSummary", provider.SummarySchema))
		analysisGen = provider.NewOpenAI(client, cfg.Model,
			provider.WithJSONSchema("QueryAnalysis", provider.QueryAnalysisSchema))
	}

	manager := chat.NewSessionManager(summaryGen, store, cfg.TokenThreshold, log)
	understander := chat.NewQueryUnderstander(analysisGen, log)
	return chat.NewOrchestrator(registry, store, manager, understander, answerGen, log), nil
}
