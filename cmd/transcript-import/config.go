package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
)

type Config struct {
	InPath         string
	StorageDir     string
	Model          string
	APIKey         string
	TokenThreshold int
	SessionID      string
	Mock           bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.StorageDir == "" {
		return errors.New("missing -storage")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.TokenThreshold <= 0 {
		return errors.New("token-threshold must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		StorageDir:     filepath.FromSlash("storage/sessions"),
		Model:          "gpt-5-mini",
		TokenThreshold: chat.DefaultTokenThreshold,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", "", "Path to a JSONL transcript ({role, content} per line)")
	fs.StringVar(&cfg.StorageDir, "storage", cfg.StorageDir, "Directory for session and summary JSON files")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model used for summarization during import")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.IntVar(&cfg.TokenThreshold, "token-threshold", cfg.TokenThreshold, "Effective token cost above which the transcript is summarized")
	fs.StringVar(&cfg.SessionID, "session", "", "Import into an existing session id (default: create a new session)")
	fs.BoolVar(&cfg.Mock, "mock", false, "Use the deterministic offline generator instead of OpenAI")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.InPath != "" {
		cfg.InPath = filepath.Clean(cfg.InPath)
	}
	cfg.StorageDir = filepath.Clean(cfg.StorageDir)
	return cfg, nil
}
