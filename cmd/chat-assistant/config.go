package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
)

type Config struct {
	StorageDir     string
	Model          string
	APIKey         string
	TokenThreshold int
	SessionID      string
	Mock           bool
}

func (c Config) Validate() error {
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

	fs.StringVar(&cfg.StorageDir, "storage", cfg.StorageDir, "Directory for session and summary JSON files")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use (e.g. gpt-5-mini)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.IntVar(&cfg.TokenThreshold, "token-threshold", cfg.TokenThreshold, "Effective token cost above which the transcript is summarized")
	fs.StringVar(&cfg.SessionID, "session", "", "Resume an existing session id (default: start a new session)")
	fs.BoolVar(&cfg.Mock, "mock", false, "Use the deterministic offline generator instead of OpenAI")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.StorageDir = filepath.Clean(cfg.StorageDir)
	return cfg, nil
}
