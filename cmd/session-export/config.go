package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
)

type Config struct {
	StorageDir string
	SessionID  string
	OutPath    string
	Overwrite  bool
}

func (c Config) Validate() error {
	if c.StorageDir == "" {
		return errors.New("missing -storage")
	}
	if c.SessionID == "" {
		return errors.New("missing -session")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		StorageDir: filepath.FromSlash("storage/sessions"),
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.StorageDir, "storage", cfg.StorageDir, "Directory holding session and summary JSON files")
	fs.StringVar(&cfg.SessionID, "session", "", "Session id to export")
	fs.StringVar(&cfg.OutPath, "out", "", "Output markdown path (default: <session>.md next to the session file)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.StorageDir = filepath.Clean(cfg.StorageDir)
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	return cfg, nil
}
