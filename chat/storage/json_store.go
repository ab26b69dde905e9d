// Package storage persists conversation state as human-readable JSON files,
// one per session plus one per summary, and keeps live states in a TTL cache.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/DuyNguyen-github/chat-assistant-with-session-memory/chat"
)

// FileStore writes one {sessionID}.json and one {sessionID}_summary.json per
// session under Dir. Writes are atomic (temp file + rename) so a crash never
// leaves a half-written record behind.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.Dir, sessionID+".json")
}

func (s *FileStore) summaryPath(sessionID string) string {
	return filepath.Join(s.Dir, sessionID+"_summary.json")
}

// SaveSession writes the full state and returns the path written.
func (s *FileStore) SaveSession(state *chat.ConversationState) (string, error) {
	if state == nil || state.SessionID == "" {
		return "", errors.New("SaveSession: empty session id")
	}
	path := s.sessionPath(state.SessionID)
	if err := writeJSONFileAtomic(path, state); err != nil {
		return "", fmt.Errorf("SaveSession: %w", err)
	}
	return path, nil
}

// LoadSession reads a persisted state. A missing file is not an error: it
// returns (nil, nil).
func (s *FileStore) LoadSession(sessionID string) (*chat.ConversationState, error) {
	b, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("LoadSession: read file: %w", err)
	}
	var state chat.ConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("LoadSession: unmarshal: %w", err)
	}
	return &state, nil
}

// SaveSummary writes the summary snapshot and returns the path written.
func (s *FileStore) SaveSummary(sessionID string, summary chat.SessionSummary) (string, error) {
	if sessionID == "" {
		return "", errors.New("SaveSummary: empty session id")
	}
	path := s.summaryPath(sessionID)
	if err := writeJSONFileAtomic(path, summary); err != nil {
		return "", fmt.Errorf("SaveSummary: %w", err)
	}
	return path, nil
}

func writeJSONFileAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := writeFileAtomicSameDir(path, b, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func writeFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_session_*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write([]byte("\n")); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
