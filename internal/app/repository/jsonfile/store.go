package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository"
)

// Store persists completed transcriptions as a flat JSON object mapping
// message id to {status, text}. This is the default backend and mirrors the
// layout of a browser key-value blob.
type Store struct {
	path string
}

var _ repository.TranscriptionStore = (*Store)(nil)

// NewStore creates a JSON file store at path. The file is created lazily on
// the first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted entries. A missing file yields an empty map.
func (s *Store) Load() (map[string]model.TranscriptionResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.TranscriptionResult{}, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	entries := map[string]model.TranscriptionResult{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return entries, nil
}

// Save replaces the file content with the given entries. The write goes
// through a temp file and rename so a crash never leaves a half-written blob.
func (s *Store) Save(entries map[string]model.TranscriptionResult) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *Store) Close() error {
	return nil
}
