package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"NewsPoster/internal/ports"
)

// FileStore persists delivered-article identifiers as a sorted JSON array of
// strings. The format is deliberately flat and human-diffable; absence of the
// file is the expected first-run condition.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.SeenStore = (*FileStore)(nil)

// NewFileStore binds the store to a file path.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{path: path, logger: log}
}

// Load reads the identifier set. A missing file yields an empty set (cold
// start). A corrupt file also yields an empty set with a warning: worst case
// some articles are re-delivered, which beats refusing to run.
func (s *FileStore) Load() (map[string]struct{}, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("seen file absent, starting cold", "path", s.path)
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("read seen file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.logger.Warn("seen file is corrupt, falling back to empty set",
			"path", s.path, "error", err)
		return map[string]struct{}{}, nil
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Save writes the full set sorted, via a temp file renamed into place so a
// crash mid-write never corrupts the file read by the next run.
func (s *FileStore) Save(ids map[string]struct{}) error {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	raw, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen set: %w", err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp seen file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp seen file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp seen file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace seen file: %w", err)
	}
	return nil
}
