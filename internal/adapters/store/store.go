// Package store persists patterns and recordings as JSON files. The wire
// format is the flat one the training data has always used: patterns carry
// name, default_tolerance_ms and actions; recordings carry source_id,
// total_duration, created_at and events. Save and load round-trip exactly.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/pattern"
)

const (
	patternsSubdir   = "patterns"
	recordingsSubdir = "recordings"
	fileMode         = 0o644
	dirMode          = 0o755
)

// FileStore reads and writes patterns and recordings under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir, creating the layout on demand.
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{patternsSubdir, recordingsSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), dirMode); err != nil {
			return nil, fmt.Errorf("create store layout: %w", err)
		}
	}
	return &FileStore{root: dir}, nil
}

// SavePattern writes a pattern to <root>/patterns/<name>.json.
func (s *FileStore) SavePattern(p *pattern.Pattern) error {
	data, err := json.MarshalIndent(encodePattern(p), "", "  ")
	if err != nil {
		return fmt.Errorf("encode pattern %q: %w", p.Name(), err)
	}
	path := s.patternPath(p.Name())
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write pattern %q: %w", p.Name(), err)
	}
	return nil
}

// LoadPattern reads and validates a pattern by name. A file that fails the
// authoring invariants is refused with pattern.ErrMalformedPattern so a
// comparison session never starts against corrupt ground truth.
func (s *FileStore) LoadPattern(name string) (*pattern.Pattern, error) {
	data, err := os.ReadFile(s.patternPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("pattern %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read pattern %q: %w", name, err)
	}

	var wire patternWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", pattern.ErrMalformedPattern, name, err)
	}
	return decodePattern(wire)
}

// ListPatterns returns the stored pattern names, sorted.
func (s *FileStore) ListPatterns() ([]string, error) {
	return s.list(patternsSubdir)
}

// SaveRecording writes a recording to <root>/recordings/<id>.json.
func (s *FileStore) SaveRecording(rec model.Recording) error {
	data, err := json.MarshalIndent(encodeRecording(rec), "", "  ")
	if err != nil {
		return fmt.Errorf("encode recording %q: %w", rec.ID, err)
	}
	path := s.recordingPath(rec.ID)
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write recording %q: %w", rec.ID, err)
	}
	return nil
}

// LoadRecording reads a recording by id.
func (s *FileStore) LoadRecording(id string) (model.Recording, error) {
	data, err := os.ReadFile(s.recordingPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Recording{}, fmt.Errorf("recording %q: %w", id, ErrNotFound)
		}
		return model.Recording{}, fmt.Errorf("read recording %q: %w", id, err)
	}

	var wire recordingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.Recording{}, fmt.Errorf("decode recording %q: %w", id, err)
	}
	return decodeRecording(wire)
}

// ListRecordings returns the stored recording ids, sorted.
func (s *FileStore) ListRecordings() ([]string, error) {
	return s.list(recordingsSubdir)
}

func (s *FileStore) patternPath(name string) string {
	return filepath.Join(s.root, patternsSubdir, name+".json")
}

func (s *FileStore) recordingPath(id string) string {
	return filepath.Join(s.root, recordingsSubdir, id+".json")
}

func (s *FileStore) list(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, sub))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sub, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
