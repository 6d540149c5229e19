package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/project"
)

// FileStore keeps entries as <id>.json and <id>.png files in a directory.
// The JSON file holds the project document with id and saveTime added,
// the same layout the web editor writes.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// record is the on-disk JSON layout.
type record struct {
	ID string `json:"id"`
	project.Document
}

// NewFileStore creates a file-based store in baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) jsonPath(id string) string { return filepath.Join(s.baseDir, id+".json") }
func (s *FileStore) pngPath(id string) string  { return filepath.Join(s.baseDir, id+".png") }

// Path returns the base directory for entry files.
func (s *FileStore) Path() string { return s.baseDir }

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Save(ctx context.Context, doc project.Document, png []byte) (Entry, error) {
	e := newEntry(doc, png)

	data, err := json.MarshalIndent(record{ID: e.ID, Document: e.Document}, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.HasImage {
		if err := writeAtomic(s.pngPath(e.ID), png); err != nil {
			return Entry{}, fmt.Errorf("write entry image: %w", err)
		}
	}
	if err := writeAtomic(s.jsonPath(e.ID), data); err != nil {
		os.Remove(s.pngPath(e.ID))
		return Entry{}, fmt.Errorf("write entry file: %w", err)
	}
	return e, nil
}

// readEntry loads the JSON half of an entry. Callers hold s.mu.
func (s *FileStore) readEntry(id string) (Entry, error) {
	data, err := os.ReadFile(s.jsonPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, notFound(id)
		}
		return Entry{}, fmt.Errorf("read entry file: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeConfigParse, err, "parse entry %s", id)
	}
	e := Entry{ID: id, SaveTime: rec.SaveTime, Document: rec.Document}
	if info, err := os.Stat(s.pngPath(id)); err == nil && !info.IsDir() {
		e.HasImage = true
		if e.SaveTime.IsZero() {
			e.SaveTime = info.ModTime()
		}
	}
	return e, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := errors.ValidateAssetID(id); err != nil {
		return Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.readEntry(id)
	if err != nil {
		return Entry{}, err
	}
	if e.HasImage {
		if e.PNG, err = os.ReadFile(s.pngPath(id)); err != nil {
			return Entry{}, fmt.Errorf("read entry image: %w", err)
		}
	}
	return e, nil
}

func (s *FileStore) Image(ctx context.Context, id string) ([]byte, error) {
	if err := errors.ValidateAssetID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pngPath(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	return data, err
}

// List skips JSON files that fail to parse.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}
	entries := []Entry{}
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		e, err := s.readEntry(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if e.SaveTime.IsZero() {
			if info, err := de.Info(); err == nil {
				e.SaveTime = info.ModTime()
			}
		}
		entries = append(entries, e)
	}
	sortNewestFirst(entries)
	return entries, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateAssetID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.jsonPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove entry file: %w", err)
	}
	if err := os.Remove(s.pngPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove entry image: %w", err)
	}
	return nil
}

// Clear removes every .json and .png file and counts removed entries.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read history dir: %w", err)
	}
	n := 0
	for _, de := range dirEntries {
		ext := filepath.Ext(de.Name())
		if de.IsDir() || (ext != ".json" && ext != ".png") {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, de.Name())); err != nil {
			return n, fmt.Errorf("remove %s: %w", de.Name(), err)
		}
		if ext == ".json" {
			n++
		}
	}
	return n, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
