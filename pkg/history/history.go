// Package history stores finished works: the exported PNG together with
// the project document that produced it.
//
// Three backends implement [Store]:
//   - [FileStore]: <id>.json and <id>.png in a directory
//   - [SQLStore]: a SQLite database (modernc.org/sqlite, no cgo)
//   - [MongoStore]: a MongoDB collection
//
// Entry IDs are random UUIDs. List returns entries newest first and
// leaves PNG empty; use Get or Image for the pixels.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/project"
)

// Entry is one saved work.
type Entry struct {
	ID       string           `json:"id"`
	SaveTime time.Time        `json:"saveTime"`
	Document project.Document `json:"data"`
	// HasImage reports whether a PNG was stored with the entry.
	HasImage bool   `json:"hasImage"`
	PNG      []byte `json:"-"`
}

// Store persists entries. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores doc and png under a new ID. png may be empty.
	Save(ctx context.Context, doc project.Document, png []byte) (Entry, error)
	// Get returns an entry with its PNG. Unknown IDs are NOT_FOUND.
	Get(ctx context.Context, id string) (Entry, error)
	// Image returns only the PNG of an entry.
	Image(ctx context.Context, id string) ([]byte, error)
	// List returns every entry, newest first, without PNG data.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes an entry. Unknown IDs are NOT_FOUND.
	Delete(ctx context.Context, id string) error
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	Close() error
}

// newEntry stamps doc with a fresh ID and the current time.
func newEntry(doc project.Document, png []byte) Entry {
	now := time.Now().UTC()
	doc.SaveTime = now
	if doc.Version == 0 {
		doc.Version = project.Version
	}
	return Entry{
		ID:       uuid.NewString(),
		SaveTime: now,
		Document: doc,
		HasImage: len(png) > 0,
		PNG:      png,
	}
}

func sortNewestFirst(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.SaveTime.Compare(a.SaveTime)
	})
}

func marshalDocument(doc project.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return data, nil
}

func unmarshalDocument(id string, data []byte) (project.Document, error) {
	var doc project.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return project.Document{}, errors.Wrap(errors.ErrCodeConfigParse, err, "parse entry %s", id)
	}
	return doc, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "history entry %s not found", id)
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"`
	// Dir is the FileStore directory.
	Dir string `toml:"dir"`
	// DSN is the SQLite data source, e.g. "history.db".
	DSN string `toml:"dsn"`
	// MongoURI and MongoDatabase locate the MongoStore collection.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// DefaultDir is the FileStore directory used when Config.Dir is empty.
const DefaultDir = "history"

// Open creates the store named by cfg.Backend. An empty backend means
// BackendFile.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendSQLite:
		ss, err := NewSQLStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return ss, nil
	case BackendMongo:
		ms, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q (want file, sqlite or mongo)", cfg.Backend)
	}
}
