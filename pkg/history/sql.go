package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/catxpapa/catxframeup/pkg/project"
)

// SQLStore keeps entries in a SQLite database.
type SQLStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	save_time INTEGER NOT NULL,
	document BLOB NOT NULL,
	png BLOB
);
CREATE INDEX IF NOT EXISTS history_save_time ON history (save_time DESC);`

// NewSQLStore opens (creating if needed) the database at dsn. An empty dsn
// opens a private in-memory database.
func NewSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One connection keeps in-memory databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Save(ctx context.Context, doc project.Document, png []byte) (Entry, error) {
	e := newEntry(doc, png)
	data, err := marshalDocument(e.Document)
	if err != nil {
		return Entry{}, err
	}
	var blob any
	if e.HasImage {
		blob = png
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO history (id, save_time, document, png) VALUES (?, ?, ?, ?)",
		e.ID, e.SaveTime.UnixNano(), data, blob)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func scanEntry(id string, saveTime int64, data []byte) (Entry, error) {
	doc, err := unmarshalDocument(id, data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, SaveTime: time.Unix(0, saveTime).UTC(), Document: doc}, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Entry, error) {
	var (
		saveTime int64
		data     []byte
		png      []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT save_time, document, png FROM history WHERE id = ?", id).
		Scan(&saveTime, &data, &png)
	if err == sql.ErrNoRows {
		return Entry{}, notFound(id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query entry: %w", err)
	}
	e, err := scanEntry(id, saveTime, data)
	if err != nil {
		return Entry{}, err
	}
	e.PNG = png
	e.HasImage = len(png) > 0
	return e, nil
}

func (s *SQLStore) Image(ctx context.Context, id string) ([]byte, error) {
	var png []byte
	err := s.db.QueryRowContext(ctx, "SELECT png FROM history WHERE id = ?", id).Scan(&png)
	if err == sql.ErrNoRows || (err == nil && len(png) == 0) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query entry image: %w", err)
	}
	return png, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, save_time, document, png IS NOT NULL AND length(png) > 0 FROM history ORDER BY save_time DESC")
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			id       string
			saveTime int64
			data     []byte
			hasImage bool
		)
		if err := rows.Scan(&id, &saveTime, &data, &hasImage); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e, err := scanEntry(id, saveTime, data)
		if err != nil {
			continue
		}
		e.HasImage = hasImage
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLStore) Close() error { return s.db.Close() }

var _ Store = (*SQLStore)(nil)
