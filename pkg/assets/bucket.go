package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/catxpapa/catxframeup/pkg/errors"
)

// Object is a stored file.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Bucket is flat key/value file storage with directory-style listing.
// Keys are slash-separated refs. Missing keys are NOT_FOUND errors.
type Bucket interface {
	Origin() string
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (Object, error)
	// ListDirs returns the names of the immediate subdirectories of
	// prefix, sorted.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	// ListFiles returns the files directly under prefix.
	ListFiles(ctx context.Context, prefix string) ([]Object, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// DirBucket stores files under a local directory.
type DirBucket struct {
	root string
}

// NewDirBucket returns a bucket rooted at dir, creating it if needed.
func NewDirBucket(dir string) (*DirBucket, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DirBucket{root: abs}, nil
}

// Root returns the bucket directory.
func (b *DirBucket) Root() string { return b.root }

// Origin implements Bucket.
func (b *DirBucket) Origin() string { return "dir:" + b.root }

func (b *DirBucket) path(key string) (string, error) {
	if err := errors.ValidatePath(key); err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(key)), nil
}

func notFound(err error, key string) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "%s not found", key)
	}
	return err
}

// Open implements Bucket.
func (b *DirBucket) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, notFound(err, key)
	}
	return f, nil
}

// Stat implements Bucket.
func (b *DirBucket) Stat(_ context.Context, key string) (Object, error) {
	p, err := b.path(key)
	if err != nil {
		return Object{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return Object{}, notFound(err, key)
	}
	if info.IsDir() {
		return Object{}, errors.New(errors.ErrCodeNotFound, "%s is a directory", key)
	}
	return Object{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// ListDirs implements Bucket. A missing prefix lists as empty.
func (b *DirBucket) ListDirs(_ context.Context, prefix string) ([]string, error) {
	p, err := b.path(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// ListFiles implements Bucket. A missing prefix lists as empty.
func (b *DirBucket) ListFiles(_ context.Context, prefix string) ([]Object, error) {
	p, err := b.path(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var objs []Object
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objs = append(objs, Object{Key: prefix + "/" + e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return objs, nil
}

// Put implements Bucket. Files are written to a temporary sibling and
// renamed into place.
func (b *DirBucket) Put(_ context.Context, key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete implements Bucket. Deleting a missing key is not an error.
func (b *DirBucket) Delete(_ context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ Bucket = (*DirBucket)(nil)
