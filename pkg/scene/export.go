package scene

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/catxpapa/catxframeup/pkg/errors"
)

// ExportPNG encodes the main layer as PNG. The overlay is never included.
// Nothing is written to w when encoding fails.
func (r *Renderer) ExportPNG(w io.Writer) error {
	data, err := r.Export()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write png")
	}
	return nil
}

// Export returns the main layer encoded as PNG. An empty canvas is an
// EXPORT_FAILED error.
func (r *Renderer) Export() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.main.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeExport, "nothing to export: canvas is empty")
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, r.main); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "encode png")
	}
	return buf.Bytes(), nil
}

// ExportFile writes the PNG to path through a temporary file in the same
// directory, so path is either fully written or untouched.
func (r *Renderer) ExportFile(path string) error {
	data, err := r.Export()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temporary sibling of path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	// CreateTemp opens files 0600; exports are ordinary files.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeExport, err, "chmod %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "rename to %s", path)
	}
	return nil
}
