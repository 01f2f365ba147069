package store

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ContentWriter accumulates captured test output (stdout/stderr blobs)
// into a single content-addressed store.zip for a run. Two tests that
// produce byte-identical output (a common case for boilerplate failure
// messages) are stored once.
type ContentWriter struct {
	f      *os.File
	zw     *zip.Writer
	seen   map[string]bool
}

// NewContentWriter creates (or truncates) the run's store.zip.
func NewContentWriter(l Layout, id uuid.UUID) (*ContentWriter, error) {
	path := l.ArchivePath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", path, err)
	}
	return &ContentWriter{f: f, zw: zip.NewWriter(f), seen: make(map[string]bool)}, nil
}

// Put stores data under its content digest and returns the digest, which
// ContentReader.Get takes to fetch the bytes back out. Writing the same content
// twice within one run is a no-op the second time.
func (cw *ContentWriter) Put(data []byte) (digest string, err error) {
	digest = digestOf(data)
	if cw.seen[digest] {
		return digest, nil
	}
	w, err := cw.zw.Create(digest)
	if err != nil {
		return "", fmt.Errorf("store: adding %s to archive: %w", digest, err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("store: writing %s to archive: %w", digest, err)
	}
	cw.seen[digest] = true
	return digest, nil
}

// Close finalizes store.zip and closes the underlying file.
func (cw *ContentWriter) Close() error {
	if err := cw.zw.Close(); err != nil {
		cw.f.Close()
		return fmt.Errorf("store: finalizing archive: %w", err)
	}
	return cw.f.Close()
}

// digestOf returns a fixed-width, zero-padded 16-hex-digit digest so
// every entry name in store.zip sorts and compares as a plain string
// without needing to know the underlying hash width.
func digestOf(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// ContentReader opens an existing run's store.zip for lookups by digest.
type ContentReader struct {
	zr *zip.ReadCloser
}

// OpenContentReader opens path (an ArchivePath) for reading.
func OpenContentReader(path string) (*ContentReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	return &ContentReader{zr: zr}, nil
}

// Get returns the bytes stored under digest.
func (cr *ContentReader) Get(digest string) ([]byte, error) {
	for _, f := range cr.zr.File {
		if f.Name != digest {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("store: opening entry %s: %w", digest, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("store: no entry for digest %s", digest)
}

// Close closes the underlying archive.
func (cr *ContentReader) Close() error { return cr.zr.Close() }
