package store

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Layout resolves the on-disk paths for a record store rooted at Root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root (typically config.StoreDir's
// result).
func NewLayout(root string) Layout { return Layout{Root: root} }

// LockPath is the advisory lock file guarding writes to the store's
// top-level index and pruning operations.
func (l Layout) LockPath() string { return filepath.Join(l.Root, "store.lock") }

// RunDir is the directory holding everything for a single run.
func (l Layout) RunDir(id uuid.UUID) string {
	return filepath.Join(l.Root, "runs", id.String())
}

// MetaPath is the compressed run metadata (RecordedRunInfo + RunStats).
func (l Layout) MetaPath(id uuid.UUID) string {
	return filepath.Join(l.RunDir(id), "run.json.zst")
}

// LogPath is the compressed combined/per-test execution log for a run.
func (l Layout) LogPath(id uuid.UUID) string {
	return filepath.Join(l.RunDir(id), "run.log.zst")
}

// ArchivePath is the content-addressed store of captured test output
// blobs for a run, one zip per run.
func (l Layout) ArchivePath(id uuid.UUID) string {
	return filepath.Join(l.RunDir(id), "store.zip")
}

// RunsDir is the parent of every per-run directory, used to enumerate and
// prune old runs.
func (l Layout) RunsDir() string { return filepath.Join(l.Root, "runs") }
