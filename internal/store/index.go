package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// indexFormatVersion guards against loading an index written by an
// incompatible future (or past) layout. Bump it whenever RunIndex's
// on-disk shape changes in a way older code can't read.
const indexFormatVersion = 1

// IndexPath is the central catalog of every run in the store, kept
// alongside the per-run directories so the `nextrunner store` subcommands
// don't need to stat every run directory just to print a table.
func (l Layout) IndexPath() string { return filepath.Join(l.Root, "runs.json.zst") }

// RunIndex is the persisted, store-wide catalog of runs. It is written
// only while holding the store Lock (AppendRun, Prune); LoadIndex itself
// takes no lock.
type RunIndex struct {
	Version int               `json:"version"`
	Runs    []RecordedRunInfo `json:"runs"`
}

// LoadIndex reads the store's catalog, returning an empty v1 index if
// none has been written yet (a brand new store directory).
func LoadIndex(l Layout) (RunIndex, error) {
	data, err := readZst(l.IndexPath())
	if errors.Is(err, os.ErrNotExist) {
		return RunIndex{Version: indexFormatVersion}, nil
	}
	if err != nil {
		return RunIndex{}, err
	}
	var idx RunIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return RunIndex{}, fmt.Errorf("store: unmarshaling index: %w", err)
	}
	if idx.Version > indexFormatVersion {
		return RunIndex{}, fmt.Errorf("store: index format v%d is newer than this build understands (v%d)", idx.Version, indexFormatVersion)
	}
	return idx, nil
}

func saveIndex(l Layout, idx RunIndex) error {
	idx.Version = indexFormatVersion
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("store: marshaling index: %w", err)
	}
	return writeZst(l.IndexPath(), data)
}

// AppendRun records info both in its own run directory and in the
// store-wide index, holding the store lock for the index update only
// (the per-run directory write happens first and needs no locking,
// since each run directory is owned by exactly one process).
func AppendRun(l Layout, info RecordedRunInfo) error {
	if err := SaveRunInfo(l, info); err != nil {
		return err
	}
	lock, err := AcquireLock(l)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := LoadIndex(l)
	if err != nil {
		return err
	}
	idx.Runs = append(idx.Runs, info)
	return saveIndex(l, idx)
}

// ResolvePrefix finds the one run ID in the index whose string form
// starts with prefix, the way a short git commit hash resolves. It
// returns an error naming every match if prefix is ambiguous, and an
// error if it matches nothing.
func ResolvePrefix(l Layout, prefix string) (uuid.UUID, error) {
	idx, err := LoadIndex(l)
	if err != nil {
		return uuid.Nil, err
	}
	prefix = strings.ToLower(prefix)
	var matches []uuid.UUID
	for _, r := range idx.Runs {
		if strings.HasPrefix(strings.ToLower(r.ID.String()), prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("store: no run id matches prefix %q", prefix)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return uuid.Nil, fmt.Errorf("store: prefix %q is ambiguous among %d runs: %s", prefix, len(matches), strings.Join(names, ", "))
	}
}

// Replayable reports whether id's run directory still has both the
// metadata and the content archive a rerun or a `store show` needs —
// true unless the directory was pruned or partially written.
func Replayable(l Layout, id uuid.UUID) bool {
	if _, err := os.Stat(l.MetaPath(id)); err != nil {
		return false
	}
	if _, err := os.Stat(l.ArchivePath(id)); err != nil {
		return false
	}
	return true
}

// PruneResult reports what Prune removed.
type PruneResult struct {
	Removed []uuid.UUID
	Kept    int
}

// Prune drops every run beyond the most recent keep runs (by StartedAt)
// and every run older than olderThan (the union of the two sets),
// removing both the run directory on disk and its index entry. A zero
// olderThan disables the age-based cutoff; a non-positive keep disables
// the count-based cutoff. Each run is judged on its own: a kept rerun
// whose parent is pruned keeps its ParentID, and nothing re-parents it.
func Prune(l Layout, keep int, olderThan time.Duration) (PruneResult, error) {
	lock, err := AcquireLock(l)
	if err != nil {
		return PruneResult{}, err
	}
	defer lock.Release()

	idx, err := LoadIndex(l)
	if err != nil {
		return PruneResult{}, err
	}

	sort.Slice(idx.Runs, func(i, j int) bool {
		return idx.Runs[i].StartedAt.After(idx.Runs[j].StartedAt)
	})

	var cutoff time.Time
	if olderThan > 0 {
		cutoff = timeNow().Add(-olderThan)
	}

	var kept []RecordedRunInfo
	var removed []uuid.UUID
	for i, r := range idx.Runs {
		stale := !cutoff.IsZero() && r.StartedAt.Before(cutoff)
		overflow := keep > 0 && i >= keep
		if stale || overflow {
			if err := os.RemoveAll(l.RunDir(r.ID)); err != nil {
				return PruneResult{}, fmt.Errorf("store: removing run %s: %w", r.ID, err)
			}
			removed = append(removed, r.ID)
			continue
		}
		kept = append(kept, r)
	}

	idx.Runs = kept
	if err := saveIndex(l, idx); err != nil {
		return PruneResult{}, err
	}
	return PruneResult{Removed: removed, Kept: len(kept)}, nil
}

// timeNow is a seam so tests can pin "now"; production always uses the
// real clock.
var timeNow = time.Now
