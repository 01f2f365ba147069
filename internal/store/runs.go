package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStats summarizes the outcome of one run, computed as execution
// results arrive rather than re-derived from the full result list later.
type RunStats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Flaky    int // passed only after at least one retry
	ExitCode int
}

// RecordedRunInfo is the persisted record of a single run: identity,
// lineage (if it reran a previous run), timing, the profile it ran
// under, and its final stats.
type RecordedRunInfo struct {
	ID         uuid.UUID
	ParentID   uuid.UUID // uuid.Nil if this run didn't rerun another
	ProfileName string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      RunStats
	// StressIteration is non-zero for a run recorded from a stress run
	// (dispatcher.RunStress): the number of Plan repetitions completed
	// when the stress loop stopped. Zero for an ordinary single-shot run.
	StressIteration int
}

// HasParent reports whether this run reran another.
func (r RecordedRunInfo) HasParent() bool { return r.ParentID != uuid.Nil }

// Lineages projects a RunIndex's runs into the (run, parent, started_at)
// triples NewTree builds a rerun forest from.
func Lineages(idx RunIndex) []RunLineage {
	out := make([]RunLineage, len(idx.Runs))
	for i, r := range idx.Runs {
		out[i] = RunLineage{RunID: r.ID, ParentID: r.ParentID, StartedAt: r.StartedAt}
	}
	return out
}

// SaveRunInfo writes info's metadata to its run.json.zst, JSON-encoded
// then zstd-compressed. Each run directory is written exactly once by
// the process that owns it, so this needs no locking.
func SaveRunInfo(l Layout, info RecordedRunInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("store: marshaling run info for %s: %w", info.ID, err)
	}
	return writeZst(l.MetaPath(info.ID), data)
}

// LoadRunInfo reads back a run's metadata.
func LoadRunInfo(l Layout, id uuid.UUID) (RecordedRunInfo, error) {
	data, err := readZst(l.MetaPath(id))
	if err != nil {
		return RecordedRunInfo{}, err
	}
	var info RecordedRunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return RecordedRunInfo{}, fmt.Errorf("store: unmarshaling run info for %s: %w", id, err)
	}
	return info, nil
}
