// Package ledger records each workflow run and the remote resources it
// created, so an interrupted run can be cleaned up later.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	pebble "github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

const (
	keyPrefix = "run/"
	// first key past every "run/" key
	keyUpperBound = "run0"
)

// Run states.
const (
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Resource kinds tracked per run.
const (
	KindAsset            = "asset"
	KindJob              = "job"
	KindStreamingLocator = "streaming-locator"
	KindContentKeyPolicy = "content-key-policy"
	KindLiveEvent        = "live-event"
)

var ErrRunNotFound = errors.New("run not found")

// Resource is one remote object a run created. Parent is the owning
// transform for jobs and empty otherwise.
type Resource struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// RunRecord is the stored form of one workflow run.
type RunRecord struct {
	ID        string     `json:"id"`
	Workflow  string     `json:"workflow"`
	Started   time.Time  `json:"started"`
	Finished  time.Time  `json:"finished,omitempty"`
	State     string     `json:"state"`
	Error     string     `json:"error,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

// Ledger is a pebble-backed run store.
type Ledger struct {
	db   *pebble.DB
	path string
	mu   sync.Mutex
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Begin stores a new running record for workflow and returns it.
func (l *Ledger) Begin(workflow string) (*RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := &RunRecord{
		ID:       uuid.NewString(),
		Workflow: workflow,
		Started:  time.Now().UTC(),
		State:    StateRunning,
	}
	if err := l.put(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Track appends r to the run's resources. Tracking the same resource twice is a no-op.
func (l *Ledger) Track(runID string, r Resource) error {
	return l.update(runID, func(record *RunRecord) {
		for _, existing := range record.Resources {
			if existing == r {
				return
			}
		}
		record.Resources = append(record.Resources, r)
	})
}

// Forget removes r from the run's resources once it has been deleted remotely.
func (l *Ledger) Forget(runID string, r Resource) error {
	return l.update(runID, func(record *RunRecord) {
		kept := record.Resources[:0]
		for _, existing := range record.Resources {
			if existing != r {
				kept = append(kept, existing)
			}
		}
		record.Resources = kept
	})
}

// Finish marks the run succeeded, or failed with runErr's text.
func (l *Ledger) Finish(runID string, runErr error) error {
	return l.update(runID, func(record *RunRecord) {
		record.Finished = time.Now().UTC()
		if runErr != nil {
			record.State = StateFailed
			record.Error = runErr.Error()
			return
		}
		record.State = StateSucceeded
		record.Error = ""
	})
}

// Get returns the run with id, or ErrRunNotFound.
func (l *Ledger) Get(runID string) (*RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(runID)
}

// List returns every run, oldest first.
func (l *Ledger) List() ([]RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, _, err := l.scan()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Started.Before(records[j].Started)
	})
	return records, nil
}

// CleanupOldRecords removes finished runs older than maxAge that have no
// outstanding resources. Runs still holding resources are kept for cleanup.
func (l *Ledger) CleanupOldRecords(maxAge time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	records, keys, err := l.scan()
	if err != nil {
		return 0, err
	}

	removed := 0
	for i, record := range records {
		if record.State == StateRunning || len(record.Resources) > 0 {
			continue
		}
		if !record.Finished.Before(cutoff) {
			continue
		}
		if err := l.db.Delete(keys[i], pebble.Sync); err != nil {
			return removed, fmt.Errorf("failed to delete old run record: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (l *Ledger) update(runID string, fn func(*RunRecord)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, err := l.get(runID)
	if err != nil {
		return err
	}
	fn(record)
	return l.put(record)
}

func (l *Ledger) get(runID string) (*RunRecord, error) {
	data, closer, err := l.db.Get(key(runID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	defer closer.Close()

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

func (l *Ledger) put(record *RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	if err := l.db.Set(key(record.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to store run record: %w", err)
	}
	return nil
}

func (l *Ledger) scan() ([]RunRecord, [][]byte, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyUpperBound),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	var records []RunRecord
	var keys [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var record RunRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue // skip invalid records
		}
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		records = append(records, record)
		keys = append(keys, k)
	}
	if err := iter.Error(); err != nil {
		return nil, nil, fmt.Errorf("iteration error: %w", err)
	}
	return records, keys, nil
}
