package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stationfeed/stationfeed/internal/payload"
)

var (
	// ErrNotFound is returned when no record exists for a station id.
	ErrNotFound = errors.New("no weather data for station")
)

// SnapshotWriter persists the full record set. The store calls it inside
// its own critical section so the on-disk snapshot never lags behind a
// state some reader has already observed.
type SnapshotWriter interface {
	Write(records []Record) error
}

// Store is the concurrency-safe mapping of station id to current record.
//
// A single mutex guards reads, writes, eviction and the snapshot write
// that accompanies every mutation. That makes each operation linearizable
// at the cost of one store operation at a time, which is the intended
// trade-off at this system's scale.
type Store struct {
	mu       sync.Mutex
	records  map[string]Record
	snapshot SnapshotWriter
}

// New creates an empty Store persisting through snapshot.
func New(snapshot SnapshotWriter) *Store {
	return &Store{
		records:  make(map[string]Record),
		snapshot: snapshot,
	}
}

// Load installs previously persisted records, keeping their original
// ReceivedAt so TTL countdown continues from true age. Called once at
// startup before the store is shared.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.records[r.StationID] = r
	}
}

// Put replaces the record for id with doc wholesale and persists the new
// snapshot before returning. The existence check, the mutation and the
// snapshot write form one atomic unit. Returns true when id was not
// previously present.
func (s *Store) Put(id string, doc payload.Document, receivedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.records[id]
	s.records[id] = Record{
		StationID:  id,
		Payload:    doc,
		ReceivedAt: receivedAt,
	}

	if err := s.snapshot.Write(s.sortedLocked()); err != nil {
		return !exists, err
	}
	return !exists, nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns all records sorted by station id.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedLocked()
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Evict removes every record received before cutoff and rewrites the
// snapshot unconditionally, even when nothing was removed. Returns the
// ids removed.
func (s *Store) Evict(cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, rec := range s.records {
		if rec.ReceivedAt.Before(cutoff) {
			delete(s.records, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)

	if err := s.snapshot.Write(s.sortedLocked()); err != nil {
		return removed, err
	}
	return removed, nil
}

// sortedLocked returns the records sorted by station id. Callers must
// hold s.mu.
func (s *Store) sortedLocked() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StationID < out[j].StationID
	})
	return out
}
