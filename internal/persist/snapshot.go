package persist

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/store"
)

// Snapshot persists the full station store as a line-oriented text file,
// one record per line: id|receivedAtMillis|compactPayload.
//
// Writes are crash-atomic: the new contents go to a temporary file which
// then replaces the real path in one rename, so a reader can never open a
// truncated or half-written snapshot.
type Snapshot struct {
	path string
}

// NewSnapshot creates a Snapshot stored at path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Path returns the snapshot's on-disk location.
func (s *Snapshot) Path() string {
	return s.path
}

// Write serializes records and atomically replaces the snapshot file.
func (s *Snapshot) Write(records []store.Record) error {
	tmp := s.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range records {
		encoded, err := rec.Payload.Encode()
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("snapshot: encode payload for %s: %w", rec.StationID, err)
		}
		line := rec.StationID + "|" + strconv.FormatInt(rec.ReceivedAt.UnixMilli(), 10) + "|" + string(encoded)
		if _, err := fmt.Fprintln(w, line); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("snapshot: write %s: %w", tmp, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("snapshot: flush %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("snapshot: sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: replace %s: %w", s.path, err)
	}
	return nil
}

// Load reads the snapshot back into records, preserving original
// timestamps. A missing file yields no records and no error. Malformed
// lines are skipped with a logged warning; loading continues with the
// remaining lines.
func (s *Snapshot) Load() ([]store.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: open %s: %w", s.path, err)
	}
	defer f.Close()

	var records []store.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			log.Printf("WARN: skipping malformed snapshot line %q: %v", line, err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	return records, nil
}

// parseLine splits one snapshot line into a record.
func parseLine(line string) (store.Record, error) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return store.Record{}, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}

	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return store.Record{}, fmt.Errorf("bad timestamp: %w", err)
	}

	doc, err := payload.Parse([]byte(parts[2]))
	if err != nil {
		return store.Record{}, err
	}

	return store.Record{
		StationID:  parts[0],
		Payload:    doc,
		ReceivedAt: time.UnixMilli(millis),
	}, nil
}
