package store

import (
	"time"

	"github.com/stationfeed/stationfeed/internal/payload"
)

// Record is the current reading held for one station.
type Record struct {
	// StationID is the stable key; it always equals the "id" field
	// embedded in Payload.
	StationID string

	// Payload is the whole document last accepted for this station.
	// Replacement is all-or-nothing; partial merges never happen.
	Payload payload.Document

	// ReceivedAt is the wall-clock time the record was accepted, used
	// only for eviction.
	ReceivedAt time.Time
}
