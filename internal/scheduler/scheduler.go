package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/stationfeed/stationfeed/internal/store"
)

// Evictor periodically removes expired station records and rewrites the
// snapshot. It is owned and stopped by the process lifecycle owner rather
// than running as a fire-and-forget background thread.
type Evictor struct {
	scheduler *gocron.Scheduler
	store     *store.Store
	ttl       time.Duration
	interval  time.Duration

	// onPersistFailure mirrors the server's handling of snapshot write
	// failures; the default aborts the process.
	onPersistFailure func(err error)
}

// New creates an Evictor that removes records older than ttl every
// interval.
func New(st *store.Store, ttl, interval time.Duration) *Evictor {
	return &Evictor{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     st,
		ttl:       ttl,
		interval:  interval,
		onPersistFailure: func(err error) {
			log.Fatalf("FATAL: snapshot write failed during eviction: %v", err)
		},
	}
}

// Start schedules the periodic eviction job and starts the underlying
// scheduler.
func (e *Evictor) Start() error {
	seconds := int(e.interval.Seconds())
	if seconds <= 0 {
		seconds = 5
	}

	_, err := e.scheduler.Every(seconds).Seconds().Do(e.RunOnce)
	if err != nil {
		return err
	}

	e.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single eviction sweep. The snapshot is rewritten
// even when nothing expired.
func (e *Evictor) RunOnce() {
	cutoff := time.Now().Add(-e.ttl)

	removed, err := e.store.Evict(cutoff)
	for _, id := range removed {
		log.Printf("INFO: removed stale data for station %s", id)
	}
	if err != nil {
		e.onPersistFailure(err)
	}
}

// Stop stops the scheduler and cancels any future sweeps.
func (e *Evictor) Stop() {
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
}
