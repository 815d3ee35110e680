package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/persist"
	"github.com/stationfeed/stationfeed/internal/store"
)

func testStore(t *testing.T) (*store.Store, *persist.Snapshot) {
	t.Helper()
	snap := persist.NewSnapshot(filepath.Join(t.TempDir(), "snapshot.txt"))
	return store.New(snap), snap
}

func put(t *testing.T, st *store.Store, id string, receivedAt time.Time) {
	t.Helper()
	doc, err := payload.Parse([]byte(`{"id":"` + id + `"}`))
	require.NoError(t, err)
	_, err = st.Put(id, doc, receivedAt)
	require.NoError(t, err)
}

func TestRunOnceRemovesExpiredRecords(t *testing.T) {
	st, snap := testStore(t)

	now := time.Now()
	put(t, st, "stale", now.Add(-45*time.Second))
	put(t, st, "fresh", now.Add(-10*time.Second))

	evictor := New(st, 30*time.Second, 5*time.Second)
	evictor.RunOnce()

	_, err := st.Get("stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get("fresh")
	assert.NoError(t, err)

	// The sweep's snapshot reflects the post-eviction state.
	loaded, err := snap.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "fresh", loaded[0].StationID)
}

func TestRunOnceRewritesSnapshotWhenNothingExpired(t *testing.T) {
	st, snap := testStore(t)
	put(t, st, "fresh", time.Now())

	evictor := New(st, 30*time.Second, 5*time.Second)
	evictor.RunOnce()

	loaded, err := snap.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestStartAndStop(t *testing.T) {
	st, _ := testStore(t)

	evictor := New(st, 30*time.Second, 5*time.Second)
	require.NoError(t, evictor.Start())
	evictor.Stop()
}
