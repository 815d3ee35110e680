package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stationfeed/stationfeed/internal/lamport"
	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/persist"
	"github.com/stationfeed/stationfeed/internal/store"
)

// TestHealthEndpoint verifies the monitoring surface reports the service
// as up.
func TestHealthEndpoint(t *testing.T) {
	app := fiber.New()

	snap := persist.NewSnapshot(filepath.Join(t.TempDir(), "snapshot.txt"))
	RegisterRoutes(app, store.New(snap), lamport.NewClock(), snap.Path())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

// TestStatsEndpoint verifies station count and clock value are reported.
func TestStatsEndpoint(t *testing.T) {
	app := fiber.New()

	snap := persist.NewSnapshot(filepath.Join(t.TempDir(), "snapshot.txt"))
	st := store.New(snap)
	clock := lamport.NewClock()
	RegisterRoutes(app, st, clock, snap.Path())

	doc, err := payload.Parse([]byte(`{"id":"IDS60901","air_temp":25.5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := st.Put("IDS60901", doc, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Tick()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Stations     int    `json:"stations"`
		LamportClock uint64 `json:"lamport_clock"`
		SnapshotPath string `json:"snapshot_path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Stations != 1 {
		t.Fatalf("expected 1 station, got %d", body.Stations)
	}
	if body.LamportClock != 1 {
		t.Fatalf("expected clock 1, got %d", body.LamportClock)
	}
}
