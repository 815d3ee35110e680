package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stationfeed/stationfeed/internal/lamport"
	"github.com/stationfeed/stationfeed/internal/store"
)

// RegisterRoutes wires the operational HTTP handlers into the Fiber app.
// This surface is read-only monitoring; it is not part of the station
// protocol and never touches the logical clock.
func RegisterRoutes(app *fiber.App, st *store.Store, clock *lamport.Clock, snapshotPath string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "aggregation-server",
		})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"stations":      st.Len(),
			"lamport_clock": clock.Current(),
			"snapshot_path": snapshotPath,
		})
	})
}
