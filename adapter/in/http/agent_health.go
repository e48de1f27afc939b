package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"agent_server/core/catalog"
)

// HealthHandler reports liveness and readiness. Readiness requires a
// reachable database and a loaded catalog.
type HealthHandler struct {
	client *mongo.Client
	index  *catalog.Index
}

func NewHealthHandler(client *mongo.Client, index *catalog.Index) *HealthHandler {
	return &HealthHandler{client: client, index: index}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.client.Ping(ctx, readpref.Primary()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"reason": "database unreachable",
		})
	}
	if h.index.Len() == 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"reason": "catalog not loaded",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ready",
		"products": h.index.Len(),
	})
}
