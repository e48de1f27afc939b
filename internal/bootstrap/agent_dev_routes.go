package bootstrap

import (
	"os"

	"agent_server/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RegisterDevRoutes registers development-only inspection routes without
// authentication. WARNING: Only enable in development environment!
func RegisterDevRoutes(app *fiber.App, deps *Dependencies) {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().
		Timestamp().Str("component", "dev").Logger()

	dev := app.Group("/dev")

	// Catalog lookup by product id
	dev.Get("/catalog/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if len(id) != domain.ProductIDLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed product id"})
		}
		entry, ok := deps.Index.Get(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		zlog.Debug().Str("product_id", id).Msg("catalog lookup")
		return c.JSON(entry)
	})

	// Similarity search over the catalog index
	dev.Post("/catalog/search", func(c *fiber.Ctx) error {
		var req struct {
			Query string `json:"query"`
			K     int    `json:"k"`
		}
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
		}
		if req.K <= 0 {
			req.K = 5
		}

		vector, err := deps.LLM.Embed(c.Context(), req.Query)
		if err != nil {
			zlog.Error().Err(err).Msg("embedding failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "embedding failed"})
		}

		matches := deps.Index.Search(vector, req.K, nil, 0)
		results := make([]fiber.Map, 0, len(matches))
		for _, m := range matches {
			entry, ok := deps.Index.Get(m.ProductID)
			if !ok {
				continue
			}
			results = append(results, fiber.Map{
				"product_id": entry.ProductID,
				"name":       entry.Name,
				"stock":      entry.Stock,
				"distance":   m.Distance,
			})
		}
		zlog.Info().Str("query", req.Query).Int("matches", len(results)).Msg("catalog search")
		return c.JSON(fiber.Map{"matches": results})
	})

	// Prompt template inspection
	dev.Get("/prompts/:name", func(c *fiber.Ctx) error {
		tmpl, err := deps.PromptRepo.Get(c.Context(), c.Params("name"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(tmpl)
	})

	// Stock adjustment for allocation testing
	dev.Post("/catalog/:id/stock", func(c *fiber.Ctx) error {
		var req struct {
			Stock int `json:"stock"`
		}
		if err := c.BodyParser(&req); err != nil || req.Stock < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stock must be >= 0"})
		}
		id := c.Params("id")
		entry, ok := deps.Index.Get(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		applied, err := deps.CatalogRepo.UpdateStock(c.Context(), id, entry.Stock, req.Stock)
		if err != nil || !applied {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "stock update conflicted"})
		}
		zlog.Info().Str("product_id", id).Int("stock", req.Stock).Msg("stock adjusted")
		return c.JSON(fiber.Map{"product_id": id, "stock": req.Stock})
	})
}
