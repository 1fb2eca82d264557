package routes

import (
	"jobdeck/internal/app"
	"jobdeck/internal/delivery/http/handler"
	v1 "jobdeck/internal/delivery/http/routes/v1"
	"jobdeck/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	container *app.Container
}

func NewRegistry(c *app.Container) *Registry {
	return &Registry{container: c}
}

func (r *Registry) Register(f *fiber.App) {
	if f == nil || r == nil || r.container == nil {
		return
	}

	c := r.container

	health := handler.NewHealthHandler(c.DB, c.Cache)
	health.RegisterRoutes(f)

	// Internal surface: scrape worker callback and the live event socket.
	scrapeCompleted := handler.NewScrapeCompletedHandler(c.IngestUC, c.Config.Scraper.InternalToken, c.Logger)
	scrapeCompleted.RegisterRoutes(f)

	wsHandler := ws.NewHandler(c.Hub, c.Logger)
	f.Get("/ws/scoring", wsHandler.HandleScoringWS)

	api := f.Group("/api")
	v1.Register(api.Group("/v1"), c)
}
