package handler

import (
	"context"

	"jobdeck/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    pinger
	cache pinger
}

func NewHealthHandler(db, cache pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	checks := fiber.Map{"db": "ok", "cache": "ok"}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			checks["db"] = err.Error()
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(c.Context()); err != nil {
			// Redis is optional; report but stay healthy.
			checks["cache"] = err.Error()
		}
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, "unhealthy", checks)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, checks)
}
