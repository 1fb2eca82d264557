package handler

import (
	"jobdeck/internal/delivery/http/dto"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/pkg/response"
	"jobdeck/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ScoringHandler struct {
	uc usecase.ScoringUsecase
}

func NewScoringHandler(uc usecase.ScoringUsecase) *ScoringHandler {
	return &ScoringHandler{uc: uc}
}

func (h *ScoringHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/scrapes/:id")
	grp.Post("/score", h.Start)
	grp.Post("/score/resume", h.Resume)
	grp.Get("/progress", h.Progress)
}

func (h *ScoringHandler) Start(c fiber.Ctx) error {
	userID, scrapeID, err := authedScrapeID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Start(c.Context(), userID, scrapeID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusAccepted, "scoring started", fiber.Map{"scrape_id": scrapeID})
}

func (h *ScoringHandler) Resume(c fiber.Ctx) error {
	userID, scrapeID, err := authedScrapeID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Resume(c.Context(), userID, scrapeID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusAccepted, "scoring resumed", fiber.Map{"scrape_id": scrapeID})
}

func (h *ScoringHandler) Progress(c fiber.Ctx) error {
	userID, scrapeID, err := authedScrapeID(c)
	if err != nil {
		return err
	}

	scrape, err := h.uc.Progress(c.Context(), userID, scrapeID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewScrapeResponse(scrape))
}

func authedScrapeID(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	scrapeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return userID, scrapeID, nil
}
