package handler

import (
	"log"
	"strings"

	"jobdeck/internal/delivery/http/dto"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/pkg/response"
	"jobdeck/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ScrapeCompletedRequest is what the scrape worker posts when a run finishes.
// Job payloads stay free-form maps; key extraction happens in ingest.
type ScrapeCompletedRequest struct {
	UserID string           `json:"user_id"`
	Source string           `json:"source"`
	Jobs   []map[string]any `json:"jobs"`
}

type ScrapeCompletedHandler struct {
	uc     usecase.IngestUsecase
	token  string
	logger *log.Logger
}

func NewScrapeCompletedHandler(uc usecase.IngestUsecase, internalToken string, logger *log.Logger) *ScrapeCompletedHandler {
	return &ScrapeCompletedHandler{uc: uc, token: internalToken, logger: logger}
}

func (h *ScrapeCompletedHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/internal/scrape-completed", h.HandleScrapeCompleted)
}

func (h *ScrapeCompletedHandler) HandleScrapeCompleted(c fiber.Ctx) error {
	tok := strings.TrimSpace(c.Get("X-Internal-Token"))
	if tok == "" || tok != h.token {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req ScrapeCompletedRequest
	if err := c.Bind().Body(&req); err != nil {
		if h.logger != nil {
			h.logger.Printf("Webhook error | error=%v", err)
		}
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "unknown"
	}

	scrape, err := h.uc.ScrapeCompleted(c.Context(), userID, source, req.Jobs)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewScrapeResponse(scrape))
}
