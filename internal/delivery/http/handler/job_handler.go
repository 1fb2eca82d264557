package handler

import (
	"jobdeck/internal/delivery/http/dto"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/domain/score"
	"jobdeck/internal/pkg/response"
	"jobdeck/internal/usecase"
	"jobdeck/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type JobHandler struct {
	uc  usecase.ScoringUsecase
	hub *ws.Hub
}

func NewJobHandler(uc usecase.ScoringUsecase, hub *ws.Hub) *JobHandler {
	return &JobHandler{uc: uc, hub: hub}
}

func (h *JobHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/jobs/:id/score", h.ScoreOne)
}

// ScoreOne scores a single job on demand. Partial snapshots go out over the
// websocket as the model streams; the final validated score is the HTTP body.
func (h *JobHandler) ScoreOne(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	res, err := h.uc.ScoreJobStream(c.Context(), userID, jobID, func(partial score.Result) {
		h.hub.NotifyJobScorePartial(jobID, dto.NewScoreResponse(partial))
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewScoreResponse(res))
}
