package handler

import (
	"jobdeck/internal/delivery/http/dto"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/pkg/response"
	"jobdeck/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type QuotaHandler struct {
	uc usecase.QuotaUsecase
}

func NewQuotaHandler(uc usecase.QuotaUsecase) *QuotaHandler {
	return &QuotaHandler{uc: uc}
}

func (h *QuotaHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/quota", h.Status)
}

func (h *QuotaHandler) Status(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	st, err := h.uc.Status(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewQuotaStatusResponse(st))
}
