package handler

import (
	"strconv"

	"jobdeck/internal/delivery/http/dto"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/pkg/response"
	"jobdeck/internal/schedule"
	"jobdeck/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type RecurringHandler struct {
	uc usecase.RecurringUsecase
}

type recurringConfigRequest struct {
	Frequency  string `json:"frequency"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	DayOfWeek  *int   `json:"day_of_week"`
	DayOfMonth *int   `json:"day_of_month"`
	Enabled    bool   `json:"enabled"`
}

func (r recurringConfigRequest) recurrence() schedule.Recurrence {
	return schedule.Recurrence{
		Frequency:  schedule.Frequency(r.Frequency),
		Hour:       r.Hour,
		Minute:     r.Minute,
		DayOfWeek:  r.DayOfWeek,
		DayOfMonth: r.DayOfMonth,
	}
}

func NewRecurringHandler(uc usecase.RecurringUsecase) *RecurringHandler {
	return &RecurringHandler{uc: uc}
}

func (h *RecurringHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/recurring")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Get("/:id/next-runs", h.NextRuns)
}

func (h *RecurringHandler) Create(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req recurringConfigRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	cfg, err := h.uc.Create(c.Context(), userID, req.recurrence(), req.Enabled)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusCreated, "created", dto.NewRecurringConfigResponse(cfg))
}

func (h *RecurringHandler) List(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	cfgs, err := h.uc.List(c.Context(), userID)
	if err != nil {
		return err
	}

	res := make([]dto.RecurringConfigResponse, 0, len(cfgs))
	for _, cfg := range cfgs {
		res = append(res, dto.NewRecurringConfigResponse(cfg))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *RecurringHandler) Get(c fiber.Ctx) error {
	userID, configID, err := authedConfigID(c)
	if err != nil {
		return err
	}

	cfg, err := h.uc.Get(c.Context(), userID, configID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRecurringConfigResponse(cfg))
}

func (h *RecurringHandler) Update(c fiber.Ctx) error {
	userID, configID, err := authedConfigID(c)
	if err != nil {
		return err
	}

	var req recurringConfigRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	cfg, err := h.uc.Update(c.Context(), userID, configID, req.recurrence(), req.Enabled)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRecurringConfigResponse(cfg))
}

func (h *RecurringHandler) Delete(c fiber.Ctx) error {
	userID, configID, err := authedConfigID(c)
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Context(), userID, configID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *RecurringHandler) NextRuns(c fiber.Ctx) error {
	userID, configID, err := authedConfigID(c)
	if err != nil {
		return err
	}

	n := 3
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
		n = parsed
	}

	runs, err := h.uc.NextRuns(c.Context(), userID, configID, n)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"next_runs": runs})
}

func authedConfigID(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	configID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return userID, configID, nil
}
