package v1

import (
	"jobdeck/internal/app"
	"jobdeck/internal/delivery/http/handler"
	"jobdeck/internal/delivery/http/middleware"
	"jobdeck/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
)

func Register(r fiber.Router, c *app.Container) {
	if r == nil || c == nil {
		return
	}

	jwtSvc := jwt.NewHMACService(
		c.Config.JWT.AccessSecret,
		c.Config.JWT.RefreshSecret,
		c.Config.JWT.AccessExpiry,
		c.Config.JWT.RefreshExpiry,
	)
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	protected := r.Group("", authMw.Middleware())

	handler.NewScoringHandler(c.ScoringUC).RegisterRoutes(protected)
	handler.NewJobHandler(c.ScoringUC, c.Hub).RegisterRoutes(protected)
	handler.NewRecurringHandler(c.RecurringUC).RegisterRoutes(protected)
	handler.NewQuotaHandler(c.QuotaUC).RegisterRoutes(protected)
}
