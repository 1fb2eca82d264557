package app

import (
	"fmt"
	"strings"

	"jobdeck/internal/config"
	"jobdeck/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the container, starts the background sweeper, and returns
// the app plus a cleanup function for shutdown.
func Bootstrap(cfg config.Config, register func(*fiber.App, *Container)) (*App, func() error, error) {
	c, err := NewContainer(cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	registerGlobalMiddleware(f, c)
	if register != nil {
		register(f, c)
	}

	if err := c.Sweeper.Start(); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("start schedule sweeper: %w", err)
	}

	app := &App{Fiber: f, Container: c}
	return app, c.Close, nil
}

func registerGlobalMiddleware(f *fiber.App, c *Container) {
	if f == nil {
		return
	}

	f.Use(middleware.NewErrorMiddleware().Middleware())
	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
