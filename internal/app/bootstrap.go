package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"cofound/internal/config"
	"cofound/internal/delivery/http/handler"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/delivery/http/routes"
	v1 "cofound/internal/delivery/http/routes/v1"
	"cofound/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Log)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container and the HTTP app and starts the background
// workers. The returned cleanup stops them and releases the container.
func Bootstrap(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	a := New(c)
	a.startBackground()
	return a, a.shutdown, nil
}

func registerGlobalMiddleware(app *fiber.App, log *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	health := handler.NewHealthHandler(map[string]handler.Check{
		"postgres": c.DB.Ping,
		"redis": func(ctx context.Context) error {
			if !c.Redis.Available() {
				return nil
			}
			return c.Redis.Ping(ctx)
		},
	})

	api := v1.Handlers{
		Interests:     handler.NewInterestHandler(c.Interests, c.Dispatcher),
		Conversations: handler.NewConversationHandler(c.Conversations, c.Dispatcher),
		Trials:        handler.NewTrialHandler(c.Trials, c.Dispatcher),
		Openings:      handler.NewOpeningHandler(c.Openings, c.Matching, c.Log),
		Admin:         handler.NewAdminHandler(c.Trials, c.Matching, c.Dispatcher),
	}

	socket := ws.NewHandler(c.Hub, c.Tokens, c.Log)
	auth := middleware.NewAuthMiddleware(c.Tokens)
	routes.NewRegistry(health, socket, auth, api).Register(app)
}

func (a *App) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	c := a.Container

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		c.Hub.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := c.Dispatcher.Run(ctx); err != nil {
			c.Log.Error("event relay stopped", zap.Error(err))
		}
	}()

	if c.Scheduler != nil {
		c.Scheduler.Start()
	}
}

func (a *App) shutdown() error {
	var errs []error
	if a.Container.Scheduler != nil {
		errs = append(errs, a.Container.Scheduler.Stop())
		a.Container.Scheduler = nil
	}
	if a.cancel != nil {
		a.Container.Log.Info("closing websocket hub", zap.Int("clients", a.Container.Hub.ClientCount()))
		a.cancel()
	}
	a.wg.Wait()
	errs = append(errs, a.Container.Close())
	return errors.Join(errs...)
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
