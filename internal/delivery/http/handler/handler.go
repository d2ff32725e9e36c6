package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain"
)

// EventSink receives the events produced by a successful operation.
type EventSink interface {
	Dispatch(ctx context.Context, out domain.Outbox)
}

type noopSink struct{}

func (noopSink) Dispatch(context.Context, domain.Outbox) {}

func sinkOrNoop(s EventSink) EventSink {
	if s == nil {
		return noopSink{}
	}
	return s
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, middleware.BadRequest("Invalid "+name, err)
	}
	return id, nil
}

func uuidQuery(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Query(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, middleware.BadRequest("Invalid "+name, err)
	}
	return id, nil
}

// intQuery returns def when the parameter is absent.
func intQuery(c fiber.Ctx, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, middleware.BadRequest("Invalid "+name, err)
	}
	return n, nil
}

func timeQuery(c fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, middleware.BadRequest("Invalid "+name, err)
	}
	return &t, nil
}

func bindBody(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.Bind().Body(out); err != nil {
		return middleware.BadRequest("Invalid request payload", err)
	}
	return nil
}
