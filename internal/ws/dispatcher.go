package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"cofound/internal/domain"
)

const (
	EventsChannel  = "cofound:events"
	publishTimeout = 2 * time.Second
	dispatchers    = 16
)

// Bus is the cross-instance fan-out used by the dispatcher.
type Bus interface {
	Available() bool
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handle func([]byte)) error
}

// Dispatcher delivers domain events to connected sockets. With a bus every
// instance receives every event and pushes to its own sockets; without one
// events go straight to the local hub.
type Dispatcher struct {
	hub  *Hub
	bus  Bus
	pool *ants.Pool
	log  *zap.Logger
}

func NewDispatcher(hub *Hub, bus Bus, log *zap.Logger) (*Dispatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := ants.NewPool(dispatchers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{hub: hub, bus: bus, pool: pool, log: log.Named("dispatch")}, nil
}

// Dispatch hands the events off and returns immediately. Failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, out domain.Outbox) {
	if d == nil || len(out) == 0 {
		return
	}
	payloads := make([][]byte, 0, len(out))
	events := make([]domain.Event, 0, len(out))
	for _, e := range out {
		b, err := json.Marshal(e)
		if err != nil {
			d.log.Error("encode event", zap.String("type", string(e.Type)), zap.Error(err))
			continue
		}
		payloads = append(payloads, b)
		events = append(events, e)
	}

	if d.bus == nil || !d.bus.Available() {
		for i, e := range events {
			d.hub.SendToUser(e.RecipientID, payloads[i])
		}
		return
	}

	ctx = context.WithoutCancel(ctx)
	err := d.pool.Submit(func() {
		for i, e := range events {
			d.publish(ctx, e, payloads[i])
		}
	})
	if err != nil {
		d.log.Warn("dispatch pool saturated, delivering locally", zap.Error(err))
		for i, e := range events {
			d.hub.SendToUser(e.RecipientID, payloads[i])
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, e domain.Event, payload []byte) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := d.bus.Publish(pubCtx, EventsChannel, payload); err != nil {
		d.log.Warn("publish event, delivering locally",
			zap.String("type", string(e.Type)),
			zap.Stringer("recipient_id", e.RecipientID),
			zap.Error(err),
		)
		d.hub.SendToUser(e.RecipientID, payload)
	}
}

// Run relays bus events to the local hub until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.bus == nil || !d.bus.Available() {
		<-ctx.Done()
		return nil
	}
	err := d.bus.Subscribe(ctx, EventsChannel, d.relay)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Dispatcher) relay(payload []byte) {
	var e domain.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		d.log.Warn("decode bus event", zap.Error(err))
		return
	}
	// Every instance sees every event; only the one holding the socket delivers.
	if !d.hub.Connected(e.RecipientID) {
		return
	}
	d.hub.SendToUser(e.RecipientID, payload)
}

func (d *Dispatcher) Close() {
	if d == nil || d.pool == nil {
		return
	}
	if err := d.pool.ReleaseTimeout(publishTimeout); err != nil {
		d.log.Warn("release dispatch pool", zap.Error(err))
	}
}
