package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type delivery struct {
	userID  uuid.UUID
	payload []byte
}

// Hub routes payloads to every socket a user has open on this instance.
// All client bookkeeping happens on the Run goroutine. register and
// unregister are unbuffered so no client is left queued once Run returns.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mutex sync.RWMutex
	total int
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		deliver:    make(chan delivery, 1024),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.total = 0
			h.mutex.Unlock()
			return

		case c := <-h.register:
			if c == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.total++
			total := h.total
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.Stringer("user_id", c.userID), zap.Int("total_clients", total))

		case c := <-h.unregister:
			if c == nil {
				continue
			}
			h.mutex.Lock()
			h.remove(c)
			total := h.total
			h.mutex.Unlock()
			h.log.Debug("client disconnected", zap.Stringer("user_id", c.userID), zap.Int("total_clients", total))

		case d := <-h.deliver:
			h.mutex.Lock()
			for c := range h.clients[d.userID] {
				select {
				case c.send <- d.payload:
				default:
					h.log.Warn("client send buffer full, dropping client", zap.Stringer("user_id", c.userID))
					h.remove(c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// remove requires h.mutex held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	h.total--
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

func (h *Hub) Register(c *Client) {
	if h == nil || c == nil {
		return
	}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) Unregister(c *Client) {
	if h == nil || c == nil {
		return
	}
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues payload for the user's sockets. It never blocks and
// reports false when the payload was dropped.
func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) bool {
	if h == nil || userID == uuid.Nil {
		return false
	}
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
		return true
	case <-h.done:
		return false
	default:
		h.log.Warn("delivery dropped", zap.String("reason", "buffer_full"), zap.Stringer("user_id", userID))
		return false
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.total
}

func (h *Hub) Connected(userID uuid.UUID) bool {
	if h == nil {
		return false
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID]) > 0
}
