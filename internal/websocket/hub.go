package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"storefront/internal/domain"
)

type OrderUpdate struct {
	OrderID uint64             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
	Paid    bool               `json:"paid"`
}

// Hub fans order status changes out to the browsers watching that order.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan OrderUpdate
	done       chan struct{}
	clients    map[uint64]map[*Client]bool
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan OrderUpdate, 256),
		done:       make(chan struct{}),
		clients:    make(map[uint64]map[*Client]bool),
		logger:     logger,
	}
}

// Run serves the hub until ctx is canceled. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			set, ok := h.clients[c.orderID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[c.orderID] = set
			}
			set[c] = true
		case c := <-h.unregister:
			if set, ok := h.clients[c.orderID]; ok {
				if _, exists := set[c]; exists {
					delete(set, c)
					close(c.send)
				}
				if len(set) == 0 {
					delete(h.clients, c.orderID)
				}
			}
		case upd := <-h.broadcast:
			msg, err := json.Marshal(upd)
			if err != nil {
				h.logger.Error("encode order update", "order_id", upd.OrderID, "err", err)
				continue
			}
			set := h.clients[upd.OrderID]
			for c := range set {
				select {
				case c.send <- msg:
				default:
					// slow reader
					delete(set, c)
					close(c.send)
				}
			}
			if set != nil && len(set) == 0 {
				delete(h.clients, upd.OrderID)
			}
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uint64]map[*Client]bool)
			return
		}
	}
}

// Broadcast never blocks the caller. Updates are dropped when the queue is full
// or the hub has stopped.
func (h *Hub) Broadcast(u OrderUpdate) {
	select {
	case h.broadcast <- u:
	case <-h.done:
	default:
		h.logger.Warn("order update dropped", "order_id", u.OrderID, "status", u.Status)
	}
}

func (h *Hub) BroadcastOrderUpdate(orderID uint64, status domain.OrderStatus, paid bool) {
	h.Broadcast(OrderUpdate{OrderID: orderID, Status: status, Paid: paid})
}
