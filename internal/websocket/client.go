package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	gw "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = gw.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	hub     *Hub
	conn    *gw.Conn
	send    chan []byte
	orderID uint64
}

// Serve upgrades the request and subscribes the connection to updates of one
// order. Authorization is the caller's job. initial is the first message the
// client receives.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial OrderUpdate) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "order_id", initial.OrderID, "err", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		orderID: initial.OrderID,
	}
	if b, err := json.Marshal(initial); err == nil {
		client.send <- b
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(gw.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(gw.CloseMessage, gw.FormatCloseMessage(gw.CloseGoingAway, ""), time.Now().Add(writeWait))
}
