package websocket

import (
	"net/http"
	"time"

	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection bound to a subject
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	subjectID string
}

// ServeWS upgrades the request and registers the connection with the
// hub. onClose runs after the connection is torn down.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, subjectID string, onClose func()) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		subjectID: subjectID,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump(onClose)
	return nil
}

// readPump discards inbound frames (the wizard is push-only) but keeps
// the connection's read side alive for pong handling
func (c *Client) readPump(onClose func()) {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Websocket read error", map[string]interface{}{
					"subject": c.subjectID,
					"error":   err.Error(),
				})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
