// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: (60 * time.Second * 9) / 10,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Operator tooling surface, any origin may connect
		return true
	},
}

// alertFeedClient relays alert events from NATS to one WebSocket peer
type alertFeedClient struct {
	conn *websocket.Conn
	send chan []byte
	sub  *nats.Subscription
	log  zerolog.Logger
}

// AlertFeedHandler upgrades the connection to a WebSocket and relays every
// alert-created event published on the given subject to the client. The
// feed is one-way; inbound frames are discarded.
func AlertFeedHandler(natsConn *nats.Conn, subject string, log zerolog.Logger) http.HandlerFunc {
	wsLog := log.With().Str("handler", "alert_feed").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			wsLog.Error().Err(err).Msg("failed to upgrade to WebSocket")
			return
		}

		client := &alertFeedClient{
			conn: conn,
			send: make(chan []byte, 64),
			log:  wsLog,
		}

		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer, drop the event rather than block delivery
			}
		})
		if err != nil {
			wsLog.Error().Err(err).Msg("failed to subscribe to alert events")
			conn.Close()
			return
		}
		client.sub = sub

		go client.writePump()
		go client.readPump()

		wsLog.Info().Str("remote", r.RemoteAddr).Msg("alert feed connected")
	}
}

// readPump discards inbound frames and detects peer disconnects
func (c *alertFeedClient) readPump() {
	config := DefaultWebSocketConfig()

	defer c.close()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("alert feed read error")
			}
			return
		}
	}
}

// writePump relays queued alert events and keeps the connection alive
func (c *alertFeedClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the NATS subscription and the connection
func (c *alertFeedClient) close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.conn.Close()
}
