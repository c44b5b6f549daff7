/*
 * file: websocket.go
 * package: transport
 * description:
 *     The external transport adapter: upgrades an HTTP request to a
 *     WebSocket, and surfaces a duplex text-message channel (Conn) to the
 *     core's Player Session. Framing, ping/pong transport and the TCP
 *     listener itself are out of this system's scope (spec.md §1); this
 *     file is the minimal, swappable collaborator the core consumes
 *     through services.Outbound.
 */
package transport

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/orbitforge/roomserver/internal/core/services"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 5 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn adapts a *websocket.Conn to services.Outbound. Writes are funneled
// through a single writer goroutine (writePump) so that concurrent Sends
// from the registry's broadcast and the session's own replies never race
// on the underlying socket.
type Conn struct {
	id     string
	ws     *websocket.Conn
	outbox chan []byte
	closed chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		ws:     ws,
		outbox: make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send enqueues text for delivery. A full outbox (a slow or dead peer) is
// treated as a send failure, matching §4.1.5's best-effort eviction rule.
func (c *Conn) Send(text string) error {
	select {
	case c.outbox <- []byte(text):
		return nil
	case <-c.closed:
		return errors.New("connection closed")
	default:
		return errors.New("send buffer full")
	}
}

// Close shuts the connection down exactly once.
func (c *Conn) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
		return c.ws.Close()
	}
}

// writePump is the single writer goroutine for this connection: every
// outbound write, including the periodic ping, goes through this one select
// loop, since gorilla/websocket forbids concurrent writers on one *Conn.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.outbox:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request, wires a fresh core Session to the new
// connection, and blocks (in goroutines it manages) until the peer
// disconnects. Suitable for use directly as an http.HandlerFunc body.
func ServeWS(registry *services.Registry, w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed: %v", err)
		return
	}

	conn := newConn(wsConn)
	session := services.NewSession(registry, conn)

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetPongHandler(func(string) error {
		session.Touch()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go conn.writePump()
	go session.Heartbeat(ctx)

	log.Printf("INFO: conn=%s connected", conn.id)
	defer log.Printf("INFO: conn=%s disconnected", conn.id)
	defer session.Close()

	for {
		_, message, err := wsConn.ReadMessage()
		if err != nil {
			return
		}
		session.Dispatch(string(message))
	}
}
