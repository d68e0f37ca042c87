package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/campaign-pulse/tui/internal/logging"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// WebSocketTransport delivers the same insight payloads over a WebSocket,
// one JSON document per text frame.
type WebSocketTransport struct {
	dialer *websocket.Dialer
	log    zerolog.Logger
}

// NewWebSocketTransport uses dialer, or websocket.DefaultDialer when nil.
func NewWebSocketTransport(dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocketTransport{dialer: dialer, log: logging.With("websocket")}
}

// WebSocketURL rewrites an http(s) URL to ws(s).
func WebSocketURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}

type wsConn struct {
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn
}

// Close cancels a pending dial or closes the established connection, which
// unblocks the read loop.
func (c *wsConn) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *wsConn) attach(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Open dials on its own goroutine and returns immediately.
func (t *WebSocketTransport) Open(url string, h Handlers) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	wc := &wsConn{cancel: cancel}
	go t.run(ctx, WebSocketURL(url), wc, h)
	return wc
}

func (t *WebSocketTransport) run(ctx context.Context, url string, wc *wsConn, h Handlers) {
	fail := func(err error) {
		if ctx.Err() == nil {
			h.OnError(err)
		}
	}

	conn, _, err := t.dialer.DialContext(ctx, url, nil)
	if err != nil {
		fail(err)
		return
	}
	wc.attach(conn)
	if ctx.Err() != nil {
		conn.Close()
		return
	}
	defer conn.Close()

	go t.pingLoop(ctx, conn)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

	h.OnOpen()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			fail(err)
			return
		}
		if kind != websocket.TextMessage || ctx.Err() != nil {
			continue
		}
		h.OnMessage(data)
	}
}

// pingLoop keeps the connection alive until ctx is cancelled or a write
// fails. It is the only writer on conn.
func (t *WebSocketTransport) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				t.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
