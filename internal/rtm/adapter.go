// Package rtm wraps the websocket connection to the realtime bridge.
// Delivery is best-effort, unordered, at-most-once: a failed publish is
// reported to the caller and never retried here.
package rtm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/store"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

// Adapter manages the bridge connection and publishes inbound events on
// the bus.
type Adapter struct {
	url    string
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// NewAdapter creates a realtime adapter for the given bridge URL.
func NewAdapter(url string, b *bus.Bus, logger *zap.Logger) *Adapter {
	return &Adapter{url: url, bus: b, logger: logger}
}

// Connect dials the bridge with a minted token and starts the read and
// keepalive loops. Safe to call again after a disconnect.
func (a *Adapter) Connect(ctx context.Context, token string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.url, header)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	loopCtx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.conn = conn
	a.cancel = cancel
	a.mu.Unlock()

	go a.readLoop(conn)
	go a.pingLoop(loopCtx, conn)

	a.logger.Info("realtime bridge connected", zap.String("url", a.url))
	a.bus.Publish(bus.Event{Kind: "rtm.connected", Timestamp: time.Now()})
	return nil
}

// Disconnect closes the bridge connection.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
}

// Join subscribes this connection to a named channel.
func (a *Adapter) Join(channelID string) error {
	return a.writeFrame(Frame{Op: opJoin, ChannelID: channelID})
}

// Leave unsubscribes from a named channel.
func (a *Adapter) Leave(channelID string) error {
	return a.writeFrame(Frame{Op: opLeave, ChannelID: channelID})
}

// Publish broadcasts a composed message to its channel. Best-effort: an
// error here must not roll back any local state.
func (a *Adapter) Publish(_ context.Context, m store.Message) error {
	return a.writeFrame(messageFrame(m))
}

func (a *Adapter) writeFrame(f Frame) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("bridge not connected")
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(f); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Op, err)
	}
	return nil
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			a.logger.Warn("bridge read loop ended", zap.Error(err))
			a.bus.Publish(bus.Event{Kind: "rtm.disconnected", Timestamp: time.Now(), Payload: err.Error()})
			return
		}
		switch f.Op {
		case opMessage:
			a.bus.Publish(bus.Event{
				Kind:      "rtm.message",
				Timestamp: time.Now(),
				Payload:   f.ToStoreMessage(),
			})
		case opPresence:
			a.bus.Publish(bus.Event{
				Kind:      "rtm.presence",
				Timestamp: time.Now(),
				Payload:   Presence{UserID: f.SenderID, Online: f.Online},
			})
		default:
			a.logger.Debug("ignoring frame", zap.String("op", f.Op))
		}
	}
}

func (a *Adapter) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
