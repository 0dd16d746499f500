package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

var (
	ErrClientClosed = errors.New("client is closed")
	ErrSlowClient   = errors.New("client send buffer is full")
)

// client is one WebSocket connection. Only writePump writes to conn.
type client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once

	mu          sync.Mutex
	gameID      string
	unsubscribe func()
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	return &client{
		logger: logger.With("component", "ws_client", "remote", conn.RemoteAddr().String()),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (that *client) enqueue(msg []byte) error {
	select {
	case <-that.done:
		return ErrClientClosed
	default:
	}

	select {
	case that.send <- msg:
		return nil
	case <-that.done:
		return ErrClientClosed
	default:
		return ErrSlowClient
	}
}

// watch - follows a session's events, replacing any previous subscription.
// Returns the session the client followed before, if any.
func (that *client) watch(gameID string, events <-chan entity.Event, unsubscribe func()) string {
	that.mu.Lock()
	previousID, previous := that.gameID, that.unsubscribe
	that.gameID = gameID
	that.unsubscribe = unsubscribe
	that.mu.Unlock()

	if previous != nil {
		previous()
	}

	go that.forward(events)

	return previousID
}

// unwatch - drops the current subscription and returns its session id.
func (that *client) unwatch() string {
	that.mu.Lock()
	gameID, unsubscribe := that.gameID, that.unsubscribe
	that.gameID, that.unsubscribe = "", nil
	that.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	return gameID
}

func (that *client) currentGame() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.gameID
}

func (that *client) forward(events <-chan entity.Event) {
	for event := range events {
		msg, err := encode(actionGameEvent, ResponsePayload{Event: &event})
		if err != nil {
			that.logger.Error("failed to encode event", "error", err)
			continue
		}

		if err = that.enqueue(msg); err != nil {
			that.logger.Warn("event dropped", "type", event.Type, "error", err)
		}
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case msg := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				that.logger.Warn("failed to write message", "error", err)
				that.close()

				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

			return
		}
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}
