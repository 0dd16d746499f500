package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/snakesladders"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 45 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 128
)

type uGame interface {
	NewGame(ctx context.Context) (*entity.Game, error)
	State(id string) (*entity.Game, error)

	OpenSetup(ctx context.Context, id string, mode entity.Mode) (*entity.Game, error)
	Configure(ctx context.Context, id string, cfg snakesladders.GameConfig) (*entity.Game, error)
	Begin(ctx context.Context, id string) (*entity.Game, error)
	Roll(ctx context.Context, id string) (*entity.Game, error)
	PlayAgain(ctx context.Context, id string) (*entity.Game, error)
	ReturnToMenu(ctx context.Context, id string) (*entity.Game, error)

	SetSounds(id string, enabled bool) error
	SetMusic(id string, enabled bool) error

	Subscribe(id string) (<-chan entity.Event, func(), error)
	Leave(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, client *client, msg *Message) error

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, uGame uGame) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the presentation layer is served from another origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameSetup] = server.handleSetup
	server.handlers[actionGameConfigure] = server.handleConfigure
	server.handlers[actionGameBegin] = server.handleBegin
	server.handlers[actionGameRoll] = server.handleRoll
	server.handlers[actionGameAgain] = server.handleAgain
	server.handlers[actionGameMenu] = server.handleMenu
	server.handlers[actionGameState] = server.handleState
	server.handlers[actionSettingsSounds] = server.handleSounds
	server.handlers[actionSettingsMusic] = server.handleMusic

	return server
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that.Handler(ctx))

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - upgrades requests and serves one client per connection.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		that.upgradeToWebSocket(ctx, writer, req)
	})
}

func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	c := newClient(that.logger, conn)
	go c.writePump()

	that.handleMessages(ctx, c)

	that.detach(ctx, c)
	c.close()

	log.Info("WebSocket connection closed", "remote", req.RemoteAddr)
}

// handleMessages - processes messages from the client until the connection drops.
func (that *Server) handleMessages(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleMessages")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, reqBody, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendErrorResponse(c, "", "malformed message")

			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendErrorResponse(c, message.Action, "unknown action")

			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// detach - drops the client's subscription and lets the session close when nobody is left.
func (that *Server) detach(ctx context.Context, c *client) {
	gameID := c.unwatch()
	if gameID == "" {
		return
	}

	if err := that.uGame.Leave(ctx, gameID); err != nil {
		that.logger.Debug("leave failed", "game_id", gameID, "error", err)
	}
}
