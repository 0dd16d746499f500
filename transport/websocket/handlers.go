package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/snakesladders"
)

const (
	errMsgMalformedPayload = "malformed payload"
	errMsgNoGame           = "no game joined"
	errMsgEnabledRequired  = "enabled is required"
	errMsgInternal         = "internal error"
)

func (that *Server) handleNewGame(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleNewGame")

	game, err := that.uGame.NewGame(ctx)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendError(c, msg.Action, err)
	}

	if err = that.follow(ctx, c, game.ID); err != nil {
		return that.sendError(c, msg.Action, err)
	}

	log.Info("game created", "game_id", game.ID)

	return that.sendGame(c, msg.Action, game)
}

func (that *Server) handleJoinGame(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil || payload.GameID == "" {
		that.sendErrorResponse(c, msg.Action, "game_id is required")
		return err
	}

	game, err := that.uGame.State(payload.GameID)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	if err = that.follow(ctx, c, game.ID); err != nil {
		return that.sendError(c, msg.Action, err)
	}

	return that.sendGame(c, msg.Action, game)
}

func (that *Server) handleSetup(ctx context.Context, c *client, msg *Message) error {
	return that.withPayload(c, msg, func(gameID string, payload RequestPayload) (*entity.Game, error) {
		return that.uGame.OpenSetup(ctx, gameID, payload.Mode)
	})
}

func (that *Server) handleConfigure(ctx context.Context, c *client, msg *Message) error {
	return that.withPayload(c, msg, func(gameID string, payload RequestPayload) (*entity.Game, error) {
		return that.uGame.Configure(ctx, gameID, snakesladders.GameConfig{
			Mode:    payload.Mode,
			Players: payload.Players,
		})
	})
}

func (that *Server) handleBegin(ctx context.Context, c *client, msg *Message) error {
	return that.withGame(c, msg, func(gameID string) (*entity.Game, error) {
		return that.uGame.Begin(ctx, gameID)
	})
}

// handleRoll - a turn cycle lasts seconds, so it runs off the read loop.
// Progress reaches the client as events; the response carries the settled state.
func (that *Server) handleRoll(ctx context.Context, c *client, msg *Message) error {
	gameID := c.currentGame()
	if gameID == "" {
		that.sendErrorResponse(c, msg.Action, errMsgNoGame)
		return nil
	}

	go func() {
		game, err := that.uGame.Roll(ctx, gameID)
		if err != nil {
			_ = that.sendError(c, msg.Action, err)
			return
		}

		if err = that.sendGame(c, msg.Action, game); err != nil {
			that.logger.Warn("failed to send roll result", "game_id", gameID, "error", err)
		}
	}()

	return nil
}

func (that *Server) handleAgain(ctx context.Context, c *client, msg *Message) error {
	return that.withGame(c, msg, func(gameID string) (*entity.Game, error) {
		return that.uGame.PlayAgain(ctx, gameID)
	})
}

func (that *Server) handleMenu(ctx context.Context, c *client, msg *Message) error {
	return that.withGame(c, msg, func(gameID string) (*entity.Game, error) {
		return that.uGame.ReturnToMenu(ctx, gameID)
	})
}

func (that *Server) handleState(_ context.Context, c *client, msg *Message) error {
	return that.withGame(c, msg, that.uGame.State)
}

func (that *Server) handleSounds(_ context.Context, c *client, msg *Message) error {
	return that.toggle(c, msg, that.uGame.SetSounds)
}

func (that *Server) handleMusic(_ context.Context, c *client, msg *Message) error {
	return that.toggle(c, msg, that.uGame.SetMusic)
}

func (that *Server) toggle(c *client, msg *Message, set func(id string, enabled bool) error) error {
	gameID := c.currentGame()
	if gameID == "" {
		that.sendErrorResponse(c, msg.Action, errMsgNoGame)
		return nil
	}

	payload, err := decodePayload(msg)
	if err != nil || payload.Enabled == nil {
		that.sendErrorResponse(c, msg.Action, errMsgEnabledRequired)
		return err
	}

	if err = set(gameID, *payload.Enabled); err != nil {
		return that.sendError(c, msg.Action, err)
	}

	return that.send(c, msg.Action, ResponsePayload{Enabled: payload.Enabled})
}

func (that *Server) withGame(c *client, msg *Message, apply func(gameID string) (*entity.Game, error)) error {
	gameID := c.currentGame()
	if gameID == "" {
		that.sendErrorResponse(c, msg.Action, errMsgNoGame)
		return nil
	}

	game, err := apply(gameID)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	return that.sendGame(c, msg.Action, game)
}

func (that *Server) withPayload(
	c *client,
	msg *Message,
	apply func(gameID string, payload RequestPayload) (*entity.Game, error),
) error {
	payload, err := decodePayload(msg)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, errMsgMalformedPayload)
		return err
	}

	return that.withGame(c, msg, func(gameID string) (*entity.Game, error) {
		return apply(gameID, payload)
	})
}

// follow - switches the client's event stream to the given session and leaves the old one.
func (that *Server) follow(ctx context.Context, c *client, gameID string) error {
	events, unsubscribe, err := that.uGame.Subscribe(gameID)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	previousID := c.watch(gameID, events, unsubscribe)
	if previousID == "" || previousID == gameID {
		return nil
	}

	if err = that.uGame.Leave(ctx, previousID); err != nil {
		that.logger.Debug("leave failed", "game_id", previousID, "error", err)
	}

	return nil
}

func (that *Server) sendGame(c *client, action string, game *entity.Game) error {
	return that.send(c, action, ResponsePayload{Game: game})
}

func (that *Server) send(c *client, action string, payload ResponsePayload) error {
	msg, err := encode(action, payload)
	if err != nil {
		return err
	}

	if err = c.enqueue(msg); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

// sendError - reports a use case error to the client. Domain errors are shown as is.
func (that *Server) sendError(c *client, action string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound),
		errors.Is(err, apperror.ErrInvalidRoster),
		errors.Is(err, apperror.ErrGameInProgress):
		that.sendErrorResponse(c, action, err.Error())
		return nil
	default:
		that.sendErrorResponse(c, action, errMsgInternal)
		return err
	}
}

func (that *Server) sendErrorResponse(c *client, action, errorMsg string) {
	if err := that.send(c, action, ResponsePayload{Error: errorMsg}); err != nil {
		that.logger.Warn("failed to send error response", "action", action, "error", err)
	}
}
