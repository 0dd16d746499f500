package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	GameHandler(w http.ResponseWriter, r *http.Request)
	EventsHandler(w http.ResponseWriter, r *http.Request)
}

type gameService interface {
	Snapshot(ctx context.Context, id string) (*entity.Game, error)
}

type eventSource interface {
	Subscribe(ctx context.Context, gameID string) (<-chan entity.Event, func() error, error)
}

type handlers struct {
	logger      *slog.Logger
	gameService gameService
	eventSource eventSource
}

func NewHandlers(logger *slog.Logger, gameService gameService, eventSource eventSource) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		gameService: gameService,
		eventSource: eventSource,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// GameHandler - the stored snapshot of a session.
func (that *handlers) GameHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GameHandler")

	id := chi.URLParam(r, "id")

	game, err := that.gameService.Snapshot(r.Context(), id)
	if errors.Is(err, apperror.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get game", "game_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(game); err != nil {
		log.Warn("failed to write game", "game_id", id, "error", err)
	}
}

// EventsHandler - streams a session's relayed events as newline-delimited JSON
// until the client goes away.
func (that *handlers) EventsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "EventsHandler")

	id := chi.URLParam(r, "id")

	if _, err := that.gameService.Snapshot(r.Context(), id); err != nil {
		if errors.Is(err, apperror.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		log.Error("failed to get game", "game_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	events, closeFn, err := that.eventSource.Subscribe(r.Context(), id)
	if err != nil {
		log.Error("failed to subscribe", "game_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	defer func() {
		if err = closeFn(); err != nil {
			log.Warn("failed to close subscription", "game_id", id, "error", err)
		}
	}()

	controller := http.NewResponseController(w)
	// the stream outlives the server write timeout
	_ = controller.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_ = controller.Flush()

	encoder := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			if err = encoder.Encode(event); err != nil {
				log.Debug("stream closed", "game_id", id, "error", err)
				return
			}

			_ = controller.Flush()
		}
	}
}
