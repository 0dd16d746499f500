package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const saveTimeout = 2 * time.Second

// Recorder keeps the stored snapshot of a session in step with its engine.
type Recorder struct {
	logger *slog.Logger
	repo   GameRepository
}

func NewRecorder(logger *slog.Logger, repo GameRepository) *Recorder {
	return &Recorder{
		logger: logger.With("component", "recorder"),
		repo:   repo,
	}
}

// Observe - saves the snapshot unless a turn cycle is mid-flight.
// The last commit of every cycle clears the rolling flag, so settled states are never skipped.
func (that *Recorder) Observe(ctx context.Context, game *entity.Game) {
	if game.Rolling {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := that.repo.CreateOrUpdate(ctx, game); err != nil {
		that.logger.Error("failed to save game snapshot", "game_id", game.ID, "error", err)
	}
}
