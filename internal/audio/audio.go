package audio

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

type Kind string

const (
	KindRoll   Kind = "roll"
	KindMove   Kind = "move"
	KindSnake  Kind = "snake"
	KindLadder Kind = "ladder"
	KindWin    Kind = "win"
	KindMusic  Kind = "music"
)

// Service plays sound cues. Playback is best-effort.
type Service interface {
	Play(kind Kind) error
	SetEnabled(enabled bool)
	Enabled() bool
}

// LogService records cues in the log instead of playing them.
type LogService struct {
	logger  *slog.Logger
	enabled atomic.Bool
}

func NewLogService(logger *slog.Logger, channel string, enabled bool) *LogService {
	service := &LogService{
		logger: logger.With("component", "audio", "channel", channel),
	}
	service.enabled.Store(enabled)

	return service
}

func (that *LogService) Play(kind Kind) error {
	if !that.enabled.Load() {
		return nil
	}

	that.logger.Debug("cue played", "kind", kind)

	return nil
}

func (that *LogService) SetEnabled(enabled bool) {
	that.enabled.Store(enabled)
	that.logger.Info("playback toggled", "enabled", enabled)
}

func (that *LogService) Enabled() bool {
	return that.enabled.Load()
}

// Cues turns engine notifications into sound cues.
type Cues struct {
	logger  *slog.Logger
	service Service
}

func NewCues(logger *slog.Logger, service Service) *Cues {
	return &Cues{
		logger:  logger.With("component", "cues"),
		service: service,
	}
}

func (that *Cues) Publish(_ context.Context, event entity.Event) {
	kind, ok := KindOf(event)
	if !ok {
		return
	}

	if err := that.service.Play(kind); err != nil {
		that.logger.Warn("failed to play cue", "kind", kind, "game_id", event.GameID, "error", err)
	}
}

// KindOf - the cue for a notification, if it has one.
func KindOf(event entity.Event) (Kind, bool) {
	switch event.Type {
	case entity.EventEffect:
		if event.Effect == nil {
			return "", false
		}

		switch event.Effect.Kind {
		case entity.EffectDice:
			return KindRoll, true
		case entity.EffectSnake:
			return KindSnake, true
		case entity.EffectLadder:
			return KindLadder, true
		}
	case entity.EventPosition:
		if event.Cause == entity.CauseMove {
			return KindMove, true
		}
	case entity.EventPhase:
		if event.Phase == entity.PhaseWon {
			return KindWin, true
		}
	}

	return "", false
}
