package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

// DefaultDelay is the thinking time before the bot rolls.
const DefaultDelay = 1500 * time.Millisecond

type roller interface {
	RollForBot(ctx context.Context, turn int) bool
}

// Driver rolls for bot players. It watches game snapshots and keeps at most one
// pending roll intent, keyed by the turn it was scheduled for.
type Driver struct {
	logger *slog.Logger
	roller roller
	delay  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	turn    int
	intent  uint64
	stopped bool
}

func NewDriver(logger *slog.Logger, roller roller, delay time.Duration) *Driver {
	return &Driver{
		logger: logger.With("component", "bot"),
		roller: roller,
		delay:  delay,
	}
}

// Observe - schedules or cancels the roll intent for the observed state.
func (that *Driver) Observe(_ context.Context, game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped {
		return
	}

	if !botToMove(game) {
		that.cancel()
		return
	}

	if that.timer != nil && that.turn == game.Turn {
		return
	}

	that.cancel()

	that.intent++
	that.turn = game.Turn

	intent, turn := that.intent, game.Turn
	that.timer = time.AfterFunc(that.delay, func() {
		that.fire(intent, turn)
	})

	that.logger.Debug("roll scheduled", "game_id", game.ID, "turn", turn, "delay", that.delay)
}

// Stop - cancels the pending intent and ignores further snapshots.
func (that *Driver) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopped = true
	that.cancel()
}

func (that *Driver) fire(intent uint64, turn int) {
	that.mu.Lock()

	if that.stopped || that.intent != intent || that.timer == nil {
		that.mu.Unlock()
		return
	}

	that.timer = nil
	that.mu.Unlock()

	if !that.roller.RollForBot(context.Background(), turn) {
		that.logger.Debug("stale roll intent dropped", "turn", turn)
	}
}

// cancel - caller holds mu.
func (that *Driver) cancel() {
	if that.timer == nil {
		return
	}

	that.timer.Stop()
	that.timer = nil
	that.intent++
}

func botToMove(game *entity.Game) bool {
	if !game.IsPlaying() || game.Rolling {
		return false
	}

	player, ok := game.CurrentPlayer()

	return ok && player.IsBot
}
