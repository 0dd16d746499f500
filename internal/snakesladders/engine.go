package snakesladders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/board"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/random"
)

// Publisher receives engine notifications in the order state changed.
// Implementations must not block and must not call engine commands synchronously.
type Publisher interface {
	Publish(ctx context.Context, event entity.Event)
}

// Observer receives a copy of the game state after every batch of notifications.
// The copy is shared between observers and must not be modified.
type Observer interface {
	Observe(ctx context.Context, game *entity.Game)
}

// Publishers fans one notification out to several publishers.
type Publishers []Publisher

func (that Publishers) Publish(ctx context.Context, event entity.Event) {
	for _, publisher := range that {
		publisher.Publish(ctx, event)
	}
}

// Engine is the turn state machine of one table.
//
// State changes happen in short critical sections. Pacing waits run outside the
// lock, and the Rolling flag keeps a second turn cycle from starting meanwhile.
// Resets bump the epoch; a turn cycle from an older epoch stops at its next stage.
type Engine struct {
	logger *slog.Logger
	src    random.Source
	pacer  Pacer
	items  int

	mu    sync.Mutex
	game  *entity.Game
	epoch uint64

	emitMu     sync.Mutex
	publishers Publishers
	observers  []Observer
}

func NewEngine(logger *slog.Logger, gameID string, items int, src random.Source, pacer Pacer) *Engine {
	if pacer == nil {
		pacer = NoPause{}
	}

	return &Engine{
		logger: logger.With("component", "engine", "game_id", gameID),
		src:    src,
		pacer:  pacer,
		items:  items,
		game:   entity.NewGame(gameID),
	}
}

func (that *Engine) ID() string {
	return that.game.ID
}

// AddPublisher - registers a subscriber for notifications.
func (that *Engine) AddPublisher(publisher Publisher) {
	that.emitMu.Lock()
	defer that.emitMu.Unlock()

	that.publishers = append(that.publishers, publisher)
}

// AddObserver - registers a subscriber for state snapshots.
func (that *Engine) AddObserver(observer Observer) {
	that.emitMu.Lock()
	defer that.emitMu.Unlock()

	that.observers = append(that.observers, observer)
}

// Snapshot - returns a copy of the current game state.
func (that *Engine) Snapshot() *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Clone()
}

// OpenSetup - moves from the main menu to the setup screen for the chosen mode.
func (that *Engine) OpenSetup(ctx context.Context, mode entity.Mode) bool {
	that.mu.Lock()

	if that.game.Phase != entity.PhaseMainMenu || !validMode(mode) {
		that.mu.Unlock()
		that.ignored("OpenSetup", "not in main menu or unknown mode")

		return false
	}

	that.game.Mode = mode
	that.game.Phase = entity.PhaseSetup

	that.commit(ctx, that.phaseEvent())

	return true
}

// ConfigureGame - creates the roster, generates a board and waits in the ready phase.
func (that *Engine) ConfigureGame(ctx context.Context, cfg GameConfig) error {
	players, err := BuildRoster(cfg)
	if err != nil {
		return fmt.Errorf("failed to build roster: %w", err)
	}

	that.mu.Lock()

	if that.game.Phase != entity.PhaseMainMenu && that.game.Phase != entity.PhaseSetup {
		phase := that.game.Phase
		that.mu.Unlock()

		return fmt.Errorf("%w: phase %s", apperror.ErrGameInProgress, phase)
	}

	that.abortTurn()

	var events []entity.Event
	if that.game.Phase == entity.PhaseMainMenu {
		that.game.Phase = entity.PhaseSetup
		events = append(events, that.phaseEvent())
	}

	that.game.Mode = cfg.Mode
	that.game.Players = players
	that.game.ResetRound(board.New(that.src, that.items))
	that.game.Phase = entity.PhaseReady
	events = append(events, that.phaseEvent())

	that.logger.Info("game configured", "mode", cfg.Mode, "players", len(players),
		"snakes", len(that.game.Board.Snakes), "ladders", len(that.game.Board.Ladders))

	that.commit(ctx, events...)

	return nil
}

// BeginPlay - leaves the ready phase and allows the first roll.
func (that *Engine) BeginPlay(ctx context.Context) bool {
	that.mu.Lock()

	player, ok := that.game.CurrentPlayer()
	if that.game.Phase != entity.PhaseReady || !ok {
		that.mu.Unlock()
		that.ignored("BeginPlay", "not ready")

		return false
	}

	that.game.Phase = entity.PhasePlaying

	that.commit(ctx,
		that.phaseEvent(),
		that.addLog(fmt.Sprintf("Game Started! %s's turn.", player.Name)),
		that.turnEvent(player),
	)

	return true
}

// RollDice - a human asks to roll. Ignored while a bot holds the turn.
func (that *Engine) RollDice(ctx context.Context) bool {
	return that.roll(ctx, "RollDice", func(player *entity.Player) bool {
		return !player.IsBot
	})
}

// RollForBot - the bot driver rolls for the turn it was scheduled for.
func (that *Engine) RollForBot(ctx context.Context, turn int) bool {
	return that.roll(ctx, "RollForBot", func(player *entity.Player) bool {
		return player.IsBot && that.game.Turn == turn
	})
}

// RollAndMove - plays one turn cycle with a known dice value.
func (that *Engine) RollAndMove(ctx context.Context, steps int) bool {
	if steps < entity.DiceMin || steps > entity.DiceMax {
		that.ignored("RollAndMove", "steps out of range")
		return false
	}

	ctx = context.WithoutCancel(ctx)

	that.mu.Lock()

	if _, reason := that.claimTurn(func(*entity.Player) bool { return true }); reason != "" {
		that.mu.Unlock()
		that.ignored("RollAndMove", reason)

		return false
	}

	that.game.LastRoll = steps
	epoch := that.epoch
	that.commit(ctx)

	that.play(ctx, epoch, steps)

	return true
}

// PlayAgain - keeps the roster, generates a new board and returns to the ready phase.
func (that *Engine) PlayAgain(ctx context.Context) bool {
	that.mu.Lock()

	if !that.game.HasRoster() {
		that.mu.Unlock()
		that.ignored("PlayAgain", "no roster")

		return false
	}

	that.abortTurn()
	that.game.ResetRound(board.New(that.src, that.items))
	that.game.Phase = entity.PhaseReady

	that.commit(ctx, that.phaseEvent())

	return true
}

// ReturnToMenu - discards the roster and restores the default board.
func (that *Engine) ReturnToMenu(ctx context.Context) {
	that.mu.Lock()

	that.abortTurn()
	that.game.Players = nil
	that.game.Mode = ""
	that.game.ResetRound(entity.DefaultBoard())
	that.game.Phase = entity.PhaseMainMenu

	that.commit(ctx, that.phaseEvent())
}

// Close - aborts any turn cycle in flight and detaches every subscriber.
// Nothing is published after Close returns.
func (that *Engine) Close() {
	that.mu.Lock()
	that.abortTurn()

	that.emitMu.Lock()
	that.mu.Unlock()
	defer that.emitMu.Unlock()

	that.publishers = nil
	that.observers = nil
}

func (that *Engine) roll(ctx context.Context, method string, allowed func(*entity.Player) bool) bool {
	ctx = context.WithoutCancel(ctx)

	that.mu.Lock()

	player, reason := that.claimTurn(allowed)
	if reason != "" {
		that.mu.Unlock()
		that.ignored(method, reason)

		return false
	}

	steps := random.RollDie(that.src, entity.DiceMax)
	that.game.LastRoll = steps
	epoch := that.epoch

	that.commit(ctx, that.event(entity.Event{
		Type:     entity.EventEffect,
		PlayerID: player.ID,
		Effect:   entity.NewEffect(fmt.Sprintf("+%d", steps), player.Position, entity.EffectDice),
	}))

	that.pause(ctx, BeatRoll)
	that.play(ctx, epoch, steps)

	return true
}

// claimTurn - sets the in-flight guard when a roll is allowed. Caller holds mu.
// A non-empty reason means the command must be ignored.
func (that *Engine) claimTurn(allowed func(*entity.Player) bool) (*entity.Player, string) {
	if !that.game.IsPlaying() {
		return nil, "not playing"
	}

	if that.game.Rolling {
		return nil, "roll in progress"
	}

	player, ok := that.game.CurrentPlayer()
	if !ok {
		return nil, "no current player"
	}

	if !allowed(player) {
		return nil, "not this actor's turn"
	}

	that.game.Rolling = true

	return player, ""
}

// play - applies a roll stage by stage: move, snake, ladder, then win or handoff.
func (that *Engine) play(ctx context.Context, epoch uint64, steps int) {
	that.mu.Lock()

	if that.epoch != epoch {
		that.mu.Unlock()
		return
	}

	player, _ := that.game.CurrentPlayer()
	move := Resolve(that.game.Board, player.Position, steps, entity.BoardSize)

	var events []entity.Event
	if move.Bust {
		events = append(events, that.addLog(fmt.Sprintf("%s needs %d to win. Rolled %d. No move.",
			player.Name, entity.BoardSize-move.From, steps)))
	} else {
		player.Position = move.Target
		events = append(events,
			that.addLog(fmt.Sprintf("%s rolled a %d and moved from %d to %d.", player.Name, steps, move.From, move.Target)),
			that.positionEvent(player, entity.CauseMove),
		)
	}

	playerID := player.ID
	that.commit(ctx, events...)

	if !move.Bust {
		that.pause(ctx, BeatStep)
	}

	that.pause(ctx, BeatSettle)

	if move.Snake != nil && !that.jump(ctx, epoch, playerID, *move.Snake, entity.EffectSnake) {
		return
	}

	if move.Ladder != nil && !that.jump(ctx, epoch, playerID, *move.Ladder, entity.EffectLadder) {
		return
	}

	that.mu.Lock()

	if that.epoch != epoch {
		that.mu.Unlock()
		return
	}

	that.commit(ctx, that.finishTurn(move)...)
}

// jump - shows the effect, waits, then moves the player along a snake or ladder.
// Returns false when a reset interrupted the turn cycle.
func (that *Engine) jump(ctx context.Context, epoch uint64, playerID int, jump Jump, kind entity.EffectKind) bool {
	text, message := fmt.Sprintf("🪜 to %d", jump.To), "Wow! %s found a ladder and climbed up to %d!"
	cause := entity.CauseLadder
	if kind == entity.EffectSnake {
		text, message = fmt.Sprintf("🐍 to %d", jump.To), "Oh no! %s landed on a snake and slid down to %d."
		cause = entity.CauseSnake
	}

	that.mu.Lock()

	if that.epoch != epoch {
		that.mu.Unlock()
		return false
	}

	that.commit(ctx, that.event(entity.Event{
		Type:     entity.EventEffect,
		PlayerID: playerID,
		Effect:   entity.NewEffect(text, jump.From, kind),
	}))

	that.pause(ctx, BeatEffect)

	that.mu.Lock()

	player, ok := that.game.PlayerByID(playerID)
	if that.epoch != epoch || !ok {
		that.mu.Unlock()
		return false
	}

	player.Position = jump.To

	that.commit(ctx,
		that.addLog(fmt.Sprintf(message, player.Name, jump.To)),
		that.positionEvent(player, cause),
	)

	that.pause(ctx, BeatStep)

	return true
}

// finishTurn - declares the winner or hands the dice to the next player. Caller holds mu.
func (that *Engine) finishTurn(move Move) []entity.Event {
	player, _ := that.game.CurrentPlayer()
	that.game.Rolling = false

	if move.Won {
		that.game.Phase = entity.PhaseWon
		that.game.WinnerID = player.ID

		that.logger.Info("game won", "winner", player.Name, "turn", that.game.Turn)

		return []entity.Event{
			that.addLog(fmt.Sprintf("🎉 %s has won the game! 🎉", player.Name)),
			that.phaseEvent(),
		}
	}

	that.game.CurrentPlayerIndex = that.game.NextPlayerIndex()
	that.game.Turn++

	next, _ := that.game.CurrentPlayer()

	return []entity.Event{
		that.addLog(fmt.Sprintf("It's %s's turn.", next.Name)),
		that.turnEvent(next),
	}
}

// abortTurn - invalidates any turn cycle in flight. Caller holds mu.
func (that *Engine) abortTurn() {
	if that.game.Rolling {
		that.logger.Info("turn cycle aborted by reset", "turn", that.game.Turn)
	}

	that.epoch++
	that.game.Rolling = false
}

// commit - releases mu, then publishes events and the resulting state. emitMu is
// taken before mu is released, so notifications leave in the order state changed.
// Subscribers run without mu held but must not call back into the engine.
func (that *Engine) commit(ctx context.Context, events ...entity.Event) {
	state := that.game.Clone()

	that.emitMu.Lock()
	that.mu.Unlock()
	defer that.emitMu.Unlock()

	for _, event := range events {
		that.publishers.Publish(ctx, event)
	}

	for _, observer := range that.observers {
		observer.Observe(ctx, state)
	}
}

func (that *Engine) pause(ctx context.Context, beat Beat) {
	if err := that.pacer.Pause(ctx, beat); err != nil {
		that.logger.Debug("pause interrupted", "beat", beat, "error", err)
	}
}

func (that *Engine) ignored(method, reason string) {
	that.logger.Debug("command ignored", "method", method, "reason", reason)
}

func (that *Engine) event(event entity.Event) entity.Event {
	event.GameID = that.game.ID
	return event
}

func (that *Engine) addLog(message string) entity.Event {
	that.game.AddLog(message)

	return that.event(entity.Event{Type: entity.EventLog, Message: message})
}

func (that *Engine) positionEvent(player *entity.Player, cause entity.MoveCause) entity.Event {
	return that.event(entity.Event{
		Type:     entity.EventPosition,
		PlayerID: player.ID,
		Position: player.Position,
		Cause:    cause,
	})
}

func (that *Engine) turnEvent(player *entity.Player) entity.Event {
	return that.event(entity.Event{
		Type:     entity.EventTurn,
		PlayerID: player.ID,
		Turn:     that.game.Turn,
	})
}

func (that *Engine) phaseEvent() entity.Event {
	event := entity.Event{
		Type:  entity.EventPhase,
		Phase: that.game.Phase,
		Game:  that.game.Clone(),
	}

	if winner, ok := that.game.Winner(); ok {
		w := *winner
		event.Winner = &w
	}

	return that.event(event)
}
