package snakesladders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/board"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/random"
)

type recorder struct {
	mu     sync.Mutex
	events []entity.Event
	states []*entity.Game
}

func (that *recorder) Publish(_ context.Context, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *recorder) Observe(_ context.Context, game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.states = append(that.states, game)
}

func (that *recorder) reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = nil
	that.states = nil
}

func (that *recorder) ofType(eventType entity.EventType) []entity.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []entity.Event
	for _, event := range that.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}

	return out
}

func (that *recorder) effects(kind entity.EffectKind) int {
	count := 0
	for _, event := range that.ofType(entity.EventEffect) {
		if event.Effect.Kind == kind {
			count++
		}
	}

	return count
}

func (that *recorder) lastState() *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.states) == 0 {
		return nil
	}

	return that.states[len(that.states)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pvpConfig(names ...string) GameConfig {
	cfg := GameConfig{Mode: entity.ModePvP}
	for _, name := range names {
		cfg.Players = append(cfg.Players, entity.PlayerSetup{Name: name})
	}

	return cfg
}

// newPlayingEngine - builds an engine already in the playing phase with the given board.
func newPlayingEngine(t *testing.T, pacer Pacer, cfg GameConfig, layout entity.Board) (*Engine, *recorder) {
	t.Helper()

	ctx := context.Background()
	engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(1), pacer)
	rec := &recorder{}
	engine.AddPublisher(rec)
	engine.AddObserver(rec)

	require.NoError(t, engine.ConfigureGame(ctx, cfg))
	require.True(t, engine.BeginPlay(ctx))

	engine.game.Board = layout
	rec.reset()

	return engine, rec
}

func emptyBoard() entity.Board {
	return entity.Board{Snakes: map[int]int{}, Ladders: map[int]int{}}
}

func TestEngine_ConfigureGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates the roster and waits in ready", func(t *testing.T) {
		// Given: a fresh engine in the main menu
		engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)
		rec := &recorder{}
		engine.AddPublisher(rec)

		// When: a two player game is configured
		err := engine.ConfigureGame(ctx, pvpConfig("Ann", ""))
		require.NoError(t, err)

		// Then: the game is ready with both players on square one and a valid board
		game := engine.Snapshot()
		assert.Equal(t, entity.PhaseReady, game.Phase)
		assert.Equal(t, entity.ModePvP, game.Mode)
		require.Len(t, game.Players, 2)
		assert.Equal(t, "Ann", game.Players[0].Name)
		assert.Equal(t, "Player 2", game.Players[1].Name)
		for _, player := range game.Players {
			assert.Equal(t, entity.StartSquare, player.Position)
		}
		require.NoError(t, game.Board.Validate(entity.BoardSize, entity.BoardCols))

		// Then: setup and ready phase changes were announced
		phases := rec.ofType(entity.EventPhase)
		require.Len(t, phases, 2)
		assert.Equal(t, entity.PhaseSetup, phases[0].Phase)
		assert.Equal(t, entity.PhaseReady, phases[1].Phase)
	})

	t.Run("Rejects an invalid roster", func(t *testing.T) {
		engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)

		err := engine.ConfigureGame(ctx, pvpConfig("Solo"))

		require.ErrorIs(t, err, apperror.ErrInvalidRoster)
		assert.Equal(t, entity.PhaseMainMenu, engine.Snapshot().Phase)
	})

	t.Run("Rejects configuration during a game", func(t *testing.T) {
		engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())

		err := engine.ConfigureGame(ctx, pvpConfig("Cat", "Dan"))

		require.ErrorIs(t, err, apperror.ErrGameInProgress)
		assert.Equal(t, "Ann", engine.Snapshot().Players[0].Name)
	})
}

func TestEngine_OpenSetup(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)

	assert.False(t, engine.OpenSetup(ctx, "coop"))
	require.True(t, engine.OpenSetup(ctx, entity.ModePvE))

	game := engine.Snapshot()
	assert.Equal(t, entity.PhaseSetup, game.Phase)
	assert.Equal(t, entity.ModePvE, game.Mode)

	// a second call outside the main menu is ignored
	assert.False(t, engine.OpenSetup(ctx, entity.ModePvP))
}

func TestEngine_BeginPlay(t *testing.T) {
	ctx := context.Background()

	t.Run("Ignored before configuration", func(t *testing.T) {
		engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)

		assert.False(t, engine.BeginPlay(ctx))
		assert.Equal(t, entity.PhaseMainMenu, engine.Snapshot().Phase)
	})

	t.Run("Starts play and logs the first turn", func(t *testing.T) {
		engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)
		require.NoError(t, engine.ConfigureGame(ctx, pvpConfig("Ann", "Ben")))

		require.True(t, engine.BeginPlay(ctx))

		game := engine.Snapshot()
		assert.Equal(t, entity.PhasePlaying, game.Phase)
		assert.Equal(t, []string{"Game Started! Ann's turn."}, game.Log)
		assert.False(t, engine.BeginPlay(ctx))
	})
}

func TestEngine_RollAndMove_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("Bust keeps the position and passes the turn", func(t *testing.T) {
		// Given: two players, the first one on 98
		engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
		engine.game.Players[0].Position = 98

		// When: the first player rolls a 3, one past the last square
		require.True(t, engine.RollAndMove(ctx, 3))

		// Then: the position is unchanged and the second player moves next
		game := engine.Snapshot()
		assert.Equal(t, 98, game.Players[0].Position)
		assert.Equal(t, 1, game.CurrentPlayerIndex)
		assert.Equal(t, "It's Ben's turn.", game.Log[0])
		assert.Equal(t, "Ann needs 2 to win. Rolled 3. No move.", game.Log[1])
		assert.Empty(t, rec.ofType(entity.EventPosition))
	})

	t.Run("Landing short of the last square is a normal move", func(t *testing.T) {
		engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
		engine.game.Players[0].Position = 95

		require.True(t, engine.RollAndMove(ctx, 3))

		game := engine.Snapshot()
		assert.Equal(t, 98, game.Players[0].Position)
		assert.Equal(t, "Ann rolled a 3 and moved from 95 to 98.", game.Log[1])
	})

	t.Run("Ladder from the landing square", func(t *testing.T) {
		// Given: a ladder from 4 to 14
		layout := entity.Board{Snakes: map[int]int{}, Ladders: map[int]int{4: 14}}
		engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), layout)

		// When: the first player rolls a 3 from square one
		require.True(t, engine.RollAndMove(ctx, 3))

		// Then: the player climbs to 14 with one ladder effect and no snake effect
		game := engine.Snapshot()
		assert.Equal(t, 14, game.Players[0].Position)
		assert.Equal(t, 1, rec.effects(entity.EffectLadder))
		assert.Equal(t, 0, rec.effects(entity.EffectSnake))

		positions := rec.ofType(entity.EventPosition)
		require.Len(t, positions, 2)
		assert.Equal(t, entity.CauseMove, positions[0].Cause)
		assert.Equal(t, 4, positions[0].Position)
		assert.Equal(t, entity.CauseLadder, positions[1].Cause)
		assert.Equal(t, 14, positions[1].Position)
	})

	t.Run("Snake from the landing square", func(t *testing.T) {
		// Given: a snake from 49 to 11 and a player on 48
		layout := entity.Board{Snakes: map[int]int{49: 11}, Ladders: map[int]int{}}
		engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), layout)
		engine.game.Players[0].Position = 48

		// When: the player rolls a 1
		require.True(t, engine.RollAndMove(ctx, 1))

		// Then: the player slides down to 11
		game := engine.Snapshot()
		assert.Equal(t, 11, game.Players[0].Position)
		assert.Equal(t, 1, rec.effects(entity.EffectSnake))
		assert.Contains(t, game.Log, "Oh no! Ann landed on a snake and slid down to 11.")
	})

	t.Run("Exact landing on the last square wins", func(t *testing.T) {
		// Given: a player on 94
		engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
		engine.game.Players[0].Position = 94
		turn := engine.game.Turn

		// When: the player rolls a 6
		require.True(t, engine.RollAndMove(ctx, 6))

		// Then: the game is won by that player and the turn does not rotate
		game := engine.Snapshot()
		assert.Equal(t, entity.PhaseWon, game.Phase)
		assert.Equal(t, 1, game.WinnerID)
		assert.Equal(t, 0, game.CurrentPlayerIndex)
		assert.Equal(t, turn, game.Turn)
		assert.Equal(t, "🎉 Ann has won the game! 🎉", game.Log[0])

		phases := rec.ofType(entity.EventPhase)
		require.Len(t, phases, 1)
		require.NotNil(t, phases[0].Winner)
		assert.Equal(t, "Ann", phases[0].Winner.Name)

		// Then: further rolls are ignored
		assert.False(t, engine.RollAndMove(ctx, 1))
	})

	t.Run("Play again resets positions and regenerates the board", func(t *testing.T) {
		// Given: a won game
		engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
		engine.game.Players[0].Position = 94
		require.True(t, engine.RollAndMove(ctx, 6))

		// When: play again is requested
		require.True(t, engine.PlayAgain(ctx))

		// Then: everyone is back on square one, the game is ready and the board is valid
		game := engine.Snapshot()
		assert.Equal(t, entity.PhaseReady, game.Phase)
		assert.Equal(t, 0, game.WinnerID)
		assert.Equal(t, 0, game.CurrentPlayerIndex)
		assert.Empty(t, game.Log)
		for _, player := range game.Players {
			assert.Equal(t, entity.StartSquare, player.Position)
		}
		require.NoError(t, game.Board.Validate(entity.BoardSize, entity.BoardCols))
		assert.NotEmpty(t, game.Board.Snakes)
	})
}

func TestEngine_RollAndMove_NoChain(t *testing.T) {
	// Given: a ladder whose top is the foot of another ladder and the head of a snake
	layout := entity.Board{
		Snakes:  map[int]int{30: 2},
		Ladders: map[int]int{5: 30, 30: 60},
	}
	engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), layout)

	// When: the player lands on the first ladder
	require.True(t, engine.RollAndMove(context.Background(), 4))

	// Then: only the first ladder is taken
	assert.Equal(t, 30, engine.Snapshot().Players[0].Position)
	assert.Equal(t, 1, rec.effects(entity.EffectLadder))
	assert.Equal(t, 0, rec.effects(entity.EffectSnake))
}

func TestEngine_TurnRotation(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben", "Cat"), emptyBoard())

	for i := 0; i < 7; i++ {
		before := engine.Snapshot()

		require.True(t, engine.RollAndMove(ctx, 2))

		after := engine.Snapshot()
		assert.Equal(t, (before.CurrentPlayerIndex+1)%3, after.CurrentPlayerIndex)
		assert.Equal(t, before.Turn+1, after.Turn)
		assert.False(t, after.Rolling)
	}
}

func TestEngine_IgnoredRolls(t *testing.T) {
	ctx := context.Background()

	t.Run("Before play begins", func(t *testing.T) {
		engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(3), nil)
		require.NoError(t, engine.ConfigureGame(ctx, pvpConfig("Ann", "Ben")))
		before := engine.Snapshot()

		assert.False(t, engine.RollDice(ctx))
		assert.False(t, engine.RollAndMove(ctx, 3))

		assert.Equal(t, before, engine.Snapshot())
	})

	t.Run("While a roll is in flight", func(t *testing.T) {
		engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
		engine.game.Rolling = true

		assert.False(t, engine.RollDice(ctx))
		assert.False(t, engine.RollAndMove(ctx, 3))
		assert.Equal(t, entity.StartSquare, engine.Snapshot().Players[0].Position)
	})

	t.Run("Steps out of range", func(t *testing.T) {
		engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())

		assert.False(t, engine.RollAndMove(ctx, 0))
		assert.False(t, engine.RollAndMove(ctx, 7))
		assert.Equal(t, 0, engine.Snapshot().CurrentPlayerIndex)
	})

	t.Run("Human roll on the bot's turn", func(t *testing.T) {
		// Given: a PvE game where the human has just moved
		cfg := GameConfig{Mode: entity.ModePvE, Players: []entity.PlayerSetup{{Name: "Ann"}}}
		engine, _ := newPlayingEngine(t, nil, cfg, emptyBoard())
		require.True(t, engine.RollAndMove(ctx, 2))
		before := engine.Snapshot()
		require.True(t, before.Players[1].IsBot)
		require.Equal(t, 1, before.CurrentPlayerIndex)

		// When: the human tries to roll for the bot
		rolled := engine.RollDice(ctx)

		// Then: nothing happens
		assert.False(t, rolled)
		assert.Equal(t, before, engine.Snapshot())
	})
}

func TestEngine_RollDice(t *testing.T) {
	// Given: a game in progress
	ctx := context.Background()
	engine, rec := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())

	// When: the human rolls
	require.True(t, engine.RollDice(ctx))

	// Then: a dice effect came first and the player moved by the rolled value
	game := engine.Snapshot()
	assert.GreaterOrEqual(t, game.LastRoll, entity.DiceMin)
	assert.LessOrEqual(t, game.LastRoll, entity.DiceMax)
	assert.Equal(t, entity.StartSquare+game.LastRoll, game.Players[0].Position)

	effects := rec.ofType(entity.EventEffect)
	require.NotEmpty(t, effects)
	assert.Equal(t, entity.EffectDice, effects[0].Effect.Kind)
	assert.Equal(t, entity.StartSquare, effects[0].Effect.Square)
	assert.Equal(t, entity.EffectDuration.Milliseconds(), effects[0].Effect.DurationMS)

	// Then: the final observed state has the guard cleared
	state := rec.lastState()
	require.NotNil(t, state)
	assert.False(t, state.Rolling)
	assert.Equal(t, 1, state.CurrentPlayerIndex)
}

func TestEngine_RollForBot(t *testing.T) {
	ctx := context.Background()
	cfg := GameConfig{Mode: entity.ModePvE, Players: []entity.PlayerSetup{{Name: "Ann"}}}
	engine, _ := newPlayingEngine(t, nil, cfg, emptyBoard())

	// the bot cannot roll on the human's turn
	assert.False(t, engine.RollForBot(ctx, engine.Snapshot().Turn))

	require.True(t, engine.RollAndMove(ctx, 1))
	turn := engine.Snapshot().Turn

	// a stale turn key is ignored
	assert.False(t, engine.RollForBot(ctx, turn-1))

	require.True(t, engine.RollForBot(ctx, turn))

	game := engine.Snapshot()
	assert.Equal(t, 0, game.CurrentPlayerIndex)
	assert.Greater(t, game.Players[1].Position, entity.StartSquare)
}

func TestEngine_PositionsStayOnBoard(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(testLogger(), "game-1", board.DefaultItems, random.New(11), nil)
	require.NoError(t, engine.ConfigureGame(ctx, pvpConfig("Ann", "Ben", "Cat", "Dan")))
	require.True(t, engine.BeginPlay(ctx))

	for i := 0; i < 2000 && engine.Snapshot().Phase == entity.PhasePlaying; i++ {
		require.True(t, engine.RollDice(ctx))

		for _, player := range engine.Snapshot().Players {
			require.GreaterOrEqual(t, player.Position, entity.StartSquare)
			require.LessOrEqual(t, player.Position, entity.BoardSize)
		}
	}
}

func TestEngine_ReturnToMenu(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPlayingEngine(t, nil, pvpConfig("Ann", "Ben"), emptyBoard())
	require.True(t, engine.RollAndMove(ctx, 4))

	engine.ReturnToMenu(ctx)

	game := engine.Snapshot()
	assert.Equal(t, entity.PhaseMainMenu, game.Phase)
	assert.Empty(t, game.Players)
	assert.Empty(t, game.Mode)
	assert.Empty(t, game.Log)
	assert.Equal(t, entity.DefaultBoard(), game.Board)
	assert.False(t, engine.PlayAgain(ctx))
}

// gatePacer blocks on the effect pause until released.
type gatePacer struct {
	reached chan struct{}
	release chan struct{}
}

func (that *gatePacer) Pause(_ context.Context, beat Beat) error {
	if beat == BeatEffect {
		close(that.reached)
		<-that.release
	}

	return nil
}

func TestEngine_ResetAbortsTurnInFlight(t *testing.T) {
	// Given: a player about to land on a snake, with the effect pause held open
	ctx := context.Background()
	pacer := &gatePacer{reached: make(chan struct{}), release: make(chan struct{})}
	layout := entity.Board{Snakes: map[int]int{49: 11}, Ladders: map[int]int{}}
	engine, rec := newPlayingEngine(t, pacer, pvpConfig("Ann", "Ben"), layout)
	engine.game.Players[0].Position = 48

	done := make(chan bool)
	go func() {
		done <- engine.RollAndMove(ctx, 1)
	}()

	select {
	case <-pacer.reached:
	case <-time.After(5 * time.Second):
		t.Fatal("turn cycle never reached the snake")
	}

	// When: the table returns to the menu mid-cycle
	engine.ReturnToMenu(ctx)
	close(pacer.release)
	require.True(t, <-done)

	// Then: the aborted cycle did not touch the new state
	game := engine.Snapshot()
	assert.Equal(t, entity.PhaseMainMenu, game.Phase)
	assert.Empty(t, game.Players)
	assert.False(t, game.Rolling)
	assert.Empty(t, game.Log)

	positions := rec.ofType(entity.EventPosition)
	require.Len(t, positions, 1)
	assert.Equal(t, entity.CauseMove, positions[0].Cause)
}

func TestEngine_CloseDetachesSubscribers(t *testing.T) {
	// Given: a player about to land on a snake, with the effect pause held open
	ctx := context.Background()
	pacer := &gatePacer{reached: make(chan struct{}), release: make(chan struct{})}
	layout := entity.Board{Snakes: map[int]int{49: 11}, Ladders: map[int]int{}}
	engine, rec := newPlayingEngine(t, pacer, pvpConfig("Ann", "Ben"), layout)
	engine.game.Players[0].Position = 48

	done := make(chan bool)
	go func() {
		done <- engine.RollAndMove(ctx, 1)
	}()

	select {
	case <-pacer.reached:
	case <-time.After(5 * time.Second):
		t.Fatal("turn cycle never reached the snake")
	}

	// When: the engine is closed mid-cycle
	engine.Close()
	rec.reset()
	close(pacer.release)
	require.True(t, <-done)

	// Then: neither the aborted cycle nor later commands reach subscribers
	engine.ReturnToMenu(ctx)

	assert.Empty(t, rec.ofType(entity.EventPosition))
	assert.Empty(t, rec.ofType(entity.EventPhase))
	assert.Nil(t, rec.lastState())
}
