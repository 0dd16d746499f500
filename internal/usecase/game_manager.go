package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/audio"
	"github.com/rocketscienceinc/snakesladders-backend/internal/bot"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/random"
	"github.com/rocketscienceinc/snakesladders-backend/internal/realtime"
	"github.com/rocketscienceinc/snakesladders-backend/internal/repository"
	"github.com/rocketscienceinc/snakesladders-backend/internal/snakesladders"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type metricsCollector interface {
	snakesladders.Publisher
	SessionOpened()
	SessionClosed()
}

// Settings tune every session the manager creates.
type Settings struct {
	Items    int
	Seed     int64
	BotDelay time.Duration
	Timings  snakesladders.Timings
}

// Session is one table: an engine and everything attached to it.
type Session struct {
	ID     string
	Engine *snakesladders.Engine
	Bot    *bot.Driver
	Sounds audio.Service
	Music  audio.Service
	Events *realtime.Broadcaster
}

type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	metrics  metricsCollector
	relay    snakesladders.Publisher
	settings Settings

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewGameManager - relay may be nil when events are not mirrored outside the process.
func NewGameManager(
	logger *slog.Logger,
	gameRepo gameRepo,
	metrics metricsCollector,
	relay snakesladders.Publisher,
	settings Settings,
) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		metrics:  metrics,
		relay:    relay,
		settings: settings,
		sessions: make(map[string]*Session),
	}
}

// CreateSession - opens a new table in the main menu.
func (that *GameManager) CreateSession(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	log := that.logger.With("method", "CreateSession", "game_id", id)

	seed := that.settings.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, fmt.Errorf("failed to draw seed: %w", err)
		}
	}

	src := random.New(seed)
	engine := snakesladders.NewEngine(that.logger, id, that.settings.Items, src,
		snakesladders.NewTimedPacer(that.settings.Timings, src))

	session := &Session{
		ID:     id,
		Engine: engine,
		Bot:    bot.NewDriver(that.logger.With("game_id", id), engine, that.settings.BotDelay),
		Sounds: audio.NewLogService(that.logger.With("game_id", id), "sounds", true),
		Music:  audio.NewLogService(that.logger.With("game_id", id), "music", true),
		Events: realtime.NewBroadcaster(),
	}

	engine.AddPublisher(session.Events)
	engine.AddPublisher(audio.NewCues(that.logger, session.Sounds))
	engine.AddPublisher(that.metrics)
	if that.relay != nil {
		engine.AddPublisher(that.relay)
	}

	engine.AddObserver(session.Bot)
	engine.AddObserver(repository.NewRecorder(that.logger, that.gameRepo))

	if err := that.gameRepo.CreateOrUpdate(ctx, engine.Snapshot()); err != nil {
		session.Bot.Stop()
		session.Events.Close()

		return nil, fmt.Errorf("failed to store new game: %w", err)
	}

	that.mu.Lock()
	that.sessions[id] = session
	that.mu.Unlock()

	that.metrics.SessionOpened()
	log.Info("session created", "seed", seed)

	return session, nil
}

// NewGame - opens a session and returns its first snapshot.
func (that *GameManager) NewGame(ctx context.Context) (*entity.Game, error) {
	session, err := that.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.Engine.Snapshot(), nil
}

func (that *GameManager) Session(id string) (*Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	return session, nil
}

// Snapshot - the last stored state of a session.
func (that *GameManager) Snapshot(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

// State - the live state of a session.
func (that *GameManager) State(id string) (*entity.Game, error) {
	session, err := that.Session(id)
	if err != nil {
		return nil, err
	}

	return session.Engine.Snapshot(), nil
}

func (that *GameManager) OpenSetup(ctx context.Context, id string, mode entity.Mode) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		engine.OpenSetup(ctx, mode)
		return nil
	})
}

func (that *GameManager) Configure(ctx context.Context, id string, cfg snakesladders.GameConfig) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		return engine.ConfigureGame(ctx, cfg)
	})
}

func (that *GameManager) Begin(ctx context.Context, id string) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		engine.BeginPlay(ctx)
		return nil
	})
}

// Roll - plays the human's turn cycle; returns once it is over.
func (that *GameManager) Roll(ctx context.Context, id string) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		engine.RollDice(ctx)
		return nil
	})
}

func (that *GameManager) PlayAgain(ctx context.Context, id string) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		engine.PlayAgain(ctx)
		return nil
	})
}

func (that *GameManager) ReturnToMenu(ctx context.Context, id string) (*entity.Game, error) {
	return that.command(id, func(engine *snakesladders.Engine) error {
		engine.ReturnToMenu(ctx)
		return nil
	})
}

func (that *GameManager) SetSounds(id string, enabled bool) error {
	session, err := that.Session(id)
	if err != nil {
		return err
	}

	session.Sounds.SetEnabled(enabled)

	return nil
}

// SetMusic - toggles the background track; turning it on restarts it.
func (that *GameManager) SetMusic(id string, enabled bool) error {
	session, err := that.Session(id)
	if err != nil {
		return err
	}

	session.Music.SetEnabled(enabled)
	if !enabled {
		return nil
	}

	if err = session.Music.Play(audio.KindMusic); err != nil {
		that.logger.Warn("failed to start music", "game_id", id, "error", err)
	}

	return nil
}

// Subscribe - streams the session's events until unsubscribe is called or the session closes.
func (that *GameManager) Subscribe(id string) (<-chan entity.Event, func(), error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	// under the read lock so Leave cannot count subscribers in between
	ch := session.Events.Subscribe()

	return ch, func() { session.Events.Unsubscribe(ch) }, nil
}

// CloseSession - detaches everything from the table and forgets it.
func (that *GameManager) CloseSession(ctx context.Context, id string) error {
	that.mu.Lock()
	session, ok := that.sessions[id]
	delete(that.sessions, id)
	that.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	that.release(ctx, session)

	return nil
}

// Leave - closes the session once its last subscriber is gone.
func (that *GameManager) Leave(ctx context.Context, id string) error {
	that.mu.Lock()
	session, ok := that.sessions[id]
	if !ok {
		that.mu.Unlock()
		return fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	if session.Events.Subscribers() > 0 {
		that.mu.Unlock()
		return nil
	}

	delete(that.sessions, id)
	that.mu.Unlock()

	that.release(ctx, session)

	return nil
}

// Close - closes every open session.
func (that *GameManager) Close(ctx context.Context) {
	that.mu.Lock()
	sessions := that.sessions
	that.sessions = make(map[string]*Session)
	that.mu.Unlock()

	for _, session := range sessions {
		that.release(ctx, session)
	}
}

func (that *GameManager) release(ctx context.Context, session *Session) {
	log := that.logger.With("method", "release", "game_id", session.ID)

	session.Engine.Close()
	session.Bot.Stop()
	session.Events.Close()

	if err := that.gameRepo.DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		log.Error("failed to delete game", "error", err)
	}

	that.metrics.SessionClosed()
	log.Info("session closed")
}

func (that *GameManager) command(id string, apply func(engine *snakesladders.Engine) error) (*entity.Game, error) {
	session, err := that.Session(id)
	if err != nil {
		return nil, err
	}

	if err = apply(session.Engine); err != nil {
		return nil, err
	}

	return session.Engine.Snapshot(), nil
}
