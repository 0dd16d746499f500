package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/snakesladders-backend/internal/config"
	"github.com/rocketscienceinc/snakesladders-backend/internal/metrics"
	"github.com/rocketscienceinc/snakesladders-backend/internal/repository"
	"github.com/rocketscienceinc/snakesladders-backend/internal/repository/storage"
	"github.com/rocketscienceinc/snakesladders-backend/internal/snakesladders"
	relay "github.com/rocketscienceinc/snakesladders-backend/internal/transport/redis"
	"github.com/rocketscienceinc/snakesladders-backend/internal/usecase"
	"github.com/rocketscienceinc/snakesladders-backend/transport/rest"
	"github.com/rocketscienceinc/snakesladders-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if conf.Redis.Host == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gameRepo := repository.NewGameRepository(redisClient, conf.Redis.SessionTTL)
	eventRelay := relay.New(logger, redisClient)
	gameUseCase := usecase.NewGameManager(logger, gameRepo, metrics.New(registry), eventRelay, settings(conf.Game))
	defer gameUseCase.Close(context.Background())

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(rest.NewHandlers(logger, gameUseCase, eventRelay), registry)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func settings(game config.Game) usecase.Settings {
	return usecase.Settings{
		Items:    game.Items,
		Seed:     game.Seed,
		BotDelay: game.BotDelay,
		Timings: snakesladders.Timings{
			RollMin: game.RollMinDelay,
			RollMax: game.RollMaxDelay,
			Landing: game.LandingDelay,
			Step:    game.StepDelay,
			Settle:  game.SettleDelay,
			Effect:  game.EffectDelay,
		},
	}
}
