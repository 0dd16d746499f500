package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const namespace = "snakesladders"

// Collector counts game activity from engine notifications.
type Collector struct {
	rolls          prometheus.Counter
	snakes         prometheus.Counter
	ladders        prometheus.Counter
	gamesWon       prometheus.Counter
	gamesStarted   prometheus.Counter
	activeSessions prometheus.Gauge
}

// New - creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	that := &Collector{
		rolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolls_total",
			Help:      "Dice rolls made by humans and bots.",
		}),
		snakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snakes_total",
			Help:      "Times a player slid down a snake.",
		}),
		ladders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ladders_total",
			Help:      "Times a player climbed a ladder.",
		}),
		gamesWon: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_won_total",
			Help:      "Games that reached a winner.",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games that left the ready phase.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently open.",
		}),
	}

	reg.MustRegister(
		that.rolls,
		that.snakes,
		that.ladders,
		that.gamesWon,
		that.gamesStarted,
		that.activeSessions,
	)

	return that
}

func (that *Collector) Publish(_ context.Context, event entity.Event) {
	switch event.Type {
	case entity.EventEffect:
		if event.Effect != nil && event.Effect.Kind == entity.EffectDice {
			that.rolls.Inc()
		}
	case entity.EventPosition:
		switch event.Cause {
		case entity.CauseMove:
		case entity.CauseSnake:
			that.snakes.Inc()
		case entity.CauseLadder:
			that.ladders.Inc()
		}
	case entity.EventPhase:
		switch event.Phase {
		case entity.PhasePlaying:
			that.gamesStarted.Inc()
		case entity.PhaseWon:
			that.gamesWon.Inc()
		}
	}
}

func (that *Collector) SessionOpened() {
	that.activeSessions.Inc()
}

func (that *Collector) SessionClosed() {
	that.activeSessions.Dec()
}
