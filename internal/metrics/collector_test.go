package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

func TestCollector_Publish(t *testing.T) {
	// Given: a collector on a private registry
	ctx := context.Background()
	collector := New(prometheus.NewRegistry())

	// When: a short game is replayed
	events := []entity.Event{
		{Type: entity.EventPhase, Phase: entity.PhasePlaying},
		{Type: entity.EventEffect, Effect: entity.NewEffect("+3", 1, entity.EffectDice)},
		{Type: entity.EventPosition, Cause: entity.CauseMove, Position: 4},
		{Type: entity.EventEffect, Effect: entity.NewEffect("🪜 to 14", 4, entity.EffectLadder)},
		{Type: entity.EventPosition, Cause: entity.CauseLadder, Position: 14},
		{Type: entity.EventEffect, Effect: entity.NewEffect("+2", 1, entity.EffectDice)},
		{Type: entity.EventPosition, Cause: entity.CauseSnake, Position: 2},
		{Type: entity.EventPhase, Phase: entity.PhaseWon},
	}
	for _, event := range events {
		collector.Publish(ctx, event)
	}

	// Then: each counter reflects its events
	assert.InDelta(t, 2, testutil.ToFloat64(collector.rolls), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.ladders), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.snakes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.gamesStarted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(collector.gamesWon), 0)
}

func TestCollector_Sessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := New(reg)

	collector.SessionOpened()
	collector.SessionOpened()
	collector.SessionClosed()

	assert.InDelta(t, 1, testutil.ToFloat64(collector.activeSessions), 0)

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 6, count)
}
