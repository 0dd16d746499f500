package snakesladders

import (
	"context"
	"time"

	"github.com/rocketscienceinc/snakesladders-backend/internal/random"
)

// Beat names a scheduling wait inside a turn cycle.
type Beat int

const (
	// BeatRoll is the dice animation between the roll intent and the move.
	BeatRoll Beat = iota
	// BeatStep is the token animation after every position change.
	BeatStep
	// BeatSettle is the short pause after the main move, before snakes and ladders.
	BeatSettle
	// BeatEffect is the pause that lets players read a snake or ladder effect.
	BeatEffect
)

// Pacer waits between the stages of a turn cycle.
type Pacer interface {
	Pause(ctx context.Context, beat Beat) error
}

// Timings configures a TimedPacer.
type Timings struct {
	RollMin time.Duration
	RollMax time.Duration
	Landing time.Duration
	Step    time.Duration
	Settle  time.Duration
	Effect  time.Duration
}

// DefaultTimings mirror the pacing of the board animations.
var DefaultTimings = Timings{
	RollMin: 700 * time.Millisecond,
	RollMax: 1500 * time.Millisecond,
	Landing: 100 * time.Millisecond,
	Step:    800 * time.Millisecond,
	Settle:  200 * time.Millisecond,
	Effect:  800 * time.Millisecond,
}

type TimedPacer struct {
	timings Timings
	src     random.Source
}

func NewTimedPacer(timings Timings, src random.Source) *TimedPacer {
	return &TimedPacer{
		timings: timings,
		src:     src,
	}
}

func (that *TimedPacer) Pause(ctx context.Context, beat Beat) error {
	return sleep(ctx, that.duration(beat))
}

// duration - the dice roll lasts a random time in [RollMin, RollMax) plus the landing shake.
func (that *TimedPacer) duration(beat Beat) time.Duration {
	switch beat {
	case BeatRoll:
		roll := that.timings.RollMin
		if spread := int((that.timings.RollMax - that.timings.RollMin) / time.Millisecond); spread > 0 {
			roll += time.Duration(that.src.Intn(spread)) * time.Millisecond
		}

		return roll + that.timings.Landing
	case BeatStep:
		return that.timings.Step
	case BeatSettle:
		return that.timings.Settle
	case BeatEffect:
		return that.timings.Effect
	default:
		return 0
	}
}

// NoPause applies every stage immediately.
type NoPause struct{}

func (NoPause) Pause(ctx context.Context, _ Beat) error {
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
