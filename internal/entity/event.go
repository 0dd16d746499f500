package entity

import "time"

type EventType string

const (
	EventPosition EventType = "position"
	EventLog      EventType = "log"
	EventEffect   EventType = "effect"
	EventPhase    EventType = "phase"
	EventTurn     EventType = "turn"
)

type EffectKind string

const (
	EffectDice   EffectKind = "dice"
	EffectSnake  EffectKind = "snake"
	EffectLadder EffectKind = "ladder"
)

// EffectDuration is how long the presentation keeps a floating effect on screen.
const EffectDuration = 2 * time.Second

type MoveCause string

const (
	CauseMove   MoveCause = "move"
	CauseSnake  MoveCause = "snake"
	CauseLadder MoveCause = "ladder"
)

type Effect struct {
	Text       string     `json:"text"`
	Square     int        `json:"square"`
	Kind       EffectKind `json:"kind"`
	DurationMS int64      `json:"duration_ms"`
}

// Event is a notification emitted by the turn engine.
type Event struct {
	Type     EventType `json:"type"`
	GameID   string    `json:"game_id"`
	PlayerID int       `json:"player_id,omitempty"`
	Position int       `json:"position,omitempty"`
	Cause    MoveCause `json:"cause,omitempty"`
	Message  string    `json:"message,omitempty"`
	Effect   *Effect   `json:"effect,omitempty"`
	Phase    Phase     `json:"phase,omitempty"`
	Winner   *Player   `json:"winner,omitempty"`
	Turn     int       `json:"turn,omitempty"`
	Game     *Game     `json:"game,omitempty"`
}

func NewEffect(text string, square int, kind EffectKind) *Effect {
	return &Effect{
		Text:       text,
		Square:     square,
		Kind:       kind,
		DurationMS: EffectDuration.Milliseconds(),
	}
}
