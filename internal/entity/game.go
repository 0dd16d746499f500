package entity

import (
	"errors"
	"fmt"
)

type Phase string

const (
	PhaseMainMenu Phase = "main_menu"
	PhaseSetup    Phase = "setup"
	PhaseReady    Phase = "ready"
	PhasePlaying  Phase = "playing"
	PhaseWon      Phase = "won"
)

type Mode string

const (
	ModePvP Mode = "pvp"
	ModePvE Mode = "pve"
)

const (
	MinPlayers = 2
	MaxPlayers = 4

	DiceMin = 1
	DiceMax = 6

	MaxLogEntries = 10
)

var ErrUnknownPhase = errors.New("unknown game phase")

// Game is the turn state of one table.
type Game struct {
	ID                 string    `json:"id"`
	Mode               Mode      `json:"mode,omitempty"`
	Phase              Phase     `json:"phase"`
	Players            []*Player `json:"players,omitempty"`
	CurrentPlayerIndex int       `json:"current_player_index"`
	LastRoll           int       `json:"last_roll"`
	Log                []string  `json:"log"`
	WinnerID           int       `json:"winner_id,omitempty"`
	Board              Board     `json:"board"`
	Turn               int       `json:"turn"`
	Rolling            bool      `json:"rolling"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:       id,
		Phase:    PhaseMainMenu,
		LastRoll: DiceMin,
		Log:      []string{},
		Board:    DefaultBoard(),
	}
}

func (that *Game) IsPlaying() bool {
	return that.Phase == PhasePlaying
}

func (that *Game) IsWon() bool {
	return that.Phase == PhaseWon
}

func (that *Game) HasRoster() bool {
	return len(that.Players) > 0
}

// CurrentPlayer - returns the player whose turn it is.
func (that *Game) CurrentPlayer() (*Player, bool) {
	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= len(that.Players) {
		return nil, false
	}

	return that.Players[that.CurrentPlayerIndex], true
}

// NextPlayerIndex - returns the index that follows the current one, wrapping around the roster.
func (that *Game) NextPlayerIndex() int {
	if len(that.Players) == 0 {
		return 0
	}

	return (that.CurrentPlayerIndex + 1) % len(that.Players)
}

func (that *Game) PlayerByID(id int) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

func (that *Game) Winner() (*Player, bool) {
	if that.WinnerID == 0 {
		return nil, false
	}

	return that.PlayerByID(that.WinnerID)
}

// AddLog - prepends a message and drops the oldest entries past the cap.
func (that *Game) AddLog(message string) {
	log := make([]string, 0, MaxLogEntries)
	log = append(log, message)
	log = append(log, that.Log...)

	if len(log) > MaxLogEntries {
		log = log[:MaxLogEntries]
	}

	that.Log = log
}

// ResetRound - puts every player back on the start square for a fresh round.
func (that *Game) ResetRound(board Board) {
	for _, player := range that.Players {
		player.Position = StartSquare
	}

	that.Board = board
	that.CurrentPlayerIndex = 0
	that.WinnerID = 0
	that.LastRoll = DiceMin
	that.Log = []string{}
	that.Rolling = false
	that.Turn++
}

// HasGeneratedBoard - the board is replaced by a generated layout once a game is configured.
func (that *Game) HasGeneratedBoard() bool {
	switch that.Phase {
	case PhaseReady, PhasePlaying, PhaseWon:
		return true
	default:
		return false
	}
}

// ConfirmPhase - reports whether the game is in a phase the engine knows.
func (that *Game) ConfirmPhase() error {
	switch that.Phase {
	case PhaseMainMenu, PhaseSetup, PhaseReady, PhasePlaying, PhaseWon:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPhase, that.Phase)
	}
}

// Clone - returns a deep copy safe to hand to readers.
func (that *Game) Clone() *Game {
	clone := *that

	clone.Players = make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		p := *player
		clone.Players = append(clone.Players, &p)
	}

	clone.Log = append([]string{}, that.Log...)
	clone.Board = that.Board.Clone()

	return &clone
}
