package snakesladders

import "github.com/rocketscienceinc/snakesladders-backend/internal/entity"

// Jump is a displacement caused by a snake or a ladder.
type Jump struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Move is the full outcome of one roll, before it is applied.
type Move struct {
	Steps  int   `json:"steps"`
	From   int   `json:"from"`
	Target int   `json:"target"`
	Bust   bool  `json:"bust"`
	Snake  *Jump `json:"snake,omitempty"`
	Ladder *Jump `json:"ladder,omitempty"`
	Final  int   `json:"final"`
	Won    bool  `json:"won"`
}

// Resolve - computes where a player standing on from ends up after rolling steps.
//
// A roll past the last square is a bust and leaves the player in place without any
// snake or ladder lookup. Otherwise the landing square is checked for a snake first,
// then the resulting square for a ladder. Squares reached through a snake or ladder
// are never checked against the same kind again.
func Resolve(layout entity.Board, from, steps, size int) Move {
	move := Move{
		Steps:  steps,
		From:   from,
		Target: from + steps,
		Final:  from,
	}

	if move.Target > size {
		move.Bust = true
		return move
	}

	position := move.Target

	if end, ok := layout.Snakes[position]; ok {
		move.Snake = &Jump{From: position, To: end}
		position = end
	}

	if end, ok := layout.Ladders[position]; ok {
		move.Ladder = &Jump{From: position, To: end}
		position = end
	}

	move.Final = position
	move.Won = position == size

	return move
}
