package entity

import (
	"fmt"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
)

const (
	BoardSize = 100
	BoardRows = 10
	BoardCols = 10

	StartSquare = 1
)

// Board maps the start square of every snake and ladder to its end square.
type Board struct {
	Snakes  map[int]int `json:"snakes"`
	Ladders map[int]int `json:"ladders"`
}

var (
	defaultSnakes = map[int]int{
		16: 6, 47: 26, 49: 11, 56: 53, 62: 19,
		64: 60, 87: 24, 93: 73, 95: 75, 98: 78,
	}

	defaultLadders = map[int]int{
		1: 38, 4: 14, 9: 31, 21: 42, 28: 84,
		36: 44, 51: 67, 71: 91, 80: 100,
	}
)

// DefaultBoard - returns the fixed layout shown before a game is configured.
func DefaultBoard() Board {
	return Board{
		Snakes:  copyJumps(defaultSnakes),
		Ladders: copyJumps(defaultLadders),
	}
}

// Row - returns the zero-based row band of a square.
func Row(square, rowWidth int) int {
	return (square - 1) / rowWidth
}

func (that Board) Clone() Board {
	return Board{
		Snakes:  copyJumps(that.Snakes),
		Ladders: copyJumps(that.Ladders),
	}
}

// Validate - checks the invariants every generated layout holds.
func (that Board) Validate(size, rowWidth int) error {
	used := make(map[int]struct{}, 2*(len(that.Snakes)+len(that.Ladders)))

	claim := func(square int) error {
		if square < 2 || square > size-1 {
			return fmt.Errorf("%w: square %d is outside the interior", apperror.ErrInvalidBoard, square)
		}

		if _, ok := used[square]; ok {
			return fmt.Errorf("%w: square %d is used twice", apperror.ErrInvalidBoard, square)
		}

		used[square] = struct{}{}

		return nil
	}

	for start, end := range that.Snakes {
		if Row(end, rowWidth) >= Row(start, rowWidth) {
			return fmt.Errorf("%w: snake %d->%d does not drop a row", apperror.ErrInvalidBoard, start, end)
		}

		if err := claim(start); err != nil {
			return err
		}

		if err := claim(end); err != nil {
			return err
		}
	}

	for start, end := range that.Ladders {
		if Row(end, rowWidth) <= Row(start, rowWidth) {
			return fmt.Errorf("%w: ladder %d->%d does not climb a row", apperror.ErrInvalidBoard, start, end)
		}

		if err := claim(start); err != nil {
			return err
		}

		if err := claim(end); err != nil {
			return err
		}
	}

	return nil
}

func copyJumps(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for start, end := range src {
		dst[start] = end
	}

	return dst
}
