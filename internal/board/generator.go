package board

import (
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
	"github.com/rocketscienceinc/snakesladders-backend/internal/random"
)

// DefaultItems is how many snakes and how many ladders a new game asks for.
const DefaultItems = 8

// Generate - places up to numItems snakes and up to numItems ladders on a board of
// the given size. rowWidth is the number of squares in one row band.
//
// Interior squares are shuffled once. Snakes are placed while walking the shuffled
// squares, then ladders continue from the same cursor. A start square is kept only
// if an unoccupied end exists on a strictly lower row (snakes) or strictly higher
// row (ladders). Fewer pairs than requested is a valid result.
func Generate(src random.Source, numItems, size, rowWidth int) entity.Board {
	layout := entity.Board{
		Snakes:  make(map[int]int, max(numItems, 0)),
		Ladders: make(map[int]int, max(numItems, 0)),
	}

	if size < 3 || rowWidth <= 0 {
		return layout
	}

	squares := make([]int, 0, size-2)
	for square := 2; square <= size-1; square++ {
		squares = append(squares, square)
	}

	src.Shuffle(len(squares), func(i, j int) {
		squares[i], squares[j] = squares[j], squares[i]
	})

	occupied := make(map[int]struct{}, len(squares))
	cursor := 0

	place := func(jumps map[int]int, fits func(start, end int) bool) {
		for len(jumps) < numItems && cursor < len(squares) {
			start := squares[cursor]
			cursor++

			if _, taken := occupied[start]; taken {
				continue
			}

			candidates := make([]int, 0, len(squares))
			for _, end := range squares {
				if _, taken := occupied[end]; taken {
					continue
				}

				if fits(start, end) {
					candidates = append(candidates, end)
				}
			}

			if len(candidates) == 0 {
				continue
			}

			end := candidates[src.Intn(len(candidates))]
			jumps[start] = end
			occupied[start] = struct{}{}
			occupied[end] = struct{}{}
		}
	}

	place(layout.Snakes, func(start, end int) bool {
		return end < start && entity.Row(end, rowWidth) < entity.Row(start, rowWidth)
	})

	place(layout.Ladders, func(start, end int) bool {
		return end > start && entity.Row(end, rowWidth) > entity.Row(start, rowWidth)
	})

	return layout
}

// New - generates a layout for the standard 10x10 board.
func New(src random.Source, numItems int) entity.Board {
	return Generate(src, numItems, entity.BoardSize, entity.BoardCols)
}
