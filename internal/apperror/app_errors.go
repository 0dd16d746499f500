package apperror

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameInProgress = errors.New("game is already in progress")
	ErrInvalidRoster  = errors.New("invalid player roster")
	ErrInvalidBoard   = errors.New("invalid board layout")
)
