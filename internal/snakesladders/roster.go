package snakesladders

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/snakesladders-backend/internal/apperror"
	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const (
	botName      = "Bot"
	soloName     = "You"
	seatNameTmpl = "Player %d"
)

// GameConfig is the finalized setup handed over by the menu.
type GameConfig struct {
	Mode    entity.Mode          `json:"mode"`
	Players []entity.PlayerSetup `json:"players"`
}

// BuildRoster - turns setup data into players standing on the start square.
// In PvE mode the single human seat is joined by a bot in the second seat.
func BuildRoster(cfg GameConfig) ([]*entity.Player, error) {
	switch cfg.Mode {
	case entity.ModePvP:
		if len(cfg.Players) < entity.MinPlayers || len(cfg.Players) > entity.MaxPlayers {
			return nil, fmt.Errorf("%w: pvp needs %d-%d players, got %d",
				apperror.ErrInvalidRoster, entity.MinPlayers, entity.MaxPlayers, len(cfg.Players))
		}

		players := make([]*entity.Player, 0, len(cfg.Players))
		for seat, setup := range cfg.Players {
			players = append(players, newPlayer(seat, setup, fmt.Sprintf(seatNameTmpl, seat+1)))
		}

		return players, nil
	case entity.ModePvE:
		if len(cfg.Players) != 1 {
			return nil, fmt.Errorf("%w: pve needs exactly one human, got %d", apperror.ErrInvalidRoster, len(cfg.Players))
		}

		return []*entity.Player{
			newPlayer(0, cfg.Players[0], soloName),
			{
				ID:       2,
				Name:     botName,
				Color:    entity.Palette[1],
				Position: entity.StartSquare,
				IsBot:    true,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", apperror.ErrInvalidRoster, cfg.Mode)
	}
}

func newPlayer(seat int, setup entity.PlayerSetup, fallbackName string) *entity.Player {
	name := entity.TrimName(strings.TrimSpace(setup.Name))
	if name == "" {
		name = fallbackName
	}

	color := strings.TrimSpace(setup.Color)
	if color == "" {
		color = entity.Palette[seat]
	}

	return &entity.Player{
		ID:       seat + 1,
		Name:     name,
		Color:    color,
		Position: entity.StartSquare,
	}
}

func validMode(mode entity.Mode) bool {
	return mode == entity.ModePvP || mode == entity.ModePvE
}
