package entity

const maxNameLength = 15

// Palette is the default token color of each seat.
var Palette = [MaxPlayers]string{"#ef4444", "#3b82f6", "#facc15", "#22c55e"}

type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position int    `json:"position"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// PlayerSetup is what the setup screen submits for one seat.
type PlayerSetup struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TrimName - cuts a display name to the length the setup screen allows.
func TrimName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:maxNameLength])
	}

	return name
}
