package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const (
	actionGameNew        = "game:new"
	actionGameJoin       = "game:join"
	actionGameSetup      = "game:setup"
	actionGameConfigure  = "game:configure"
	actionGameBegin      = "game:begin"
	actionGameRoll       = "game:roll"
	actionGameAgain      = "game:again"
	actionGameMenu       = "game:menu"
	actionGameState      = "game:state"
	actionGameEvent      = "game:event"
	actionSettingsSounds = "settings:sounds"
	actionSettingsMusic  = "settings:music"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	GameID  string               `json:"game_id,omitempty"`
	Mode    entity.Mode          `json:"mode,omitempty"`
	Players []entity.PlayerSetup `json:"players,omitempty"`
	Enabled *bool                `json:"enabled,omitempty"`
}

type ResponsePayload struct {
	Game    *entity.Game  `json:"game,omitempty"`
	Event   *entity.Event `json:"event,omitempty"`
	Enabled *bool         `json:"enabled,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func encode(action string, payload ResponsePayload) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	response, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return response, nil
}

func decodePayload(msg *Message) (RequestPayload, error) {
	var payload RequestPayload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
