package types

import "github.com/DoyleJ11/hiragana-drop/internal/engine"

// Client message types.
const (
	MsgHello        = "Hello"
	MsgInput        = "Input"
	MsgLayout       = "Layout"
	MsgNewRound     = "NewRound"
	MsgChooseCard   = "ChooseCard"
	MsgClearSlot    = "ClearSlot"
	MsgPlaceTile    = "PlaceTile"
	MsgSpeakWord    = "SpeakWord"
	MsgSetTileAudio = "SetTileAudio"
)

// Server message types.
const (
	MsgWelcome       = "Welcome"
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ClientMessage struct {
	Type    string               `json:"type"`
	Caps    *engine.Capabilities `json:"caps,omitempty"`
	Event   *engine.RawEvent     `json:"event,omitempty"`
	Layout  *engine.Layout       `json:"layout,omitempty"`
	Word    string               `json:"word,omitempty"`
	Slot    int                  `json:"slot,omitempty"`
	TileID  int                  `json:"tile,omitempty"`
	Enabled bool                 `json:"enabled,omitempty"`
}

type ServerMessage struct {
	Type     string         `json:"type"` // "Welcome" | "StateSnapshot" | "Error"
	ClientID string         `json:"client_id,omitempty"`
	Version  int            `json:"version,omitempty"`
	State    *engine.State  `json:"state,omitempty"`
	Events   []engine.Event `json:"events,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type CreateLobbyResponse struct {
	Code string `json:"code"`
}

type LobbyResponse struct {
	Code       string       `json:"code"`
	Version    int          `json:"version"`
	NumClients int          `json:"num_clients"`
	State      engine.State `json:"state"`
}
