package state

import (
	"bytes"
	"encoding/json"
)

// GameState is a complete save: the player, the world and the save slot
// metadata. A GameState owns its parts; nothing is shared between states.
type GameState struct {
	Player   Player       `json:"player"`
	World    World        `json:"world"`
	Metadata GameMetadata `json:"metadata"`
}

// NewGameState assembles a game state from its parts.
func NewGameState(player Player, world World, metadata GameMetadata) *GameState {
	return &GameState{
		Player:   player,
		World:    world,
		Metadata: metadata,
	}
}

// gameStateDocument has the same fields as GameState but no methods, so
// marshaling it does not recurse into GameState.MarshalJSON.
type gameStateDocument struct {
	Player   Player       `json:"player"`
	World    World        `json:"world"`
	Metadata GameMetadata `json:"metadata"`
}

// MarshalJSON emits every field of the save document. Absent optionals
// encode as null and nil lists encode as [].
func (gs GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameStateDocument{
		Player:   gs.Player,
		World:    gs.World.normalized(),
		Metadata: gs.Metadata,
	})
}

// UnmarshalJSON decodes a save document with the same rules as FromJSON.
// A JSON null leaves gs untouched.
func (gs *GameState) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	decoded, err := FromJSON(data)
	if err != nil {
		return err
	}
	*gs = *decoded
	return nil
}

// ToJSON encodes the game state as an indented save document. Output is
// deterministic for a given value; the error is non-nil only if the
// encoder itself fails, which cannot happen for these field types.
func (gs *GameState) ToJSON() ([]byte, error) {
	return json.MarshalIndent(gs, "", "  ")
}

// FromJSON decodes a save document. Unknown keys are ignored. Any failure
// is returned as a *DecodeError and no partial state is returned.
func FromJSON(data []byte) (*GameState, error) {
	return decodeGameState(data, false)
}

// FromJSONStrict is FromJSON but also rejects unknown keys and trailing
// data after the document.
func FromJSONStrict(data []byte) (*GameState, error) {
	return decodeGameState(data, true)
}

func decodeGameState(data []byte, strict bool) (*GameState, error) {
	var w wireGameState
	if err := unmarshal(data, &w, strict); err != nil {
		return nil, err
	}
	return w.gameState()
}
