package state

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func strPtr(s string) *string { return &s }

var identifier = rapid.StringMatching(`[A-Za-z0-9_]{1,20}`)

func playerGen() *rapid.Generator[Player] {
	return rapid.Custom(func(t *rapid.T) Player {
		return Player{
			X:        rapid.IntRange(-100, 100).Draw(t, "x"),
			Y:        rapid.IntRange(-100, 100).Draw(t, "y"),
			Credits:  rapid.IntRange(0, 10000).Draw(t, "credits"),
			SpriteID: identifier.Draw(t, "sprite_id"),
		}
	})
}

func npcGen() *rapid.Generator[NPC] {
	return rapid.Custom(func(t *rapid.T) NPC {
		return NPC{
			ID:            identifier.Draw(t, "id"),
			X:             rapid.IntRange(0, 50).Draw(t, "x"),
			Y:             rapid.IntRange(0, 50).Draw(t, "y"),
			SpriteID:      identifier.Draw(t, "sprite_id"),
			DialogueState: rapid.Ptr(rapid.StringN(1, 20, -1), true).Draw(t, "dialogue_state"),
		}
	})
}

func workTaskGen() *rapid.Generator[WorkTask] {
	return rapid.Custom(func(t *rapid.T) WorkTask {
		return WorkTask{
			ID:        identifier.Draw(t, "id"),
			X:         rapid.IntRange(0, 50).Draw(t, "x"),
			Y:         rapid.IntRange(0, 50).Draw(t, "y"),
			Reward:    rapid.IntRange(1, 1000).Draw(t, "reward"),
			Completed: rapid.Bool().Draw(t, "completed"),
		}
	})
}

func worldGen() *rapid.Generator[World] {
	tileIDs := []string{"ground", "desert", "structure", "rock", "sand"}
	return rapid.Custom(func(t *rapid.T) World {
		width := rapid.IntRange(5, 20).Draw(t, "width")
		height := rapid.IntRange(5, 20).Draw(t, "height")
		tiles := make([][]string, height)
		for y := range tiles {
			tiles[y] = rapid.SliceOfN(rapid.SampledFrom(tileIDs), width, width).Draw(t, "row")
		}
		npcs := append([]NPC{}, rapid.SliceOfN(npcGen(), 0, 5).Draw(t, "npcs")...)
		tasks := append([]WorkTask{}, rapid.SliceOfN(workTaskGen(), 0, 5).Draw(t, "work_tasks")...)
		return World{
			Width:     width,
			Height:    height,
			Tiles:     tiles,
			NPCs:      npcs,
			WorkTasks: tasks,
		}
	})
}

func metadataGen() *rapid.Generator[GameMetadata] {
	return rapid.Custom(func(t *rapid.T) GameMetadata {
		return GameMetadata{
			SaveID:    rapid.StringMatching(`[A-Za-z0-9_-]{1,30}`).Draw(t, "save_id"),
			Timestamp: time.Now().Format("2006-01-02T15:04:05.000000"),
			PlayTime:  rapid.IntRange(0, 100000).Draw(t, "play_time"),
		}
	})
}

func TestGameState_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gs := NewGameState(
			playerGen().Draw(rt, "player"),
			worldGen().Draw(rt, "world"),
			metadataGen().Draw(rt, "metadata"),
		)

		data, err := gs.ToJSON()
		require.NoError(rt, err)

		loaded, err := FromJSON(data)
		require.NoError(rt, err)
		require.Equal(rt, gs, loaded)
	})
}

func TestGameState_ExampleScenario(t *testing.T) {
	gs := NewGameState(
		Player{X: 3, Y: -2, Credits: 150, SpriteID: "hero"},
		NewWorld(5, 5, "sand"),
		GameMetadata{SaveID: "s1", Timestamp: "2024-01-01T00:00:00", PlayTime: 42},
	)

	data, err := gs.ToJSON()
	require.NoError(t, err)

	loaded, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, Player{X: 3, Y: -2, Credits: 150, SpriteID: "hero"}, loaded.Player)
	assert.Equal(t, 5, loaded.World.Width)
	assert.Equal(t, 5, loaded.World.Height)
	require.Len(t, loaded.World.Tiles, 5)
	for _, row := range loaded.World.Tiles {
		assert.Equal(t, []string{"sand", "sand", "sand", "sand", "sand"}, row)
	}
	assert.Empty(t, loaded.World.NPCs)
	assert.NotNil(t, loaded.World.NPCs)
	assert.Empty(t, loaded.World.WorkTasks)
	assert.NotNil(t, loaded.World.WorkTasks)
	assert.Equal(t, GameMetadata{SaveID: "s1", Timestamp: "2024-01-01T00:00:00", PlayTime: 42}, loaded.Metadata)
}

func TestGameState_ToJSONLayout(t *testing.T) {
	gs := &GameState{
		Player: NewPlayer(1, 2, 10),
		World: World{
			Width:  1,
			Height: 1,
			Tiles:  [][]string{{"ground"}},
			NPCs: []NPC{
				{ID: "trader", X: 0, Y: 0, SpriteID: "npc_trader"},
			},
		},
		Metadata: GameMetadata{SaveID: "slot1", Timestamp: "2024-05-01T12:00:00"},
	}

	data, err := gs.ToJSON()
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Len(t, doc, 3)
	assert.Equal(t, "player_default", doc["player"]["sprite_id"])
	assert.Equal(t, []any{}, doc["world"]["work_tasks"], "nil task list should encode as []")

	npcs := doc["world"]["npcs"].([]any)
	require.Len(t, npcs, 1)
	npc := npcs[0].(map[string]any)
	value, ok := npc["dialogue_state"]
	assert.True(t, ok, "dialogue_state must be present")
	assert.Nil(t, value, "absent dialogue_state encodes as null")

	assert.Equal(t, float64(0), doc["metadata"]["play_time"])
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"player\""), "expected indented output, got %s", data)
}

func TestGameState_ToJSONDeterministic(t *testing.T) {
	gs := NewGameState(
		NewPlayer(0, 0, 0),
		NewWorld(3, 2, "desert"),
		NewGameMetadata("det", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	)
	gs.World.NPCs = append(gs.World.NPCs, NPC{ID: "a", SpriteID: "s", DialogueState: strPtr("greeting")})

	first, err := gs.ToJSON()
	require.NoError(t, err)
	second, err := gs.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFromJSON_Defaults(t *testing.T) {
	data := `{
		"player": {"x": 1, "y": 2, "credits": 3},
		"world": {
			"width": 1, "height": 1, "tiles": [["ground"]],
			"npcs": [{"id": "n1", "x": 0, "y": 0, "sprite_id": "npc"}]
		},
		"metadata": {"save_id": "s", "timestamp": "2024-01-01T00:00:00"}
	}`

	gs, err := FromJSON([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, DefaultPlayerSprite, gs.Player.SpriteID)
	require.Len(t, gs.World.NPCs, 1)
	assert.Nil(t, gs.World.NPCs[0].DialogueState)
	assert.Equal(t, []WorkTask{}, gs.World.WorkTasks)
	assert.Equal(t, 0, gs.Metadata.PlayTime)
}

func TestFromJSON_OptionalValues(t *testing.T) {
	data := `{
		"player": {"x": 0, "y": 0, "credits": 0, "sprite_id": "hero"},
		"world": {
			"width": 0, "height": 0, "tiles": [],
			"npcs": [
				{"id": "n1", "x": 1, "y": 1, "sprite_id": "a", "dialogue_state": null},
				{"id": "n2", "x": 2, "y": 2, "sprite_id": "b", "dialogue_state": "quest_offered"}
			],
			"work_tasks": [
				{"id": "t1", "x": 3, "y": 4, "reward": 50},
				{"id": "t2", "x": 5, "y": 6, "reward": 75, "completed": true}
			]
		},
		"metadata": {"save_id": "s", "timestamp": "t", "play_time": 600}
	}`

	gs, err := FromJSON([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "hero", gs.Player.SpriteID)
	assert.Equal(t, [][]string{}, gs.World.Tiles)
	assert.Nil(t, gs.World.NPCs[0].DialogueState)
	require.NotNil(t, gs.World.NPCs[1].DialogueState)
	assert.Equal(t, "quest_offered", *gs.World.NPCs[1].DialogueState)
	assert.False(t, gs.World.WorkTasks[0].Completed)
	assert.True(t, gs.World.WorkTasks[1].Completed)
	assert.Equal(t, 600, gs.Metadata.PlayTime)
}

func TestFromJSON_LooseTileGrid(t *testing.T) {
	// Dimensions disagree with the grid; decode keeps both as given.
	data := `{
		"player": {"x": 0, "y": 0, "credits": 0},
		"world": {"width": 10, "height": 10, "tiles": [["a", "b"], ["c"]]},
		"metadata": {"save_id": "s", "timestamp": "t"}
	}`

	gs, err := FromJSON([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 10, gs.World.Width)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, gs.World.Tiles)
}

func TestFromJSON_Rejects(t *testing.T) {
	valid := func(mutate string) string {
		return strings.NewReplacer(
			"{PLAYER}", `{"x": 0, "y": 0, "credits": 0}`,
			"{WORLD}", `{"width": 1, "height": 1, "tiles": [["g"]]}`,
			"{META}", `{"save_id": "s", "timestamp": "t"}`,
		).Replace(mutate)
	}

	tests := []struct {
		name    string
		input   string
		path    string
		missing bool
		typeErr bool
	}{
		{name: "not json", input: "save file v1"},
		{name: "empty input", input: ""},
		{name: "truncated", input: `{"player": {"x": 1`},
		{name: "top-level array", input: `[1, 2, 3]`, typeErr: true},
		{name: "missing player", input: valid(`{"world": {WORLD}, "metadata": {META}}`), path: "player", missing: true},
		{name: "null player", input: valid(`{"player": null, "world": {WORLD}, "metadata": {META}}`), path: "player", missing: true},
		{name: "missing world", input: valid(`{"player": {PLAYER}, "metadata": {META}}`), path: "world", missing: true},
		{name: "missing metadata", input: valid(`{"player": {PLAYER}, "world": {WORLD}}`), path: "metadata", missing: true},
		{name: "missing player.credits", input: valid(`{"player": {"x": 0, "y": 0}, "world": {WORLD}, "metadata": {META}}`), path: "player.credits", missing: true},
		{name: "missing world.width", input: valid(`{"player": {PLAYER}, "world": {"height": 1, "tiles": []}, "metadata": {META}}`), path: "world.width", missing: true},
		{name: "missing world.height", input: valid(`{"player": {PLAYER}, "world": {"width": 1, "tiles": []}, "metadata": {META}}`), path: "world.height", missing: true},
		{name: "missing world.tiles", input: valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1}, "metadata": {META}}`), path: "world.tiles", missing: true},
		{name: "missing metadata.save_id", input: valid(`{"player": {PLAYER}, "world": {WORLD}, "metadata": {"timestamp": "t"}}`), path: "metadata.save_id", missing: true},
		{name: "missing metadata.timestamp", input: valid(`{"player": {PLAYER}, "world": {WORLD}, "metadata": {"save_id": "s"}}`), path: "metadata.timestamp", missing: true},
		{
			name:    "missing npc sprite",
			input:   valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1, "tiles": [], "npcs": [{"id": "n", "x": 0, "y": 0}]}, "metadata": {META}}`),
			path:    "world.npcs[0].sprite_id",
			missing: true,
		},
		{
			name:    "missing task reward",
			input:   valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1, "tiles": [], "work_tasks": [{"id": "t1", "x": 0, "y": 0, "reward": 1}, {"id": "t2", "x": 0, "y": 0}]}, "metadata": {META}}`),
			path:    "world.work_tasks[1].reward",
			missing: true,
		},
		{name: "string position", input: valid(`{"player": {"x": "3", "y": 0, "credits": 0}, "world": {WORLD}, "metadata": {META}}`), path: "player.x", typeErr: true},
		{name: "fractional credits", input: valid(`{"player": {"x": 0, "y": 0, "credits": 1.5}, "world": {WORLD}, "metadata": {META}}`), path: "player.credits", typeErr: true},
		{name: "numeric completed", input: valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1, "tiles": [], "work_tasks": [{"id": "t", "x": 0, "y": 0, "reward": 1, "completed": 1}]}, "metadata": {META}}`), typeErr: true},
		{name: "tiles not a grid", input: valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1, "tiles": ["g"]}, "metadata": {META}}`), typeErr: true},
		{name: "null tile id", input: valid(`{"player": {PLAYER}, "world": {"width": 2, "height": 1, "tiles": [["a", null]]}, "metadata": {META}}`), path: "world.tiles[0][1]", typeErr: true},
		{name: "null tile row", input: valid(`{"player": {PLAYER}, "world": {"width": 1, "height": 1, "tiles": [null]}, "metadata": {META}}`), path: "world.tiles[0]", typeErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs, err := FromJSON([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, gs, "no partial state on failure")

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected *DecodeError, got %T", err)
			if tt.path != "" {
				assert.Equal(t, tt.path, decodeErr.Path)
			}
			assert.Equal(t, tt.missing, errors.Is(err, ErrMissingField))
			if tt.typeErr {
				var typeErr *json.UnmarshalTypeError
				assert.True(t, errors.As(err, &typeErr), "expected a type mismatch, got %v", err)
			}
		})
	}
}

func TestFromJSON_IgnoresUnknownKeys(t *testing.T) {
	data := `{
		"version": 2,
		"player": {"x": 0, "y": 0, "credits": 0, "hp": 10},
		"world": {"width": 1, "height": 1, "tiles": [["g"]]},
		"metadata": {"save_id": "s", "timestamp": "t"}
	}`

	_, err := FromJSON([]byte(data))
	assert.NoError(t, err)
}

func TestFromJSONStrict(t *testing.T) {
	base := `{
		"player": {"x": 0, "y": 0, "credits": 0},
		"world": {"width": 1, "height": 1, "tiles": [["g"]]},
		"metadata": {"save_id": "s", "timestamp": "t"}
	}`

	t.Run("accepts a clean document", func(t *testing.T) {
		_, err := FromJSONStrict([]byte(base))
		assert.NoError(t, err)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		data := strings.Replace(base, `"credits": 0`, `"credits": 0, "hp": 10`, 1)
		_, err := FromJSONStrict([]byte(data))
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, err.Error(), "hp")
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		_, err := FromJSONStrict([]byte(base + ` {}`))
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	})

	t.Run("still reports missing keys", func(t *testing.T) {
		data := strings.Replace(base, `"save_id": "s", `, "", 1)
		_, err := FromJSONStrict([]byte(data))
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("rejects null tiles", func(t *testing.T) {
		data := strings.Replace(base, `[["g"]]`, `[["g", null]]`, 1)
		_, err := FromJSONStrict([]byte(data))
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, "world.tiles[0][1]", decodeErr.Path)
	})
}

func TestGameState_EmbeddedInDocument(t *testing.T) {
	type envelope struct {
		Slot  int        `json:"slot"`
		State *GameState `json:"state"`
	}

	gs := NewGameState(NewPlayer(4, 5, 6), NewWorld(2, 2, "rock"), GameMetadata{SaveID: "e", Timestamp: "t"})
	data, err := json.Marshal(envelope{Slot: 1, State: gs})
	require.NoError(t, err)

	var out envelope
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, gs, out.State)

	err = json.Unmarshal([]byte(`{"slot": 1, "state": {"player": {}}}`), &out)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Path: "world.width", Err: ErrMissingField}
	assert.Equal(t, "decode world.width: missing required field", err.Error())

	err = &DecodeError{Err: errors.New("boom")}
	assert.Equal(t, "decode: boom", err.Error())
}
