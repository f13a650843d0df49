package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// ErrMissingField is wrapped by a DecodeError when a required key is
// absent or null.
var ErrMissingField = errors.New("missing required field")

// DecodeError is the only error returned when a document cannot be
// decoded: malformed JSON, a missing required key, or a value of the wrong
// JSON type. Path is the dotted key path of the failing field when known.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missing(path string) error {
	return &DecodeError{Path: path, Err: ErrMissingField}
}

// required dereferences v or reports path as missing.
func required[T any](path string, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, missing(path)
	}
	return *v, nil
}

// optional dereferences v or falls back to def.
func optional[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// nullValue reports a JSON null where a non-nullable value was expected.
func nullValue(path string, t reflect.Type) error {
	return &DecodeError{Path: path, Err: &json.UnmarshalTypeError{Value: "null", Type: t}}
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// unmarshal decodes data into dst and converts every failure into a
// DecodeError. With strict set, unknown keys and trailing values are
// rejected.
func unmarshal(data []byte, dst any, strict bool) error {
	var err error
	if strict {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(dst)
		if err == nil {
			if _, tokErr := dec.Token(); tokErr != io.EOF {
				err = errors.New("unexpected data after top-level value")
			}
		}
	} else {
		err = json.Unmarshal(data, dst)
	}
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{Path: typeErr.Field, Err: err}
	}
	return &DecodeError{Err: err}
}

// Wire shapes. Every field is a pointer (or a nil-able slice) so the
// decode path can tell an absent key from a zero value and apply the
// documented defaults explicitly.

type wireGameState struct {
	Player   *wirePlayer   `json:"player"`
	World    *wireWorld    `json:"world"`
	Metadata *wireMetadata `json:"metadata"`
}

type wirePlayer struct {
	X        *int    `json:"x"`
	Y        *int    `json:"y"`
	Credits  *int    `json:"credits"`
	SpriteID *string `json:"sprite_id"`
}

type wireWorld struct {
	Width     *int           `json:"width"`
	Height    *int           `json:"height"`
	Tiles     []*[]*string   `json:"tiles"`
	NPCs      []wireNPC      `json:"npcs"`
	WorkTasks []wireWorkTask `json:"work_tasks"`
}

type wireNPC struct {
	ID            *string `json:"id"`
	X             *int    `json:"x"`
	Y             *int    `json:"y"`
	SpriteID      *string `json:"sprite_id"`
	DialogueState *string `json:"dialogue_state"`
}

type wireWorkTask struct {
	ID        *string `json:"id"`
	X         *int    `json:"x"`
	Y         *int    `json:"y"`
	Reward    *int    `json:"reward"`
	Completed *bool   `json:"completed"`
}

type wireMetadata struct {
	SaveID    *string `json:"save_id"`
	Timestamp *string `json:"timestamp"`
	PlayTime  *int    `json:"play_time"`
}

func (w *wireGameState) gameState() (*GameState, error) {
	if w.Player == nil {
		return nil, missing("player")
	}
	player, err := w.Player.player("player")
	if err != nil {
		return nil, err
	}
	if w.World == nil {
		return nil, missing("world")
	}
	world, err := w.World.world("world")
	if err != nil {
		return nil, err
	}
	if w.Metadata == nil {
		return nil, missing("metadata")
	}
	metadata, err := w.Metadata.metadata("metadata")
	if err != nil {
		return nil, err
	}
	return &GameState{Player: player, World: world, Metadata: metadata}, nil
}

func (w *wirePlayer) player(path string) (p Player, err error) {
	if p.X, err = required(path+".x", w.X); err != nil {
		return Player{}, err
	}
	if p.Y, err = required(path+".y", w.Y); err != nil {
		return Player{}, err
	}
	if p.Credits, err = required(path+".credits", w.Credits); err != nil {
		return Player{}, err
	}
	p.SpriteID = optional(w.SpriteID, DefaultPlayerSprite)
	return p, nil
}

func (w *wireWorld) world(path string) (World, error) {
	var out World
	var err error
	if out.Width, err = required(path+".width", w.Width); err != nil {
		return World{}, err
	}
	if out.Height, err = required(path+".height", w.Height); err != nil {
		return World{}, err
	}
	if w.Tiles == nil {
		return World{}, missing(path + ".tiles")
	}
	if out.Tiles, err = tileGrid(path+".tiles", w.Tiles); err != nil {
		return World{}, err
	}

	out.NPCs = make([]NPC, 0, len(w.NPCs))
	for i := range w.NPCs {
		npc, err := w.NPCs[i].npc(indexPath(path+".npcs", i))
		if err != nil {
			return World{}, err
		}
		out.NPCs = append(out.NPCs, npc)
	}

	out.WorkTasks = make([]WorkTask, 0, len(w.WorkTasks))
	for i := range w.WorkTasks {
		task, err := w.WorkTasks[i].workTask(indexPath(path+".work_tasks", i))
		if err != nil {
			return World{}, err
		}
		out.WorkTasks = append(out.WorkTasks, task)
	}
	return out, nil
}

// tileGrid rejects null rows and null tile IDs, which plain [][]string
// decoding would turn into nil rows and empty strings.
func tileGrid(path string, rows []*[]*string) ([][]string, error) {
	out := make([][]string, len(rows))
	for i, row := range rows {
		rowPath := indexPath(path, i)
		if row == nil {
			return nil, nullValue(rowPath, reflect.TypeFor[[]string]())
		}
		out[i] = make([]string, len(*row))
		for j, id := range *row {
			if id == nil {
				return nil, nullValue(indexPath(rowPath, j), reflect.TypeFor[string]())
			}
			out[i][j] = *id
		}
	}
	return out, nil
}

func (w *wireNPC) npc(path string) (n NPC, err error) {
	if n.ID, err = required(path+".id", w.ID); err != nil {
		return NPC{}, err
	}
	if n.X, err = required(path+".x", w.X); err != nil {
		return NPC{}, err
	}
	if n.Y, err = required(path+".y", w.Y); err != nil {
		return NPC{}, err
	}
	if n.SpriteID, err = required(path+".sprite_id", w.SpriteID); err != nil {
		return NPC{}, err
	}
	n.DialogueState = w.DialogueState
	return n, nil
}

func (w *wireWorkTask) workTask(path string) (t WorkTask, err error) {
	if t.ID, err = required(path+".id", w.ID); err != nil {
		return WorkTask{}, err
	}
	if t.X, err = required(path+".x", w.X); err != nil {
		return WorkTask{}, err
	}
	if t.Y, err = required(path+".y", w.Y); err != nil {
		return WorkTask{}, err
	}
	if t.Reward, err = required(path+".reward", w.Reward); err != nil {
		return WorkTask{}, err
	}
	t.Completed = optional(w.Completed, false)
	return t, nil
}

func (w *wireMetadata) metadata(path string) (m GameMetadata, err error) {
	if m.SaveID, err = required(path+".save_id", w.SaveID); err != nil {
		return GameMetadata{}, err
	}
	if m.Timestamp, err = required(path+".timestamp", w.Timestamp); err != nil {
		return GameMetadata{}, err
	}
	m.PlayTime = optional(w.PlayTime, 0)
	return m, nil
}
