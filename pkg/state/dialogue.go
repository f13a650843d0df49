package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DialogueChoice is one option offered at a dialogue node.
type DialogueChoice struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	NextNodeID *string `json:"next_node_id"` // nil ends the conversation
	Action     *string `json:"action"`
}

// DialogueNode is a node in a dialogue tree.
type DialogueNode struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Choices []DialogueChoice `json:"choices"`
}

type dialogueNodeDocument DialogueNode

// MarshalJSON encodes a nil choice list as [].
func (n DialogueNode) MarshalJSON() ([]byte, error) {
	doc := dialogueNodeDocument(n)
	if doc.Choices == nil {
		doc.Choices = []DialogueChoice{}
	}
	return json.Marshal(doc)
}

type wireDialogueNode struct {
	ID      *string              `json:"id"`
	Text    *string              `json:"text"`
	Choices []wireDialogueChoice `json:"choices"`
}

// NextNodeID must be present even when null, so it is kept raw to tell
// the two apart.
type wireDialogueChoice struct {
	ID         *string         `json:"id"`
	Text       *string         `json:"text"`
	NextNodeID json.RawMessage `json:"next_node_id"`
	Action     *string         `json:"action"`
}

// DecodeDialogueNode decodes a dialogue node document. choices defaults to
// an empty list; every choice must carry next_node_id, possibly null.
func DecodeDialogueNode(data []byte) (DialogueNode, error) {
	var w wireDialogueNode
	if err := unmarshal(data, &w, false); err != nil {
		return DialogueNode{}, err
	}

	var node DialogueNode
	var err error
	if node.ID, err = required("id", w.ID); err != nil {
		return DialogueNode{}, err
	}
	if node.Text, err = required("text", w.Text); err != nil {
		return DialogueNode{}, err
	}
	node.Choices = make([]DialogueChoice, 0, len(w.Choices))
	for i := range w.Choices {
		choice, err := w.Choices[i].choice(indexPath("choices", i))
		if err != nil {
			return DialogueNode{}, err
		}
		node.Choices = append(node.Choices, choice)
	}
	return node, nil
}

func (w *wireDialogueChoice) choice(path string) (c DialogueChoice, err error) {
	if c.ID, err = required(path+".id", w.ID); err != nil {
		return DialogueChoice{}, err
	}
	if c.Text, err = required(path+".text", w.Text); err != nil {
		return DialogueChoice{}, err
	}
	if w.NextNodeID == nil {
		return DialogueChoice{}, missing(path + ".next_node_id")
	}
	if !bytes.Equal(w.NextNodeID, []byte("null")) {
		var next string
		if err := json.Unmarshal(w.NextNodeID, &next); err != nil {
			return DialogueChoice{}, &DecodeError{
				Path: path + ".next_node_id",
				Err:  fmt.Errorf("expected string or null: %w", err),
			}
		}
		c.NextNodeID = &next
	}
	c.Action = w.Action
	return c, nil
}

type wireTile struct {
	ID          *string `json:"id"`
	Type        *string `json:"type"`
	Walkable    *bool   `json:"walkable"`
	SpriteIndex *int    `json:"sprite_index"`
}

// DecodeTile decodes a tile catalog entry. All four keys are required.
func DecodeTile(data []byte) (t Tile, err error) {
	var w wireTile
	if err := unmarshal(data, &w, false); err != nil {
		return Tile{}, err
	}
	if t.ID, err = required("id", w.ID); err != nil {
		return Tile{}, err
	}
	if t.Type, err = required("type", w.Type); err != nil {
		return Tile{}, err
	}
	if t.Walkable, err = required("walkable", w.Walkable); err != nil {
		return Tile{}, err
	}
	if t.SpriteIndex, err = required("sprite_index", w.SpriteIndex); err != nil {
		return Tile{}, err
	}
	return t, nil
}
