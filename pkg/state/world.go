package state

// Known tile types. Tile.Type is a free string; these are the values the
// game ships with.
const (
	TileTypeGround    = "ground"
	TileTypeDesert    = "desert"
	TileTypeStructure = "structure"
)

// NPC is a non-player character placed in the world.
type NPC struct {
	ID            string  `json:"id"`
	X             int     `json:"x"`
	Y             int     `json:"y"`
	SpriteID      string  `json:"sprite_id"`
	DialogueState *string `json:"dialogue_state"` // nil when the NPC has no active dialogue
}

// WorkTask is a job the player can complete for credits.
type WorkTask struct {
	ID        string `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Reward    int    `json:"reward"`
	Completed bool   `json:"completed"`
}

// Tile is a tile catalog entry. World stores tile IDs, not Tile records.
type Tile struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Walkable    bool   `json:"walkable"`
	SpriteIndex int    `json:"sprite_index"`
}

// World is the map plus everything placed on it.
// Tiles is indexed [row][column]; its dimensions are expected to match
// Height and Width but are not checked.
type World struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Tiles     [][]string `json:"tiles"`
	NPCs      []NPC      `json:"npcs"`
	WorkTasks []WorkTask `json:"work_tasks"`
}

// NewWorld returns a width x height world with every tile set to fill.
func NewWorld(width, height int, fill string) World {
	tiles := make([][]string, height)
	for y := range tiles {
		row := make([]string, width)
		for x := range row {
			row[x] = fill
		}
		tiles[y] = row
	}
	return World{
		Width:     width,
		Height:    height,
		Tiles:     tiles,
		NPCs:      []NPC{},
		WorkTasks: []WorkTask{},
	}
}

// normalized returns a copy whose slices are non-nil so they encode as []
// rather than null.
func (w World) normalized() World {
	out := w
	out.Tiles = make([][]string, len(w.Tiles))
	for i, row := range w.Tiles {
		if row == nil {
			row = []string{}
		}
		out.Tiles[i] = row
	}
	if out.NPCs == nil {
		out.NPCs = []NPC{}
	}
	if out.WorkTasks == nil {
		out.WorkTasks = []WorkTask{}
	}
	return out
}

// TileCounts returns how many cells of the grid hold each tile ID.
func (w World) TileCounts() map[string]int {
	counts := make(map[string]int)
	for _, row := range w.Tiles {
		for _, id := range row {
			counts[id]++
		}
	}
	return counts
}
