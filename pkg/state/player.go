package state

// DefaultPlayerSprite is used when a save omits player.sprite_id.
const DefaultPlayerSprite = "player_default"

// Player is the player character's position and wallet.
type Player struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Credits  int    `json:"credits"`
	SpriteID string `json:"sprite_id"`
}

// NewPlayer returns a player at (x, y) using the default sprite.
func NewPlayer(x, y, credits int) Player {
	return Player{
		X:        x,
		Y:        y,
		Credits:  credits,
		SpriteID: DefaultPlayerSprite,
	}
}
