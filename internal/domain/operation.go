package domain

import "time"

// Known game names. Exactly one operation flag exists per game; both are
// seeded at initialization.
const (
	GameMines   = "mines"
	GameAviator = "aviator"
)

// Games lists every known game name.
var Games = []string{GameMines, GameAviator}

// OperationFlag marks whether a game's signal generation is currently live.
type OperationFlag struct {
	Name        string    `bson:"name" json:"name"`
	Active      bool      `bson:"active" json:"active"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
