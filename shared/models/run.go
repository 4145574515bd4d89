package models

import (
	"time"
)

// Run is one immutable record of a single completed game attempt. Runs are
// append-only: they are never mutated or deleted, and they are the source of
// truth for per-game historical ranking.
type Run struct {
	ID        string    `bson:"_id" json:"id"`
	PlayerID  string    `bson:"playerId" json:"playerId"`
	Name      string    `bson:"name" json:"name"`
	Score     float64   `bson:"score" json:"score"`
	Time      float64   `bson:"time" json:"time"` // seconds; 0 = no time recorded
	Level     int       `bson:"level" json:"level"`
	Game      string    `bson:"game" json:"game"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
