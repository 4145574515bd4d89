package models

import (
	"time"
)

// Player is the mutable best-record aggregate, one document per distinct
// playerId. It is created lazily on a player's first run submission, mutated
// in place on every later one, and never deleted. It is a denormalized cache
// over the run history: the history stays authoritative and the aggregate can
// always be rebuilt from it.
//
// BestScores holds one slot per supported game tag, keyed by tag, so the set
// of games is configuration rather than schema.
type Player struct {
	PlayerID   string             `bson:"_id" json:"playerId"`
	Name       string             `bson:"name" json:"name"`
	BestScore  float64            `bson:"bestScore" json:"bestScore"`
	BestScores map[string]float64 `bson:"bestScores" json:"bestScores"`
	BestTime   float64            `bson:"bestTime" json:"bestTime"` // 0 = no time on record
	LastLevel  int                `bson:"lastLevel" json:"lastLevel"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LeaderboardRow is one projected ranking entry. In global scope the fields
// come from the Player aggregate; in per-game scope they come from the single
// winning Run of that player.
type LeaderboardRow struct {
	PlayerID  string    `bson:"playerId" json:"playerId"`
	Name      string    `bson:"name" json:"name"`
	BestScore float64   `bson:"bestScore" json:"bestScore"`
	BestTime  float64   `bson:"bestTime" json:"bestTime"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Game      string    `bson:"game,omitempty" json:"game,omitempty"`
}
