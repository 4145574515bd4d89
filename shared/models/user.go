package models

import (
	"time"
)

// User is an authentication account, independent of gameplay data. Created
// once at registration, read at login, never mutated.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
