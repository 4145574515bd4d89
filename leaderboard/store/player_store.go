// leaderboard/store/player_store.go
package store

import (
	"context"
	"fmt"
	"math"

	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlayerStore is the MongoDB data store for the per-player best-record
// aggregates. The playerId doubles as the document _id, so uniqueness per
// player comes from the primary key.
type PlayerStore struct {
	collection *mongo.Collection
}

// NewPlayerStore creates a new PlayerStore instance.
func NewPlayerStore(collection *mongo.Collection) *PlayerStore {
	return &PlayerStore{
		collection: collection,
	}
}

// EnsureIndexes creates the compound index the global ranking sorts on.
func (ps *PlayerStore) EnsureIndexes(ctx context.Context) error {
	_, err := ps.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bestScore", Value: -1}, {Key: "bestTime", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create player indexes: %w", err)
	}
	return nil
}

// GetPlayer retrieves an aggregate by playerId.
func (ps *PlayerStore) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	var player models.Player
	filter := bson.M{"_id": playerID}
	if err := ps.collection.FindOne(ctx, filter).Decode(&player); err != nil {
		return nil, err // mongo.ErrNoDocuments when absent
	}
	return &player, nil
}

// UpsertPlayer writes a reconciled aggregate back, creating the document on
// a player's first submission. Read-then-upsert is not serialized across
// concurrent submissions for the same player; a lost update here is accepted
// because the run history stays authoritative and the aggregate is
// rebuildable from it.
func (ps *PlayerStore) UpsertPlayer(ctx context.Context, player *models.Player) error {
	filter := bson.M{"_id": player.PlayerID}
	opts := options.Replace().SetUpsert(true)
	if _, err := ps.collection.ReplaceOne(ctx, filter, player, opts); err != nil {
		return fmt.Errorf("failed to upsert aggregate for player %s: %w", player.PlayerID, err)
	}
	return nil
}

// AggregateGlobalRanking reads the global leaderboard straight off the
// aggregates: bestScore desc, ties broken by bestTime asc. A bestTime of 0
// means "no time on record", not "instant", so zero entries are given a
// +Inf sort key and land after every positive time.
func (ps *PlayerStore) AggregateGlobalRanking(ctx context.Context, limit int) ([]*models.LeaderboardRow, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "timeRank", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$bestTime", 0}}},
				"$bestTime",
				math.MaxFloat64,
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "bestScore", Value: -1},
			{Key: "timeRank", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "playerId", Value: "$_id"},
			{Key: "name", Value: 1},
			{Key: "bestScore", Value: 1},
			{Key: "bestTime", Value: 1},
			{Key: "updatedAt", Value: 1},
		}}},
	}

	cursor, err := ps.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error running global ranking aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*models.LeaderboardRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding global ranking rows: %w", err)
	}
	return rows, nil
}
