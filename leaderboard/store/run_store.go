// leaderboard/store/run_store.go
package store

import (
	"context"
	"fmt"

	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunStore is the MongoDB data store for the immutable run history. It only
// ever inserts and reads; runs are never updated or deleted.
type RunStore struct {
	collection *mongo.Collection
}

// NewRunStore creates a new RunStore instance.
func NewRunStore(collection *mongo.Collection) *RunStore {
	return &RunStore{
		collection: collection,
	}
}

// EnsureIndexes creates the indexes the ranking pipeline and the rebuild
// path rely on.
func (rs *RunStore) EnsureIndexes(ctx context.Context) error {
	_, err := rs.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "playerId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "game", Value: 1}, {Key: "score", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create run indexes: %w", err)
	}
	return nil
}

// AppendRun inserts a new run document into the history.
func (rs *RunStore) AppendRun(ctx context.Context, run *models.Run) error {
	if _, err := rs.collection.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to append run for player %s: %w", run.PlayerID, err)
	}
	return nil
}

// ListPlayerRuns returns a player's full history ordered by creation time,
// the input order the aggregate rebuild expects.
func (rs *RunStore) ListPlayerRuns(ctx context.Context, playerID string) ([]*models.Run, error) {
	filter := bson.M{"playerId": playerID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := rs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for player %s: %w", playerID, err)
	}
	defer cursor.Close(ctx)

	var runs []*models.Run
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs for player %s: %w", playerID, err)
	}
	return runs, nil
}

// AggregateGameRanking derives the per-game leaderboard from the run history.
// The aggregate's per-game slot only retains the best score, not the (score,
// time) pair achieved together in one run, so a faithful per-game ranking has
// to come from the history. Candidate runs are ordered score desc, time asc,
// createdAt asc (earliest achiever wins full ties), grouped down to each
// player's best-ranked run, then re-sorted: $group does not guarantee output
// order, and the ranking must be deterministic.
func (rs *RunStore) AggregateGameRanking(ctx context.Context, game string, limit int) ([]*models.LeaderboardRow, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "game", Value: game}}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: -1},
			{Key: "time", Value: 1},
			{Key: "createdAt", Value: 1},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$playerId"},
			{Key: "name", Value: bson.D{{Key: "$first", Value: "$name"}}},
			{Key: "bestScore", Value: bson.D{{Key: "$first", Value: "$score"}}},
			{Key: "bestTime", Value: bson.D{{Key: "$first", Value: "$time"}}},
			{Key: "updatedAt", Value: bson.D{{Key: "$first", Value: "$createdAt"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "bestScore", Value: -1},
			{Key: "bestTime", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "playerId", Value: "$_id"},
			{Key: "name", Value: 1},
			{Key: "bestScore", Value: 1},
			{Key: "bestTime", Value: 1},
			{Key: "updatedAt", Value: 1},
			{Key: "game", Value: bson.D{{Key: "$literal", Value: game}}},
		}}},
	}

	cursor, err := rs.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error running game ranking aggregation for %s: %w", game, err)
	}
	defer cursor.Close(ctx)

	var rows []*models.LeaderboardRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding game ranking rows for %s: %w", game, err)
	}
	return rows, nil
}
