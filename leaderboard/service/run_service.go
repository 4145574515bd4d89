// leaderboard/service/run_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playhive/leaderboard-service/leaderboard/cache"
	"github.com/playhive/leaderboard-service/leaderboard/store"
	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Custom errors for clear communication to the API layer
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RunSubmission is a validated, not-yet-normalized run submission.
type RunSubmission struct {
	PlayerID string
	Name     string
	Score    float64
	Time     float64
	Level    int
	Game     string
}

// RunService ingests run submissions: it appends each run to the immutable
// history and folds it into the player's best-record aggregate.
type RunService struct {
	runs    *store.RunStore
	players *store.PlayerStore
	games   *GameCatalog
	cache   *cache.LeaderboardCache
}

// NewRunService creates a new RunService instance.
func NewRunService(rs *store.RunStore, ps *store.PlayerStore, games *GameCatalog, lc *cache.LeaderboardCache) *RunService {
	return &RunService{
		runs:    rs,
		players: ps,
		games:   games,
		cache:   lc,
	}
}

// SubmitRun records a run and reconciles the player's aggregate, returning
// the aggregate as written.
//
// The history append must succeed before any aggregate mutation is
// attempted. The two writes are not atomic with each other: a failure in
// between leaves a run with no aggregate update, which is accepted — the
// history is authoritative and RebuildAggregate recovers the aggregate from
// it. Concurrent submissions for the same player are likewise not
// serialized; see UpsertPlayer.
func (s *RunService) SubmitRun(ctx context.Context, sub RunSubmission) (*models.Player, error) {
	now := time.Now().UTC()
	run := &models.Run{
		ID:        uuid.NewString(),
		PlayerID:  sub.PlayerID,
		Name:      sub.Name,
		Score:     sub.Score,
		Time:      sub.Time,
		Level:     sub.Level,
		Game:      s.games.Normalize(sub.Game),
		CreatedAt: now,
	}

	if err := s.runs.AppendRun(ctx, run); err != nil {
		return nil, fmt.Errorf("service failed to append run: %w", err)
	}

	player, err := s.players.GetPlayer(ctx, sub.PlayerID)
	switch {
	case err == nil:
		models.Reconcile(player, run, now)
	case errors.Is(err, mongo.ErrNoDocuments):
		player = models.NewPlayerFromRun(run, s.games.Tags())
	default:
		return nil, fmt.Errorf("service failed to load aggregate for player %s: %w", sub.PlayerID, err)
	}

	if err := s.players.UpsertPlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("service failed to reconcile player %s: %w", sub.PlayerID, err)
	}

	s.cache.Invalidate(ctx)
	return player, nil
}

// RebuildAggregate recomputes a player's aggregate from scratch by replaying
// their full run history. This is the documented recovery path for the
// accepted run-append/aggregate-update non-atomicity.
func (s *RunService) RebuildAggregate(ctx context.Context, playerID string) (*models.Player, error) {
	runs, err := s.runs.ListPlayerRuns(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("service failed to load history for player %s: %w", playerID, err)
	}

	player := models.ReplayRuns(runs, s.games.Tags())
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	if err := s.players.UpsertPlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("service failed to store rebuilt aggregate for player %s: %w", playerID, err)
	}

	s.cache.Invalidate(ctx)
	return player, nil
}
