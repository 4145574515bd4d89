// leaderboard/service/leaderboard_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/playhive/leaderboard-service/leaderboard/cache"
	"github.com/playhive/leaderboard-service/leaderboard/store"
	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// DefaultLimit applies when the limit parameter is absent or unparsable.
	DefaultLimit = 10
	// MinLimit and MaxLimit bound the limit parameter.
	MinLimit = 1
	MaxLimit = 100
)

// Leaderboard scopes
const (
	ScopeGlobal = "global"
	ScopeByGame = "by-game"
)

// ParseLimit parses a raw limit query parameter, defaulting and clamping it
// into [MinLimit, MaxLimit].
func ParseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LeaderboardPage is one computed ranking plus the scope it was computed
// under.
type LeaderboardPage struct {
	Scope string
	Game  string
	Rows  []*models.LeaderboardRow
}

// LeaderboardService serves ranking queries and player summaries.
//
// Two strategies, by scope: the global ranking reads the aggregates directly
// (O(1) per row, no history scan), while a per-game ranking is derived from
// the run history because the aggregate's per-game slot keeps only the best
// score, not the (score, time) pair achieved together in a single run.
type LeaderboardService struct {
	runs    *store.RunStore
	players *store.PlayerStore
	games   *GameCatalog
	cache   *cache.LeaderboardCache
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(rs *store.RunStore, ps *store.PlayerStore, games *GameCatalog, lc *cache.LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{
		runs:    rs,
		players: ps,
		games:   games,
		cache:   lc,
	}
}

// GetLeaderboard computes the ranking for the requested scope. A recognized
// game tag selects the per-game scope; anything else falls back to global.
// The limit must already be clamped (see ParseLimit).
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, gameParam string, limit int) (*LeaderboardPage, error) {
	if game, ok := s.games.Resolve(gameParam); ok {
		rows, err := s.runs.AggregateGameRanking(ctx, game, limit)
		if err != nil {
			return nil, fmt.Errorf("service failed to rank game %s: %w", game, err)
		}
		return &LeaderboardPage{Scope: ScopeByGame, Game: game, Rows: rows}, nil
	}

	if rows, ok := s.cache.GetGlobal(ctx, limit); ok {
		return &LeaderboardPage{Scope: ScopeGlobal, Rows: rows}, nil
	}

	rows, err := s.players.AggregateGlobalRanking(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service failed to rank globally: %w", err)
	}
	s.cache.SetGlobal(ctx, limit, rows)
	return &LeaderboardPage{Scope: ScopeGlobal, Rows: rows}, nil
}

// GetPlayer returns one player's aggregate summary.
func (s *LeaderboardService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	player, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to get player %s: %w", playerID, err)
	}
	return player, nil
}
