// shared/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LeaderboardServiceConfig holds all configuration for the leaderboard service.
type LeaderboardServiceConfig struct {
	ListenAddr string // Address for the HTTP server to listen on (e.g., ":8080")

	MongoDBConnStr           string // MongoDB connection string
	MongoDBDatabase          string // MongoDB database name
	MongoDBRunsCollection    string // Collection holding the immutable run history
	MongoDBPlayersCollection string // Collection holding the per-player best-record aggregates
	MongoDBUsersCollection   string // Collection holding auth users

	RedisAddr           string        // Redis address for the leaderboard cache; empty disables caching
	RedisPassword       string        // Redis password for authentication
	LeaderboardCacheTTL time.Duration // How long a cached global leaderboard stays fresh

	SupportedGames []string // The open, config-versioned list of game tags
	DefaultGame    string   // Tag adopted when a submission carries no recognized game

	JWTSecret  string        // HMAC secret for signing login tokens
	JWTTTL     time.Duration // Lifetime of an issued login token
	BcryptCost int           // Work factor for password hashing

	CORSAllowedOrigins []string // Origin allow-list; "*" allows any origin
	RequireAuth        bool     // When true, write routes demand a valid bearer token
}

// LoadLeaderboardServiceConfig loads configuration from environment variables.
func LoadLeaderboardServiceConfig() (*LeaderboardServiceConfig, error) {
	cfg := &LeaderboardServiceConfig{
		ListenAddr:               os.Getenv("LISTEN_ADDR"),
		MongoDBConnStr:           os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:          os.Getenv("MONGODB_DATABASE"),
		MongoDBRunsCollection:    os.Getenv("MONGODB_RUNS_COLLECTION"),
		MongoDBPlayersCollection: os.Getenv("MONGODB_PLAYERS_COLLECTION"),
		MongoDBUsersCollection:   os.Getenv("MONGODB_USERS_COLLECTION"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		DefaultGame:              strings.ToLower(os.Getenv("DEFAULT_GAME")),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "leaderboard"
	}
	if cfg.MongoDBRunsCollection == "" {
		cfg.MongoDBRunsCollection = "runs"
	}
	if cfg.MongoDBPlayersCollection == "" {
		cfg.MongoDBPlayersCollection = "players"
	}
	if cfg.MongoDBUsersCollection == "" {
		cfg.MongoDBUsersCollection = "users"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "secreto123"
		fmt.Println("WARNING: JWT_SECRET not set, using insecure default")
	}
	if cfg.DefaultGame == "" {
		cfg.DefaultGame = "disparando"
	}

	cfg.SupportedGames = getList("SUPPORTED_GAMES", []string{"disparando", "snake", "crush"})
	for i, game := range cfg.SupportedGames {
		cfg.SupportedGames[i] = strings.ToLower(game)
	}

	cfg.CORSAllowedOrigins = getList("CORS_ALLOWED_ORIGINS", []string{"*"})

	var err error
	cfg.LeaderboardCacheTTL, err = getDuration("LEADERBOARD_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL, err = getDuration("JWT_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.BcryptCost, err = getInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	cfg.RequireAuth, err = getBool("REQUIRE_AUTH", false)
	if err != nil {
		return nil, err
	}

	// The default game must be one of the supported tags, otherwise the
	// unknown-game fallback would itself produce an unknown tag.
	supported := false
	for _, game := range cfg.SupportedGames {
		if game == cfg.DefaultGame {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("DEFAULT_GAME %q is not in SUPPORTED_GAMES %v", cfg.DefaultGame, cfg.SupportedGames)
	}

	return cfg, nil
}

// Helper function to parse a duration from an environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse an int from an environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// Helper function to parse a bool from an environment variable
func getBool(envKey string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format for %s: %w", envKey, err)
	}
	return b, nil
}

// Helper function to parse a comma-separated list from an environment variable
func getList(envKey string, defaultVal []string) []string {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal
	}
	var vals []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return defaultVal
	}
	return vals
}
