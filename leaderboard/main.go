// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	leaderboardapi "github.com/playhive/leaderboard-service/leaderboard/api"
	"github.com/playhive/leaderboard-service/leaderboard/auth"
	"github.com/playhive/leaderboard-service/leaderboard/cache"
	"github.com/playhive/leaderboard-service/leaderboard/service"
	"github.com/playhive/leaderboard-service/leaderboard/store"
	"github.com/playhive/leaderboard-service/shared/api"
	"github.com/playhive/leaderboard-service/shared/config"
	mongodbu "github.com/playhive/leaderboard-service/shared/mongodb"
	redisu "github.com/playhive/leaderboard-service/shared/redis"
	redisdrv "github.com/redis/go-redis/v9"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadLeaderboardServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("ERROR: Failed to disconnect from MongoDB: %v", err)
		}
	}()

	// --- 3. Connect to Redis (optional leaderboard cache) ---
	var redisClient *redisdrv.Client
	if cfg.RedisAddr != "" {
		redisClient, err = redisu.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("ERROR: Closing Redis client: %v", err)
			}
		}()
	} else {
		log.Println("INFO: REDIS_ADDR not set, leaderboard caching disabled.")
	}

	// --- 4. Initialize Data Stores ---
	runStore := store.NewRunStore(mongoClient.Collection(cfg.MongoDBRunsCollection))
	playerStore := store.NewPlayerStore(mongoClient.Collection(cfg.MongoDBPlayersCollection))
	userStore := store.NewUserStore(mongoClient.Collection(cfg.MongoDBUsersCollection))

	// --- 5. Ensure Indexes Exist ---
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer indexCancel()
	if err := runStore.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to ensure run indexes: %v", err)
	}
	if err := playerStore.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to ensure player indexes: %v", err)
	}
	if err := userStore.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to ensure user indexes: %v", err)
	}

	// --- 6. Initialize Business Logic Services ---
	games, err := service.NewGameCatalog(cfg.SupportedGames, cfg.DefaultGame)
	if err != nil {
		log.Fatalf("Invalid game configuration: %v", err)
	}
	leaderboardCache := cache.NewLeaderboardCache(redisClient, cfg.LeaderboardCacheTTL)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	passwordHasher := auth.NewPasswordHasher(cfg.BcryptCost)

	runService := service.NewRunService(runStore, playerStore, games, leaderboardCache)
	leaderboardService := service.NewLeaderboardService(runStore, playerStore, games, leaderboardCache)
	authService := service.NewAuthService(userStore, passwordHasher, tokenManager)

	// --- 7. Initialize API Handlers ---
	handlers := leaderboardapi.NewLeaderboardAPIHandlers(runService, leaderboardService, authService, mongoClient)

	// --- 8. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, cfg.CORSAllowedOrigins, log.Default())
	var writeAuth mux.MiddlewareFunc
	if cfg.RequireAuth {
		log.Println("INFO: REQUIRE_AUTH enabled, write routes demand a bearer token.")
		writeAuth = leaderboardapi.AuthMiddleware(tokenManager)
	}
	handlers.RegisterRoutes(baseServer.Router, writeAuth)

	// --- 9. Start HTTP Server ---
	go func() {
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 10. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
