// leaderboard/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/playhive/leaderboard-service/leaderboard/service"
	sharedapi "github.com/playhive/leaderboard-service/shared/api"
	"github.com/playhive/leaderboard-service/shared/models"
)

// The handlers talk to the business logic through these interfaces so they
// can be exercised against stubs; the service layer satisfies all of them.

// RunSubmitter ingests run submissions and rebuilds aggregates.
type RunSubmitter interface {
	SubmitRun(ctx context.Context, sub service.RunSubmission) (*models.Player, error)
	RebuildAggregate(ctx context.Context, playerID string) (*models.Player, error)
}

// LeaderboardProvider serves ranking queries and player summaries.
type LeaderboardProvider interface {
	GetLeaderboard(ctx context.Context, gameParam string, limit int) (*service.LeaderboardPage, error)
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
}

// Authenticator registers users and verifies logins.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// Pinger reports backing-store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LeaderboardAPIHandlers holds references to the services that handle
// business logic.
type LeaderboardAPIHandlers struct {
	Runs         RunSubmitter
	Leaderboards LeaderboardProvider
	Auth         Authenticator
	Health       Pinger
}

// NewLeaderboardAPIHandlers is the constructor for the API handlers.
func NewLeaderboardAPIHandlers(runs RunSubmitter, lb LeaderboardProvider, auth Authenticator, health Pinger) *LeaderboardAPIHandlers {
	return &LeaderboardAPIHandlers{
		Runs:         runs,
		Leaderboards: lb,
		Auth:         auth,
		Health:       health,
	}
}

// --- Request/Response DTOs ---

type SubmitRunRequest struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    *Number `json:"score"`
	Time     *Number `json:"time"`
	Level    *Number `json:"level"`
	Game     string  `json:"game"`
}

type PlayerResponse struct {
	OK     bool           `json:"ok"`
	Player *models.Player `json:"player"`
}

type LeaderboardResponse struct {
	OK          bool                     `json:"ok"`
	Scope       string                   `json:"scope"`
	Game        string                   `json:"game,omitempty"`
	Leaderboard []*models.LeaderboardRow `json:"leaderboard"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	OK bool `json:"ok"`
}

type LoginResponse struct {
	OK       bool   `json:"ok"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// --- Handler Methods ---

// SubmitRunHandler records a game run and returns the reconciled aggregate.
// POST /api/runs
func (lah *LeaderboardAPIHandlers) SubmitRunHandler(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		sharedapi.WriteBadRequest(w, "playerId is required")
		return
	}
	// Numeric fields are required and must coerce; they are never silently
	// defaulted. The game tag, by contrast, falls back to the default.
	if req.Score == nil || req.Time == nil || req.Level == nil {
		sharedapi.WriteBadRequest(w, "score, time and level are required numbers")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := lah.Runs.SubmitRun(ctx, service.RunSubmission{
		PlayerID: req.PlayerID,
		Name:     req.Name,
		Score:    req.Score.Float64(),
		Time:     req.Time.Float64(),
		Level:    req.Level.Int(),
		Game:     req.Game,
	})
	if err != nil {
		log.Printf("ERROR: Submitting run for player %s: %v", req.PlayerID, err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	sharedapi.WriteJSON(w, http.StatusOK, PlayerResponse{OK: true, Player: player})
}

// GetLeaderboardHandler serves the global or per-game ranking.
// GET /api/leaderboard?limit=&game=
func (lah *LeaderboardAPIHandlers) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := service.ParseLimit(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := lah.Leaderboards.GetLeaderboard(ctx, r.URL.Query().Get("game"), limit)
	if err != nil {
		log.Printf("ERROR: Computing leaderboard: %v", err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	if page.Rows == nil {
		page.Rows = []*models.LeaderboardRow{}
	}
	sharedapi.WriteJSON(w, http.StatusOK, LeaderboardResponse{
		OK:          true,
		Scope:       page.Scope,
		Game:        page.Game,
		Leaderboard: page.Rows,
	})
}

// GetPlayerHandler serves one player's aggregate summary.
// GET /api/player/{playerId}
func (lah *LeaderboardAPIHandlers) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := lah.Leaderboards.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			sharedapi.WriteNotFound(w, "player not found")
			return
		}
		log.Printf("ERROR: Getting player %s: %v", playerID, err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	sharedapi.WriteJSON(w, http.StatusOK, PlayerResponse{OK: true, Player: player})
}

// RebuildPlayerHandler recomputes a player's aggregate from their run
// history. Recovery path for aggregates that drifted from the history.
// POST /api/player/{playerId}/rebuild
func (lah *LeaderboardAPIHandlers) RebuildPlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	player, err := lah.Runs.RebuildAggregate(ctx, playerID)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			sharedapi.WriteNotFound(w, "player not found")
			return
		}
		log.Printf("ERROR: Rebuilding aggregate for player %s: %v", playerID, err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	sharedapi.WriteJSON(w, http.StatusOK, PlayerResponse{OK: true, Player: player})
}

// RegisterHandler creates an auth user.
// POST /api/register
func (lah *LeaderboardAPIHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		sharedapi.WriteBadRequest(w, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := lah.Auth.Register(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			sharedapi.WriteBadRequest(w, "user already exists")
			return
		}
		log.Printf("ERROR: Registering user %s: %v", req.Username, err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	sharedapi.WriteJSON(w, http.StatusOK, RegisterResponse{OK: true})
}

// LoginHandler verifies credentials and issues a token. Unknown username and
// wrong password produce byte-identical responses.
// POST /api/login
func (lah *LeaderboardAPIHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token, err := lah.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			sharedapi.WriteUnauthorized(w, "invalid credentials")
			return
		}
		log.Printf("ERROR: Logging in user %s: %v", req.Username, err)
		sharedapi.WriteInternalServerError(w, "server error")
		return
	}

	sharedapi.WriteJSON(w, http.StatusOK, LoginResponse{OK: true, Token: token, Username: req.Username})
}

// HealthHandler reports backing-store liveness.
// GET /healthz
func (lah *LeaderboardAPIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := lah.Health.Ping(ctx); err != nil {
		log.Printf("ERROR: Health check failed: %v", err)
		sharedapi.WriteError(w, http.StatusServiceUnavailable, "backing store unavailable")
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, HealthResponse{OK: true})
}

// RegisterRoutes attaches all endpoints to the router. When writeAuth is
// non-nil it gates the write routes (run submission, rebuild); read routes
// and the auth endpoints themselves are always public.
func (lah *LeaderboardAPIHandlers) RegisterRoutes(router *mux.Router, writeAuth mux.MiddlewareFunc) {
	router.HandleFunc("/healthz", lah.HealthHandler).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/leaderboard", lah.GetLeaderboardHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/player/{playerId}", lah.GetPlayerHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/register", lah.RegisterHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/login", lah.LoginHandler).Methods(http.MethodPost)

	writeRouter := router.PathPrefix("/api").Subrouter()
	if writeAuth != nil {
		writeRouter.Use(writeAuth)
	}
	writeRouter.HandleFunc("/runs", lah.SubmitRunHandler).Methods(http.MethodPost)
	writeRouter.HandleFunc("/player/{playerId}/rebuild", lah.RebuildPlayerHandler).Methods(http.MethodPost)
}
