package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/playhive/leaderboard-service/leaderboard/auth"
	"github.com/playhive/leaderboard-service/leaderboard/service"
	"github.com/playhive/leaderboard-service/shared/models"
)

type stubServices struct {
	submitted   *service.RunSubmission
	submitErr   error
	player      *models.Player
	playerErr   error
	page        *service.LeaderboardPage
	pageErr     error
	registerErr error
	loginToken  string
	loginErr    error
	pingErr     error
}

func (s *stubServices) SubmitRun(ctx context.Context, sub service.RunSubmission) (*models.Player, error) {
	s.submitted = &sub
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.player, nil
}

func (s *stubServices) RebuildAggregate(ctx context.Context, playerID string) (*models.Player, error) {
	if s.playerErr != nil {
		return nil, s.playerErr
	}
	return s.player, nil
}

func (s *stubServices) GetLeaderboard(ctx context.Context, gameParam string, limit int) (*service.LeaderboardPage, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	return s.page, nil
}

func (s *stubServices) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	if s.playerErr != nil {
		return nil, s.playerErr
	}
	return s.player, nil
}

func (s *stubServices) Register(ctx context.Context, username, password string) error {
	return s.registerErr
}

func (s *stubServices) Login(ctx context.Context, username, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.loginToken, nil
}

func (s *stubServices) Ping(ctx context.Context) error {
	return s.pingErr
}

func newTestRouter(stub *stubServices, writeAuth mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter()
	handlers := NewLeaderboardAPIHandlers(stub, stub, stub, stub)
	handlers.RegisterRoutes(router, writeAuth)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRunHandlerSuccess(t *testing.T) {
	stub := &stubServices{player: &models.Player{PlayerID: "p1", BestScore: 50}}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/runs",
		`{"playerId":"p1","score":"50","time":0,"level":2,"game":"SNAKE"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp PlayerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.OK || resp.Player.PlayerID != "p1" {
		t.Errorf("response = %+v, want ok with player p1", resp)
	}
	// String-typed score must have been coerced, game passed through raw.
	if stub.submitted.Score != 50 || stub.submitted.Game != "SNAKE" {
		t.Errorf("submission = %+v, want score 50 and raw game tag", stub.submitted)
	}
}

func TestSubmitRunHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing playerId", `{"score":1,"time":2,"level":3}`},
		{"blank playerId", `{"playerId":"  ","score":1,"time":2,"level":3}`},
		{"missing score", `{"playerId":"p1","time":2,"level":3}`},
		{"missing time", `{"playerId":"p1","score":1,"level":3}`},
		{"missing level", `{"playerId":"p1","score":1,"time":2}`},
		{"non-numeric score", `{"playerId":"p1","score":"abc","time":2,"level":3}`},
		{"not json", `score=1`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubServices{player: &models.Player{}}
			router := newTestRouter(stub, nil)
			rec := doJSON(t, router, http.MethodPost, "/api/runs", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if stub.submitted != nil {
				t.Errorf("service was called for invalid input %q", tc.body)
			}
		})
	}
}

func TestSubmitRunHandlerStoreFailure(t *testing.T) {
	stub := &stubServices{submitErr: errors.New("mongo down: connection refused to 10.0.0.5")}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/runs",
		`{"playerId":"p1","score":1,"time":2,"level":3}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// Internal diagnostic detail must not leak to the caller.
	if bytes.Contains(rec.Body.Bytes(), []byte("10.0.0.5")) {
		t.Errorf("response leaked internal error detail: %s", rec.Body.String())
	}
}

func TestGetLeaderboardHandler(t *testing.T) {
	stub := &stubServices{page: &service.LeaderboardPage{
		Scope: service.ScopeByGame,
		Game:  "snake",
		Rows: []*models.LeaderboardRow{
			{PlayerID: "p1", BestScore: 90, BestTime: 4, Game: "snake"},
		},
	}}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/leaderboard?game=snake&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp LeaderboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.OK || resp.Scope != "by-game" || resp.Game != "snake" || len(resp.Leaderboard) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetLeaderboardHandlerEmptyIsArray(t *testing.T) {
	stub := &stubServices{page: &service.LeaderboardPage{Scope: service.ScopeGlobal}}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"leaderboard":[]`)) {
		t.Errorf("empty leaderboard should encode as [], got %s", rec.Body.String())
	}
}

func TestGetPlayerHandlerNotFound(t *testing.T) {
	stub := &stubServices{playerErr: service.ErrPlayerNotFound}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/player/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRebuildPlayerHandler(t *testing.T) {
	stub := &stubServices{player: &models.Player{PlayerID: "p1", BestScore: 70}}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/player/p1/rebuild", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestRegisterHandlerDuplicate(t *testing.T) {
	stub := &stubServices{registerErr: service.ErrUserExists}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/register",
		`{"username":"ana","password":"pw"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterHandlerMissingFields(t *testing.T) {
	stub := &stubServices{}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/register", `{"username":"ana"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	// The service returns the same sentinel for unknown user and wrong
	// password; either way the wire response must be identical.
	stub := &stubServices{loginErr: service.ErrInvalidCredentials}
	router := newTestRouter(stub, nil)

	recUnknown := doJSON(t, router, http.MethodPost, "/api/login",
		`{"username":"nobody","password":"pw"}`)
	recWrongPw := doJSON(t, router, http.MethodPost, "/api/login",
		`{"username":"ana","password":"wrong"}`)

	if recUnknown.Code != http.StatusUnauthorized || recWrongPw.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401/401", recUnknown.Code, recWrongPw.Code)
	}
	if recUnknown.Body.String() != recWrongPw.Body.String() {
		t.Errorf("login failure bodies differ: %q vs %q", recUnknown.Body.String(), recWrongPw.Body.String())
	}
}

func TestLoginHandlerSuccess(t *testing.T) {
	stub := &stubServices{loginToken: "tok123"}
	router := newTestRouter(stub, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/login",
		`{"username":"ana","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.OK || resp.Token != "tok123" || resp.Username != "ana" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWriteRoutesGatedWhenAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	stub := &stubServices{player: &models.Player{PlayerID: "p1"}}
	router := newTestRouter(stub, AuthMiddleware(tokens))

	body := `{"playerId":"p1","score":1,"time":2,"level":3}`

	rec := doJSON(t, router, http.MethodPost, "/api/runs", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Reads stay public even with gating on.
	stub.page = &service.LeaderboardPage{Scope: service.ScopeGlobal}
	if rec := doJSON(t, router, http.MethodGet, "/api/leaderboard", ""); rec.Code != http.StatusOK {
		t.Fatalf("public read: status = %d, want 200", rec.Code)
	}

	token, err := tokens.Issue("u1", "ana")
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer "+token)
	recOK := httptest.NewRecorder()
	router.ServeHTTP(recOK, req)
	if recOK.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200 (body %s)", recOK.Code, recOK.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&stubServices{}, nil)
	if rec := doJSON(t, router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthy: status = %d, want 200", rec.Code)
	}

	router = newTestRouter(&stubServices{pingErr: errors.New("down")}, nil)
	if rec := doJSON(t, router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: status = %d, want 503", rec.Code)
	}
}
