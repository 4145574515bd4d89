package models

import (
	"reflect"
	"testing"
	"time"
)

var testGames = []string{"disparando", "snake", "crush"}

func run(playerID string, score, seconds float64, level int, game string, at time.Time) *Run {
	return &Run{
		ID:        "run-" + at.Format("150405.000"),
		PlayerID:  playerID,
		Score:     score,
		Time:      seconds,
		Level:     level,
		Game:      game,
		CreatedAt: at,
	}
}

func fold(t *testing.T, runs []*Run) *Player {
	t.Helper()
	player := NewPlayerFromRun(runs[0], testGames)
	for _, r := range runs[1:] {
		Reconcile(player, r, r.CreatedAt)
	}
	return player
}

func TestNewPlayerFromRun(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := NewPlayerFromRun(run("p1", 40, 9.5, 2, "snake", at), testGames)

	if player.PlayerID != "p1" {
		t.Errorf("PlayerID = %q, want p1", player.PlayerID)
	}
	if player.BestScore != 40 {
		t.Errorf("BestScore = %v, want 40", player.BestScore)
	}
	wantSlots := map[string]float64{"disparando": 0, "snake": 40, "crush": 0}
	if !reflect.DeepEqual(player.BestScores, wantSlots) {
		t.Errorf("BestScores = %v, want %v", player.BestScores, wantSlots)
	}
	if player.BestTime != 9.5 {
		t.Errorf("BestTime = %v, want 9.5", player.BestTime)
	}
	if player.LastLevel != 2 {
		t.Errorf("LastLevel = %d, want 2", player.LastLevel)
	}
}

func TestNewPlayerFromRunZeroTimeStaysUnset(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := NewPlayerFromRun(run("p1", 40, 0, 2, "snake", at), testGames)
	if player.BestTime != 0 {
		t.Errorf("BestTime = %v, want 0 (unset)", player.BestTime)
	}
}

func TestReconcileZeroTimeThenRealTime(t *testing.T) {
	// Submitting time=0 first leaves bestTime unset; the later positive
	// time is adopted even though its score is worse.
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := fold(t, []*Run{
		run("p1", 50, 0, 2, "snake", at),
		run("p1", 30, 12, 3, "snake", at.Add(time.Minute)),
	})

	if player.BestScore != 50 {
		t.Errorf("BestScore = %v, want 50", player.BestScore)
	}
	if player.BestTime != 12 {
		t.Errorf("BestTime = %v, want 12", player.BestTime)
	}
	if player.LastLevel != 3 {
		t.Errorf("LastLevel = %d, want 3", player.LastLevel)
	}
}

func TestReconcileZeroTimeNeverReplacesRecord(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := fold(t, []*Run{
		run("p1", 10, 8, 1, "snake", at),
		run("p1", 99, 0, 2, "snake", at.Add(time.Minute)),
	})
	if player.BestTime != 8 {
		t.Errorf("BestTime = %v, want 8 (time=0 must not replace it)", player.BestTime)
	}
}

func TestReconcileWorseTimeIgnored(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := fold(t, []*Run{
		run("p1", 10, 8, 1, "snake", at),
		run("p1", 10, 20, 1, "snake", at.Add(time.Minute)),
		run("p1", 10, 5, 1, "crush", at.Add(2*time.Minute)),
	})
	if player.BestTime != 5 {
		t.Errorf("BestTime = %v, want 5 (minimum positive across games)", player.BestTime)
	}
}

func TestReconcilePerGameSlotsAndGlobalMax(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := fold(t, []*Run{
		run("p1", 40, 10, 1, "snake", at),
		run("p1", 70, 15, 2, "disparando", at.Add(time.Minute)),
		run("p1", 55, 9, 3, "snake", at.Add(2*time.Minute)),
		// Worse than the snake slot: must not lower it.
		run("p1", 20, 30, 4, "snake", at.Add(3*time.Minute)),
	})

	wantSlots := map[string]float64{"disparando": 70, "snake": 55, "crush": 0}
	if !reflect.DeepEqual(player.BestScores, wantSlots) {
		t.Errorf("BestScores = %v, want %v", player.BestScores, wantSlots)
	}
	if player.BestScore != 70 {
		t.Errorf("BestScore = %v, want 70 (max across all slots)", player.BestScore)
	}
	if player.LastLevel != 4 {
		t.Errorf("LastLevel = %d, want 4 (latest, not best)", player.LastLevel)
	}
}

func TestReconcileBestScoreRecomputedAcrossAllSlots(t *testing.T) {
	// A stale aggregate whose BestScore trails its slots (e.g. written by an
	// older update path) gets repaired on the next reconciliation.
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := &Player{
		PlayerID:   "p1",
		BestScore:  10,
		BestScores: map[string]float64{"disparando": 90, "snake": 10},
	}
	Reconcile(player, run("p1", 15, 0, 1, "snake", at), at)
	if player.BestScore != 90 {
		t.Errorf("BestScore = %v, want 90 (recomputed over all slots)", player.BestScore)
	}
}

func TestReconcileNameLastWriteWins(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	player := fold(t, []*Run{
		{PlayerID: "p1", Name: "Ana", Score: 10, Game: "snake", CreatedAt: at},
		{PlayerID: "p1", Name: "", Score: 5, Game: "snake", CreatedAt: at.Add(time.Minute)},
		{PlayerID: "p1", Name: "Bea", Score: 1, Game: "snake", CreatedAt: at.Add(2 * time.Minute)},
	})
	if player.Name != "Bea" {
		t.Errorf("Name = %q, want Bea (empty submissions keep the old name, non-empty overwrite)", player.Name)
	}
}

func TestReplayRunsMatchesIncrementalFold(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []*Run{
		run("p1", 40, 0, 1, "snake", at),
		run("p1", 70, 22, 2, "disparando", at.Add(time.Minute)),
		run("p1", 70, 11, 5, "crush", at.Add(2*time.Minute)),
		run("p1", 12, 50, 1, "snake", at.Add(3*time.Minute)),
	}

	incremental := fold(t, runs)
	replayed := ReplayRuns(runs, testGames)

	if !reflect.DeepEqual(incremental, replayed) {
		t.Errorf("replayed aggregate %+v differs from incremental %+v", replayed, incremental)
	}
}

func TestReplayRunsEmptyHistory(t *testing.T) {
	if got := ReplayRuns(nil, testGames); got != nil {
		t.Errorf("ReplayRuns(nil) = %+v, want nil", got)
	}
}
