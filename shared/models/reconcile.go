package models

import (
	"time"
)

// NewPlayerFromRun builds the initial aggregate for a player's first run.
// Every supported game tag gets a zero slot so later reconciliations and the
// summary endpoint see the full slot map; only the submitted game's slot
// starts at the submitted score.
func NewPlayerFromRun(run *Run, supportedGames []string) *Player {
	slots := make(map[string]float64, len(supportedGames))
	for _, game := range supportedGames {
		slots[game] = 0
	}
	slots[run.Game] = run.Score

	bestTime := 0.0
	if run.Time > 0 {
		bestTime = run.Time
	}

	return &Player{
		PlayerID:   run.PlayerID,
		Name:       run.Name,
		BestScore:  run.Score,
		BestScores: slots,
		BestTime:   bestTime,
		LastLevel:  run.Level,
		UpdatedAt:  run.CreatedAt,
	}
}

// Reconcile folds one run into an existing aggregate, in place:
//
//   - a non-empty submitted name overwrites the stored one (last write wins);
//   - the submitted game's slot is raised iff the submitted score beats it;
//   - BestScore is recomputed as the max over ALL slots, not just the updated
//     one, so the cross-game invariant holds even for slots populated by
//     older update paths;
//   - BestTime adopts the submitted time iff it is strictly positive and
//     either no time is on record yet or it beats the record. A submitted
//     time of 0 means "no time recorded" and never replaces anything;
//   - LastLevel is most-recent, not best: it is always overwritten.
func Reconcile(player *Player, run *Run, now time.Time) {
	if run.Name != "" && run.Name != player.Name {
		player.Name = run.Name
	}

	if player.BestScores == nil {
		player.BestScores = make(map[string]float64)
	}
	if run.Score > player.BestScores[run.Game] {
		player.BestScores[run.Game] = run.Score
	}

	maxSlot := 0.0
	for _, score := range player.BestScores {
		if score > maxSlot {
			maxSlot = score
		}
	}
	player.BestScore = maxSlot

	if run.Time > 0 && (player.BestTime == 0 || run.Time < player.BestTime) {
		player.BestTime = run.Time
	}

	player.LastLevel = run.Level
	player.UpdatedAt = now
}

// ReplayRuns recomputes a player's aggregate from scratch by folding the
// given runs in order. This is the recovery path for the accepted
// non-atomicity between run append and aggregate update: the history is
// authoritative, the aggregate is rebuildable. Runs must be ordered by
// CreatedAt ascending. Returns nil when there is no history to replay.
func ReplayRuns(runs []*Run, supportedGames []string) *Player {
	if len(runs) == 0 {
		return nil
	}
	player := NewPlayerFromRun(runs[0], supportedGames)
	for _, run := range runs[1:] {
		Reconcile(player, run, run.CreatedAt)
	}
	return player
}
