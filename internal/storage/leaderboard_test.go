package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/werewolf/internal/game/engine"
	"github.com/palemoky/werewolf/internal/game/role"
)

func newTestLeaderboardManager(t *testing.T) *LeaderboardManager {
	t.Helper()
	client, _ := newTestClient(t)
	lm := NewLeaderboardManager(client)
	lm.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return lm
}

func TestLeaderboard_RecordGameResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	err := lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "Player1", Werewolf: true, Won: true, Survived: true})
	require.NoError(t, err)

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, "p1", stats.PlayerID)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.WerewolfGames)
	assert.Equal(t, 1, stats.WerewolfWins)
	assert.Equal(t, 1, stats.Survived)
	assert.Equal(t, WinAsWerewolf, stats.Score)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestLeaderboard_RecordGameResult_ScoreNeverNegative(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	// 15 - 20 = -5 -> 0
	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "Player1", Won: true}))
	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "Player1", Werewolf: true}))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 0, stats.Score)
	assert.Equal(t, -1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.VillageGames)
	assert.Equal(t, 1, stats.VillageWins)
}

func TestLeaderboard_DrawResetsStreak(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "P", Won: true}))
	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "P", Draw: true}))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 1, stats.MaxWinStreak)
	assert.Equal(t, WinAsVillager, stats.Score)
}

func TestLeaderboard_StreakBonus(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "Player1", Won: true}))
	}

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	// 15 + 15 + (15 + 5)
	assert.Equal(t, 50, stats.Score)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.MaxWinStreak)
}

func TestCalculateStreakBonus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, calculateStreakBonus(-4))
	assert.Equal(t, 0, calculateStreakBonus(2))
	assert.Equal(t, StreakBonus3, calculateStreakBonus(3))
	assert.Equal(t, StreakBonus5, calculateStreakBonus(7))
	assert.Equal(t, StreakBonus10, calculateStreakBonus(12))
}

func TestLeaderboard_GetLeaderboard(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p1", PlayerName: "Player1", Werewolf: true, Won: true}))
	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p2", PlayerName: "Player2", Won: true}))
	require.NoError(t, lm.RecordGameResult(ctx, PlayerResult{PlayerID: "p3", PlayerName: "Player3"}))

	for _, period := range []Period{PeriodTotal, PeriodDaily, PeriodWeekly} {
		entries, err := lm.GetLeaderboard(ctx, period, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2, period)
		assert.Equal(t, "p1", entries[0].PlayerID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, "p2", entries[1].PlayerID)
		assert.InDelta(t, 100.0, entries[1].WinRate, 0.001)
	}

	rank, err := lm.GetPlayerRank(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lm.GetPlayerRank(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboard_RecordGame(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	err := lm.RecordGame(ctx, "g1", []engine.Result{
		{PlayerID: "v", PlayerName: "Vera", Role: role.Villager, Alive: false},
		{PlayerID: "w", PlayerName: "Wolf", Role: role.Werewolf, Alive: true, Won: true},
	})
	require.NoError(t, err)

	wolf, err := lm.GetPlayerStats(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, 1, wolf.WerewolfWins)
	assert.Equal(t, 1, wolf.Survived)

	villager, err := lm.GetPlayerStats(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, 1, villager.Losses)

	record, err := lm.GetGame(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, engine.OutcomeWerewolvesWin.String(), record.Outcome)
	require.Len(t, record.Players, 2)
	assert.Equal(t, "werewolf", record.Players[1].Role)

	missing, err := lm.GetGame(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PeriodDaily, ParsePeriod("daily"))
	assert.Equal(t, PeriodWeekly, ParsePeriod("weekly"))
	assert.Equal(t, PeriodTotal, ParsePeriod(""))
	assert.Equal(t, PeriodTotal, ParsePeriod("yearly"))
}
