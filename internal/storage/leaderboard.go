package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/werewolf/internal/game/engine"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	// 总计
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
	Survived   int `json:"survived"` // 活到结算的场次

	// 狼人/村民阵营分开统计
	WerewolfGames int `json:"werewolf_games"`
	WerewolfWins  int `json:"werewolf_wins"`
	VillageGames  int `json:"village_games"`
	VillageWins   int `json:"village_wins"`

	Score int `json:"score"`

	// 正数为连胜，负数为连败，平局清零
	CurrentStreak int `json:"current_streak"`
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// WinRate 胜率（百分比）
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames) * 100
}

// 积分规则
const (
	WinAsWerewolf  = 30
	WinAsVillager  = 15
	LoseAsWerewolf = -20
	LoseAsVillager = -10

	// 连胜加成
	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

// PlayerResult 一名玩家在一局中的结果
type PlayerResult struct {
	PlayerID   string
	PlayerName string
	Werewolf   bool
	Won        bool
	Draw       bool
	Survived   bool
}

// Period 排行榜周期
type Period string

const (
	PeriodTotal  Period = "total"
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// ParsePeriod 解析周期，未知值返回 PeriodTotal
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly:
		return Period(s)
	default:
		return PeriodTotal
	}
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// GameRecord 结算后的对局记录
type GameRecord struct {
	ID      string         `json:"id"`
	EndedAt int64          `json:"ended_at"`
	Outcome string         `json:"outcome"`
	Players []PlayerRecord `json:"players"`
}

// PlayerRecord 对局记录中的玩家
type PlayerRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Alive bool   `json:"alive"`
	Won   bool   `json:"won"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

// GetPlayerStats 获取玩家统计，未找到时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats of %s: %w", playerID, err)
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}

func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  lm.now().Unix(),
		}
	}
	return stats, nil
}

// updateFactionStats 更新阵营统计并返回基础积分变化
func updateFactionStats(stats *PlayerStats, r PlayerResult) int {
	if r.Werewolf {
		stats.WerewolfGames++
	} else {
		stats.VillageGames++
	}

	switch {
	case r.Draw:
		return 0
	case r.Werewolf && r.Won:
		stats.WerewolfWins++
		return WinAsWerewolf
	case r.Werewolf:
		return LoseAsWerewolf
	case r.Won:
		stats.VillageWins++
		return WinAsVillager
	default:
		return LoseAsVillager
	}
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, r PlayerResult) {
	switch {
	case r.Draw:
		stats.Draws++
		stats.CurrentStreak = 0
	case r.Won:
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	default:
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGameResult 记录一名玩家的结果
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, r PlayerResult) error {
	stats, err := lm.getOrCreateStats(ctx, r.PlayerID, r.PlayerName)
	if err != nil {
		return err
	}

	stats.PlayerName = r.PlayerName
	stats.TotalGames++
	stats.LastPlayedAt = lm.now().Unix()
	if r.Survived {
		stats.Survived++
	}

	scoreChange := updateFactionStats(stats, r)
	updateWinLossStats(stats, r)
	if r.Won {
		scoreChange += calculateStreakBonus(stats.CurrentStreak)
	}
	stats.Score = max(0, stats.Score+scoreChange)

	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.UpdateLeaderboard(ctx, stats)
}

// RecordGame 记录一局的全部结果，并保存对局记录
func (lm *LeaderboardManager) RecordGame(ctx context.Context, gameID string, results []engine.Result) error {
	record := GameRecord{ID: gameID, EndedAt: lm.now().Unix()}

	for _, res := range results {
		err := lm.RecordGameResult(ctx, PlayerResult{
			PlayerID:   res.PlayerID,
			PlayerName: res.PlayerName,
			Werewolf:   res.Role.IsWerewolf(),
			Won:        res.Won,
			Draw:       res.Draw,
			Survived:   res.Alive,
		})
		if err != nil {
			return fmt.Errorf("record result of %s: %w", res.PlayerID, err)
		}

		record.Players = append(record.Players, PlayerRecord{
			ID:    res.PlayerID,
			Name:  res.PlayerName,
			Role:  res.Role.Key(),
			Alive: res.Alive,
			Won:   res.Won,
		})
		switch {
		case res.Draw:
			record.Outcome = engine.OutcomeDraw.String()
		case res.Won && res.Role.IsWerewolf():
			record.Outcome = engine.OutcomeWerewolvesWin.String()
		case res.Won:
			record.Outcome = engine.OutcomeVillagersWin.String()
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, gameKeyPrefix+gameID, data, gameExpiration).Err()
}

// GetGame 读取对局记录，不存在时返回 nil
func (lm *LeaderboardManager) GetGame(ctx context.Context, gameID string) (*GameRecord, error) {
	data, err := lm.redis.Get(ctx, gameKeyPrefix+gameID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (lm *LeaderboardManager) periodKey(p Period) string {
	now := lm.now()
	switch p {
	case PeriodDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// UpdateLeaderboard 更新总榜、日榜和周榜
func (lm *LeaderboardManager) UpdateLeaderboard(ctx context.Context, stats *PlayerStats) error {
	z := redis.Z{Score: float64(stats.Score), Member: stats.PlayerID}

	if err := lm.redis.ZAdd(ctx, leaderboardKey, z).Err(); err != nil {
		return err
	}

	dailyKey := lm.periodKey(PeriodDaily)
	if err := lm.redis.ZAdd(ctx, dailyKey, z).Err(); err != nil {
		return err
	}
	lm.redis.Expire(ctx, dailyKey, 48*time.Hour)

	weeklyKey := lm.periodKey(PeriodWeekly)
	if err := lm.redis.ZAdd(ctx, weeklyKey, z).Err(); err != nil {
		return err
	}
	lm.redis.Expire(ctx, weeklyKey, 8*24*time.Hour)

	return nil
}

// GetLeaderboard 获取排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, period Period, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.periodKey(period), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		entries = append(entries, &LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    stats.WinRate(),
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
