package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/storage"
)

// 命令名
const (
	CmdPlay        = "play"
	CmdPlayDebug   = "play_debug"
	CmdClean       = "clean"
	CmdStats       = "stats"
	CmdLeaderboard = "leaderboard"
)

const leaderboardSize = 10

// commandFunc 统一的命令处理函数签名
type commandFunc func(ctx context.Context, cmd platform.Command) error

type command struct {
	spec    platform.CommandSpec
	handler commandFunc
}

func (b *Bot) commands() []command {
	return []command{
		{
			spec:    platform.CommandSpec{Name: CmdPlay, Description: "Start a game"},
			handler: b.handlePlay,
		},
		{
			spec:    platform.CommandSpec{Name: CmdPlayDebug, Description: "Start a game with the debug players", Admin: true},
			handler: b.handlePlayDebug,
		},
		{
			spec:    platform.CommandSpec{Name: CmdClean, Description: "Delete every game channel", Admin: true},
			handler: b.handleClean,
		},
		{
			spec: platform.CommandSpec{
				Name:        CmdStats,
				Description: "Show player statistics",
				Options: []platform.CommandOption{
					{Name: "user", Description: "Player to look up", Type: platform.OptionUser},
				},
			},
			handler: b.handleStats,
		},
		{
			spec: platform.CommandSpec{
				Name:        CmdLeaderboard,
				Description: "Show the leaderboard",
				Options: []platform.CommandOption{
					{Name: "period", Description: "total, daily or weekly", Type: platform.OptionString},
				},
			},
			handler: b.handleLeaderboard,
		},
	}
}

// Commands 注册到平台的命令
func (b *Bot) Commands() []platform.CommandSpec {
	cmds := b.commands()
	specs := make([]platform.CommandSpec, len(cmds))
	for i, c := range cmds {
		specs[i] = c.spec
	}
	return specs
}

// HandleCommand 分发命令。用户错误私下回复给调用者，其他错误记录日志并回复通用提示。
func (b *Bot) HandleCommand(ctx context.Context, cmd platform.Command) {
	var found *command
	for _, c := range b.commands() {
		if c.spec.Name == cmd.Name {
			found = &c
			break
		}
	}
	if found == nil {
		log.Printf("⚠️ %s 使用了未知命令 /%s", cmd.UserName, cmd.Name)
		b.respond(ctx, cmd, platform.Content{Text: "⚠️ This command does not exist!"}, true)
		return
	}

	if found.spec.Admin && !b.cfg.IsAdmin(cmd.UserID) {
		log.Printf("🚫 %s 尝试使用管理员命令 /%s", cmd.UserName, cmd.Name)
		b.respond(ctx, cmd, platform.Content{Text: "⚠️ " + apperrors.ErrNotAdmin.Error()}, true)
		return
	}

	log.Printf("📩 %s 使用命令 /%s", cmd.UserName, cmd.Name)
	if err := found.handler(ctx, cmd); err != nil {
		if apperrors.IsUserError(err) {
			b.respond(ctx, cmd, platform.Content{Text: "⚠️ " + err.Error()}, true)
			return
		}
		log.Printf("❌ /%s 执行失败 (%s): %v", cmd.Name, cmd.UserName, err)
		b.respond(ctx, cmd, platform.Content{Text: "⚠️ An error occurred while running this command!"}, true)
	}
}

func (b *Bot) respond(ctx context.Context, cmd platform.Command, content platform.Content, private bool) {
	if err := cmd.Responder.Respond(ctx, content, private); err != nil {
		log.Printf("⚠️ 回复 /%s 失败: %v", cmd.Name, err)
	}
}

func (b *Bot) touchUser(ctx context.Context, cmd platform.Command) {
	if b.users == nil {
		return
	}
	if err := b.users.UpsertUser(ctx, cmd.UserID, cmd.UserName); err != nil {
		log.Printf("⚠️ 记录用户 %s 失败: %v", cmd.UserID, err)
	}
}

func (b *Bot) handlePlay(ctx context.Context, cmd platform.Command) error {
	return b.play(ctx, cmd, []string{cmd.UserID})
}

func (b *Bot) handlePlayDebug(ctx context.Context, cmd platform.Command) error {
	candidates := []string{cmd.UserID}
	for _, id := range b.cfg.Bot.DebugPlayerIDs {
		if id != cmd.UserID {
			candidates = append(candidates, id)
		}
	}
	return b.play(ctx, cmd, candidates)
}

func (b *Bot) play(ctx context.Context, cmd platform.Command, candidates []string) error {
	if cmd.GuildID == "" {
		return apperrors.ErrGuildOnly
	}
	b.touchUser(ctx, cmd)

	s, err := b.startGame(cmd, candidates)
	if err != nil {
		return err
	}
	log.Printf("🎲 [%s] %s 在服务器 %s 发起游戏", s.ID(), cmd.UserName, cmd.GuildID)
	b.respond(ctx, cmd, platform.Content{Text: "🐺 A new game is being set up, join the lobby below!"}, false)
	return nil
}

func (b *Bot) handleClean(ctx context.Context, cmd platform.Command) error {
	if cmd.GuildID == "" {
		return apperrors.ErrGuildOnly
	}
	if b.ActiveGame(cmd.GuildID) != nil {
		return apperrors.ErrGameInProgress
	}

	n, err := b.cleanGuild(ctx, cmd.GuildID)
	if err != nil {
		return err
	}
	log.Printf("🧹 %s 清理了服务器 %s 的 %d 个游戏频道", cmd.UserName, cmd.GuildID, n)
	b.respond(ctx, cmd, platform.Content{Text: fmt.Sprintf("🧹 Deleted %d game channels.", n)}, true)
	return nil
}

func (b *Bot) handleStats(ctx context.Context, cmd platform.Command) error {
	if b.stats == nil {
		b.respond(ctx, cmd, platform.Content{Text: "📊 Statistics are not enabled."}, true)
		return nil
	}

	playerID := cmd.Option("user")
	if playerID == "" {
		playerID = cmd.UserID
	}
	stats, err := b.stats.GetPlayerStats(ctx, playerID)
	if err != nil {
		return fmt.Errorf("get stats of %s: %w", playerID, err)
	}
	if stats == nil {
		b.respond(ctx, cmd, platform.Content{Text: fmt.Sprintf("📊 %s has not played any game yet.", platform.Mention(playerID))}, true)
		return nil
	}

	rank, err := b.stats.GetPlayerRank(ctx, playerID)
	if err != nil {
		log.Printf("⚠️ 查询 %s 的排名失败: %v", playerID, err)
		rank = -1
	}
	b.respond(ctx, cmd, statsContent(stats, rank, b.cfg.Bot.MainColor), false)
	return nil
}

func (b *Bot) handleLeaderboard(ctx context.Context, cmd platform.Command) error {
	if b.stats == nil {
		b.respond(ctx, cmd, platform.Content{Text: "📊 Statistics are not enabled."}, true)
		return nil
	}

	period := storage.ParsePeriod(cmd.Option("period"))
	entries, err := b.stats.GetLeaderboard(ctx, period, leaderboardSize)
	if err != nil {
		return fmt.Errorf("get %s leaderboard: %w", period, err)
	}
	b.respond(ctx, cmd, leaderboardContent(period, entries, b.cfg.Bot.MainColor), false)
	return nil
}

func statsContent(s *storage.PlayerStats, rank int64, color int) platform.Content {
	rankText := "unranked"
	if rank > 0 {
		rankText = fmt.Sprintf("#%d", rank)
	}

	streak := "none"
	switch {
	case s.CurrentStreak > 0:
		streak = fmt.Sprintf("%d wins", s.CurrentStreak)
	case s.CurrentStreak < 0:
		streak = fmt.Sprintf("%d losses", -s.CurrentStreak)
	}

	return platform.Content{
		Title: "📊 " + s.PlayerName,
		Color: color,
		Fields: []platform.Field{
			{Name: "Score", Value: fmt.Sprintf("%d (%s)", s.Score, rankText), Inline: true},
			{Name: "Games", Value: fmt.Sprintf("%d", s.TotalGames), Inline: true},
			{Name: "Win rate", Value: fmt.Sprintf("%.1f%%", s.WinRate()), Inline: true},
			{Name: "Wins / Losses / Draws", Value: fmt.Sprintf("%d / %d / %d", s.Wins, s.Losses, s.Draws), Inline: true},
			{Name: "🐺 As werewolf", Value: fmt.Sprintf("%d wins in %d games", s.WerewolfWins, s.WerewolfGames), Inline: true},
			{Name: "🏘️ As villager", Value: fmt.Sprintf("%d wins in %d games", s.VillageWins, s.VillageGames), Inline: true},
			{Name: "Survived", Value: fmt.Sprintf("%d", s.Survived), Inline: true},
			{Name: "Streak", Value: fmt.Sprintf("%s (best %d)", streak, s.MaxWinStreak), Inline: true},
		},
	}
}

var periodTitles = map[storage.Period]string{
	storage.PeriodTotal:  "🏆 Leaderboard",
	storage.PeriodDaily:  "🏆 Today's leaderboard",
	storage.PeriodWeekly: "🏆 This week's leaderboard",
}

func leaderboardContent(period storage.Period, entries []*storage.LeaderboardEntry, color int) platform.Content {
	c := platform.Content{Title: periodTitles[period], Color: color}
	if len(entries) == 0 {
		c.Description = "Nobody has played yet."
		return c
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "**%d.** %s: %d pts (%d wins, %.0f%%)\n", e.Rank, e.PlayerName, e.Score, e.Wins, e.WinRate)
	}
	c.Description = strings.TrimSuffix(sb.String(), "\n")
	return c
}
