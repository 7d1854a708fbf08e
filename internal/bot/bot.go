// Package bot 平台无关的命令层：斜杠命令、每个服务器一局游戏的注册表、管理员校验和启动清理
package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/config"
	"github.com/palemoky/werewolf/internal/game/session"
	"github.com/palemoky/werewolf/internal/logger"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/ratelimit"
	"github.com/palemoky/werewolf/internal/storage"
)

// StatsStore 战绩存储，可选
type StatsStore interface {
	session.StatsRecorder
	GetPlayerStats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
	GetLeaderboard(ctx context.Context, period storage.Period, limit int) ([]*storage.LeaderboardEntry, error)
}

// Deps 机器人依赖
type Deps struct {
	Config   *config.Config
	Platform platform.Platform
	Users    platform.UserStore
	Stats    StatsStore             // 为 nil 时 /stats 和 /leaderboard 不可用
	Limiter  *ratelimit.RateLimiter // 为 nil 时不限流
	Rand     *rand.Rand             // 测试用，为 nil 时每局使用新的随机源
}

// Bot 命令处理器，实现 platform.Handler
type Bot struct {
	cfg      *config.Config
	platform platform.Platform
	users    platform.UserStore
	stats    StatsStore
	limiter  *ratelimit.RateLimiter
	rng      *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	gamesMu sync.Mutex
	games   map[string]*session.Session // guildID -> 会话
}

var _ platform.Handler = (*Bot)(nil)

// New 创建机器人
func New(deps Deps) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg:      deps.Config,
		platform: deps.Platform,
		users:    deps.Users,
		stats:    deps.Stats,
		limiter:  deps.Limiter,
		rng:      deps.Rand,
		ctx:      ctx,
		cancel:   cancel,
		games:    make(map[string]*session.Session),
	}
}

// Start 平台就绪后调用：dev 环境清理遗留的游戏频道，prod 环境私信通知管理员
func (b *Bot) Start(ctx context.Context) {
	log.Printf("🤖 机器人已就绪 (env=%s, platform=%s)", b.cfg.Bot.Env, b.cfg.Bot.Platform)

	if b.cfg.Bot.Env == config.EnvDev {
		guildID := b.devGuildID()
		n, err := b.cleanGuild(ctx, guildID)
		if err != nil {
			log.Printf("⚠️ 清理遗留频道失败: %v", err)
			return
		}
		log.Printf("🧹 已清理 %d 个遗留游戏频道", n)
		return
	}

	dm, ok := b.platform.(platform.DirectMessenger)
	if !ok {
		return
	}
	for _, id := range b.cfg.Bot.AdminIDs {
		if err := dm.SendDirect(ctx, id, "Bot started !"); err != nil {
			log.Printf("⚠️ 通知管理员 %s 失败: %v", id, err)
		}
	}
}

func (b *Bot) devGuildID() string {
	if b.cfg.Bot.Platform == config.PlatformSandbox {
		return b.cfg.Sandbox.GuildID
	}
	return b.cfg.Discord.DevGuildID
}

// Close 取消所有进行中的游戏并等待其清理完成
func (b *Bot) Close() {
	b.cancel()
	b.wg.Wait()
}

// Wait 等待所有游戏结束
func (b *Bot) Wait() {
	b.wg.Wait()
}

// AllowInteraction 交互限流
func (b *Bot) AllowInteraction(userID string) bool {
	if b.limiter == nil {
		return true
	}
	return b.limiter.Allow(userID)
}

// ActiveGame 服务器中进行中的游戏
func (b *Bot) ActiveGame(guildID string) *session.Session {
	b.gamesMu.Lock()
	defer b.gamesMu.Unlock()
	return b.games[guildID]
}

// ActiveGames 进行中的游戏数
func (b *Bot) ActiveGames() int {
	b.gamesMu.Lock()
	defer b.gamesMu.Unlock()
	return len(b.games)
}

// startGame 注册并在后台运行一局游戏。每个服务器同时只能有一局。
func (b *Bot) startGame(cmd platform.Command, candidates []string) (*session.Session, error) {
	b.gamesMu.Lock()
	defer b.gamesMu.Unlock()

	if _, exists := b.games[cmd.GuildID]; exists {
		return nil, apperrors.ErrGameInProgress
	}

	game := b.cfg.Game
	s := session.Create(session.Options{
		GuildID:      cmd.GuildID,
		ChannelID:    cmd.ChannelID,
		CreatorID:    cmd.UserID,
		Candidates:   candidates,
		Timings:      game.Timings(),
		LobbyIdle:    game.LobbyIdleDuration(),
		MinPlayers:   game.MinPlayers,
		Names:        game.Names(),
		Platform:     b.platform,
		Users:        b.users,
		Stats:        b.recorder(),
		Rand:         b.rng,
		ImageBaseURL: b.cfg.Bot.ImageBaseURL,
		Color:        b.cfg.Bot.MainColor,
	})
	b.games[cmd.GuildID] = s

	b.wg.Add(1)
	go b.runGame(s, cmd.ChannelID)
	return s, nil
}

// recorder 避免把 nil 指针包装成非 nil 接口
func (b *Bot) recorder() session.StatsRecorder {
	if b.stats == nil {
		return nil
	}
	return b.stats
}

func (b *Bot) finishGame(s *session.Session) {
	b.gamesMu.Lock()
	defer b.gamesMu.Unlock()
	if b.games[s.GuildID()] == s {
		delete(b.games, s.GuildID())
	}
}

// runGame 驱动大厅和游戏。出错时向大厅频道致歉并清理频道。
func (b *Bot) runGame(s *session.Session, lobbyChannelID string) {
	defer b.wg.Done()
	defer b.finishGame(s)
	defer func() {
		if r := recover(); r != nil {
			logger.LogError("panic in game %s", s.ID())
			logger.LogPanic(r)
			b.teardown(s)
		}
	}()

	res, err := s.RunLobby(b.ctx)
	if err != nil {
		b.fail(s, lobbyChannelID, err)
		return
	}
	if !res.Started {
		log.Printf("🏠 [%s] 大厅结束: %s", s.ID(), res.Reason)
		return
	}

	outcome, err := s.Run(b.ctx)
	if err != nil {
		b.fail(s, lobbyChannelID, err)
		return
	}
	log.Printf("🏁 [%s] 游戏结束: %s", s.ID(), outcome)
}

func (b *Bot) fail(s *session.Session, lobbyChannelID string, err error) {
	if b.ctx.Err() != nil {
		log.Printf("🛑 [%s] 机器人关闭，游戏中止", s.ID())
		b.teardown(s)
		return
	}

	log.Printf("❌ [%s] 游戏出错: %v", s.ID(), err)
	ctx, cancel := context.WithTimeout(context.Background(), session.TeardownTimeout)
	defer cancel()
	if _, sendErr := b.platform.SendMessage(ctx, lobbyChannelID, platform.Content{
		Text: "⚠️ Something went wrong, the game has been stopped.",
	}); sendErr != nil {
		log.Printf("⚠️ [%s] 发送错误提示失败: %v", s.ID(), sendErr)
	}
	b.teardown(s)
}

func (b *Bot) teardown(s *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), session.TeardownTimeout)
	defer cancel()
	if err := s.Teardown(ctx); err != nil {
		log.Printf("⚠️ [%s] 清理频道失败: %v", s.ID(), err)
	}
}

// cleanGuild 删除服务器中所有游戏分类及其子频道，返回删除的频道数
func (b *Bot) cleanGuild(ctx context.Context, guildID string) (int, error) {
	channels, err := b.platform.ListChannels(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("list channels: %w", err)
	}

	categoryName := b.cfg.Game.Names().Category
	deleted := 0
	for _, cat := range channels {
		if !cat.Category || cat.Name != categoryName {
			continue
		}
		for _, ch := range channels {
			if ch.ParentID != cat.ID {
				continue
			}
			if err := b.platform.DeleteChannel(ctx, ch.ID); err != nil {
				return deleted, fmt.Errorf("delete channel %s: %w", ch.ID, err)
			}
			deleted++
		}
		if err := b.platform.DeleteChannel(ctx, cat.ID); err != nil {
			return deleted, fmt.Errorf("delete category %s: %w", cat.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
