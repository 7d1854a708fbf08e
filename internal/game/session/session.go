// Package session 一局游戏的完整生命周期：大厅 → 分配角色 → 阶段循环 → 结算 → 清理
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/werewolf/internal/game/engine"
	"github.com/palemoky/werewolf/internal/game/lobby"
	"github.com/palemoky/werewolf/internal/platform"
)

// DefaultLobbyIdle 大厅无操作超时
const DefaultLobbyIdle = 10 * time.Minute

// TeardownTimeout 删除频道的超时
const TeardownTimeout = 30 * time.Second

// Names 游戏频道名称
type Names struct {
	Category string
	General  string
	Den      string
}

// DefaultNames 默认频道名称
func DefaultNames() Names {
	return Names{
		Category: "Werewolf game",
		General:  "village-square",
		Den:      "werewolves-den",
	}
}

// StatsRecorder 记录结算结果，可选
type StatsRecorder interface {
	RecordGame(ctx context.Context, gameID string, results []engine.Result) error
}

// Options 创建会话的参数
type Options struct {
	GuildID    string
	ChannelID  string // 大厅消息所在频道
	CreatorID  string
	Candidates []string

	Timings    engine.Timings
	LobbyIdle  time.Duration
	MinPlayers int
	Names      Names

	Platform platform.Platform
	Users    platform.UserStore
	Stats    StatsRecorder
	Rand     *rand.Rand

	ImageBaseURL string
	Color        int
}

// AbortReason 大厅中止原因
type AbortReason int

const (
	AbortNone AbortReason = iota
	AbortTimedOut
	AbortCancelled
)

func (r AbortReason) String() string {
	switch r {
	case AbortTimedOut:
		return "timed out"
	case AbortCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// LobbyResult 大厅结果：Started 为 true 时 Snapshot 有效，否则 Reason 说明原因
type LobbyResult struct {
	Started  bool
	Snapshot lobby.Snapshot
	Reason   AbortReason
}

// ErrNotStarted 大厅尚未成功开局
var ErrNotStarted = errors.New("session: lobby has not started")

// Session 一局游戏
type Session struct {
	id     string
	opts   Options
	roster *lobby.Roster
	rng    *rand.Rand

	state    atomic.Int32
	snapshot *lobby.Snapshot
	game     *engine.Game

	mu    sync.Mutex
	owned []string // 创建顺序：分类在前，删除成功后移除

	teardownMu sync.Mutex
}

// Create 创建会话，候选玩家预先加入大厅
func Create(opts Options) *Session {
	if opts.LobbyIdle <= 0 {
		opts.LobbyIdle = DefaultLobbyIdle
	}
	if opts.Timings == (engine.Timings{}) {
		opts.Timings = engine.DefaultTimings()
	}
	if opts.Names == (Names{}) {
		opts.Names = DefaultNames()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	roster := lobby.NewRoster(opts.CreatorID, opts.Candidates)
	roster.SetMinPlayers(opts.MinPlayers)

	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		roster: roster,
		rng:    rng,
	}
	s.setState(engine.StateLobby)
	return s
}

func (s *Session) ID() string        { return s.id }
func (s *Session) GuildID() string   { return s.opts.GuildID }
func (s *Session) CreatorID() string { return s.opts.CreatorID }

// State 当前状态，可在其他 goroutine 中读取
func (s *Session) State() engine.State {
	return engine.State(s.state.Load())
}

func (s *Session) setState(st engine.State) {
	s.state.Store(int32(st))
}

// Game 开局后的游戏，开局前为 nil。只能在运行会话的 goroutine 中使用。
func (s *Session) Game() *engine.Game {
	return s.game
}

// Run 分配角色、创建频道并驱动阶段循环，结束后清理频道。
// 出错时不清理，由调用方决定是否调用 Teardown。
func (s *Session) Run(ctx context.Context) (engine.Outcome, error) {
	if s.snapshot == nil {
		return engine.OutcomeOngoing, ErrNotStarted
	}
	s.setState(engine.StateRoleAssignment)

	players, privileged, err := s.assignRoles(ctx)
	if err != nil {
		return engine.OutcomeOngoing, err
	}
	channels, err := s.createChannels(ctx, players)
	if err != nil {
		return engine.OutcomeOngoing, err
	}
	if len(privileged) > 0 {
		if _, err := s.opts.Platform.SendMessage(ctx, channels.General, engine.PrivilegedWarning(privileged)); err != nil {
			return engine.OutcomeOngoing, fmt.Errorf("send privileged warning: %w", err)
		}
	}

	s.game = engine.New(engine.Config{
		ID:           s.id,
		GuildID:      s.opts.GuildID,
		CreatorID:    s.opts.CreatorID,
		Players:      players,
		Channels:     channels,
		Timings:      s.opts.Timings,
		Messenger:    s.opts.Platform,
		Users:        s.opts.Users,
		Rand:         s.rng,
		ImageBaseURL: s.opts.ImageBaseURL,
		Color:        s.opts.Color,
	})
	log.Printf("🎮 [%s] 游戏开始，%d 名玩家", s.id, len(players))

	if err := s.game.Introduce(ctx); err != nil {
		return engine.OutcomeOngoing, err
	}
	outcome, err := s.game.Run(ctx)
	if err != nil {
		return engine.OutcomeOngoing, err
	}
	s.setState(engine.StateResolved)
	s.recordResults(ctx)

	s.setState(engine.StateCooldown)
	if err := s.game.Cooldown(ctx); err != nil {
		return outcome, err
	}

	// 机器人关闭时 ctx 已取消，频道仍需删除
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TeardownTimeout)
	defer cancel()
	return outcome, s.Teardown(tctx)
}

// assignRoles 解析成员并随机分配角色
func (s *Session) assignRoles(ctx context.Context) ([]*engine.Player, []platform.Member, error) {
	roles := slices.Clone(s.snapshot.Roles)
	s.rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	players := make([]*engine.Player, len(s.snapshot.PlayerIDs))
	var privileged []platform.Member
	for i, id := range s.snapshot.PlayerIDs {
		m, err := s.opts.Platform.Member(ctx, s.opts.GuildID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve member %s: %w", id, err)
		}
		if m.Privileged {
			privileged = append(privileged, m)
		}
		name := m.DisplayName
		if name == "" {
			name = id
		}
		players[i] = &engine.Player{ID: id, Name: name, Role: roles[i], Alive: true}
	}
	return players, privileged, nil
}

// createChannels 创建分类、广场、狼人频道和每位玩家的私人频道
func (s *Session) createChannels(ctx context.Context, players []*engine.Player) (engine.Channels, error) {
	p := s.opts.Platform
	guild := s.opts.GuildID
	var ch engine.Channels

	id, err := p.CreateCategory(ctx, guild, s.opts.Names.Category, engine.CategoryOverwrites(players))
	if err != nil {
		return ch, fmt.Errorf("create category: %w", err)
	}
	s.own(id)
	ch.Category = id

	if ch.General, err = p.CreateChannel(ctx, guild, ch.Category, s.opts.Names.General, engine.GeneralOverwrites(players)); err != nil {
		return ch, fmt.Errorf("create general channel: %w", err)
	}
	s.own(ch.General)

	if ch.Den, err = p.CreateChannel(ctx, guild, ch.Category, s.opts.Names.Den, engine.DenOverwrites(players, false)); err != nil {
		return ch, fmt.Errorf("create den: %w", err)
	}
	s.own(ch.Den)

	for _, pl := range players {
		if pl.Channel, err = p.CreateChannel(ctx, guild, ch.Category, channelName(pl.Name), engine.PrivateOverwrites(pl)); err != nil {
			return ch, fmt.Errorf("create channel for %s: %w", pl.ID, err)
		}
		s.own(pl.Channel)
	}

	log.Printf("📁 [%s] 已创建 %d 个频道", s.id, len(players)+3)
	return ch, nil
}

func (s *Session) own(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = append(s.owned, channelID)
}

func (s *Session) recordResults(ctx context.Context) {
	if s.opts.Stats == nil {
		return
	}
	if err := s.opts.Stats.RecordGame(ctx, s.id, s.game.Summary()); err != nil {
		log.Printf("⚠️ [%s] 记录战绩失败: %v", s.id, err)
	}
}

// Teardown 删除会话创建的所有频道。删除失败的频道保留，再次调用时重试。
func (s *Session) Teardown(ctx context.Context) error {
	s.teardownMu.Lock()
	defer s.teardownMu.Unlock()

	s.mu.Lock()
	owned := slices.Clone(s.owned)
	s.mu.Unlock()

	s.setState(engine.StateTeardown)
	if len(owned) == 0 {
		return nil
	}

	// 先删除子频道，最后删除分类
	var errs []error
	deleted := make(map[string]bool, len(owned))
	for _, id := range slices.Backward(owned) {
		if err := s.opts.Platform.DeleteChannel(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete channel %s: %w", id, err))
			continue
		}
		deleted[id] = true
	}

	s.mu.Lock()
	s.owned = slices.DeleteFunc(s.owned, func(id string) bool { return deleted[id] })
	left := len(s.owned)
	s.mu.Unlock()

	if left > 0 {
		log.Printf("⚠️ [%s] 已删除 %d 个频道，%d 个删除失败", s.id, len(deleted), left)
	} else {
		log.Printf("🧹 [%s] 已删除 %d 个频道", s.id, len(deleted))
	}
	return errors.Join(errs...)
}

var channelReplacer = strings.NewReplacer(" ", "-", "_", "-")

// channelName 转换为平台接受的频道名
func channelName(displayName string) string {
	name := strings.ToLower(channelReplacer.Replace(strings.TrimSpace(displayName)))
	if name == "" {
		return "player"
	}
	return name
}
