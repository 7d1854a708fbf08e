// Package engine 狼人杀阶段引擎：夜晚/白天循环、投票、淘汰与胜负判定
package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/palemoky/werewolf/internal/game/role"
	"github.com/palemoky/werewolf/internal/platform"
)

// State 游戏状态
type State int

const (
	StateLobby State = iota
	StateRoleAssignment
	StateSeerPhase
	StateWerewolfPhase
	StateDayPhase
	StateResolved
	StateCooldown
	StateTeardown
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateRoleAssignment:
		return "role assignment"
	case StateSeerPhase:
		return "seer phase"
	case StateWerewolfPhase:
		return "werewolf phase"
	case StateDayPhase:
		return "day phase"
	case StateResolved:
		return "resolved"
	case StateCooldown:
		return "cooldown"
	case StateTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Outcome 胜负结果
type Outcome int

const (
	OutcomeOngoing Outcome = iota
	OutcomeVillagersWin
	OutcomeWerewolvesWin
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVillagersWin:
		return "villagers win"
	case OutcomeWerewolvesWin:
		return "werewolves win"
	case OutcomeDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Won 阵营 f 在结果 o 下是否获胜
func (o Outcome) Won(f role.Faction) bool {
	switch o {
	case OutcomeVillagersWin:
		return f == role.FactionVillage
	case OutcomeWerewolvesWin:
		return f == role.FactionWerewolves
	default:
		return false
	}
}

// Timings 各阶段时长
type Timings struct {
	Seer     time.Duration
	Werewolf time.Duration
	Day      time.Duration
	End      time.Duration
}

// DefaultTimings 默认阶段时长
func DefaultTimings() Timings {
	return Timings{
		Seer:     60 * time.Second,
		Werewolf: 120 * time.Second,
		Day:      300 * time.Second,
		End:      10 * time.Minute,
	}
}

// Player 游戏中的玩家。死亡只是标记，玩家永远不会从列表中移除。
type Player struct {
	ID      string
	Name    string
	Role    role.Role
	Alive   bool
	Channel string // 私人频道 ID，由平台层持有
}

// Channels 游戏拥有的公共频道
type Channels struct {
	Category string
	General  string
	Den      string
}

// Config 创建 Game 所需的参数
type Config struct {
	ID        string
	GuildID   string
	CreatorID string
	Players   []*Player
	Channels  Channels
	Timings   Timings
	Messenger platform.Messenger
	Users     platform.UserStore // 可选
	Rand      *rand.Rand
	// ImageBaseURL 角色图片的 URL 前缀，为空时不展示图片
	ImageBaseURL string
	Color        int
}

// ErrCancelled 等待玩家操作时被取消
var ErrCancelled = errors.New("engine: wait cancelled")

// Game 一局游戏的权威状态。所有方法都在同一个控制流中顺序调用。
type Game struct {
	id        string
	guildID   string
	creatorID string

	players []*Player
	victims []*Player // 夜间待公布的死者
	round   int

	state    State
	outcome  Outcome
	finished bool

	channels     Channels
	timings      Timings
	msg          platform.Messenger
	users        platform.UserStore
	rng          *rand.Rand
	imageBaseURL string
	color        int

	generalMode generalMode
}

// New 创建游戏
func New(cfg Config) *Game {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Game{
		id:           cfg.ID,
		guildID:      cfg.GuildID,
		creatorID:    cfg.CreatorID,
		players:      cfg.Players,
		state:        StateRoleAssignment,
		channels:     cfg.Channels,
		timings:      cfg.Timings,
		msg:          cfg.Messenger,
		users:        cfg.Users,
		rng:          rng,
		imageBaseURL: cfg.ImageBaseURL,
		color:        cfg.Color,
		generalMode:  generalLocked,
	}
}

func (g *Game) ID() string         { return g.id }
func (g *Game) State() State       { return g.state }
func (g *Game) Outcome() Outcome   { return g.outcome }
func (g *Game) Finished() bool     { return g.finished }
func (g *Game) Round() int         { return g.round }
func (g *Game) Channels() Channels { return g.channels }

// Players 所有玩家（含死亡）
func (g *Game) Players() []*Player {
	return slices.Clone(g.players)
}

// Victims 待公布的夜间死者
func (g *Game) Victims() []*Player {
	return slices.Clone(g.victims)
}

// Player 按 ID 查找玩家
func (g *Game) Player(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// alive 返回满足条件的存活玩家
func (g *Game) alive(filter func(*Player) bool) []*Player {
	var out []*Player
	for _, p := range g.players {
		if p.Alive && (filter == nil || filter(p)) {
			out = append(out, p)
		}
	}
	return out
}

// nightActors 夜间行动为 action 的存活玩家
func (g *Game) nightActors(action role.NightAction) []*Player {
	return g.alive(func(p *Player) bool { return p.Role.Night() == action })
}

func (g *Game) queued(p *Player) bool {
	return slices.Contains(g.victims, p)
}

func ids(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func findPlayer(players []*Player, id string) *Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
