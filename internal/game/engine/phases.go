package engine

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/palemoky/werewolf/internal/game/role"
)

// Introduce 发放角色卡，介绍狼人频道并在广场欢迎所有玩家
func (g *Game) Introduce(ctx context.Context) error {
	g.state = StateRoleAssignment

	for _, p := range g.players {
		if p.Channel == "" {
			continue
		}
		if _, err := g.msg.SendMessage(ctx, p.Channel, roleCardContent(g, p)); err != nil {
			return fmt.Errorf("send role card to %s: %w", p.ID, err)
		}
	}

	if wolves := g.nightActors(role.NightHunt); len(wolves) > 0 && g.channels.Den != "" {
		if _, err := g.msg.SendMessage(ctx, g.channels.Den, denIntroContent(wolves)); err != nil {
			return fmt.Errorf("send den intro: %w", err)
		}
	}

	if _, err := g.msg.SendMessage(ctx, g.channels.General, welcomeContent(g)); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}

// Run 循环夜晚与白天直到分出胜负
func (g *Game) Run(ctx context.Context) (Outcome, error) {
	for {
		if err := g.night(ctx); err != nil {
			return OutcomeOngoing, err
		}

		if err := g.SeerPhase(ctx); err != nil {
			return OutcomeOngoing, err
		}
		if err := g.WerewolfPhase(ctx); err != nil {
			return OutcomeOngoing, err
		}
		if o := g.CheckWin(); o != OutcomeOngoing {
			return o, g.conclude(ctx, o)
		}

		if err := g.DayPhase(ctx); err != nil {
			return OutcomeOngoing, err
		}
		if o := g.CheckWin(); o != OutcomeOngoing {
			return o, g.conclude(ctx, o)
		}
	}
}

func (g *Game) night(ctx context.Context) error {
	g.round++
	log.Printf("🌙 [%s] 第 %d 夜", g.id, g.round)

	if _, err := g.msg.SendMessage(ctx, g.channels.General, nightContent(g.round)); err != nil {
		return fmt.Errorf("announce night: %w", err)
	}
	return g.setGeneral(ctx, generalLocked)
}

// SeerPhase 每个存活的预言家查验一名其他存活玩家，结果只发送到预言家的私人频道
func (g *Game) SeerPhase(ctx context.Context) error {
	g.state = StateSeerPhase

	for _, seer := range g.nightActors(role.NightInspect) {
		targets := g.alive(func(p *Player) bool { return p != seer })
		if len(targets) == 0 || seer.Channel == "" {
			continue
		}

		voters := []*Player{seer}
		target, err := g.runVote(ctx, votePhase{
			name:      "seer",
			channelID: seer.Channel,
			voters:    voters,
			targets:   targets,
			duration:  g.timings.Seer,
			render: ballotRenderer("🔮 Whose role do you want to see?",
				"Pick a player. Without a choice, fate picks one for you.",
				seer.Role.Color(), voters, targets, g.timings.Seer, false),
		})
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}

		if _, err := g.msg.SendMessage(ctx, seer.Channel, seerRevealContent(target)); err != nil {
			return fmt.Errorf("send seer reveal: %w", err)
		}
		log.Printf("🔮 [%s] 预言家 %s 查验了 %s", g.id, seer.Name, target.Name)
	}
	return nil
}

// WerewolfPhase 存活狼人投票选出猎物。猎物进入待公布队列，天亮时才死亡。
func (g *Game) WerewolfPhase(ctx context.Context) error {
	g.state = StateWerewolfPhase

	wolves := g.nightActors(role.NightHunt)
	targets := g.alive(func(p *Player) bool { return !p.Role.IsWerewolf() && !g.queued(p) })
	if len(wolves) == 0 || len(targets) == 0 {
		return nil
	}

	if err := g.setDen(ctx, true); err != nil {
		return err
	}
	victim, err := g.runVote(ctx, votePhase{
		name:      "werewolf",
		channelID: g.channels.Den,
		voters:    wolves,
		targets:   targets,
		duration:  g.timings.Werewolf,
		render: ballotRenderer("🐺 Who will be devoured tonight?",
			"Agree on a victim. The most voted player dies at dawn.",
			role.Werewolf.Color(), wolves, targets, g.timings.Werewolf, true),
	})
	if err != nil {
		return err
	}
	if err := g.setDen(ctx, false); err != nil {
		return err
	}

	if victim == nil {
		return nil
	}
	g.victims = append(g.victims, victim)
	if _, err := g.msg.SendMessage(ctx, g.channels.Den, huntResultContent(victim)); err != nil {
		return fmt.Errorf("announce hunt: %w", err)
	}
	return nil
}

// DayPhase 公布夜间死者后，所有存活玩家投票处决一名存活玩家
func (g *Game) DayPhase(ctx context.Context) error {
	g.state = StateDayPhase

	if _, err := g.msg.SendMessage(ctx, g.channels.General, dayContent(g.round)); err != nil {
		return fmt.Errorf("announce day: %w", err)
	}
	if err := g.revealVictims(ctx); err != nil {
		return err
	}

	if err := g.setGeneral(ctx, generalDay); err != nil {
		return err
	}

	living := g.alive(nil)
	lynched, err := g.runVote(ctx, votePhase{
		name:      "day",
		channelID: g.channels.General,
		voters:    living,
		targets:   living,
		duration:  g.timings.Day,
		render: ballotRenderer("⚖️ Who should the village eliminate?",
			"Discuss, then vote. The most voted player is executed.",
			colorDay, living, living, g.timings.Day, true),
	})
	if err != nil {
		return err
	}
	if lynched != nil {
		return g.kill(ctx, lynched, "was executed by the village.")
	}
	return nil
}

// CheckWin 判定胜负，待公布的夜间死者按已死亡计算
func (g *Game) CheckWin() Outcome {
	var wolves, village int
	for _, p := range g.players {
		if !p.Alive || g.queued(p) {
			continue
		}
		if p.Role.IsWerewolf() {
			wolves++
		} else {
			village++
		}
	}

	switch {
	case wolves == 0 && village == 0:
		return OutcomeDraw
	case wolves == 0:
		return OutcomeVillagersWin
	case village == 0:
		return OutcomeWerewolvesWin
	default:
		return OutcomeOngoing
	}
}

// revealVictims 以随机顺序公布并处死所有待公布的死者
func (g *Game) revealVictims(ctx context.Context) error {
	order := slices.Clone(g.victims)
	g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	g.victims = nil

	for _, p := range order {
		if err := g.kill(ctx, p, "was devoured by the werewolves during the night."); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) kill(ctx context.Context, p *Player, cause string) error {
	p.Alive = false
	log.Printf("💀 [%s] %s (%s) 死亡", g.id, p.Name, p.Role)

	if _, err := g.msg.SendMessage(ctx, g.channels.General, deathContent(g, p, cause)); err != nil {
		return fmt.Errorf("announce death of %s: %w", p.ID, err)
	}
	return g.mute(ctx, p)
}

// conclude 公布剩余死者与结果，并重新开放广场
func (g *Game) conclude(ctx context.Context, o Outcome) error {
	if err := g.revealVictims(ctx); err != nil {
		return err
	}

	g.outcome = o
	g.finished = true
	g.state = StateResolved
	log.Printf("🏁 [%s] 游戏结束，共 %d 轮: %s", g.id, g.round, o)

	if err := g.setGeneral(ctx, generalOpen); err != nil {
		return err
	}
	if _, err := g.msg.SendMessage(ctx, g.channels.General, resultContent(g)); err != nil {
		return fmt.Errorf("announce result: %w", err)
	}
	return nil
}

// Summary 结算后每位玩家的阵营与胜负
func (g *Game) Summary() []Result {
	out := make([]Result, len(g.players))
	for i, p := range g.players {
		out[i] = Result{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Role:       p.Role,
			Alive:      p.Alive,
			Won:        g.outcome.Won(p.Role.Faction()),
			Draw:       g.outcome == OutcomeDraw,
		}
	}
	return out
}

// Result 单个玩家的结算信息
type Result struct {
	PlayerID   string
	PlayerName string
	Role       role.Role
	Alive      bool
	Won        bool
	Draw       bool
}
