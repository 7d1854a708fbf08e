package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/palemoky/werewolf/internal/game/role"
	"github.com/palemoky/werewolf/internal/game/vote"
	"github.com/palemoky/werewolf/internal/platform"
)

// 组件 ID
const (
	VoteSelectID     = "vote"
	AbstainButtonID  = "abstain"
	DeleteChannelsID = "delete_channels"
)

const (
	colorNight = 0x2C2F33
	colorDay   = 0xF1C40F
	colorDeath = 0x99AAB5
)

func (g *Game) imageURL(r role.Role) string {
	if g.imageBaseURL == "" {
		return ""
	}
	return strings.TrimRight(g.imageBaseURL, "/") + "/" + r.Image()
}

func roleCardContent(g *Game, p *Player) platform.Content {
	return platform.Content{
		Text:        platform.Mention(p.ID),
		Title:       fmt.Sprintf("You are %s", p.Role.Label()),
		Description: p.Role.Description(),
		Color:       p.Role.Color(),
		ImageURL:    g.imageURL(p.Role),
		Footer:      "This channel is private. Keep your role secret!",
	}
}

func denIntroContent(wolves []*Player) platform.Content {
	lines := make([]string, len(wolves))
	for i, w := range wolves {
		lines[i] = "• " + platform.Mention(w.ID)
	}
	return platform.Content{
		Title:       "🐺 The den",
		Description: "Your pack:\n" + strings.Join(lines, "\n"),
		Color:       role.Werewolf.Color(),
		Footer:      "You can talk here only while the pack is hunting.",
	}
}

func welcomeContent(g *Game) platform.Content {
	lines := make([]string, len(g.players))
	for i, p := range g.players {
		lines[i] = "• " + platform.Mention(p.ID)
	}

	counts := map[role.Role]int{}
	for _, p := range g.players {
		counts[p.Role]++
	}
	var pool []string
	for _, r := range role.All() {
		if n := counts[r]; n > 0 {
			pool = append(pool, fmt.Sprintf("%s × %d", r.Label(), n))
		}
	}

	return platform.Content{
		Title:       "🏘️ Welcome to the village",
		Description: "Players:\n" + strings.Join(lines, "\n"),
		Color:       g.color,
		Fields:      []platform.Field{{Name: "Roles in play", Value: strings.Join(pool, "\n")}},
		Footer:      "Check your private channel to discover your role.",
	}
}

func privilegedWarningContent(members []platform.Member) platform.Content {
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = "• " + platform.Mention(m.ID)
	}
	return platform.Content{
		Title: "⚠️ Fair play warning",
		Description: "These players have administrator rights and can see every channel of this game:\n" +
			strings.Join(lines, "\n"),
		Color: 0xE67E22,
	}
}

// PrivilegedWarning 管理员玩家提示
func PrivilegedWarning(members []platform.Member) platform.Content {
	return privilegedWarningContent(members)
}

func nightContent(round int) platform.Content {
	return platform.Content{
		Title:       fmt.Sprintf("🌙 Night %d", round),
		Description: "The village falls asleep. The square is silent until dawn.",
		Color:       colorNight,
	}
}

func dayContent(round int) platform.Content {
	return platform.Content{
		Title:       fmt.Sprintf("☀️ Day %d", round),
		Description: "The village wakes up.",
		Color:       colorDay,
	}
}

func deathContent(g *Game, p *Player, cause string) platform.Content {
	return platform.Content{
		Title:       fmt.Sprintf("💀 %s is dead", p.Name),
		Description: fmt.Sprintf("%s %s\nThey were %s.", platform.Mention(p.ID), cause, p.Role.Label()),
		Color:       colorDeath,
		ImageURL:    g.imageURL(p.Role),
	}
}

func seerRevealContent(target *Player) platform.Content {
	return platform.Content{
		Title:       "🔮 Vision",
		Description: fmt.Sprintf("%s is %s.", platform.Mention(target.ID), target.Role.Label()),
		Color:       role.Seer.Color(),
	}
}

func huntResultContent(victim *Player) platform.Content {
	return platform.Content{
		Title:       "🐺 The pack has chosen",
		Description: fmt.Sprintf("%s will not see the sunrise.", platform.Mention(victim.ID)),
		Color:       role.Werewolf.Color(),
	}
}

func resultContent(g *Game) platform.Content {
	var title string
	var color int
	switch g.outcome {
	case OutcomeVillagersWin:
		title, color = "🏆 The village wins!", role.Villager.Color()
	case OutcomeWerewolvesWin:
		title, color = "🏆 The werewolves win!", role.Werewolf.Color()
	default:
		title, color = "🤝 Draw: nobody survived", colorDeath
	}

	fields := make([]platform.Field, len(g.players))
	for i, p := range g.players {
		status := "alive"
		if !p.Alive {
			status = "dead"
		}
		fields[i] = platform.Field{
			Name:   p.Name,
			Value:  fmt.Sprintf("%s (%s)", p.Role.Label(), status),
			Inline: true,
		}
	}

	return platform.Content{
		Title:  title,
		Color:  color,
		Fields: fields,
	}
}

func cleanupContent(creatorID string, timeout time.Duration) platform.Content {
	return platform.Content{
		Title:       "🧹 Game over",
		Description: fmt.Sprintf("%s can delete the game channels now. They are deleted automatically in %s.", platform.Mention(creatorID), timeout.Round(time.Second)),
		Color:       colorDeath,
		Buttons: []platform.Button{{
			ID:    DeleteChannelsID,
			Label: "Delete channels",
			Emoji: "🗑️",
			Style: platform.ButtonDanger,
		}},
	}
}

func cleanupClosedContent() platform.Content {
	return platform.Content{
		Title:       "🧹 Game over",
		Description: "Deleting the game channels…",
		Color:       colorDeath,
	}
}

// ballotRenderer 投票消息渲染。showVotes 为 true 时展示每个人的选择。
func ballotRenderer(title, description string, color int, voters, targets []*Player, d time.Duration, showVotes bool) func(*vote.Ballot) platform.Content {
	return func(b *vote.Ballot) platform.Content {
		options := make([]platform.Option, len(targets))
		for i, t := range targets {
			options[i] = platform.Option{Value: t.ID, Label: t.Name}
		}

		c := platform.Content{
			Title:       title,
			Description: description,
			Color:       color,
			Footer:      fmt.Sprintf("%d/%d voted · closes after %s", b.Len(), len(voters), d.Round(time.Second)),
			Selects: []platform.Select{{
				ID:          VoteSelectID,
				Placeholder: "Choose a player",
				Options:     options,
			}},
			Buttons: []platform.Button{{
				ID:    AbstainButtonID,
				Label: "Cancel my vote",
				Style: platform.ButtonSecondary,
			}},
		}

		if showVotes && b.Len() > 0 {
			lines := make([]string, 0, b.Len())
			for _, voterID := range b.Voters() {
				targetID, _ := b.Choice(voterID)
				choice := "abstains"
				if t := findPlayer(targets, targetID); t != nil {
					choice = "→ " + t.Name
				}
				name := voterID
				if v := findPlayer(voters, voterID); v != nil {
					name = v.Name
				}
				lines = append(lines, fmt.Sprintf("%s %s", name, choice))
			}
			c.Fields = []platform.Field{{Name: "Votes", Value: strings.Join(lines, "\n")}}
		}
		return c
	}
}

func voteClosedContent(open platform.Content, winner *Player) platform.Content {
	c := open.WithoutComponents()
	if winner != nil {
		c.Footer = "Vote closed: " + winner.Name
	} else {
		c.Footer = "Vote closed"
	}
	return c
}
