package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/game/engine"
	"github.com/palemoky/werewolf/internal/game/lobby"
	"github.com/palemoky/werewolf/internal/game/role"
	"github.com/palemoky/werewolf/internal/platform"
)

// 大厅组件 ID
const (
	JoinButtonID       = "join"
	LeaveButtonID      = "leave"
	StartButtonID      = "start"
	AddRoleSelectID    = "add_role"
	RemoveRoleSelectID = "remove_role"
)

// RunLobby 驱动大厅直到创建者成功开局、无操作超时或被取消。
// 超时和取消都不是错误，通过 LobbyResult.Reason 返回。
func (s *Session) RunLobby(ctx context.Context) (LobbyResult, error) {
	p := s.opts.Platform

	content := s.lobbyContent()
	ref, err := p.SendMessage(ctx, s.opts.ChannelID, content)
	if err != nil {
		return LobbyResult{}, fmt.Errorf("send lobby: %w", err)
	}
	log.Printf("🏠 [%s] 大厅已创建，创建者 %s", s.id, s.opts.CreatorID)

	for {
		// 每次操作后重新计时
		res, err := p.AwaitAction(ctx, ref, content.ActionIDs(), s.opts.LobbyIdle)
		if err != nil {
			return LobbyResult{}, fmt.Errorf("await lobby action: %w", err)
		}

		switch res.Status {
		case platform.AwaitTimedOut:
			log.Printf("⏰ [%s] 大厅无人操作，已关闭", s.id)
			if err := p.EditMessage(ctx, ref, lobbyClosedContent(content, "Lobby closed: nobody started the game in time.")); err != nil {
				return LobbyResult{}, fmt.Errorf("close lobby: %w", err)
			}
			return LobbyResult{Reason: AbortTimedOut}, nil

		case platform.AwaitCancelled:
			return LobbyResult{Reason: AbortCancelled}, nil

		case platform.AwaitAction:
			a := res.Action
			s.touchUser(ctx, a)

			if err := s.applyLobbyAction(a); err != nil {
				if !apperrors.IsUserError(err) {
					return LobbyResult{}, err
				}
				if err := p.Reply(ctx, a, err.Error()); err != nil {
					return LobbyResult{}, fmt.Errorf("reply to %s: %w", a.UserID, err)
				}
				continue
			}
			if err := p.Acknowledge(ctx, a); err != nil {
				return LobbyResult{}, fmt.Errorf("acknowledge lobby action: %w", err)
			}

			if s.roster.Frozen() {
				snap := s.roster.Snapshot()
				s.snapshot = &snap
				s.setState(engine.StateRoleAssignment)
				if err := p.EditMessage(ctx, ref, lobbyClosedContent(s.lobbyContent(), "The game is starting!")); err != nil {
					return LobbyResult{}, fmt.Errorf("close lobby: %w", err)
				}
				log.Printf("🚀 [%s] 开局：%d 名玩家", s.id, len(snap.PlayerIDs))
				return LobbyResult{Started: true, Snapshot: snap}, nil
			}

			content = s.lobbyContent()
			if err := p.EditMessage(ctx, ref, content); err != nil {
				return LobbyResult{}, fmt.Errorf("update lobby: %w", err)
			}
		}
	}
}

func (s *Session) applyLobbyAction(a platform.Action) error {
	switch a.CustomID {
	case JoinButtonID:
		return s.roster.Join(a.UserID)
	case LeaveButtonID:
		return s.roster.Leave(a.UserID)
	case AddRoleSelectID:
		return s.roster.AddRole(a.UserID, a.Value())
	case RemoveRoleSelectID:
		return s.roster.RemoveRole(a.UserID, a.Value())
	case StartButtonID:
		return s.roster.RequestStart(a.UserID)
	default:
		return apperrors.ErrNoActiveVote
	}
}

func (s *Session) touchUser(ctx context.Context, a platform.Action) {
	if s.opts.Users == nil || a.UserID == "" {
		return
	}
	if err := s.opts.Users.UpsertUser(ctx, a.UserID, a.UserName); err != nil {
		log.Printf("⚠️ [%s] 记录用户 %s 失败: %v", s.id, a.UserID, err)
	}
}

// Roster 大厅状态，只能在运行大厅的 goroutine 中使用
func (s *Session) Roster() *lobby.Roster {
	return s.roster
}

func (s *Session) lobbyContent() platform.Content {
	players := s.roster.Players()
	lines := make([]string, len(players))
	for i, id := range players {
		lines[i] = "• " + platform.Mention(id)
	}
	playerList := strings.Join(lines, "\n")
	if playerList == "" {
		playerList = "Nobody yet"
	}

	counts := s.roster.RoleCounts()
	var pool []string
	for _, rc := range counts {
		pool = append(pool, fmt.Sprintf("%s × %d", rc.Role.Label(), rc.Count))
	}
	poolList := strings.Join(pool, "\n")
	if poolList == "" {
		poolList = "No roles yet"
	}

	addOptions := make([]platform.Option, 0, len(role.All()))
	for _, r := range role.All() {
		addOptions = append(addOptions, platform.Option{
			Value:       r.Key(),
			Label:       r.Name(),
			Emoji:       r.Emoji(),
			Description: truncate(r.Description(), 100),
		})
	}

	c := platform.Content{
		Title:       "🐺 Werewolf",
		Description: fmt.Sprintf("%s is gathering the village. Join before the game starts!", platform.Mention(s.opts.CreatorID)),
		Color:       s.opts.Color,
		Fields: []platform.Field{
			{Name: fmt.Sprintf("Players (%d)", len(players)), Value: playerList, Inline: true},
			{Name: fmt.Sprintf("Roles (%d)", len(s.roster.Roles())), Value: poolList, Inline: true},
		},
		Footer: "Only the creator can pick roles and start the game.",
		Buttons: []platform.Button{
			{ID: JoinButtonID, Label: "Join", Style: platform.ButtonSuccess},
			{ID: LeaveButtonID, Label: "Leave", Style: platform.ButtonSecondary},
			{ID: StartButtonID, Label: "Start", Style: platform.ButtonPrimary},
		},
		Selects: []platform.Select{{ID: AddRoleSelectID, Placeholder: "Add a role", Options: addOptions}},
	}

	if len(counts) > 0 {
		removeOptions := make([]platform.Option, len(counts))
		for i, rc := range counts {
			removeOptions[i] = platform.Option{Value: rc.Role.Key(), Label: rc.Role.Name(), Emoji: rc.Role.Emoji()}
		}
		c.Selects = append(c.Selects, platform.Select{ID: RemoveRoleSelectID, Placeholder: "Remove a role", Options: removeOptions})
	}
	return c
}

func lobbyClosedContent(c platform.Content, footer string) platform.Content {
	c = c.WithoutComponents()
	c.Footer = footer
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
