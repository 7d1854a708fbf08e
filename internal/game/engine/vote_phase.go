package engine

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/game/vote"
	"github.com/palemoky/werewolf/internal/platform"
)

// votePhase 一次投票的参数
type votePhase struct {
	name      string
	channelID string
	voters    []*Player
	targets   []*Player
	duration  time.Duration
	render    func(*vote.Ballot) platform.Content
}

// runVote 收集投票直到所有人表态或截止时间到达，返回胜出目标。
// voters 或 targets 为空时不发送消息，直接返回 nil。
func (g *Game) runVote(ctx context.Context, vp votePhase) (*Player, error) {
	if len(vp.voters) == 0 || len(vp.targets) == 0 {
		return nil, nil
	}

	// 截止时间在阶段开始时确定，不因玩家操作而延长
	deadline := time.Now().Add(vp.duration)
	ballot := vote.NewBallot()

	content := vp.render(ballot)
	ref, err := g.msg.SendMessage(ctx, vp.channelID, content)
	if err != nil {
		return nil, fmt.Errorf("send %s vote: %w", vp.name, err)
	}

collect:
	for ballot.Len() < len(vp.voters) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		res, err := g.msg.AwaitAction(ctx, ref, content.ActionIDs(), remaining)
		if err != nil {
			return nil, fmt.Errorf("await %s vote: %w", vp.name, err)
		}

		switch res.Status {
		case platform.AwaitTimedOut:
			log.Printf("⏰ [%s] %s 投票超时，已收到 %d/%d 票", g.id, vp.name, ballot.Len(), len(vp.voters))
			break collect
		case platform.AwaitCancelled:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrCancelled
		case platform.AwaitAction:
			changed, err := g.applyVote(ctx, vp, ballot, res.Action)
			if err != nil {
				return nil, err
			}
			if changed {
				content = vp.render(ballot)
				if err := g.msg.EditMessage(ctx, ref, content); err != nil {
					return nil, fmt.Errorf("update %s vote: %w", vp.name, err)
				}
			}
		}
	}

	var winner *Player
	if id, ok := vote.PickWinner(ballot.Tally(), ids(vp.targets), g.rng); ok {
		winner = findPlayer(vp.targets, id)
	}

	// 去掉组件后，迟到的操作会被平台层回复“没有进行中的投票”
	if err := g.msg.EditMessage(ctx, ref, voteClosedContent(content, winner)); err != nil {
		return nil, fmt.Errorf("close %s vote: %w", vp.name, err)
	}
	if winner != nil {
		log.Printf("🗳️ [%s] %s 投票结果: %s", g.id, vp.name, winner.Name)
	}
	return winner, nil
}

// applyVote 处理一次投票操作。用户错误回复给操作者，选票不变。
func (g *Game) applyVote(ctx context.Context, vp votePhase, ballot *vote.Ballot, a platform.Action) (bool, error) {
	g.touchUser(ctx, a)

	if findPlayer(vp.voters, a.UserID) == nil {
		return false, g.reject(ctx, a, apperrors.ErrNotEligible)
	}

	switch a.CustomID {
	case AbstainButtonID:
		ballot.Abstain(a.UserID)
	case VoteSelectID:
		target := a.Value()
		if !slices.Contains(ids(vp.targets), target) {
			return false, g.reject(ctx, a, apperrors.ErrInvalidTarget)
		}
		ballot.Cast(a.UserID, target)
	default:
		return false, g.reject(ctx, a, apperrors.ErrNoActiveVote)
	}

	if err := g.msg.Acknowledge(ctx, a); err != nil {
		return false, fmt.Errorf("acknowledge vote: %w", err)
	}
	return true, nil
}

// reject 向操作者回复用户错误
func (g *Game) reject(ctx context.Context, a platform.Action, userErr error) error {
	if err := g.msg.Reply(ctx, a, userErr.Error()); err != nil {
		return fmt.Errorf("reply to %s: %w", a.UserID, err)
	}
	return nil
}

// touchUser 记录每个交互过的用户，失败只记录日志
func (g *Game) touchUser(ctx context.Context, a platform.Action) {
	if g.users == nil || a.UserID == "" {
		return
	}
	if err := g.users.UpsertUser(ctx, a.UserID, a.UserName); err != nil {
		log.Printf("⚠️ [%s] 记录用户 %s 失败: %v", g.id, a.UserID, err)
	}
}
