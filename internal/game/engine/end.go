package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/platform"
)

// Cooldown 结算后的等待期。创建者确认或超时后进入 StateTeardown，
// 由调用方删除频道。超时是正常结束，不是错误。
func (g *Game) Cooldown(ctx context.Context) error {
	g.state = StateCooldown

	deadline := time.Now().Add(g.timings.End)
	content := cleanupContent(g.creatorID, g.timings.End)
	ref, err := g.msg.SendMessage(ctx, g.channels.General, content)
	if err != nil {
		return fmt.Errorf("send cleanup prompt: %w", err)
	}

wait:
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		res, err := g.msg.AwaitAction(ctx, ref, content.ActionIDs(), remaining)
		if err != nil {
			return fmt.Errorf("await cleanup: %w", err)
		}

		switch res.Status {
		case platform.AwaitTimedOut:
			log.Printf("⏰ [%s] 清理等待超时", g.id)
			break wait
		case platform.AwaitCancelled:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrCancelled
		case platform.AwaitAction:
			a := res.Action
			g.touchUser(ctx, a)
			if a.UserID != g.creatorID {
				if err := g.reject(ctx, a, apperrors.ErrNotCreator); err != nil {
					return err
				}
				continue
			}
			if err := g.msg.Acknowledge(ctx, a); err != nil {
				return fmt.Errorf("acknowledge cleanup: %w", err)
			}
			log.Printf("🧹 [%s] 创建者确认清理频道", g.id)
			break wait
		}
	}

	if err := g.msg.EditMessage(ctx, ref, cleanupClosedContent()); err != nil {
		return fmt.Errorf("close cleanup prompt: %w", err)
	}
	g.state = StateTeardown
	return nil
}
