package engine

import (
	"context"
	"fmt"

	"github.com/palemoky/werewolf/internal/platform"
)

// generalMode 广场频道的发言权限
type generalMode int

const (
	generalLocked generalMode = iota // 所有人只读
	generalDay                       // 存活玩家可发言
	generalOpen                      // 所有玩家可发言（结算后）
)

func everyoneHidden() platform.Overwrite {
	return platform.Overwrite{Everyone: true, Deny: platform.PermView}
}

// CategoryOverwrites 分类频道：只有玩家可见
func CategoryOverwrites(players []*Player) []platform.Overwrite {
	out := []platform.Overwrite{everyoneHidden()}
	for _, p := range players {
		out = append(out, platform.Overwrite{TargetID: p.ID, Allow: platform.PermView})
	}
	return out
}

// GeneralOverwrites 广场频道，夜间只读
func GeneralOverwrites(players []*Player) []platform.Overwrite {
	return generalOverwrites(players, generalLocked)
}

func generalOverwrites(players []*Player, mode generalMode) []platform.Overwrite {
	out := []platform.Overwrite{everyoneHidden()}
	for _, p := range players {
		ow := platform.Overwrite{TargetID: p.ID, Allow: platform.PermView}
		if mode == generalOpen || (mode == generalDay && p.Alive) {
			ow.Allow |= platform.PermSend
		} else {
			ow.Deny = platform.PermSend
		}
		out = append(out, ow)
	}
	return out
}

// DenOverwrites 狼人频道：仅狼人可见，投票窗口内存活狼人可发言
func DenOverwrites(players []*Player, writable bool) []platform.Overwrite {
	out := []platform.Overwrite{everyoneHidden()}
	for _, p := range players {
		if !p.Role.IsWerewolf() {
			continue
		}
		ow := platform.Overwrite{TargetID: p.ID, Allow: platform.PermView}
		if writable && p.Alive {
			ow.Allow |= platform.PermSend
		} else {
			ow.Deny = platform.PermSend
		}
		out = append(out, ow)
	}
	return out
}

// PrivateOverwrites 玩家私人频道：死亡后只读
func PrivateOverwrites(p *Player) []platform.Overwrite {
	ow := platform.Overwrite{TargetID: p.ID, Allow: platform.PermView | platform.PermSend}
	if !p.Alive {
		ow.Allow = platform.PermView
		ow.Deny = platform.PermSend
	}
	return []platform.Overwrite{everyoneHidden(), ow}
}

// setGeneral 切换广场频道发言权限
func (g *Game) setGeneral(ctx context.Context, mode generalMode) error {
	g.generalMode = mode
	if err := g.msg.SetChannelPermissions(ctx, g.channels.General, generalOverwrites(g.players, mode)); err != nil {
		return fmt.Errorf("set general permissions: %w", err)
	}
	return nil
}

func (g *Game) setDen(ctx context.Context, writable bool) error {
	if err := g.msg.SetChannelPermissions(ctx, g.channels.Den, DenOverwrites(g.players, writable)); err != nil {
		return fmt.Errorf("set den permissions: %w", err)
	}
	return nil
}

// mute 死亡玩家在所有频道变为只读
func (g *Game) mute(ctx context.Context, p *Player) error {
	if p.Channel != "" {
		if err := g.msg.SetChannelPermissions(ctx, p.Channel, PrivateOverwrites(p)); err != nil {
			return fmt.Errorf("mute private channel: %w", err)
		}
	}
	if p.Role.IsWerewolf() {
		if err := g.setDen(ctx, false); err != nil {
			return err
		}
	}
	return g.setGeneral(ctx, g.generalMode)
}
