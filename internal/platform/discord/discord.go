// Package discord 基于 discordgo 实现平台接口
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/logger"
	"github.com/palemoky/werewolf/internal/platform"
)

// requestTimeout 单次交互的处理时限
const requestTimeout = 10 * time.Second

// Adapter Discord 机器人连接
type Adapter struct {
	session *discordgo.Session
	appID   string
	// 非空时命令只注册到该服务器
	commandGuildID string

	handler platform.Handler
	inboxes *platform.Inboxes

	mu           sync.Mutex
	channelGuild map[string]string
}

var (
	_ platform.Platform        = (*Adapter)(nil)
	_ platform.DirectMessenger = (*Adapter)(nil)
)

// New 创建适配器，Open 时才连接
func New(token, appID, commandGuildID string) (*Adapter, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	a := &Adapter{
		session:        s,
		appID:          appID,
		commandGuildID: commandGuildID,
		inboxes:        platform.NewInboxes(),
		channelGuild:   make(map[string]string),
	}
	s.AddHandler(a.onReady)
	s.AddHandler(a.onInteraction)
	return a, nil
}

// SetHandler 设置命令接收者，须在 Open 之前调用
func (a *Adapter) SetHandler(h platform.Handler) {
	a.handler = h
}

// Open 连接网关并注册命令
func (a *Adapter) Open(ctx context.Context) error {
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	if a.handler == nil {
		return nil
	}

	cmds := toCommands(a.handler.Commands())
	if _, err := a.session.ApplicationCommandBulkOverwrite(a.appID, a.commandGuildID, cmds, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	log.Printf("📋 已注册 %d 个命令", len(cmds))
	return nil
}

// Close 断开网关连接
func (a *Adapter) Close() error {
	return a.session.Close()
}

func (a *Adapter) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Printf("✅ 已登录为 %s，服务器数 %d", r.User.Username, len(r.Guilds))
}

func (a *Adapter) onInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	defer logger.Recover("discord interaction")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		a.onCommand(ctx, ic.Interaction)
	case discordgo.InteractionMessageComponent:
		a.onComponent(ctx, ic.Interaction)
	}
}

func (a *Adapter) onCommand(ctx context.Context, i *discordgo.Interaction) {
	if a.handler == nil {
		return
	}
	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user == nil {
		return
	}

	name := userName(user)
	if i.Member != nil {
		name = memberName(i.Member)
	}
	a.handler.HandleCommand(ctx, platform.Command{
		Name:      data.Name,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    user.ID,
		UserName:  name,
		Options:   commandOptions(data.Options),
		Responder: &responder{session: a.session, interaction: i},
	})
}

func (a *Adapter) onComponent(ctx context.Context, i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil || i.Message == nil {
		return
	}
	data := i.MessageComponentData()

	name := userName(user)
	if i.Member != nil {
		name = memberName(i.Member)
	}
	action := platform.Action{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		MessageID: i.Message.ID,
		UserID:    user.ID,
		UserName:  name,
		CustomID:  data.CustomID,
		Values:    data.Values,
		Handle:    i,
	}

	if a.handler != nil && !a.handler.AllowInteraction(user.ID) {
		a.replyQuietly(ctx, action, apperrors.ErrRateLimited.Error())
		return
	}
	if err := a.inboxes.Deliver(action); err != nil {
		a.replyQuietly(ctx, action, platform.DeliveryError(err).Error())
	}
}

func (a *Adapter) replyQuietly(ctx context.Context, action platform.Action, text string) {
	if err := a.Reply(ctx, action, text); err != nil {
		log.Printf("⚠️ 回复交互失败: %v", err)
	}
}

// responder 回复斜杠命令：首次为交互响应，之后为 followup
type responder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu      sync.Mutex
	replied bool
}

func (r *responder) Respond(ctx context.Context, c platform.Content, private bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var flags discordgo.MessageFlags
	if private {
		flags = discordgo.MessageFlagsEphemeral
	}

	if r.replied {
		_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Content:    c.Text,
			Embeds:     toEmbeds(c),
			Components: toComponents(c),
			Flags:      flags,
		}, discordgo.WithContext(ctx))
		return err
	}

	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    c.Text,
			Embeds:     toEmbeds(c),
			Components: toComponents(c),
			Flags:      flags,
		},
	}, discordgo.WithContext(ctx))
	if err == nil {
		r.replied = true
	}
	return err
}
