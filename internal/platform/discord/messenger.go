package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/platform"
)

func (a *Adapter) SendMessage(ctx context.Context, channelID string, c platform.Content) (platform.MessageRef, error) {
	msg, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    c.Text,
		Embeds:     toEmbeds(c),
		Components: toComponents(c),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, err
	}
	if c.HasComponents() {
		a.inboxes.Open(msg.ID)
	}
	return platform.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

// EditMessage 替换消息内容。移除组件后消息不再接受交互，
// 已排队的交互回复 "no active vote"。
func (a *Adapter) EditMessage(ctx context.Context, ref platform.MessageRef, c platform.Content) error {
	embeds := toEmbeds(c)
	components := toComponents(c)
	edit := &discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Content:    &c.Text,
		Embeds:     &embeds,
		Components: &components,
	}
	if _, err := a.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return err
	}

	if c.HasComponents() {
		a.inboxes.Open(ref.MessageID)
		return nil
	}
	for _, pending := range a.inboxes.Close(ref.MessageID) {
		a.replyQuietly(ctx, pending, apperrors.ErrNoActiveVote.Error())
	}
	return nil
}

func (a *Adapter) AwaitAction(ctx context.Context, ref platform.MessageRef, actionIDs []string, timeout time.Duration) (platform.Await, error) {
	return a.inboxes.Await(ctx, ref.MessageID, actionIDs, timeout, func(stale platform.Action) {
		a.replyQuietly(ctx, stale, apperrors.ErrNoActiveVote.Error())
	})
}

func interactionOf(action platform.Action) (*discordgo.Interaction, error) {
	i, ok := action.Handle.(*discordgo.Interaction)
	if !ok || i == nil {
		return nil, fmt.Errorf("action %s has no discord interaction", action.CustomID)
	}
	return i, nil
}

func (a *Adapter) Reply(ctx context.Context, action platform.Action, text string) error {
	i, err := interactionOf(action)
	if err != nil {
		return err
	}
	return a.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func (a *Adapter) Acknowledge(ctx context.Context, action platform.Action) error {
	i, err := interactionOf(action)
	if err != nil {
		return err
	}
	return a.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
}

func (a *Adapter) SetChannelPermissions(ctx context.Context, channelID string, ows []platform.Overwrite) error {
	guildID, err := a.guildOf(ctx, channelID)
	if err != nil {
		return err
	}
	_, err = a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{
		PermissionOverwrites: toOverwrites(guildID, ows),
	}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) guildOf(ctx context.Context, channelID string) (string, error) {
	a.mu.Lock()
	guildID, ok := a.channelGuild[channelID]
	a.mu.Unlock()
	if ok {
		return guildID, nil
	}

	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	a.rememberChannel(ch.ID, ch.GuildID)
	return ch.GuildID, nil
}

func (a *Adapter) rememberChannel(channelID, guildID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channelGuild[channelID] = guildID
}

func (a *Adapter) CreateCategory(ctx context.Context, guildID, name string, ows []platform.Overwrite) (string, error) {
	return a.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: toOverwrites(guildID, ows),
	})
}

func (a *Adapter) CreateChannel(ctx context.Context, guildID, parentID, name string, ows []platform.Overwrite) (string, error) {
	return a.createChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: toOverwrites(guildID, ows),
	})
}

func (a *Adapter) createChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (string, error) {
	ch, err := a.session.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	a.rememberChannel(ch.ID, guildID)
	return ch.ID, nil
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.channelGuild, channelID)
	a.mu.Unlock()
	return nil
}

func (a *Adapter) ListChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	chs, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]platform.Channel, len(chs))
	for i, ch := range chs {
		out[i] = platform.Channel{
			ID:       ch.ID,
			Name:     ch.Name,
			ParentID: ch.ParentID,
			Category: ch.Type == discordgo.ChannelTypeGuildCategory,
		}
	}
	return out, nil
}

func (a *Adapter) Member(ctx context.Context, guildID, userID string) (platform.Member, error) {
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, err
	}
	g, err := a.guild(ctx, guildID)
	if err != nil {
		return platform.Member{}, err
	}
	return platform.Member{
		ID:          userID,
		DisplayName: memberName(m),
		Privileged:  isPrivileged(g, m),
	}, nil
}

func (a *Adapter) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := a.session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g, nil
	}
	return a.session.Guild(guildID, discordgo.WithContext(ctx))
}

func (a *Adapter) SendDirect(ctx context.Context, userID, text string) error {
	ch, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	if _, err := a.session.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	log.Printf("✉️ 已私信 %s", userID)
	return nil
}
