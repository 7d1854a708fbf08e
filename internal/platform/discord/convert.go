package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/palemoky/werewolf/internal/platform"
)

const maxButtonsPerRow = 5

var buttonStyles = map[platform.ButtonStyle]discordgo.ButtonStyle{
	platform.ButtonPrimary:   discordgo.PrimaryButton,
	platform.ButtonSecondary: discordgo.SecondaryButton,
	platform.ButtonSuccess:   discordgo.SuccessButton,
	platform.ButtonDanger:    discordgo.DangerButton,
}

func hasEmbed(c platform.Content) bool {
	return c.Title != "" || c.Description != "" || len(c.Fields) > 0 || c.ImageURL != "" || c.Footer != ""
}

// toEmbeds 除 Text 外的内容渲染为一个 embed
func toEmbeds(c platform.Content) []*discordgo.MessageEmbed {
	if !hasEmbed(c) {
		return []*discordgo.MessageEmbed{}
	}
	e := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       c.Color,
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if c.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: c.ImageURL}
	}
	if c.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	return []*discordgo.MessageEmbed{e}
}

func withEmoji(emoji, label string) string {
	if emoji == "" {
		return label
	}
	return emoji + " " + label
}

// toComponents 按钮每行五个，之后每个下拉菜单占一行
func toComponents(c platform.Content) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{}

	var row []discordgo.MessageComponent
	for _, b := range c.Buttons {
		style, ok := buttonStyles[b.Style]
		if !ok {
			style = discordgo.SecondaryButton
		}
		row = append(row, discordgo.Button{
			CustomID: b.ID,
			Label:    withEmoji(b.Emoji, b.Label),
			Style:    style,
			Disabled: b.Disabled,
		})
		if len(row) == maxButtonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}

	for _, s := range c.Selects {
		options := make([]discordgo.SelectMenuOption, len(s.Options))
		for i, o := range s.Options {
			options[i] = discordgo.SelectMenuOption{
				Label:       withEmoji(o.Emoji, o.Label),
				Value:       o.Value,
				Description: o.Description,
			}
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    s.ID,
				Placeholder: s.Placeholder,
				Options:     options,
			},
		}})
	}
	return rows
}

func toPermissions(p platform.Permission) int64 {
	var bits int64
	if p&platform.PermView != 0 {
		bits |= discordgo.PermissionViewChannel
	}
	if p&platform.PermSend != 0 {
		bits |= discordgo.PermissionSendMessages
	}
	return bits
}

// toOverwrites 转换权限覆盖，@everyone 角色与服务器 ID 相同
func toOverwrites(guildID string, ows []platform.Overwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, len(ows))
	for i, ow := range ows {
		po := &discordgo.PermissionOverwrite{
			ID:    ow.TargetID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: toPermissions(ow.Allow),
			Deny:  toPermissions(ow.Deny),
		}
		if ow.Everyone {
			po.ID = guildID
			po.Type = discordgo.PermissionOverwriteTypeRole
		}
		out[i] = po
	}
	return out
}

func toCommands(specs []platform.CommandSpec) []*discordgo.ApplicationCommand {
	guildOnly := false
	cmds := make([]*discordgo.ApplicationCommand, len(specs))
	for i, spec := range specs {
		cmd := &discordgo.ApplicationCommand{
			Name:        spec.Name,
			Description: spec.Description,
		}
		if spec.Admin {
			cmd.DMPermission = &guildOnly
		}
		for _, o := range spec.Options {
			typ := discordgo.ApplicationCommandOptionString
			if o.Type == platform.OptionUser {
				typ = discordgo.ApplicationCommandOptionUser
			}
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        typ,
				Name:        o.Name,
				Description: o.Description,
				Required:    o.Required,
			})
		}
		cmds[i] = cmd
	}
	return cmds
}

// commandOptions 将顶层选项展平为字符串，用户选项取用户 ID
func commandOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(opts))
	for _, o := range opts {
		if o.Value == nil {
			continue
		}
		out[o.Name] = fmt.Sprint(o.Value)
	}
	return out
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func userName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// memberName 优先使用服务器昵称
func memberName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	return userName(m.User)
}

// isPrivileged m 是否无视权限覆盖可读 g 的所有频道
func isPrivileged(g *discordgo.Guild, m *discordgo.Member) bool {
	if m.User != nil && g.OwnerID == m.User.ID {
		return true
	}
	for _, r := range g.Roles {
		if r.Permissions&discordgo.PermissionAdministrator == 0 {
			continue
		}
		for _, id := range m.Roles {
			if id == r.ID {
				return true
			}
		}
	}
	return false
}
