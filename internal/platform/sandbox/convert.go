package sandbox

import (
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/protocol"
)

var buttonStyles = map[platform.ButtonStyle]string{
	platform.ButtonPrimary:   "primary",
	platform.ButtonSecondary: "secondary",
	platform.ButtonSuccess:   "success",
	platform.ButtonDanger:    "danger",
}

func withEmoji(emoji, label string) string {
	if emoji == "" {
		return label
	}
	return emoji + " " + label
}

// toContentInfo 转换消息内容，提及替换为显示名
func toContentInfo(c platform.Content, name func(id string) string) protocol.ContentInfo {
	mention := func(s string) string { return platform.ReplaceMentions(s, name) }

	info := protocol.ContentInfo{
		Text:        mention(c.Text),
		Title:       mention(c.Title),
		Description: mention(c.Description),
		Color:       c.Color,
		ImageURL:    c.ImageURL,
		Footer:      mention(c.Footer),
	}
	for _, f := range c.Fields {
		info.Fields = append(info.Fields, protocol.FieldInfo{Name: mention(f.Name), Value: mention(f.Value), Inline: f.Inline})
	}
	for _, b := range c.Buttons {
		info.Buttons = append(info.Buttons, protocol.ButtonInfo{
			ID:       b.ID,
			Label:    withEmoji(b.Emoji, b.Label),
			Style:    buttonStyles[b.Style],
			Disabled: b.Disabled,
		})
	}
	for _, s := range c.Selects {
		sel := protocol.SelectInfo{ID: s.ID, Placeholder: s.Placeholder}
		for _, o := range s.Options {
			sel.Options = append(sel.Options, protocol.OptionInfo{
				Value:       o.Value,
				Label:       withEmoji(o.Emoji, o.Label),
				Description: o.Description,
			})
		}
		info.Selects = append(info.Selects, sel)
	}
	return info
}

func toCommandInfos(specs []platform.CommandSpec) []protocol.CommandInfo {
	out := make([]protocol.CommandInfo, len(specs))
	for i, spec := range specs {
		info := protocol.CommandInfo{Name: spec.Name, Description: spec.Description, Admin: spec.Admin}
		for _, o := range spec.Options {
			info.Options = append(info.Options, o.Name)
		}
		out[i] = info
	}
	return out
}
