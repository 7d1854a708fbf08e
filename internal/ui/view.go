package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/werewolf/internal/protocol"
)

// renderSidebar lists the visible channels under their categories
func renderSidebar(s *State, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🐺 "+s.GuildID) + "\n\n")

	text := s.TextChannels()
	index := make(map[string]int, len(text))
	for i, ch := range text {
		index[ch.ID] = i + 1
	}

	writeChannel := func(ch protocol.ChannelInfo, indent string) {
		line := fmt.Sprintf("%s%d #%s", indent, index[ch.ID], ch.Name)
		if !ch.CanSend {
			line += " 🔒"
		}
		if ch.ID == s.Current {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}

	for _, ch := range s.Channels {
		if ch.Category || ch.ParentID != "" {
			continue
		}
		writeChannel(ch, "")
	}
	for _, cat := range s.Channels {
		if !cat.Category {
			continue
		}
		sb.WriteString("\n" + categoryStyle.Render(strings.ToUpper(cat.Name)) + "\n")
		for _, ch := range s.Channels {
			if !ch.Category && ch.ParentID == cat.ID {
				writeChannel(ch, " ")
			}
		}
	}

	return boxStyle.Width(sidebarWidth).Height(max(height, 1)).Render(sb.String())
}

// renderMessages renders the messages of a channel for the viewport
func renderMessages(msgs []*protocol.ChatMessagePayload, width int) string {
	if len(msgs) == 0 {
		return grayStyle.Render("No messages yet.")
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, renderMessage(m, width))
	}
	return strings.Join(parts, "\n\n")
}

// renderMessage renders one message with its embed and components
func renderMessage(m *protocol.ChatMessagePayload, width int) string {
	var lines []string

	header := authorStyle.Render(m.AuthorName) + grayStyle.Render(" · "+m.MessageID)
	if m.Ephemeral {
		header += grayStyle.Render(" · only you can see this")
	}
	lines = append(lines, header)

	c := m.Content
	if c.Text != "" {
		lines = append(lines, c.Text)
	}

	var embed []string
	if c.Title != "" {
		embed = append(embed, colorStyle(c.Color).Render(c.Title))
	}
	if c.Description != "" {
		embed = append(embed, c.Description)
	}
	for _, f := range c.Fields {
		embed = append(embed, authorStyle.Render(f.Name), f.Value)
	}
	if c.ImageURL != "" {
		embed = append(embed, grayStyle.Render("🖼 "+c.ImageURL))
	}
	if c.Footer != "" {
		embed = append(embed, grayStyle.Render(c.Footer))
	}
	if len(embed) > 0 {
		border := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorStyle(c.Color).GetForeground()).
			PaddingLeft(1)
		if width > 4 {
			border = border.Width(width - 2)
		}
		lines = append(lines, border.Render(strings.Join(embed, "\n")))
	}

	if len(c.Buttons) > 0 {
		buttons := make([]string, 0, len(c.Buttons))
		for _, b := range c.Buttons {
			buttons = append(buttons, buttonStyle(b.Style, b.Disabled).Render(" "+b.Label+" ")+grayStyle.Render(" "+b.ID))
		}
		lines = append(lines, strings.Join(buttons, "  "))
	}
	for _, sel := range c.Selects {
		lines = append(lines, renderSelect(sel))
	}
	return strings.Join(lines, "\n")
}

func renderSelect(sel protocol.SelectInfo) string {
	var sb strings.Builder
	placeholder := sel.Placeholder
	if placeholder == "" {
		placeholder = "Select"
	}
	fmt.Fprintf(&sb, "▾ %s %s", placeholder, grayStyle.Render(sel.ID))
	for i, o := range sel.Options {
		fmt.Fprintf(&sb, "\n   %d) %s", i+1, o.Label)
		if o.Description != "" {
			sb.WriteString(grayStyle.Render(" - " + o.Description))
		}
	}
	return sb.String()
}

// renderStatus shows the connection state and the latest notice
func renderStatus(s *State, connected bool, err error) string {
	switch {
	case err != nil:
		return errorStyle.Render("❌ " + err.Error())
	case !connected:
		return grayStyle.Render("Connecting...")
	case len(s.Notices) > 0:
		return s.Notices[len(s.Notices)-1]
	default:
		return grayStyle.Render(fmt.Sprintf("%s (%s) · %s", s.UserName, s.UserID, helpText))
	}
}
