package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 24

// Lipgloss styles shared by the sidebar and the message pane
var (
	docStyle      = lipgloss.NewStyle().Margin(0, 1)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	promptStyle   = lipgloss.NewStyle().MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	grayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	authorStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Underline(true)

	buttonStyles = map[string]lipgloss.Style{
		"primary":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5865F2")),
		"secondary": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4E5058")),
		"success":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#248046")),
		"danger":    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#DA373C")),
	}
	disabledButtonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("236"))
)

// colorStyle renders embed titles in the embed color
func colorStyle(color int) lipgloss.Style {
	if color == 0 {
		return titleStyle
	}
	return titleStyle.Foreground(lipgloss.Color(fmt.Sprintf("#%06X", color&0xFFFFFF)))
}

func buttonStyle(style string, disabled bool) lipgloss.Style {
	if disabled {
		return disabledButtonStyle
	}
	if s, ok := buttonStyles[style]; ok {
		return s
	}
	return buttonStyles["secondary"]
}
