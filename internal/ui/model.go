package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/werewolf/internal/client"
	"github.com/palemoky/werewolf/internal/protocol"
)

// Tea messages
type (
	connectedMsg       struct{}
	connectionErrorMsg struct{ err error }
	serverMessage      struct{ msg *protocol.Message }
)

// Sender is the part of the client the model writes to
type Sender interface {
	Command(channelID, name string, options map[string]string) error
	Click(channelID, messageID, customID string, values ...string) error
	Say(channelID, text string) error
}

// Model is the bubbletea model of the sandbox client
type Model struct {
	client *client.Client
	sender Sender
	state  *State

	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int

	connected bool
	err       error
}

// NewModel creates a model connecting to serverURL
func NewModel(serverURL string) *Model {
	c := client.New(serverURL)
	m := newModel(c)
	m.client = c
	return m
}

func newModel(sender Sender) *Model {
	ti := textinput.New()
	ti.Placeholder = "Say something, /play to start a game, :help for help"
	ti.CharLimit = 500
	ti.Focus()

	return &Model{
		sender:   sender,
		state:    NewState(),
		input:    ti,
		viewport: viewport.New(60, 20),
	}
}

// State exposes the client state
func (m *Model) State() *State { return m.state }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.connectToServer(), textinput.Blink)
}

func (m *Model) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(); err != nil {
			return connectionErrorMsg{err: err}
		}
		return connectedMsg{}
	}
}

func (m *Model) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.client.Receive()
		if err != nil {
			return connectionErrorMsg{err: err}
		}
		return serverMessage{msg: msg}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectedMsg:
		m.connected = true
		return m, m.listenForMessages()

	case connectionErrorMsg:
		m.connected = false
		m.err = msg.err
		return m, nil

	case serverMessage:
		if err := m.state.Apply(msg.msg); err != nil {
			m.state.Notify("⚠️ " + err.Error())
		}
		m.refresh()
		return m, m.listenForMessages()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.close()
		return m, tea.Quit
	case "tab":
		m.state.CycleChannel(1)
		m.refresh()
		return m, nil
	case "shift+tab":
		m.state.CycleChannel(-1)
		m.refresh()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "enter":
		line := m.input.Value()
		m.input.SetValue("")
		return m, m.submit(line)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs one input line
func (m *Model) submit(line string) tea.Cmd {
	in, err := ParseInput(line)
	if err != nil {
		m.state.Notify("⚠️ " + err.Error())
		return nil
	}

	switch in.Kind {
	case InputSay:
		if !m.state.CanSend() {
			err = ErrChannelReadOnly
			break
		}
		err = m.sender.Say(m.state.Current, in.Text)
	case InputCommand:
		err = m.sender.Command(m.state.Current, in.Name, in.Options)
	case InputClick:
		var messageID string
		var values []string
		messageID, values, err = m.state.ResolveClick(in.Name, in.Args)
		if err == nil {
			err = m.sender.Click(m.state.Current, messageID, in.Name, values...)
		}
	case InputGoto:
		err = m.state.SelectChannel(in.Args[0])
		m.refresh()
	case InputHelp:
		m.state.Notify(helpText)
	case InputQuit:
		m.close()
		return tea.Quit
	}

	if err != nil {
		m.state.Notify("⚠️ " + err.Error())
	}
	return nil
}

func (m *Model) close() {
	if m.client != nil {
		m.client.Close()
	}
}

func (m *Model) resize() {
	m.viewport.Width = max(m.width-sidebarWidth-6, 20)
	m.viewport.Height = max(m.height-6, 5)
	m.input.Width = max(m.width-6, 10)
	m.refresh()
}

// refresh re-renders the current channel and scrolls to the newest message
func (m *Model) refresh() {
	m.viewport.SetContent(renderMessages(m.state.Messages(m.state.Current), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	name := "…"
	if ch, ok := m.state.Channel(m.state.Current); ok {
		name = ch.Name
	}
	pane := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("#%s", name)),
		m.viewport.View(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		renderSidebar(m.state, m.viewport.Height),
		boxStyle.Render(pane),
	)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		body,
		renderStatus(m.state, m.connected, m.err),
		promptStyle.Render(m.input.View()),
	))
}
