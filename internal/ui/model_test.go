package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/werewolf/internal/protocol"
)

type sent struct {
	kind      string
	channelID string
	name      string
	messageID string
	values    []string
	options   map[string]string
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Command(channelID, name string, options map[string]string) error {
	f.sent = append(f.sent, sent{kind: "command", channelID: channelID, name: name, options: options})
	return f.err
}

func (f *fakeSender) Click(channelID, messageID, customID string, values ...string) error {
	f.sent = append(f.sent, sent{kind: "click", channelID: channelID, messageID: messageID, name: customID, values: values})
	return f.err
}

func (f *fakeSender) Say(channelID, text string) error {
	f.sent = append(f.sent, sent{kind: "say", channelID: channelID, name: text})
	return f.err
}

func newTestModel(t *testing.T) (*Model, *fakeSender) {
	t.Helper()
	fs := &fakeSender{}
	m := newModel(fs)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(connectedMsg{})
	m.Update(serverMessage{msg: channelsMsg(gameChannels()...)})
	m.Update(serverMessage{msg: chatMsg(protocol.MsgChatMessage, "general", "msg-1", lobbyContent())})
	return m, fs
}

func typeLine(m *Model, line string) tea.Cmd {
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestModel_Submit(t *testing.T) {
	t.Parallel()

	m, fs := newTestModel(t)

	typeLine(m, "hello")
	typeLine(m, "/play")
	typeLine(m, ":click join")
	typeLine(m, ":click add_role Werewolf")

	require.Len(t, fs.sent, 4)
	assert.Equal(t, sent{kind: "say", channelID: "general", name: "hello"}, fs.sent[0])
	assert.Equal(t, sent{kind: "command", channelID: "general", name: "play", options: map[string]string{}}, fs.sent[1])
	assert.Equal(t, sent{kind: "click", channelID: "general", messageID: "msg-1", name: "join"}, fs.sent[2])
	assert.Equal(t, []string{"werewolf"}, fs.sent[3].values)
	assert.Empty(t, m.input.Value())
}

func TestModel_SubmitErrorsBecomeNotices(t *testing.T) {
	t.Parallel()

	m, fs := newTestModel(t)

	typeLine(m, ":go village")
	assert.Equal(t, "village", m.State().Current)
	typeLine(m, "hello")
	assert.Empty(t, fs.sent)
	assert.Contains(t, m.State().Notices[len(m.State().Notices)-1], ErrChannelReadOnly.Error())

	typeLine(m, ":dance")
	assert.Contains(t, m.State().Notices[len(m.State().Notices)-1], "unknown client command")

	fs.err = errors.New("send buffer full")
	typeLine(m, "/play")
	assert.Contains(t, m.State().Notices[len(m.State().Notices)-1], "send buffer full")
}

func TestModel_TabCyclesChannels(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "village", m.State().Current)
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "general", m.State().Current)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	cmd := typeLine(m, ":quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ConnectionError(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(connectionErrorMsg{err: errors.New("connection closed")})
	assert.Contains(t, m.View(), "connection closed")
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "#general")
	assert.Contains(t, view, "WEREWOLF")
	assert.Contains(t, view, "Lobby")
	assert.Contains(t, view, "add_role")
}

func TestRenderMessage(t *testing.T) {
	t.Parallel()

	out := renderMessage(&protocol.ChatMessagePayload{
		MessageID:  "msg-7",
		AuthorName: "Werewolf",
		Ephemeral:  true,
		Content: protocol.ContentInfo{
			Text:   "Vote now",
			Title:  "🌕 Night",
			Color:  0xFF0000,
			Fields: []protocol.FieldInfo{{Name: "Alive", Value: "Alice"}},
			Footer: "2 minutes left",
			Buttons: []protocol.ButtonInfo{
				{ID: "abstain", Label: "Abstain", Style: "secondary"},
			},
			Selects: []protocol.SelectInfo{{
				ID:          "vote",
				Placeholder: "Pick a victim",
				Options:     []protocol.OptionInfo{{Value: "u2", Label: "Bob", Description: "alive"}},
			}},
		},
	}, 80)

	for _, want := range []string{"Werewolf", "msg-7", "only you", "Vote now", "Night", "Alive", "Alice", "2 minutes left", "Abstain", "abstain", "Pick a victim", "1) Bob", "alive"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, renderMessages(nil, 80), "No messages yet")
}
