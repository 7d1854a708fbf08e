package sandbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/protocol"
)

type fakeHandler struct {
	mu       sync.Mutex
	blocked  map[string]bool
	commands chan platform.Command
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{blocked: make(map[string]bool), commands: make(chan platform.Command, 8)}
}

func (h *fakeHandler) Commands() []platform.CommandSpec {
	return []platform.CommandSpec{
		{Name: "play", Description: "Start a game"},
		{Name: "stats", Options: []platform.CommandOption{{Name: "user", Type: platform.OptionUser}}},
	}
}

func (h *fakeHandler) HandleCommand(ctx context.Context, cmd platform.Command) {
	_ = cmd.Responder.Respond(ctx, platform.Content{Text: "pong " + cmd.Option("arg")}, cmd.Name == "stats")
	h.commands <- cmd
}

func (h *fakeHandler) AllowInteraction(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.blocked[userID]
}

func newTestServer(t *testing.T, h platform.Handler, admins ...string) (*Server, string) {
	t.Helper()
	s := New(Options{GuildID: "sandbox", AdminIDs: admins})
	if h != nil {
		s.SetHandler(h)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		ts.Close()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url, user, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?user="+user+"&name="+name, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// expect 读取消息直到出现指定类型
func expect(t *testing.T, conn *websocket.Conn, typ protocol.MessageType) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ protocol.MessageType, payload any) {
	t.Helper()
	data, err := protocol.MustNewMessage(typ, payload).Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func parse[T any](t *testing.T, msg *protocol.Message) *T {
	t.Helper()
	p, err := protocol.ParsePayload[T](msg)
	require.NoError(t, err)
	return p
}

// connect 连接并等待初始频道列表，保证用户已注册
func connect(t *testing.T, url, user, name string) *websocket.Conn {
	t.Helper()
	conn := dial(t, url, user, name)
	expect(t, conn, protocol.MsgChannels)
	return conn
}

func TestServer_Connect(t *testing.T) {
	t.Parallel()

	_, url := newTestServer(t, newFakeHandler())
	conn := dial(t, url, "u1", "Alice")

	connected := parse[protocol.ConnectedPayload](t, expect(t, conn, protocol.MsgConnected))
	assert.Equal(t, "u1", connected.UserID)
	assert.Equal(t, "Alice", connected.UserName)
	assert.Equal(t, "sandbox", connected.GuildID)
	require.Len(t, connected.Commands, 2)
	assert.Equal(t, []string{"user"}, connected.Commands[1].Options)

	channels := parse[protocol.ChannelsPayload](t, expect(t, conn, protocol.MsgChannels))
	require.Len(t, channels.Channels, 1)
	assert.Equal(t, DefaultChannelID, channels.Channels[0].ID)
	assert.True(t, channels.Channels[0].CanSend)
}

func TestServer_RejectsMissingUser(t *testing.T) {
	t.Parallel()

	_, url := newTestServer(t, nil)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ChannelVisibility(t *testing.T) {
	t.Parallel()

	s, url := newTestServer(t, nil, "admin")
	alice := connect(t, url, "u1", "Alice")
	bob := connect(t, url, "u2", "Bob")
	admin := connect(t, url, "admin", "Admin")

	ctx := context.Background()
	hidden := []platform.Overwrite{{Everyone: true, Deny: platform.PermView}}
	cat, err := s.CreateCategory(ctx, "sandbox", "Werewolf game", hidden)
	require.NoError(t, err)
	private, err := s.CreateChannel(ctx, "sandbox", cat, "alice", append(hidden, platform.Overwrite{
		TargetID: "u1", Allow: platform.PermView | platform.PermSend,
	}))
	require.NoError(t, err)

	// 等待包含 want 的频道列表，最多读取 n 个
	visible := func(conn *websocket.Conn, want string, n int) bool {
		for range n {
			p := parse[protocol.ChannelsPayload](t, expect(t, conn, protocol.MsgChannels))
			for _, ch := range p.Channels {
				if ch.ID == want {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, visible(alice, private, 2))
	assert.True(t, visible(admin, private, 2))
	assert.False(t, visible(bob, private, 2))

	_, err = s.SendMessage(ctx, private, platform.Content{Text: "🔮 secret"})
	require.NoError(t, err)
	got := parse[protocol.ChatMessagePayload](t, expect(t, alice, protocol.MsgChatMessage))
	assert.Equal(t, "🔮 secret", got.Content.Text)
	assert.Equal(t, botName, got.AuthorName)
}

func TestPermissions(t *testing.T) {
	t.Parallel()

	s := New(Options{AdminIDs: []string{"admin"}})
	s.channels["cat"] = &channel{
		Channel:    platform.Channel{ID: "cat", Category: true},
		overwrites: []platform.Overwrite{{Everyone: true, Deny: platform.PermView}},
	}
	s.channels["child"] = &channel{Channel: platform.Channel{ID: "child", ParentID: "cat"}}
	s.channels["locked"] = &channel{
		Channel: platform.Channel{ID: "locked"},
		overwrites: []platform.Overwrite{
			{Everyone: true, Deny: platform.PermView | platform.PermSend},
			{TargetID: "u1", Allow: platform.PermView},
			{TargetID: "u2", Allow: platform.PermView | platform.PermSend},
			{TargetID: "u3", Deny: platform.PermView},
		},
	}

	all := platform.PermView | platform.PermSend
	tests := []struct {
		user, channel string
		want          platform.Permission
	}{
		{"u1", DefaultChannelID, all},
		{"u1", "child", 0},
		{"admin", "child", all},
		{"u1", "locked", platform.PermView},
		{"u2", "locked", all},
		{"u3", "locked", 0},
		{"u4", "locked", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.permsLocked(tt.user, s.channels[tt.channel]), "%s in %s", tt.user, tt.channel)
	}
}

func TestServer_ActionRoundTrip(t *testing.T) {
	t.Parallel()

	s, url := newTestServer(t, newFakeHandler())
	conn := connect(t, url, "u1", "Alice")
	ctx := context.Background()

	ref, err := s.SendMessage(ctx, DefaultChannelID, platform.Content{
		Title:   "⚖️ Vote",
		Buttons: []platform.Button{{ID: "abstain", Label: "Abstain", Emoji: "🤐"}},
	})
	require.NoError(t, err)

	got := parse[protocol.ChatMessagePayload](t, expect(t, conn, protocol.MsgChatMessage))
	assert.Equal(t, ref.MessageID, got.MessageID)
	require.Len(t, got.Content.Buttons, 1)
	assert.Equal(t, "🤐 Abstain", got.Content.Buttons[0].Label)

	send(t, conn, protocol.MsgAction, protocol.ActionPayload{
		ChannelID: DefaultChannelID, MessageID: ref.MessageID, CustomID: "abstain",
	})
	res, err := s.AwaitAction(ctx, ref, []string{"abstain"}, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, platform.AwaitAction, res.Status)
	assert.Equal(t, "u1", res.Action.UserID)
	assert.Equal(t, "Alice", res.Action.UserName)

	require.NoError(t, s.EditMessage(ctx, ref, platform.Content{Title: "⚖️ Vote", Footer: "Vote closed"}))
	edited := parse[protocol.ChatMessagePayload](t, expect(t, conn, protocol.MsgMessageEdited))
	assert.Empty(t, edited.Content.Buttons)

	send(t, conn, protocol.MsgAction, protocol.ActionPayload{
		ChannelID: DefaultChannelID, MessageID: ref.MessageID, CustomID: "abstain",
	})
	notice := parse[protocol.NoticePayload](t, expect(t, conn, protocol.MsgNotice))
	assert.Equal(t, apperrors.ErrNoActiveVote.Error(), notice.Text)
}

func TestServer_RateLimitedAction(t *testing.T) {
	t.Parallel()

	h := newFakeHandler()
	h.blocked["u1"] = true
	s, url := newTestServer(t, h)
	conn := connect(t, url, "u1", "Alice")

	ref, err := s.SendMessage(context.Background(), DefaultChannelID, platform.Content{
		Buttons: []platform.Button{{ID: "join"}},
	})
	require.NoError(t, err)

	send(t, conn, protocol.MsgAction, protocol.ActionPayload{ChannelID: DefaultChannelID, MessageID: ref.MessageID, CustomID: "join"})
	notice := parse[protocol.NoticePayload](t, expect(t, conn, protocol.MsgNotice))
	assert.Equal(t, apperrors.ErrRateLimited.Error(), notice.Text)
}

func TestServer_FullInboxAction(t *testing.T) {
	t.Parallel()

	s, url := newTestServer(t, newFakeHandler())
	conn := connect(t, url, "u1", "Alice")

	ref, err := s.SendMessage(context.Background(), DefaultChannelID, platform.Content{
		Buttons: []platform.Button{{ID: "join"}},
	})
	require.NoError(t, err)
	for s.inboxes.Deliver(platform.Action{MessageID: ref.MessageID, CustomID: "join"}) == nil {
	}

	send(t, conn, protocol.MsgAction, protocol.ActionPayload{ChannelID: DefaultChannelID, MessageID: ref.MessageID, CustomID: "join"})
	notice := parse[protocol.NoticePayload](t, expect(t, conn, protocol.MsgNotice))
	assert.Equal(t, apperrors.ErrRateLimited.Error(), notice.Text)
	assert.True(t, s.inboxes.IsOpen(ref.MessageID))
}

func TestServer_Commands(t *testing.T) {
	t.Parallel()

	h := newFakeHandler()
	_, url := newTestServer(t, h)
	alice := connect(t, url, "u1", "Alice")
	bob := connect(t, url, "u2", "Bob")

	send(t, alice, protocol.MsgCommand, protocol.CommandPayload{
		ChannelID: DefaultChannelID, Name: "play", Options: map[string]string{"arg": "1"},
	})
	cmd := <-h.commands
	assert.Equal(t, "play", cmd.Name)
	assert.Equal(t, "sandbox", cmd.GuildID)
	assert.Equal(t, "u1", cmd.UserID)
	assert.Equal(t, "Alice", cmd.UserName)

	// 公开回复所有人可见
	public := parse[protocol.ChatMessagePayload](t, expect(t, bob, protocol.MsgChatMessage))
	assert.Equal(t, "pong 1", public.Content.Text)
	assert.False(t, public.Ephemeral)

	send(t, bob, protocol.MsgCommand, protocol.CommandPayload{ChannelID: DefaultChannelID, Name: "stats"})
	<-h.commands
	private := parse[protocol.ChatMessagePayload](t, expect(t, bob, protocol.MsgChatMessage))
	assert.True(t, private.Ephemeral)
	assert.Equal(t, "pong ", private.Content.Text)
}

func TestServer_NoHandler(t *testing.T) {
	t.Parallel()

	_, url := newTestServer(t, nil)
	conn := connect(t, url, "u1", "Alice")

	send(t, conn, protocol.MsgCommand, protocol.CommandPayload{ChannelID: DefaultChannelID, Name: "play"})
	p := parse[protocol.ErrorPayload](t, expect(t, conn, protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeNoBot, p.Code)
}

func TestServer_SayRespectsPermissions(t *testing.T) {
	t.Parallel()

	s, url := newTestServer(t, nil)
	alice := connect(t, url, "u1", "Alice")
	bob := connect(t, url, "u2", "Bob")

	send(t, alice, protocol.MsgSay, protocol.SayPayload{ChannelID: DefaultChannelID, Text: "hi <@u2>"})
	said := parse[protocol.ChatMessagePayload](t, expect(t, bob, protocol.MsgChatMessage))
	assert.Equal(t, "Alice", said.AuthorName)
	assert.Equal(t, "hi @Bob", said.Content.Text)

	require.NoError(t, s.SetChannelPermissions(context.Background(), DefaultChannelID, []platform.Overwrite{
		{Everyone: true, Deny: platform.PermSend},
	}))
	send(t, alice, protocol.MsgSay, protocol.SayPayload{ChannelID: DefaultChannelID, Text: "still here?"})
	p := parse[protocol.ErrorPayload](t, expect(t, alice, protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeForbidden, p.Code)

	send(t, alice, protocol.MsgSay, protocol.SayPayload{ChannelID: "nope", Text: "hello"})
	p = parse[protocol.ErrorPayload](t, expect(t, alice, protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeUnknownChannel, p.Code)
}

func TestServer_ChannelLifecycle(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, "sandbox", "Werewolf game", nil)
	require.NoError(t, err)
	ch, err := s.CreateChannel(ctx, "sandbox", cat, "village-square", nil)
	require.NoError(t, err)
	_, err = s.CreateChannel(ctx, "sandbox", "missing", "x", nil)
	require.ErrorIs(t, err, ErrUnknownChannel)

	ref, err := s.SendMessage(ctx, ch, platform.Content{Buttons: []platform.Button{{ID: "vote"}}})
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, cat, platform.Content{Text: "x"})
	require.ErrorIs(t, err, ErrUnknownChannel)

	list, err := s.ListChannels(ctx, "sandbox")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.True(t, list[1].Category)
	assert.Equal(t, cat, list[2].ParentID)

	require.NoError(t, s.DeleteChannel(ctx, ch))
	require.NoError(t, s.DeleteChannel(ctx, cat))
	require.ErrorIs(t, s.DeleteChannel(ctx, cat), ErrUnknownChannel)
	assert.False(t, s.inboxes.IsOpen(ref.MessageID))

	list, err = s.ListChannels(ctx, "sandbox")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestServer_HistoryKeepsOpenMessages(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	vote, err := s.SendMessage(ctx, DefaultChannelID, platform.Content{Buttons: []platform.Button{{ID: "abstain"}}})
	require.NoError(t, err)
	first, err := s.post(DefaultChannelID, "u1", platform.Content{Text: "chat 0"})
	require.NoError(t, err)
	for i := 1; i < maxHistory+10; i++ {
		_, err := s.post(DefaultChannelID, "u1", platform.Content{Text: "chat"})
		require.NoError(t, err)
	}

	s.mu.RLock()
	history := s.channels[DefaultChannelID].history
	_, chatKept := s.messages[first]
	s.mu.RUnlock()
	assert.Len(t, history, maxHistory)
	assert.Equal(t, vote.MessageID, history[0], "open vote stays in the replay list")
	assert.False(t, chatKept)

	require.NoError(t, s.EditMessage(ctx, vote, platform.Content{Title: "closed"}))
	assert.False(t, s.inboxes.IsOpen(vote.MessageID))

	// 组件移除后可以正常淘汰
	_, err = s.post(DefaultChannelID, "u1", platform.Content{Text: "chat"})
	require.NoError(t, err)
	s.mu.RLock()
	_, voteKept := s.messages[vote.MessageID]
	s.mu.RUnlock()
	assert.False(t, voteKept)
}

func TestServer_MemberAndDirect(t *testing.T) {
	t.Parallel()

	s, url := newTestServer(t, nil, "admin")
	conn := connect(t, url, "u1", "Alice")
	ctx := context.Background()

	m, err := s.Member(ctx, "sandbox", "u1")
	require.NoError(t, err)
	assert.Equal(t, platform.Member{ID: "u1", DisplayName: "Alice"}, m)

	m, err = s.Member(ctx, "sandbox", "admin")
	require.NoError(t, err)
	assert.True(t, m.Privileged)
	assert.Equal(t, "admin", m.DisplayName)

	require.NoError(t, s.SendDirect(ctx, "u1", "Bot started !"))
	direct := parse[protocol.DirectPayload](t, expect(t, conn, protocol.MsgDirect))
	assert.Equal(t, "Bot started !", direct.Text)
	assert.Error(t, s.SendDirect(ctx, "u9", "hello"))
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, newOriginChecker(nil).Check(req("http://evil.example")))
	assert.True(t, newOriginChecker([]string{"*"}).Check(req("http://evil.example")))

	oc := newOriginChecker([]string{"http://localhost:1780"})
	assert.True(t, oc.Check(req("HTTP://LOCALHOST:1780")))
	assert.True(t, oc.Check(req("")))
	assert.False(t, oc.Check(req("http://evil.example")))
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", clientIP(r))
}
