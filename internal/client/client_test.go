package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/werewolf/internal/platform/sandbox"
	"github.com/palemoky/werewolf/internal/protocol"
)

var upgrader = websocket.Upgrader{}

func echoHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}
		_ = c.WriteMessage(mt, message)
	}
}

func receive(t *testing.T, c *Client) *protocol.Message {
	t.Helper()
	type result struct {
		msg *protocol.Message
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := c.Receive()
		ch <- result{msg, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	u, err := url.Parse(BuildURL("localhost:1780", "u1", "Alice Smith"))
	require.NoError(t, err)
	assert.Equal(t, "ws", u.Scheme)
	assert.Equal(t, "localhost:1780", u.Host)
	assert.Equal(t, "/ws", u.Path)
	assert.Equal(t, "u1", u.Query().Get("user"))
	assert.Equal(t, "Alice Smith", u.Query().Get("name"))

	u, err = url.Parse(BuildURL("h:1", "u1", ""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("name"))
}

func TestClient_ConnectAndSend(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	c := New("ws" + strings.TrimPrefix(s.URL, "http"))
	require.NoError(t, c.Connect())
	defer c.Close()
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Say("general", "hello"))
	msg := receive(t, c)
	assert.Equal(t, protocol.MsgSay, msg.Type)

	p, err := protocol.ParsePayload[protocol.SayPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Text)

	require.NoError(t, c.Click("general", "msg-1", "vote", "u2"))
	msg = receive(t, c)
	action, err := protocol.ParsePayload[protocol.ActionPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, action.Values)
}

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	c := New("ws" + strings.TrimPrefix(s.URL, "http"))
	require.NoError(t, c.Connect())
	c.Close()
	c.Close()

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Command("general", "play", nil), ErrClosed)
	_, err := c.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_ConnectFails(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.NotFoundHandler())
	defer s.Close()

	c := New("ws" + strings.TrimPrefix(s.URL, "http"))
	assert.Error(t, c.Connect())
}

func TestClient_Sandbox(t *testing.T) {
	t.Parallel()

	sb := sandbox.New(sandbox.Options{GuildID: "g"})
	s := httptest.NewServer(sb.Handler())
	defer s.Close()

	c := New(BuildURL(strings.TrimPrefix(s.URL, "http://"), "u1", "Alice"))
	require.NoError(t, c.Connect())
	defer c.Close()

	msg := receive(t, c)
	require.Equal(t, protocol.MsgConnected, msg.Type)
	connected, err := protocol.ParsePayload[protocol.ConnectedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "u1", connected.UserID)
	assert.Equal(t, "Alice", connected.UserName)
	assert.Equal(t, "g", connected.GuildID)

	msg = receive(t, c)
	require.Equal(t, protocol.MsgChannels, msg.Type)

	require.NoError(t, c.Say(sandbox.DefaultChannelID, "hi"))
	msg = receive(t, c)
	require.Equal(t, protocol.MsgChatMessage, msg.Type)
	chat, err := protocol.ParsePayload[protocol.ChatMessagePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "hi", chat.Content.Text)
	assert.Equal(t, "Alice", chat.AuthorName)
}
