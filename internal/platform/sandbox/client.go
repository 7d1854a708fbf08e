package sandbox

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/logger"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/protocol"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 命令处理超时
	commandTimeout = 10 * time.Second
)

// client 一个已连接的用户
type client struct {
	userID string
	name   string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool

	visible map[string]bool // 由 server.mu 保护
}

func newClient(s *Server, conn *websocket.Conn, userID, name string) *client {
	return &client{
		userID:  userID,
		name:    name,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, 256),
		visible: make(map[string]bool),
	}
}

// ReadPump 从 WebSocket 读取消息
func (c *client) ReadPump() {
	defer func() {
		c.server.unregister(c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.handle(msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，缓冲区满时断开连接
func (c *client) SendMessage(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("用户 %s 发送缓冲区已满", c.userID)
		c.closed = true
		close(c.send)
	}
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) handle(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgCommand:
		if p, err := protocol.ParsePayload[protocol.CommandPayload](msg); err == nil {
			c.handleCommand(p)
			return
		}
	case protocol.MsgAction:
		if p, err := protocol.ParsePayload[protocol.ActionPayload](msg); err == nil {
			c.handleAction(p)
			return
		}
	case protocol.MsgSay:
		if p, err := protocol.ParsePayload[protocol.SayPayload](msg); err == nil {
			c.handleSay(p)
			return
		}
	}
	c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// perms 当前用户在频道上的权限，频道不存在时 ok 为 false
func (c *client) perms(channelID string) (platform.Permission, bool) {
	s := c.server
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[channelID]
	if !ok {
		return 0, false
	}
	return s.permsLocked(c.userID, ch), true
}

func (c *client) checkChannel(channelID string, need platform.Permission) bool {
	perms, ok := c.perms(channelID)
	switch {
	case !ok:
		c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknownChannel))
		return false
	case perms&need != need:
		c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeForbidden))
		return false
	}
	return true
}

func (c *client) handleCommand(p *protocol.CommandPayload) {
	h := c.server.handler
	if h == nil {
		c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNoBot))
		return
	}
	if !c.checkChannel(p.ChannelID, platform.PermView) {
		return
	}

	options := p.Options
	if options == nil {
		options = map[string]string{}
	}
	cmd := platform.Command{
		Name:      p.Name,
		GuildID:   c.server.guildID,
		ChannelID: p.ChannelID,
		UserID:    c.userID,
		UserName:  c.name,
		Options:   options,
		Responder: &responder{client: c, channelID: p.ChannelID},
	}
	go func() {
		defer logger.Recover("sandbox command")
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		h.HandleCommand(ctx, cmd)
	}()
}

func (c *client) handleAction(p *protocol.ActionPayload) {
	if !c.checkChannel(p.ChannelID, platform.PermView) {
		return
	}
	if h := c.server.handler; h != nil && !h.AllowInteraction(c.userID) {
		c.server.notice(c.userID, apperrors.ErrRateLimited.Error())
		return
	}

	action := platform.Action{
		GuildID:   c.server.guildID,
		ChannelID: p.ChannelID,
		MessageID: p.MessageID,
		UserID:    c.userID,
		UserName:  c.name,
		CustomID:  p.CustomID,
		Values:    p.Values,
	}
	if err := c.server.inboxes.Deliver(action); err != nil {
		c.server.notice(c.userID, platform.DeliveryError(err).Error())
	}
}

func (c *client) handleSay(p *protocol.SayPayload) {
	if p.Text == "" || !c.checkChannel(p.ChannelID, platform.PermView|platform.PermSend) {
		return
	}
	if _, err := c.server.post(p.ChannelID, c.userID, platform.Content{Text: p.Text}); err != nil {
		c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknownChannel))
	}
}

// responder 回复命令：私密回复只发给调用者，公开回复发布到频道
type responder struct {
	client    *client
	channelID string
}

func (r *responder) Respond(_ context.Context, content platform.Content, private bool) error {
	s := r.client.server
	if !private {
		_, err := s.post(r.channelID, botUserID, content)
		return err
	}

	s.mu.Lock()
	m := &message{
		id:         s.nextID("msg"),
		channelID:  r.channelID,
		authorID:   botUserID,
		authorName: botName,
		content:    content,
	}
	msg := s.chatMessageLocked(protocol.MsgChatMessage, m, true)
	s.mu.Unlock()

	r.client.SendMessage(msg)
	return nil
}
