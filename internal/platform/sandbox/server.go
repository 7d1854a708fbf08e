// Package sandbox 本地沙盒平台：用 WebSocket 模拟一个聊天服务器，无需 Discord 即可游戏
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/protocol"
)

const (
	// DefaultChannelID 初始频道
	DefaultChannelID = "general"

	botUserID  = "bot"
	botName    = "Werewolf"
	maxHistory = 100
)

// ErrUnknownChannel 频道不存在
var ErrUnknownChannel = errors.New("sandbox: unknown channel")

// Options 沙盒参数
type Options struct {
	Addr           string
	GuildID        string
	AdminIDs       []string // 服务器管理员，能看到所有频道
	AllowedOrigins []string
}

type channel struct {
	platform.Channel
	overwrites []platform.Overwrite
	history    []string // 消息 ID，按时间顺序
}

type message struct {
	id         string
	channelID  string
	authorID   string
	authorName string
	content    platform.Content
}

// Server 沙盒服务器，实现 platform.Platform
type Server struct {
	guildID  string
	admins   map[string]bool
	handler  platform.Handler
	inboxes  *platform.Inboxes
	origins  *originChecker
	upgrader websocket.Upgrader
	http     *http.Server

	mu       sync.RWMutex
	seq      int
	clients  map[string]*client // userID -> 连接
	names    map[string]string  // 见过的用户名
	channels map[string]*channel
	order    []string // 频道创建顺序
	messages map[string]*message
}

var (
	_ platform.Platform        = (*Server)(nil)
	_ platform.DirectMessenger = (*Server)(nil)
)

// New 创建沙盒服务器，初始只有一个所有人可见的频道
func New(opts Options) *Server {
	s := &Server{
		guildID:  opts.GuildID,
		admins:   make(map[string]bool),
		inboxes:  platform.NewInboxes(),
		origins:  newOriginChecker(opts.AllowedOrigins),
		clients:  make(map[string]*client),
		names:    map[string]string{botUserID: botName},
		channels: make(map[string]*channel),
		messages: make(map[string]*message),
	}
	for _, id := range opts.AdminIDs {
		s.admins[id] = true
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.Check,
	}
	s.channels[DefaultChannelID] = &channel{Channel: platform.Channel{ID: DefaultChannelID, Name: DefaultChannelID}}
	s.order = []string{DefaultChannelID}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.http = &http.Server{Addr: opts.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

// SetHandler 设置命令处理器，必须在 ListenAndServe 之前调用
func (s *Server) SetHandler(h platform.Handler) {
	s.handler = h
}

// Handler HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe 启动监听，Shutdown 后返回 nil
func (s *Server) ListenAndServe() error {
	log.Printf("🚀 沙盒服务器启动于 %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止监听并断开所有连接
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	log.Println("🛑 沙盒服务器已关闭")
	return err
}

// handleWebSocket 处理 WebSocket 连接，用户通过 ?user=<id>&name=<name> 标识
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	userID := r.URL.Query().Get("user")
	if userID == "" || userID == botUserID {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = userID
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败 (IP: %s): %v", ip, err)
		return
	}

	c := newClient(s, conn, userID, name)
	s.register(c)

	var commands []protocol.CommandInfo
	if s.handler != nil {
		commands = toCommandInfos(s.handler.Commands())
	}
	c.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		UserID:   userID,
		UserName: name,
		GuildID:  s.guildID,
		Commands: commands,
	}))

	s.mu.Lock()
	s.syncLocked(c)
	s.mu.Unlock()

	log.Printf("✅ 用户 %s (%s) 已连接，IP: %s", name, userID, ip)

	go c.ReadPump()
	go c.WritePump()
}

// register 注册连接，同一用户的旧连接被替换
func (s *Server) register(c *client) {
	s.mu.Lock()
	old := s.clients[c.userID]
	s.clients[c.userID] = c
	s.names[c.userID] = c.name
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.userID] == c {
		delete(s.clients, c.userID)
		log.Printf("❌ 用户 %s (%s) 已断开", c.name, c.userID)
	}
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// nameLocked 用户显示名，未知用户返回 ID
func (s *Server) nameLocked(userID string) string {
	if name, ok := s.names[userID]; ok {
		return name
	}
	return userID
}

// permsLocked 计算用户在频道上的权限：先应用 everyone，再应用成员覆盖。
// 没有覆盖的频道继承分类的覆盖。
func (s *Server) permsLocked(userID string, ch *channel) platform.Permission {
	const all = platform.PermView | platform.PermSend
	if s.admins[userID] {
		return all
	}

	ows := ch.overwrites
	if len(ows) == 0 && ch.ParentID != "" {
		if parent, ok := s.channels[ch.ParentID]; ok {
			ows = parent.overwrites
		}
	}

	perms := platform.Permission(all)
	for _, ow := range ows {
		if ow.Everyone {
			perms = perms&^ow.Deny | ow.Allow
		}
	}
	for _, ow := range ows {
		if !ow.Everyone && ow.TargetID == userID {
			perms = perms&^ow.Deny | ow.Allow
		}
	}
	if perms&platform.PermView == 0 {
		return 0
	}
	return perms
}

// syncLocked 推送可见频道列表，并补发新可见频道的历史消息
func (s *Server) syncLocked(c *client) {
	payload := protocol.ChannelsPayload{Channels: []protocol.ChannelInfo{}}
	visible := make(map[string]bool)
	var newlyVisible []string

	for _, id := range s.order {
		ch := s.channels[id]
		perms := s.permsLocked(c.userID, ch)
		if perms == 0 {
			continue
		}
		visible[id] = true
		if !c.visible[id] {
			newlyVisible = append(newlyVisible, id)
		}
		payload.Channels = append(payload.Channels, protocol.ChannelInfo{
			ID:       ch.ID,
			Name:     ch.Name,
			ParentID: ch.ParentID,
			Category: ch.Category,
			CanSend:  perms&platform.PermSend != 0,
		})
	}
	c.visible = visible
	c.SendMessage(protocol.MustNewMessage(protocol.MsgChannels, payload))

	for _, id := range newlyVisible {
		for _, msgID := range s.channels[id].history {
			c.SendMessage(s.chatMessageLocked(protocol.MsgChatMessage, s.messages[msgID], false))
		}
	}
}

func (s *Server) syncAllLocked() {
	for _, c := range s.clients {
		s.syncLocked(c)
	}
}

func (s *Server) chatMessageLocked(typ protocol.MessageType, m *message, ephemeral bool) *protocol.Message {
	return protocol.MustNewMessage(typ, protocol.ChatMessagePayload{
		ChannelID:  m.channelID,
		MessageID:  m.id,
		AuthorID:   m.authorID,
		AuthorName: m.authorName,
		Ephemeral:  ephemeral,
		Content:    toContentInfo(m.content, s.nameLocked),
	})
}

// broadcastLocked 发送给能看到频道的所有连接
func (s *Server) broadcastLocked(channelID string, msg *protocol.Message) {
	for _, c := range s.clients {
		if c.visible[channelID] {
			c.SendMessage(msg)
		}
	}
}

// post 在频道中发布消息
func (s *Server) post(channelID, authorID string, content platform.Content) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok || ch.Category {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, channelID)
	}
	m := &message{
		id:         s.nextID("msg"),
		channelID:  channelID,
		authorID:   authorID,
		authorName: s.nameLocked(authorID),
		content:    content,
	}
	s.messages[m.id] = m
	ch.history = append(ch.history, m.id)
	if len(ch.history) > maxHistory {
		s.evictLocked(ch)
	}

	s.broadcastLocked(channelID, s.chatMessageLocked(protocol.MsgChatMessage, m, false))
	return m.id, nil
}

// evictLocked 删除频道中最早的、没有进行中操作的消息。
// 大厅和投票消息在组件移除前一直保留。
func (s *Server) evictLocked(ch *channel) {
	i := slices.IndexFunc(ch.history, func(id string) bool { return !s.inboxes.IsOpen(id) })
	if i < 0 {
		return
	}
	delete(s.messages, ch.history[i])
	ch.history = slices.Delete(ch.history, i, i+1)
}

// sendTo 发送给指定用户，用户不在线时返回 false
func (s *Server) sendTo(userID string, msg *protocol.Message) bool {
	s.mu.RLock()
	c, ok := s.clients[userID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	c.SendMessage(msg)
	return true
}

func (s *Server) notice(userID, text string) {
	s.sendTo(userID, protocol.MustNewMessage(protocol.MsgNotice, protocol.NoticePayload{Text: text}))
}
