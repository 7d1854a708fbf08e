//go:build !production

package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/palemoky/werewolf/internal/platform"
)

// Message 已发送的消息及其编辑历史
type Message struct {
	Ref     platform.MessageRef
	Content platform.Content   // 最新内容
	History []platform.Content // 包含首次发送的内容
}

// Reply 私下回复给操作者的文本
type Reply struct {
	UserID string
	Text   string
}

// Direct 私信
type Direct struct {
	UserID string
	Text   string
}

// Step 脚本化的一次 AwaitAction 结果，msg 为正在等待的消息
type Step func(msg *Message) platform.Await

// Click 模拟 userID 点击按钮或选择菜单项
func Click(userID, customID string, values ...string) Step {
	return func(msg *Message) platform.Await {
		return platform.Await{
			Status: platform.AwaitAction,
			Action: platform.Action{
				ChannelID: msg.Ref.ChannelID,
				MessageID: msg.Ref.MessageID,
				UserID:    userID,
				UserName:  "name-" + userID,
				CustomID:  customID,
				Values:    values,
			},
		}
	}
}

// Timeout 模拟截止时间到达
func Timeout() Step {
	return func(*Message) platform.Await {
		return platform.Await{Status: platform.AwaitTimedOut}
	}
}

// Cancel 模拟等待被取消
func Cancel() Step {
	return func(*Message) platform.Await {
		return platform.Await{Status: platform.AwaitCancelled}
	}
}

// FakePlatform 内存中的脚本化平台：记录所有输出，按顺序回放排队的操作。
// 队列为空时 AwaitAction 立即返回超时。
type FakePlatform struct {
	mu sync.Mutex

	seq      int
	steps    []Step
	messages []*Message
	channels []platform.Channel
	perms    map[string][]platform.Overwrite
	members  map[string]platform.Member

	Replies []Reply
	Acks    []platform.Action
	Directs []Direct
	Deleted []string
	Waits   []time.Duration

	// FailSend 非空时 SendMessage 返回该错误
	FailSend error
	// FailDelete 非空时 DeleteChannel 返回该错误，频道保留
	FailDelete error
}

// NewFakePlatform 创建 FakePlatform
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		perms:   make(map[string][]platform.Overwrite),
		members: make(map[string]platform.Member),
	}
}

var (
	_ platform.Platform        = (*FakePlatform)(nil)
	_ platform.DirectMessenger = (*FakePlatform)(nil)
)

// Enqueue 追加脚本步骤
func (f *FakePlatform) Enqueue(steps ...Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, steps...)
}

// Pending 尚未消费的步骤数
func (f *FakePlatform) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.steps)
}

// SetMember 注册成员信息
func (f *FakePlatform) SetMember(m platform.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.ID] = m
}

func (f *FakePlatform) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakePlatform) SendMessage(_ context.Context, channelID string, content platform.Content) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailSend != nil {
		return platform.MessageRef{}, f.FailSend
	}
	ref := platform.MessageRef{ChannelID: channelID, MessageID: f.nextID("msg")}
	f.messages = append(f.messages, &Message{
		Ref:     ref,
		Content: content,
		History: []platform.Content{content},
	})
	return ref, nil
}

func (f *FakePlatform) EditMessage(_ context.Context, ref platform.MessageRef, content platform.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.messages {
		if m.Ref == ref {
			m.Content = content
			m.History = append(m.History, content)
			return nil
		}
	}
	return fmt.Errorf("unknown message %s", ref.MessageID)
}

func (f *FakePlatform) AwaitAction(ctx context.Context, ref platform.MessageRef, _ []string, timeout time.Duration) (platform.Await, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Waits = append(f.Waits, timeout)
	if ctx.Err() != nil {
		return platform.Await{Status: platform.AwaitCancelled}, nil
	}
	if len(f.steps) == 0 {
		return platform.Await{Status: platform.AwaitTimedOut}, nil
	}

	step := f.steps[0]
	f.steps = f.steps[1:]

	msg := &Message{Ref: ref}
	for _, m := range f.messages {
		if m.Ref == ref {
			msg = m
			break
		}
	}
	return step(msg), nil
}

func (f *FakePlatform) Reply(_ context.Context, action platform.Action, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Replies = append(f.Replies, Reply{UserID: action.UserID, Text: text})
	return nil
}

func (f *FakePlatform) Acknowledge(_ context.Context, action platform.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Acks = append(f.Acks, action)
	return nil
}

func (f *FakePlatform) SetChannelPermissions(_ context.Context, channelID string, overwrites []platform.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perms[channelID] = slices.Clone(overwrites)
	return nil
}

func (f *FakePlatform) CreateCategory(_ context.Context, _ string, name string, overwrites []platform.Overwrite) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID("cat")
	f.channels = append(f.channels, platform.Channel{ID: id, Name: name, Category: true})
	f.perms[id] = slices.Clone(overwrites)
	return id, nil
}

func (f *FakePlatform) CreateChannel(_ context.Context, _ string, parentID, name string, overwrites []platform.Overwrite) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID("ch")
	f.channels = append(f.channels, platform.Channel{ID: id, Name: name, ParentID: parentID})
	f.perms[id] = slices.Clone(overwrites)
	return id, nil
}

func (f *FakePlatform) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailDelete != nil {
		return f.FailDelete
	}
	f.Deleted = append(f.Deleted, channelID)
	f.channels = slices.DeleteFunc(f.channels, func(c platform.Channel) bool { return c.ID == channelID })
	return nil
}

func (f *FakePlatform) ListChannels(context.Context, string) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.channels), nil
}

func (f *FakePlatform) Member(_ context.Context, _ string, userID string) (platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.members[userID]; ok {
		return m, nil
	}
	return platform.Member{ID: userID, DisplayName: "name-" + userID}, nil
}

func (f *FakePlatform) SendDirect(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Directs = append(f.Directs, Direct{UserID: userID, Text: text})
	return nil
}

// Messages 按发送顺序返回某频道的消息，channelID 为空时返回全部
func (f *FakePlatform) Messages(channelID string) []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*Message
	for _, m := range f.messages {
		if channelID == "" || m.Ref.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

// Titles 某频道所有消息的当前标题
func (f *FakePlatform) Titles(channelID string) []string {
	var out []string
	for _, m := range f.Messages(channelID) {
		out = append(out, m.Content.Title)
	}
	return out
}

// Channels 当前存在的频道
func (f *FakePlatform) Channels() []platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.channels)
}

// Permissions 某频道最近一次设置的权限
func (f *FakePlatform) Permissions(channelID string) []platform.Overwrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.perms[channelID])
}

// Allowed 成员在频道上被显式允许的权限
func (f *FakePlatform) Allowed(channelID, userID string) platform.Permission {
	for _, ow := range f.Permissions(channelID) {
		if ow.TargetID == userID {
			return ow.Allow
		}
	}
	return 0
}
