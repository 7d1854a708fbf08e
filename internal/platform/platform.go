// Package platform 游戏与聊天平台之间的边界：消息、频道、身份和用户记录
package platform

import (
	"context"
	"time"
)

// MessageRef 已发送消息的标识
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Action 消息上的一次交互（点击按钮或选择菜单）
type Action struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	UserName  string
	CustomID  string
	Values    []string

	// Handle 归产生该交互的适配器所有，用于 Reply/Acknowledge
	Handle any
}

// Value 返回第一个选中值
func (a Action) Value() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// AwaitStatus 等待交互的结果
type AwaitStatus int

const (
	AwaitAction AwaitStatus = iota
	AwaitTimedOut
	AwaitCancelled
)

func (s AwaitStatus) String() string {
	switch s {
	case AwaitAction:
		return "action"
	case AwaitTimedOut:
		return "timed out"
	case AwaitCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Await AwaitAction 的结果，仅 Status 为 AwaitAction 时 Action 有值
type Await struct {
	Status AwaitStatus
	Action Action
}

// 频道权限覆盖位
type Permission uint8

const (
	PermView Permission = 1 << iota
	PermSend
)

// Overwrite 成员的频道权限覆盖，Everyone 为真时作用于全体成员
type Overwrite struct {
	TargetID string
	Everyone bool
	Allow    Permission
	Deny     Permission
}

// Channel 服务器频道或分类
type Channel struct {
	ID       string
	Name     string
	ParentID string
	Category bool
}

// Member 游戏视角的服务器成员
type Member struct {
	ID          string
	DisplayName string
	// 无视权限覆盖可读所有频道
	Privileged bool
}

// Messenger 发送、编辑消息并收集其上的交互。
//
// 带组件的消息在被编辑为无组件内容前接受交互，
// 之后到达的交互由适配器回复 "no active vote"。
type Messenger interface {
	SendMessage(ctx context.Context, channelID string, content Content) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, content Content) error
	// AwaitAction 阻塞直到 ref 上收到 CustomID 属于 actionIDs 的交互、超时或 ctx 结束。
	// 交互按到达顺序逐个投递。
	AwaitAction(ctx context.Context, ref MessageRef, actionIDs []string, timeout time.Duration) (Await, error)
	// Reply 私下回复交互发起者
	Reply(ctx context.Context, action Action, text string) error
	// Acknowledge 确认交互，不显示回复
	Acknowledge(ctx context.Context, action Action) error
	SetChannelPermissions(ctx context.Context, channelID string, overwrites []Overwrite) error
}

// ChannelManager 创建和删除服务器频道
type ChannelManager interface {
	CreateCategory(ctx context.Context, guildID, name string, overwrites []Overwrite) (string, error)
	CreateChannel(ctx context.Context, guildID, parentID, name string, overwrites []Overwrite) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
	ListChannels(ctx context.Context, guildID string) ([]Channel, error)
}

// Identity 将用户解析为服务器成员
type Identity interface {
	Member(ctx context.Context, guildID, userID string) (Member, error)
}

// DirectMessenger 可在服务器外私信用户的平台实现
type DirectMessenger interface {
	SendDirect(ctx context.Context, userID, text string) error
}

// Platform 游戏所需的全部平台能力
type Platform interface {
	Messenger
	ChannelManager
	Identity
}

// UserStore 记录与机器人交互过的用户。
// UpsertUser 须幂等且并发安全。
type UserStore interface {
	UpsertUser(ctx context.Context, id, displayName string) error
}
