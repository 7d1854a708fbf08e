package platform

import "context"

// OptionType 命令选项类型
type OptionType int

const (
	OptionString OptionType = iota + 1
	OptionUser
)

// CommandOption 斜杠命令的一个选项
type CommandOption struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

// CommandSpec 用于注册的斜杠命令描述
type CommandSpec struct {
	Name        string
	Description string
	Options     []CommandOption
	Admin       bool
}

// Responder 回复一次命令调用
type Responder interface {
	Respond(ctx context.Context, content Content, private bool) error
}

// Command 一次斜杠命令调用
type Command struct {
	Name      string
	GuildID   string
	ChannelID string
	UserID    string
	UserName  string
	Options   map[string]string
	Responder Responder
}

// Option 返回指定选项的值
func (c Command) Option(name string) string {
	return c.Options[name]
}

// Handler 接收命令并过滤交互，由 bot 层实现、适配器驱动
type Handler interface {
	Commands() []CommandSpec
	HandleCommand(ctx context.Context, cmd Command)
	// AllowInteraction 交互投递给等待中的游戏前调用
	AllowInteraction(userID string) bool
}
