package protocol

// --- 客户端请求 Payloads ---

// CommandPayload 斜杠命令
type CommandPayload struct {
	ChannelID string            `json:"channel_id"`
	Name      string            `json:"name"`
	Options   map[string]string `json:"options,omitempty"`
}

// ActionPayload 按钮或菜单操作
type ActionPayload struct {
	ChannelID string   `json:"channel_id"`
	MessageID string   `json:"message_id"`
	CustomID  string   `json:"custom_id"`
	Values    []string `json:"values,omitempty"`
}

// SayPayload 频道发言
type SayPayload struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功
type ConnectedPayload struct {
	UserID   string        `json:"user_id"`
	UserName string        `json:"user_name"`
	GuildID  string        `json:"guild_id"`
	Commands []CommandInfo `json:"commands"`
}

// CommandInfo 可用命令
type CommandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []string `json:"options,omitempty"`
	Admin       bool     `json:"admin,omitempty"`
}

// ChannelsPayload 当前用户可见的频道
type ChannelsPayload struct {
	Channels []ChannelInfo `json:"channels"`
}

// ChannelInfo 频道信息
type ChannelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Category bool   `json:"category,omitempty"`
	CanSend  bool   `json:"can_send"`
}

// ChatMessagePayload 新消息或编辑后的消息
type ChatMessagePayload struct {
	ChannelID  string      `json:"channel_id"`
	MessageID  string      `json:"message_id"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	Ephemeral  bool        `json:"ephemeral,omitempty"` // 仅自己可见
	Content    ContentInfo `json:"content"`
}

// ContentInfo 消息内容
type ContentInfo struct {
	Text        string       `json:"text,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []FieldInfo  `json:"fields,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Buttons     []ButtonInfo `json:"buttons,omitempty"`
	Selects     []SelectInfo `json:"selects,omitempty"`
}

// FieldInfo 内容字段
type FieldInfo struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// ButtonInfo 按钮
type ButtonInfo struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Style    string `json:"style,omitempty"` // primary/secondary/success/danger
	Disabled bool   `json:"disabled,omitempty"`
}

// SelectInfo 选择菜单
type SelectInfo struct {
	ID          string       `json:"id"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []OptionInfo `json:"options"`
}

// OptionInfo 菜单选项
type OptionInfo struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// NoticePayload 仅自己可见的提示
type NoticePayload struct {
	Text string `json:"text"`
}

// DirectPayload 私信
type DirectPayload struct {
	Text string `json:"text"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
