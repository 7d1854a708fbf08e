package platform

import (
	"regexp"
	"strings"
)

// ButtonStyle 按钮样式
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button 按钮，点击产生 CustomID 为 ID 的 Action
type Button struct {
	ID       string
	Label    string
	Emoji    string
	Style    ButtonStyle
	Disabled bool
}

// Option 下拉菜单的一项
type Option struct {
	Value       string
	Label       string
	Emoji       string
	Description string
}

// Select 单选下拉菜单，选择产生 CustomID 为 ID、Values 为选项值的 Action
type Select struct {
	ID          string
	Placeholder string
	Options     []Option
}

// Field embed 中带标题的字段
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Content 消息的结构化内容，由适配器负责渲染
type Content struct {
	Text        string
	Title       string
	Description string
	Color       int
	Fields      []Field
	ImageURL    string
	Footer      string
	Buttons     []Button
	Selects     []Select
}

// HasComponents 是否带有交互组件
func (c Content) HasComponents() bool {
	return len(c.Buttons) > 0 || len(c.Selects) > 0
}

// WithoutComponents 返回去掉组件的副本
func (c Content) WithoutComponents() Content {
	c.Buttons = nil
	c.Selects = nil
	return c
}

// ActionIDs 所有组件的 CustomID
func (c Content) ActionIDs() []string {
	ids := make([]string, 0, len(c.Buttons)+len(c.Selects))
	for _, b := range c.Buttons {
		ids = append(ids, b.ID)
	}
	for _, s := range c.Selects {
		ids = append(ids, s.ID)
	}
	return ids
}

// Mention 格式化用户提及
func Mention(userID string) string {
	return "<@" + userID + ">"
}

var mentionPattern = regexp.MustCompile(`<@!?([^>\s]+)>`)

// ReplaceMentions 将 s 中的提及改写为 name(id)，供无法渲染提及的客户端使用
func ReplaceMentions(s string, name func(id string) string) string {
	if !strings.Contains(s, "<@") {
		return s
	}
	return mentionPattern.ReplaceAllStringFunc(s, func(m string) string {
		id := mentionPattern.FindStringSubmatch(m)[1]
		return "@" + name(id)
	})
}
