// Package protocol 沙盒 WebSocket 协议：JSON 信封加按类型区分的 payload
package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgCommand MessageType = "command" // 斜杠命令
	MsgAction  MessageType = "action"  // 点击按钮或选择菜单
	MsgSay     MessageType = "say"     // 在频道中发言
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgChannels      MessageType = "channels"       // 可见频道列表
	MsgChatMessage   MessageType = "message"        // 新消息
	MsgMessageEdited MessageType = "message_edited" // 消息被编辑
	MsgNotice        MessageType = "notice"         // 仅自己可见的提示
	MsgDirect        MessageType = "direct"         // 私信
	MsgError         MessageType = "error"          // 错误消息
)

// NewMessage 创建一个新消息
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode 从 JSON 字节解码消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *Message {
	return MustNewMessage(MsgError, ErrorPayload{Code: code, Message: ErrorMessages[code]})
}
