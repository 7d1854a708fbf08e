package protocol

// 错误码
const (
	ErrCodeUnknown        = 1000
	ErrCodeInvalidMsg     = 1001
	ErrCodeRateLimit      = 1002
	ErrCodeUnknownChannel = 2001
	ErrCodeForbidden      = 2002
	ErrCodeNoBot          = 3001
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:        "Unknown error.",
	ErrCodeInvalidMsg:     "Invalid message.",
	ErrCodeRateLimit:      "You are going too fast, slow down.",
	ErrCodeUnknownChannel: "This channel does not exist.",
	ErrCodeForbidden:      "You cannot do that in this channel.",
	ErrCodeNoBot:          "The bot is not ready yet.",
}
