package apperrors

import "errors"

// 错误码
const (
	CodeUnknown = iota + 1000
	CodeNotCreator
	CodeAlreadyJoined
	CodeNotInGame
	CodeInsufficientPlayers
	CodeRoleCountMismatch
	CodeNoActiveVote
	CodeNotEligible
	CodeInvalidTarget
	CodeUnknownRole
	CodeGameInProgress
	CodeNotAdmin
	CodeGuildOnly
	CodeRateLimited
)

// GameError 用户错误，回复给操作者，不会终止游戏
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrNotCreator          = &GameError{Code: CodeNotCreator, Message: "Only the game creator can do that."}
	ErrAlreadyJoined       = &GameError{Code: CodeAlreadyJoined, Message: "You have already joined this game."}
	ErrNotInGame           = &GameError{Code: CodeNotInGame, Message: "You are not in this game."}
	ErrInsufficientPlayers = &GameError{Code: CodeInsufficientPlayers, Message: "At least two players are needed to start."}
	ErrRoleCountMismatch   = &GameError{Code: CodeRoleCountMismatch, Message: "The number of roles must match the number of players."}
	ErrNoActiveVote        = &GameError{Code: CodeNoActiveVote, Message: "There is no active vote here."}
	ErrNotEligible         = &GameError{Code: CodeNotEligible, Message: "You cannot vote in this phase."}
	ErrInvalidTarget       = &GameError{Code: CodeInvalidTarget, Message: "That player cannot be chosen."}
	ErrUnknownRole         = &GameError{Code: CodeUnknownRole, Message: "Unknown role."}
	ErrGameInProgress      = &GameError{Code: CodeGameInProgress, Message: "A game is already running in this server."}
	ErrNotAdmin            = &GameError{Code: CodeNotAdmin, Message: "You are not allowed to use this command."}
	ErrGuildOnly           = &GameError{Code: CodeGuildOnly, Message: "This command is only available in a server."}
	ErrRateLimited         = &GameError{Code: CodeRateLimited, Message: "You are going too fast, slow down."}
)

// IsUserError err 是否为（或包装了）GameError
func IsUserError(err error) bool {
	var ge *GameError
	return errors.As(err, &ge)
}

// Code 返回 err 携带的错误码，没有则为 CodeUnknown
func Code(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return CodeUnknown
}
