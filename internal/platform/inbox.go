package platform

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/palemoky/werewolf/internal/apperrors"
)

const inboxSize = 64

// ErrNoInbox 消息不接受交互
var ErrNoInbox = errors.New("platform: message does not accept interactions")

// ErrInboxFull 收件箱队列已满
var ErrInboxFull = errors.New("platform: inbox is full")

// Inboxes 按消息排队交互，等待驱动该消息的 goroutine 取走。
// 适配器发送带组件的消息时打开收件箱，移除组件时关闭。
type Inboxes struct {
	mu    sync.Mutex
	boxes map[string]chan Action
}

func NewInboxes() *Inboxes {
	return &Inboxes{boxes: make(map[string]chan Action)}
}

// Open 开始接受 messageID 上的交互，重复打开保留已有队列
func (in *Inboxes) Open(messageID string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.boxes[messageID]; !ok {
		in.boxes[messageID] = make(chan Action, inboxSize)
	}
}

// Close 停止接受交互，返回已排队但未取走的交互
func (in *Inboxes) Close(messageID string) []Action {
	in.mu.Lock()
	box, ok := in.boxes[messageID]
	delete(in.boxes, messageID)
	in.mu.Unlock()

	if !ok {
		return nil
	}
	var pending []Action
	for {
		select {
		case a := <-box:
			pending = append(pending, a)
		default:
			return pending
		}
	}
}

// IsOpen messageID 是否接受交互
func (in *Inboxes) IsOpen(messageID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.boxes[messageID]
	return ok
}

// Deliver 将 a 放入其消息的收件箱。消息不接受交互时返回 ErrNoInbox，队列已满时返回 ErrInboxFull
func (in *Inboxes) Deliver(a Action) error {
	in.mu.Lock()
	box, ok := in.boxes[a.MessageID]
	in.mu.Unlock()
	if !ok {
		return ErrNoInbox
	}
	select {
	case box <- a:
		return nil
	default:
		return ErrInboxFull
	}
}

// DeliveryError 投递失败时回复给用户的错误：队列已满视为操作过快
func DeliveryError(err error) error {
	if errors.Is(err, ErrInboxFull) {
		return apperrors.ErrRateLimited
	}
	return apperrors.ErrNoActiveVote
}

// Await 取走 messageID 上下一个 CustomID 属于 actionIDs 的交互，
// 其余交互交给 reject 并跳过。截止时间在调用时确定。
func (in *Inboxes) Await(ctx context.Context, messageID string, actionIDs []string, timeout time.Duration, reject func(Action)) (Await, error) {
	in.mu.Lock()
	box, ok := in.boxes[messageID]
	in.mu.Unlock()
	if !ok {
		return Await{}, ErrNoInbox
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Await{Status: AwaitCancelled}, nil
		case <-timer.C:
			return Await{Status: AwaitTimedOut}, nil
		case a := <-box:
			if !slices.Contains(actionIDs, a.CustomID) {
				if reject != nil {
					reject(a)
				}
				continue
			}
			return Await{Status: AwaitAction, Action: a}, nil
		}
	}
}
