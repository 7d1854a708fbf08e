//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/palemoky/werewolf/internal/platform"
)

// Response 命令的一次回复
type Response struct {
	Content platform.Content
	Private bool
}

// FakeResponder 记录命令回复
type FakeResponder struct {
	mu        sync.Mutex
	responses []Response
}

var _ platform.Responder = (*FakeResponder)(nil)

func (r *FakeResponder) Respond(_ context.Context, content platform.Content, private bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, Response{Content: content, Private: private})
	return nil
}

// Responses 已记录的回复
func (r *FakeResponder) Responses() []Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Response(nil), r.responses...)
}

// Last 最近一次回复，没有回复时返回零值
func (r *FakeResponder) Last() Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.responses) == 0 {
		return Response{}
	}
	return r.responses[len(r.responses)-1]
}
