//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockUserStore 用户记录 mock
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) UpsertUser(ctx context.Context, id, displayName string) error {
	args := m.Called(ctx, id, displayName)
	return args.Error(0)
}

// NewAcceptingUserStore 接受任意 UpsertUser 调用的 mock
func NewAcceptingUserStore() *MockUserStore {
	m := &MockUserStore{}
	m.On("UpsertUser", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return m
}
