package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUserError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUserError(ErrNotCreator))
	assert.True(t, IsUserError(fmt.Errorf("join: %w", ErrAlreadyJoined)))
	assert.False(t, IsUserError(errors.New("boom")))
	assert.False(t, IsUserError(nil))
}

func TestCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodeRoleCountMismatch, Code(ErrRoleCountMismatch))
	assert.Equal(t, CodeNoActiveVote, Code(fmt.Errorf("late: %w", ErrNoActiveVote)))
	assert.Equal(t, CodeUnknown, Code(errors.New("boom")))
}
