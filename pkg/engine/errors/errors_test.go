package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("DirectError", func(t *testing.T) {
		err := NewLockNotFoundError("f-1")
		assert.Equal(t, ErrLockNotFound, CodeOf(err))
	})

	t.Run("WrappedError", func(t *testing.T) {
		err := fmt.Errorf("checkout: %w", NewAccessDeniedError("u-1", "p-1"))
		assert.Equal(t, ErrAccessDenied, CodeOf(err))
	})

	t.Run("PlainError", func(t *testing.T) {
		assert.Equal(t, ErrorCode(0), CodeOf(fmt.Errorf("boom")))
	})

	t.Run("NilError", func(t *testing.T) {
		assert.Equal(t, ErrorCode(0), CodeOf(nil))
	})
}

func TestLockedErrorPayload(t *testing.T) {
	lockedAt := time.Now().Add(-time.Hour)
	expiresAt := time.Now().Add(23 * time.Hour)

	err := NewLockedError("f-1", "u-2", lockedAt, expiresAt)

	assert.Equal(t, "u-2", err.LockedBy)
	assert.Equal(t, lockedAt, err.LockedAt)
	assert.Equal(t, expiresAt, err.ExpiresAt)
	assert.True(t, IsLocked(err))
	assert.Contains(t, err.Error(), "Locked")
	assert.Contains(t, err.Error(), "f-1")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk gone")
	err := NewDeletionFailedError("abc123", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrDeletionFailed, CodeOf(err))
	assert.Contains(t, err.Error(), "disk gone")
}

func TestTokenHelpers(t *testing.T) {
	assert.True(t, IsTokenError(NewTokenExpiredError()))
	assert.True(t, IsTokenError(NewTokenAlreadyUsedError("f-1")))
	assert.True(t, IsTokenError(NewTokenUserMismatchError("f-1", "u-1")))
	assert.False(t, IsTokenError(NewNotFoundError("f-1", "file")))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "StillReferenced", ErrStillReferenced.String())
	assert.Equal(t, "Unknown(99)", ErrorCode(99).String())
}
