package tfmerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(NotFound, "stat", "s3://bucket/key", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New(NotFound, "stat", "", nil)))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := New(NetworkTimeout, "list_directory", "ssh://host/dir", cause)
	assert.Contains(t, err.Error(), "network timeout")
	assert.Contains(t, err.Error(), "ssh://host/dir")
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("eof")
	err := New(IO, "read", "", cause)
	assert.Same(t, cause, errors.Unwrap(err))
}
