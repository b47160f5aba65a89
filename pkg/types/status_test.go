package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError_Is(t *testing.T) {
	err := NewStatusError(StatusNodeInvalidName, "node name %q rejected", "bad name")
	wrapped := fmt.Errorf("init node: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNodeInvalidName))
	assert.False(t, errors.Is(wrapped, ErrNodeInvalidNamespace))
	assert.Equal(t, `node name "bad name" rejected (node_invalid_name)`, err.Error())
	assert.Equal(t, "bad_alloc", ErrBadAlloc.Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusGeneric, StatusOf(errors.New("plain")))
	assert.Equal(t, StatusTopicNameInvalid,
		StatusOf(fmt.Errorf("resolve: %w", NewStatusError(StatusTopicNameInvalid, "x"))))
	assert.Equal(t, "error", StatusGeneric.String())
	assert.Equal(t, "unknown(99)", Status(99).String())
}

func TestDefaultAllocator(t *testing.T) {
	a := DefaultAllocator()
	buf := a.Allocate(16)
	assert.Zero(t, buf.Len())
	assert.GreaterOrEqual(t, buf.Cap(), 16)
	buf.WriteString("/ns/chatter")
	a.Deallocate(buf)
	a.Deallocate(nil)

	again := a.Allocate(0)
	assert.Zero(t, again.Len(), "归还的缓冲区被重置")
	a.Deallocate(again)
}

func TestRemapKind_Applies(t *testing.T) {
	assert.True(t, RemapAny.Applies(true))
	assert.True(t, RemapAny.Applies(false))
	assert.True(t, RemapService.Applies(true))
	assert.False(t, RemapService.Applies(false))
	assert.True(t, RemapTopic.Applies(false))
	assert.False(t, RemapTopic.Applies(true))
	assert.Equal(t, "reentrant", CallbackGroupReentrant.String())
}
