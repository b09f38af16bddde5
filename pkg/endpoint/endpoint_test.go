package endpoint

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenFlags(t *testing.T) {
	f := Update | New | MakePath

	assert.Equal(t, "New|Update|MakePath", f.String())
	assert.Equal(t, "0xa8", f.Hex())
	assert.Equal(t, "None", OpenFlags(0).String())
	assert.True(t, f.Has(New|Update))
	assert.False(t, f.Has(Delete))
}

func TestStatus(t *testing.T) {
	cause := errors.New("socket closed")
	st := NewStatus(CodeConnection, 3007, "lost server", cause)

	assert.Equal(t, "error 'connection error: lost server: socket closed' (errno=3007, code=8)", st.Error())
	assert.ErrorIs(t, st, cause)

	wrapped := fmt.Errorf("read: %w", st)
	assert.Same(t, st, StatusOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeConnection))
	assert.False(t, IsCode(wrapped, CodeIO))
	assert.Nil(t, StatusOf(cause))
}

func TestChunkLength(t *testing.T) {
	assert.Equal(t, 3, Chunk{Offset: 9, Buffer: make([]byte, 3)}.Length())
}
