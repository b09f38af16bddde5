package remotefile

import (
	"io"
	"testing"

	"github.com/javi11/remotefile/internal/endpoint/local"
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/javi11/remotefile/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemEndpoint(t *testing.T, files map[string]string) *local.Client {
	t.Helper()

	c := local.NewMem(nil)
	for p, data := range files {
		require.NoError(t, afero.WriteFile(c.Fs(), p, []byte(data), 0o644))
	}
	return c
}

func TestCreate_ExclusiveKeepsExistingObject(t *testing.T) {
	c := newMemEndpoint(t, map[string]string{"/d/x": "keep me"})
	log, _ := newBufferLogger()

	f := New(c, WithLogger(log))
	err := f.Create("mem:///d/x", true, 0o644)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrFileOpen)
	assert.True(t, endpoint.IsCode(err, endpoint.CodeAlreadyExists), "got %v", err)
	assert.False(t, f.IsOpen())

	data, err := afero.ReadFile(c.Fs(), "/d/x")
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	require.NoError(t, f.Create("mem:///d/new/y", true, 0o644))
	_, err = f.Write([]byte("fresh"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err = afero.ReadFile(c.Fs(), "/d/new/y")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestCreate_NonExclusiveReplacesExistingObject(t *testing.T) {
	c := newMemEndpoint(t, map[string]string{"/d/x": "old contents"})
	log, _ := newBufferLogger()

	f, err := CreateFile(c, "mem:///d/x", false, 0o644, WithLogger(log))
	require.NoError(t, err)

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
	require.NoError(t, f.Close())
}

func TestRead_PastEndOfMemObject(t *testing.T) {
	c := newMemEndpoint(t, map[string]string{"/d/y": "0123456789"})
	log, _ := newBufferLogger()

	f, err := OpenFile(c, "mem:///d/y", storage.OpenRead, 0, WithLogger(log))
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Position(20, storage.Set)
	require.NoError(t, err)
	assert.Equal(t, int64(20), pos)

	n, err := f.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	got, err := f.ReadV([]storage.PosBuffer{{Offset: 30, Data: make([]byte, 2)}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	segs := []storage.PosBuffer{
		{Offset: 8, Data: make([]byte, 4)},
		{Offset: 30, Data: make([]byte, 2)},
	}
	got, err = f.ReadV(segs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Equal(t, "89", string(segs[0].Data[:2]))
}
