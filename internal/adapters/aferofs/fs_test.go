package aferofs

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/javi11/remotefile/internal/endpoint/local"
	"github.com/javi11/remotefile/pkg/remotefile"
	"github.com/javi11/remotefile/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFs(t *testing.T) (*Fs, *local.Client) {
	t.Helper()
	client := local.NewMem(nil)
	return New(client, remotefile.WithMaxChunkSize(4)), client
}

func TestFlags(t *testing.T) {
	tests := []struct {
		flag int
		want storage.Flags
	}{
		{os.O_RDONLY, storage.OpenRead},
		{os.O_WRONLY, storage.OpenWrite},
		{os.O_RDWR, storage.OpenRead | storage.OpenWrite},
		{os.O_WRONLY | os.O_CREATE | os.O_TRUNC, storage.OpenWrite | storage.OpenCreate | storage.OpenTruncate},
		{os.O_RDWR | os.O_CREATE | os.O_EXCL, storage.OpenRead | storage.OpenWrite | storage.OpenCreate | storage.OpenExclusive},
		{os.O_WRONLY | os.O_APPEND, storage.OpenWrite | storage.OpenAppend},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Flags(tt.flag), "flag %#x", tt.flag)
	}
}

func TestWriteThenReadFile(t *testing.T) {
	fsys, client := newFs(t)

	require.NoError(t, afero.WriteFile(fsys, "mem:///dir/data.txt", []byte("remote contents"), 0o644))

	raw, err := afero.ReadFile(client.Fs(), "/dir/data.txt")
	require.NoError(t, err)
	assert.Equal(t, "remote contents", string(raw))

	data, err := afero.ReadFile(fsys, "mem:///dir/data.txt")
	require.NoError(t, err)
	assert.Equal(t, "remote contents", string(data))

	info, err := fsys.Stat("mem:///dir/data.txt")
	require.NoError(t, err)
	assert.Equal(t, "data.txt", info.Name())
	assert.Equal(t, int64(15), info.Size())
	assert.False(t, info.IsDir())
}

func TestFile_SeekAndReadAt(t *testing.T) {
	fsys, client := newFs(t)
	require.NoError(t, afero.WriteFile(client.Fs(), "/f", []byte("0123456789"), 0o644))

	f, err := fsys.Open("mem:///f")
	require.NoError(t, err)
	defer f.Close()

	off, err := f.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), off)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "789", string(rest))

	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(buf[:n]))
}

func TestOpenFile_Errors(t *testing.T) {
	fsys, client := newFs(t)
	require.NoError(t, afero.WriteFile(client.Fs(), "/f", []byte("x"), 0o644))

	_, err := fsys.OpenFile("mem:///f", os.O_WRONLY|os.O_APPEND, 0)
	assert.ErrorIs(t, err, storage.ErrAppendUnsupported)

	_, err = fsys.OpenFile("mem:///f", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	assert.ErrorIs(t, err, storage.ErrFileOpen)

	_, err = fsys.Open("mem:///missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	fsys, client := newFs(t)
	require.NoError(t, afero.WriteFile(client.Fs(), "/present", []byte("x"), 0o644))

	ok, err := afero.Exists(fsys, "mem:///present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = afero.Exists(fsys, "mem:///missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fsys.Stat("mem:///missing")
	assert.True(t, os.IsNotExist(err))
}

func TestUnsupportedOperations(t *testing.T) {
	fsys, client := newFs(t)
	require.NoError(t, afero.WriteFile(client.Fs(), "/f", []byte("x"), 0o644))

	assert.ErrorIs(t, fsys.Mkdir("mem:///d", 0o755), errors.ErrUnsupported)
	assert.ErrorIs(t, fsys.Remove("mem:///f"), errors.ErrUnsupported)
	assert.ErrorIs(t, fsys.Rename("mem:///f", "mem:///g"), errors.ErrUnsupported)

	f, err := fsys.OpenFile("mem:///f", os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, f.Truncate(0), storage.ErrFileResize)
	_, err = f.Readdir(0)
	assert.ErrorIs(t, err, errors.ErrUnsupported)

	n, err := f.WriteString("yz")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size())
}
