package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMem(t *testing.T, c *Client, p, data string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(c.Fs(), p, []byte(data), 0o644))
}

func TestOpen_Read(t *testing.T) {
	ctx := context.Background()
	c := NewMem(nil)
	writeMem(t, c, "/data/file.txt", "hello world")

	sess, err := c.Open(ctx, "mem:///data/file.txt", endpoint.Read, 0)
	require.NoError(t, err)

	info, err := sess.Stat(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)

	buf := make([]byte, 5)
	n, err := sess.Read(ctx, 6, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	n, err = sess.Read(ctx, 9, buf)
	require.NoError(t, err, "end of file is a short count")
	assert.Equal(t, 2, n)

	n, err = sess.Read(ctx, 100, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.True(t, strings.HasPrefix(sess.DataServer(), "mem://"))
	require.NoError(t, sess.Close(ctx))

	_, err = sess.Read(ctx, 0, buf)
	assert.True(t, endpoint.IsCode(err, endpoint.CodeInvalidSession))
	assert.True(t, endpoint.IsCode(sess.Close(ctx), endpoint.CodeInvalidSession))
}

func TestOpen_FlagSemantics(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		exists   bool
		flags    endpoint.OpenFlags
		wantCode endpoint.Code
		wantSize int64
	}{
		{"read missing", false, endpoint.Read, endpoint.CodeNotFound, 0},
		{"update keeps content", true, endpoint.Update, 0, 7},
		{"update delete truncates", true, endpoint.Update | endpoint.Delete, 0, 0},
		{"new on missing", false, endpoint.Update | endpoint.New | endpoint.MakePath, 0, 0},
		{"new on existing", true, endpoint.Update | endpoint.New | endpoint.MakePath, endpoint.CodeAlreadyExists, 0},
		{"new delete replaces", true, endpoint.Update | endpoint.New | endpoint.Delete | endpoint.MakePath, 0, 0},
		{"no access mode", true, endpoint.New, endpoint.CodeInvalidArgs, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMem(nil)
			if tt.exists {
				writeMem(t, c, "/a/b/file", "content")
			}

			sess, err := c.Open(ctx, "mem:///a/b/file", tt.flags, 0o644)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.True(t, endpoint.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			defer sess.Close(ctx)

			info, err := sess.Stat(ctx, true)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, info.Size)
		})
	}
}

func TestOpen_InvalidNames(t *testing.T) {
	ctx := context.Background()
	c := NewMem(nil)

	for _, name := range []string{"file:///x", "mem://", "mem:///", "mem://remote.host/x", "%zz"} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Open(ctx, name, endpoint.Read, 0)
			assert.True(t, endpoint.IsCode(err, endpoint.CodeInvalidArgs), "got %v", err)
		})
	}
}

func TestWriteAndVectorRead(t *testing.T) {
	ctx := context.Background()
	c := NewMem(nil)

	sess, err := c.Open(ctx, "mem:///out/file", endpoint.Update|endpoint.New|endpoint.MakePath, 0o644)
	require.NoError(t, err)

	require.NoError(t, sess.Write(ctx, 0, []byte("0123456789")))
	require.NoError(t, sess.Write(ctx, 12, []byte("xy")))

	info, err := sess.Stat(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(14), info.Size)

	chunks := []endpoint.Chunk{
		{Offset: 2, Buffer: make([]byte, 3)},
		{Offset: 8, Buffer: make([]byte, 4)},
		{Offset: 12, Buffer: make([]byte, 10)},
		{Offset: 30, Buffer: make([]byte, 2)},
	}
	n, err := sess.VectorRead(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, int64(3+4+2), n)
	assert.Equal(t, "234", string(chunks[0].Buffer))
	assert.Equal(t, []byte{'8', '9', 0, 0}, chunks[1].Buffer)
	assert.Equal(t, "xy", string(chunks[2].Buffer[:2]))

	require.NoError(t, sess.Close(ctx))

	data, err := afero.ReadFile(c.Fs(), "/out/file")
	require.NoError(t, err)
	assert.Len(t, data, 14)
}

func TestWrite_ReadOnlySession(t *testing.T) {
	ctx := context.Background()
	c := NewMem(nil)
	writeMem(t, c, "/ro", "data")

	sess, err := c.Open(ctx, "mem:///ro", endpoint.Read, 0)
	require.NoError(t, err)

	err = sess.Write(ctx, 0, []byte("x"))
	require.Error(t, err)
	assert.NotNil(t, endpoint.StatusOf(err))
}

func TestOS_ErrnoAndRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "present.txt"), []byte("abc"), 0o644))

	c := NewOS(root, nil)
	assert.Equal(t, SchemeFile, c.Scheme())

	sess, err := c.Open(ctx, "file:///present.txt", endpoint.Read, 0)
	require.NoError(t, err)
	assert.Equal(t, "file://localhost", sess.DataServer())
	require.NoError(t, sess.Close(ctx))

	_, err = c.Open(ctx, "file://localhost/missing/file.txt", endpoint.Read, 0)
	require.Error(t, err)
	st := endpoint.StatusOf(err)
	require.NotNil(t, st)
	assert.Equal(t, endpoint.CodeNotFound, st.Code)
	assert.Equal(t, int(syscall.ENOENT), st.Errno)

	sess, err = c.Open(ctx, "file:///deep/dir/new.txt", endpoint.Update|endpoint.New|endpoint.MakePath, 0o600)
	require.NoError(t, err)
	require.NoError(t, sess.Write(ctx, 0, []byte("new")))
	require.NoError(t, sess.Close(ctx))

	info, err := os.Stat(filepath.Join(root, "deep", "dir", "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())
}
