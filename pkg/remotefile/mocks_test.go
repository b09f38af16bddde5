package remotefile

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"

	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/stretchr/testify/mock"
)

// MockClient
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Open(ctx context.Context, name string, flags endpoint.OpenFlags, perm fs.FileMode) (endpoint.Session, error) {
	args := m.Called(ctx, name, flags, perm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(endpoint.Session), args.Error(1)
}

// MockSession
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSession) Stat(ctx context.Context, force bool) (endpoint.StatInfo, error) {
	args := m.Called(ctx, force)
	return args.Get(0).(endpoint.StatInfo), args.Error(1)
}

func (m *MockSession) Read(ctx context.Context, off int64, p []byte) (int, error) {
	args := m.Called(ctx, off, p)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Write(ctx context.Context, off int64, p []byte) error {
	args := m.Called(ctx, off, p)
	return args.Error(0)
}

func (m *MockSession) VectorRead(ctx context.Context, chunks []endpoint.Chunk) (int64, error) {
	args := m.Called(ctx, chunks)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSession) DataServer() string {
	args := m.Called()
	return args.String(0)
}

// memSession is an in-memory session used where behaviour matters more than
// the exact calls.
type memSession struct {
	data   []byte
	server string
	closed bool
	chunks [][]endpoint.Chunk
}

func (s *memSession) Close(context.Context) error {
	s.closed = true
	return nil
}

func (s *memSession) Stat(context.Context, bool) (endpoint.StatInfo, error) {
	return endpoint.StatInfo{Size: int64(len(s.data))}, nil
}

func (s *memSession) Read(_ context.Context, off int64, p []byte) (int, error) {
	if off >= int64(len(s.data)) {
		return 0, nil
	}
	return copy(p, s.data[off:]), nil
}

func (s *memSession) Write(_ context.Context, off int64, p []byte) error {
	if end := off + int64(len(p)); end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[off:], p)
	return nil
}

func (s *memSession) VectorRead(ctx context.Context, chunks []endpoint.Chunk) (int64, error) {
	s.chunks = append(s.chunks, chunks)

	var total int64
	for _, c := range chunks {
		n, _ := s.Read(ctx, c.Offset, c.Buffer)
		total += int64(n)
	}
	return total, nil
}

func (s *memSession) DataServer() string {
	return s.server
}

// memClient hands out a single memSession.
type memClient struct {
	sess  *memSession
	modes []endpoint.OpenFlags
}

func (c *memClient) Open(_ context.Context, _ string, flags endpoint.OpenFlags, _ fs.FileMode) (endpoint.Session, error) {
	c.modes = append(c.modes, flags)
	if flags.Has(endpoint.Delete) {
		c.sess.data = nil
	}
	return c.sess, nil
}

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
