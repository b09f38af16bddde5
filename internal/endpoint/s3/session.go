package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/sourcegraph/conc/pool"
)

var errInvalidSession = endpoint.NewStatus(endpoint.CodeInvalidSession, int(syscall.EBADF), "session is closed", nil)

// session is one open object. Reads of an unstaged object are ranged GETs;
// once staged, the object lives in memory until Close uploads it.
type session struct {
	client   *Client
	bucket   string
	key      string
	writable bool

	size    int64
	modTime time.Time

	stage  []byte
	staged bool
	dirty  bool
	closed bool
}

func (s *session) Close(ctx context.Context) error {
	if s.closed {
		return errInvalidSession
	}
	s.closed = true

	if !s.dirty {
		return nil
	}

	err := s.client.retry(ctx, "put", func() error {
		return classify(s.client.api.PutObject(ctx, s.bucket, s.key, bytes.NewReader(s.stage), int64(len(s.stage))))
	})
	s.stage = nil
	if err != nil {
		return toStatus("put", err)
	}

	s.client.log.DebugContext(ctx, "Uploaded object", "bucket", s.bucket, "key", s.key)
	return nil
}

func (s *session) Stat(ctx context.Context, force bool) (endpoint.StatInfo, error) {
	if s.closed {
		return endpoint.StatInfo{}, errInvalidSession
	}

	if !s.staged && force {
		info, err := s.client.stat(ctx, s.bucket, s.key)
		if err != nil {
			return endpoint.StatInfo{}, toStatus("stat", err)
		}
		s.size = info.Size
		s.modTime = info.LastModified
	}

	return endpoint.StatInfo{
		Size:    s.size,
		ModTime: s.modTime,
		Mode:    0o644,
	}, nil
}

func (s *session) Read(ctx context.Context, off int64, p []byte) (int, error) {
	if s.closed {
		return 0, errInvalidSession
	}
	return s.readAt(ctx, off, p)
}

func (s *session) readAt(ctx context.Context, off int64, p []byte) (int, error) {
	if s.staged {
		if off >= int64(len(s.stage)) {
			return 0, nil
		}
		return copy(p, s.stage[off:]), nil
	}

	if off >= s.size || len(p) == 0 {
		return 0, nil
	}
	length := min(int64(len(p)), s.size-off)

	var n int
	err := s.client.retry(ctx, "get", func() error {
		body, err := s.client.api.GetRange(ctx, s.bucket, s.key, off, length)
		if err != nil {
			return classify(err)
		}
		defer body.Close()

		n, err = io.ReadFull(body, p[:length])
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			// The object shrank since it was opened.
			return nil
		}
		return classify(err)
	})
	if err != nil {
		return 0, toStatus("read", err)
	}

	return n, nil
}

func (s *session) Write(ctx context.Context, off int64, p []byte) error {
	if s.closed {
		return errInvalidSession
	}
	if !s.writable {
		return endpoint.NewStatus(endpoint.CodePermission, int(syscall.EBADF), "write", fmt.Errorf("object %s/%s is open read-only", s.bucket, s.key))
	}

	// The stage is a single buffer covering the whole object.
	if end := off + int64(len(p)); off < 0 || end > s.client.maxSize {
		return endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EFBIG), "write",
			fmt.Errorf("write of %d bytes at %d exceeds the object size limit %d", len(p), off, s.client.maxSize))
	}

	if !s.staged {
		if err := s.load(ctx); err != nil {
			return err
		}
	}

	if end := off + int64(len(p)); end > int64(len(s.stage)) {
		grown := make([]byte, end)
		copy(grown, s.stage)
		s.stage = grown
	}
	copy(s.stage[off:], p)

	s.size = int64(len(s.stage))
	s.modTime = time.Now()
	s.dirty = true

	return nil
}

// load fetches the current object into the stage.
func (s *session) load(ctx context.Context) error {
	buf := make([]byte, s.size)
	n, err := s.readAt(ctx, 0, buf)
	if err != nil {
		return err
	}

	s.stage = buf[:n]
	s.staged = true

	s.client.log.DebugContext(ctx, "Staged object for writing", "bucket", s.bucket, "key", s.key, "size", n)
	return nil
}

// VectorRead fetches the chunks of an unstaged object with parallel ranged
// requests. The first failure cancels the remaining requests.
func (s *session) VectorRead(ctx context.Context, chunks []endpoint.Chunk) (int64, error) {
	if s.closed {
		return 0, errInvalidSession
	}

	if s.staged || len(chunks) == 1 {
		var total int64
		for _, c := range chunks {
			n, err := s.readAt(ctx, c.Offset, c.Buffer)
			if err != nil {
				return total, err
			}
			total += int64(n)
		}
		return total, nil
	}

	var total atomic.Int64
	p := pool.New().WithMaxGoroutines(s.client.workers).WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, c := range chunks {
		p.Go(func(ctx context.Context) error {
			n, err := s.readAt(ctx, c.Offset, c.Buffer)
			total.Add(int64(n))
			return err
		})
	}

	if err := p.Wait(); err != nil {
		return total.Load(), err
	}

	return total.Load(), nil
}

func (s *session) DataServer() string {
	return s.client.server
}
