// Package local implements endpoint clients on an afero filesystem: the host
// filesystem for file:// names and an in-process MemMapFs for mem:// names.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"syscall"

	"github.com/google/uuid"
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/spf13/afero"
)

const (
	SchemeFile = "file"
	SchemeMem  = "mem"
)

var _ endpoint.Client = (*Client)(nil)

// Client opens sessions on files of an afero filesystem.
type Client struct {
	fs     afero.Fs
	scheme string
	server string
	log    *slog.Logger
}

// New returns a client serving scheme names from fsys. server is reported as
// the data server of every session.
func New(fsys afero.Fs, scheme, server string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		fs:     fsys,
		scheme: scheme,
		server: server,
		log:    log.With("component", "local-endpoint", "scheme", scheme),
	}
}

// NewOS serves file:// names from the host filesystem. A non-empty root
// confines every name below that directory.
func NewOS(root string, log *slog.Logger) *Client {
	var fsys afero.Fs = afero.NewOsFs()
	if root != "" {
		fsys = afero.NewBasePathFs(fsys, root)
	}
	return New(fsys, SchemeFile, "file://localhost", log)
}

// NewMem serves mem:// names from a fresh in-memory filesystem. Each client
// is its own store and reports a unique server name.
func NewMem(log *slog.Logger) *Client {
	return New(afero.NewMemMapFs(), SchemeMem, "mem://"+uuid.NewString(), log)
}

// Fs returns the backing filesystem.
func (c *Client) Fs() afero.Fs {
	return c.fs
}

// Scheme returns the URL scheme the client serves.
func (c *Client) Scheme() string {
	return c.scheme
}

// Open opens the file named by a scheme:///path URL.
func (c *Client) Open(ctx context.Context, name string, flags endpoint.OpenFlags, perm fs.FileMode) (endpoint.Session, error) {
	p, err := c.path(name)
	if err != nil {
		return nil, err
	}

	flag, err := osFlags(flags)
	if err != nil {
		return nil, err
	}

	if flags.Has(endpoint.MakePath) {
		if err := c.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
			return nil, toStatus("mkdir", err)
		}
	}

	f, err := c.fs.OpenFile(p, flag, perm)
	if err != nil {
		return nil, toStatus("open", err)
	}

	c.log.DebugContext(ctx, "Opened local file", "path", p, "flags", flags.String())

	return &session{file: f, server: c.server}, nil
}

func (c *Client) path(name string) (string, error) {
	u, err := url.Parse(name)
	if err != nil {
		return "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "invalid name", err)
	}
	if u.Scheme != c.scheme {
		return "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), fmt.Sprintf("scheme %q not served by %s endpoint", u.Scheme, c.scheme), nil)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), fmt.Sprintf("remote host %q not served by %s endpoint", u.Host, c.scheme), nil)
	}

	p := path.Clean("/" + u.Path)
	if p == "/" {
		return "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "name has no path", nil)
	}

	return p, nil
}

func osFlags(flags endpoint.OpenFlags) (int, error) {
	var flag int

	switch {
	case flags.Has(endpoint.Update):
		flag = os.O_RDWR
	case flags.Has(endpoint.Read):
		flag = os.O_RDONLY
	default:
		return 0, endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "no access mode in "+flags.String(), nil)
	}

	switch {
	case flags.Has(endpoint.New | endpoint.Delete):
		flag |= os.O_CREATE | os.O_TRUNC
	case flags.Has(endpoint.New):
		flag |= os.O_CREATE | os.O_EXCL
	case flags.Has(endpoint.Delete):
		flag |= os.O_TRUNC
	}

	return flag, nil
}

type session struct {
	file   afero.File
	server string
	closed bool
}

func (s *session) Close(context.Context) error {
	if s.closed {
		return errInvalidSession
	}
	s.closed = true

	if err := s.file.Close(); err != nil {
		return toStatus("close", err)
	}
	return nil
}

func (s *session) Stat(context.Context, bool) (endpoint.StatInfo, error) {
	if s.closed {
		return endpoint.StatInfo{}, errInvalidSession
	}

	info, err := s.file.Stat()
	if err != nil {
		return endpoint.StatInfo{}, toStatus("stat", err)
	}

	return endpoint.StatInfo{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, nil
}

func (s *session) Read(_ context.Context, off int64, p []byte) (int, error) {
	if s.closed {
		return 0, errInvalidSession
	}

	// MemMapFs reports io.ErrUnexpectedEOF for offsets past the end.
	n, err := s.file.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, toStatus("read", err)
	}
	return n, nil
}

func (s *session) Write(_ context.Context, off int64, p []byte) error {
	if s.closed {
		return errInvalidSession
	}

	n, err := s.file.WriteAt(p, off)
	if err != nil {
		return toStatus("write", err)
	}
	if n < len(p) {
		return toStatus("write", io.ErrShortWrite)
	}
	return nil
}

// VectorRead reads the chunks one after the other; afero files are not safe
// for concurrent ReadAt.
func (s *session) VectorRead(ctx context.Context, chunks []endpoint.Chunk) (int64, error) {
	var total int64
	for _, c := range chunks {
		n, err := s.Read(ctx, c.Offset, c.Buffer)
		if err != nil {
			return total, err
		}
		total += int64(n)
	}
	return total, nil
}

func (s *session) DataServer() string {
	return s.server
}

var errInvalidSession = endpoint.NewStatus(endpoint.CodeInvalidSession, int(syscall.EBADF), "session is closed", nil)

func toStatus(op string, err error) *endpoint.Status {
	var errno syscall.Errno
	var code int
	if errors.As(err, &errno) {
		code = int(errno)
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return endpoint.NewStatus(endpoint.CodeNotFound, code, op, err)
	case errors.Is(err, fs.ErrExist):
		return endpoint.NewStatus(endpoint.CodeAlreadyExists, code, op, err)
	case errors.Is(err, fs.ErrPermission):
		return endpoint.NewStatus(endpoint.CodePermission, code, op, err)
	default:
		return endpoint.NewStatus(endpoint.CodeIO, code, op, err)
	}
}
