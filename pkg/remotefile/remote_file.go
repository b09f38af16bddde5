// Package remotefile implements a file handle backed by a session on a remote
// storage endpoint. A RemoteFile tracks a logical cursor and the object size
// observed at open time, and translates every endpoint failure into a
// *storage.Error that names the server the session is connected to.
//
// A RemoteFile is not safe for concurrent use. Callers must serialise access
// to one handle; independent handles share nothing.
package remotefile

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/javi11/remotefile/internal/slogutil"
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/javi11/remotefile/pkg/storage"
)

const (
	// DefaultMaxChunkSize bounds every chunk handed to Session.VectorRead.
	DefaultMaxChunkSize = 512 * 1024

	// MaxIOSize is the largest length a single read or write may request; the
	// wire length field cannot represent more.
	MaxIOSize = 0x7fffffff
)

var _ storage.File = (*RemoteFile)(nil)

// fileState is one of closedState, *pendingState or *openState.
type fileState interface {
	session() endpoint.Session
}

type closedState struct{}

func (closedState) session() endpoint.Session { return nil }

// pendingState holds a session the endpoint opened but that could not be
// statted. It is never usable for I/O and is not owned for closing.
type pendingState struct {
	sess endpoint.Session
}

func (s *pendingState) session() endpoint.Session { return s.sess }

type openState struct {
	sess   endpoint.Session
	cursor int64
	size   int64
}

func (s *openState) session() endpoint.Session { return s.sess }

// RemoteFile is a file handle on a remote endpoint.
type RemoteFile struct {
	client   endpoint.Client
	name     string
	id       string
	state    fileState
	maxChunk int
	maxIO    int64
	ctx      context.Context
	log      *slog.Logger
}

// Option configures a RemoteFile.
type Option func(*RemoteFile)

// WithLogger sets the logger used for lifecycle and diagnostic messages.
func WithLogger(log *slog.Logger) Option {
	return func(f *RemoteFile) {
		if log != nil {
			f.log = log
		}
	}
}

// WithContext sets the context passed to every endpoint call.
func WithContext(ctx context.Context) Option {
	return func(f *RemoteFile) {
		if ctx != nil {
			f.ctx = ctx
		}
	}
}

// WithMaxChunkSize overrides the vectored-read chunk bound.
func WithMaxChunkSize(size int) Option {
	return func(f *RemoteFile) {
		if size > 0 {
			f.maxChunk = size
		}
	}
}

// New returns a closed handle that opens sessions through client.
func New(client endpoint.Client, opts ...Option) *RemoteFile {
	f := &RemoteFile{
		client:   client,
		id:       uuid.NewString(),
		state:    closedState{},
		maxChunk: DefaultMaxChunkSize,
		maxIO:    MaxIOSize,
		ctx:      context.Background(),
		log:      slog.Default().With("component", "remote-file"),
	}
	for _, opt := range opts {
		opt(f)
	}

	runtime.SetFinalizer(f, (*RemoteFile).finalize)

	return f
}

// OpenFile creates a handle and opens name with it.
func OpenFile(client endpoint.Client, name string, flags storage.Flags, perm fs.FileMode, opts ...Option) (*RemoteFile, error) {
	f := New(client, opts...)
	if err := f.Open(name, flags, perm); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile creates a handle and creates name with it.
func CreateFile(client endpoint.Client, name string, exclusive bool, perm fs.FileMode, opts ...Option) (*RemoteFile, error) {
	f := New(client, opts...)
	if err := f.Create(name, exclusive, perm); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenMode translates storage flags into endpoint open-mode bits.
func OpenMode(flags storage.Flags) endpoint.OpenFlags {
	var mode endpoint.OpenFlags

	if flags.Any(storage.OpenWrite) {
		mode |= endpoint.Update
	} else if flags.Any(storage.OpenRead) {
		mode |= endpoint.Read
	}

	exclusive := flags.Has(storage.OpenCreate | storage.OpenExclusive)

	if flags.Any(storage.OpenCreate) {
		if !exclusive {
			mode |= endpoint.Delete
		}
		mode |= endpoint.New | endpoint.MakePath
	}

	// An exclusive create only succeeds on a missing object, which is
	// already empty; Delete would turn it into a replace.
	if flags.Has(storage.OpenTruncate|storage.OpenWrite) && !exclusive {
		mode |= endpoint.Delete
	}

	return mode
}

// Open opens a session on name. A handle that already owns a session closes
// it first; one left holding an unusable session drops it silently.
func (f *RemoteFile) Open(name string, flags storage.Flags, perm fs.FileMode) error {
	if name == "" {
		return &storage.Error{Kind: storage.KindOpen, Op: "open", Err: storage.ErrNoName}
	}
	if !flags.Any(storage.OpenRead | storage.OpenWrite) {
		return &storage.Error{Kind: storage.KindOpen, Op: "open", Name: name, Params: []storage.Param{storage.P("flags", flags)}, Err: storage.ErrNoAccessMode}
	}

	switch f.state.(type) {
	case *openState:
		_ = f.Close()
	case *pendingState:
		f.Abort()
	}

	if flags.Any(storage.OpenAppend) {
		return &storage.Error{Kind: storage.KindOpen, Op: "open", Name: name, Params: []storage.Param{storage.P("flags", flags)}, Err: storage.ErrAppendUnsupported}
	}

	mode := OpenMode(flags)
	f.name = name
	ctx := f.logContext()

	sess, err := f.client.Open(ctx, name, mode, perm)
	if err != nil {
		return &storage.Error{
			Kind: storage.KindOpen,
			Op:   "open",
			Name: name,
			Params: []storage.Param{
				storage.P("flags", mode.Hex()),
				storage.P("permissions", fmt.Sprintf("0%o", uint32(perm.Perm()))),
			},
			Err: err,
		}
	}

	info, err := sess.Stat(ctx, true)
	if err != nil {
		f.state = &pendingState{sess: sess}
		return &storage.Error{
			Kind:       storage.KindOpen,
			Op:         "stat",
			Name:       name,
			Connection: sess.DataServer(),
			Err:        err,
		}
	}

	f.state = &openState{sess: sess, size: info.Size}

	f.log.InfoContext(ctx, "Opened remote file", "name", name, "mode", mode.String(), "size", info.Size)
	f.log.InfoContext(ctx, "Connection URL", "server", sess.DataServer())

	return nil
}

// Create opens name for writing, creating it and any missing parent path.
// With exclusive the open fails if name already exists; otherwise an existing
// object is replaced.
func (f *RemoteFile) Create(name string, exclusive bool, perm fs.FileMode) error {
	flags := storage.OpenCreate | storage.OpenWrite | storage.OpenTruncate
	if exclusive {
		flags |= storage.OpenExclusive
	}
	return f.Open(name, flags, perm)
}

// Close releases the session. Local state is always reset; an endpoint
// failure is only logged. Close never returns an error.
func (f *RemoteFile) Close() error {
	ctx := f.logContext()

	sess := f.state.session()
	if sess == nil {
		f.log.ErrorContext(ctx, "Close called but the file is not open", "name", f.name)
		f.state = closedState{}
		return nil
	}

	if err := sess.Close(ctx); err != nil {
		f.log.WarnContext(ctx, "Failed to close remote file", "name", f.name, "error", err)
	}

	f.state = closedState{}
	f.log.InfoContext(ctx, "Closed remote file", "name", f.name)

	return nil
}

// Abort drops the session without contacting the endpoint.
func (f *RemoteFile) Abort() {
	f.state = closedState{}
}

// Name returns the name the handle was last opened with.
func (f *RemoteFile) Name() string {
	return f.name
}

// IsOpen reports whether the handle owns an open session.
func (f *RemoteFile) IsOpen() bool {
	_, ok := f.state.(*openState)
	return ok
}

// Size returns the cached object size.
func (f *RemoteFile) Size() (int64, error) {
	st, ok := f.state.(*openState)
	if !ok {
		return -1, f.fail(storage.KindPosition, "size", storage.ErrNotOpen)
	}
	return st.size, nil
}

func (f *RemoteFile) finalize() {
	if f.IsOpen() {
		f.log.ErrorContext(f.logContext(), "Remote file released but the file is still open", "name", f.name)
	}
}

func (f *RemoteFile) logContext() context.Context {
	return slogutil.With(f.ctx, "handle_id", f.id, "file", f.name)
}

// fail builds the error for a failed operation, attaching the current server
// connection when a session exists.
func (f *RemoteFile) fail(kind storage.Kind, op string, cause error, params ...storage.Param) error {
	e := &storage.Error{
		Kind:   kind,
		Op:     op,
		Name:   f.name,
		Params: params,
		Err:    cause,
	}
	if sess := f.state.session(); sess != nil {
		e.Connection = sess.DataServer()
	}
	return e
}
