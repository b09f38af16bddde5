package remotefile

import (
	"io"

	"github.com/javi11/remotefile/pkg/storage"
)

// Read reads up to len(p) bytes at the cursor and advances the cursor by the
// number of bytes returned. A short read is not an error; a read that returns
// nothing for a non-empty p reports io.EOF.
func (f *RemoteFile) Read(p []byte) (int, error) {
	n := int64(len(p))
	if n > f.maxIO {
		return 0, f.fail(storage.KindRead, "read", storage.ErrTooLarge, storage.P("n", n))
	}

	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindRead, "read", storage.ErrNotOpen, storage.P("n", n))
	}
	if n == 0 {
		return 0, nil
	}

	got, err := st.sess.Read(f.logContext(), st.cursor, p)
	if err != nil {
		return 0, f.fail(storage.KindRead, "read", err, storage.P("offset", st.cursor), storage.P("n", n))
	}

	st.cursor += int64(got)
	if got == 0 {
		return 0, io.EOF
	}

	return got, nil
}

// ReadAt reads up to len(p) bytes at off without moving the cursor. As
// io.ReaderAt requires, a short count is returned together with io.EOF.
func (f *RemoteFile) ReadAt(p []byte, off int64) (int, error) {
	got, err := f.readAt(p, off)
	if err != nil {
		return got, err
	}
	if got < len(p) {
		return got, io.EOF
	}
	return got, nil
}

func (f *RemoteFile) readAt(p []byte, off int64) (int, error) {
	n := int64(len(p))
	if n > f.maxIO {
		return 0, f.fail(storage.KindRead, "read", storage.ErrTooLarge, storage.P("offset", off), storage.P("n", n))
	}

	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindRead, "read", storage.ErrNotOpen, storage.P("offset", off), storage.P("n", n))
	}
	if off < 0 {
		return 0, f.fail(storage.KindRead, "read", storage.ErrNegativeOffset, storage.P("offset", off), storage.P("n", n))
	}
	if n == 0 {
		return 0, nil
	}

	got, err := st.sess.Read(f.logContext(), off, p)
	if err != nil {
		return 0, f.fail(storage.KindRead, "read", err, storage.P("offset", off), storage.P("n", n))
	}

	return got, nil
}

// Write writes p at the cursor, advances the cursor past it and grows the
// cached size when the write ends beyond it. The endpoint either writes all
// of p or fails.
func (f *RemoteFile) Write(p []byte) (int, error) {
	n := int64(len(p))
	if n > f.maxIO {
		return 0, f.fail(storage.KindWrite, "write", storage.ErrTooLarge, storage.P("n", n))
	}

	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindWrite, "write", storage.ErrNotOpen, storage.P("n", n))
	}
	if n == 0 {
		return 0, nil
	}

	if err := st.sess.Write(f.logContext(), st.cursor, p); err != nil {
		return 0, f.fail(storage.KindWrite, "write", err, storage.P("offset", st.cursor), storage.P("n", n))
	}

	st.cursor += n
	if st.cursor > st.size {
		st.size = st.cursor
	}

	return len(p), nil
}

// WriteAt writes p at off without moving the cursor, growing the cached size
// when the write ends beyond it.
func (f *RemoteFile) WriteAt(p []byte, off int64) (int, error) {
	n := int64(len(p))
	if n > f.maxIO {
		return 0, f.fail(storage.KindWrite, "write", storage.ErrTooLarge, storage.P("offset", off), storage.P("n", n))
	}

	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindWrite, "write", storage.ErrNotOpen, storage.P("offset", off), storage.P("n", n))
	}
	if off < 0 {
		return 0, f.fail(storage.KindWrite, "write", storage.ErrNegativeOffset, storage.P("offset", off), storage.P("n", n))
	}
	if n == 0 {
		return 0, nil
	}

	if err := st.sess.Write(f.logContext(), off, p); err != nil {
		return 0, f.fail(storage.KindWrite, "write", err, storage.P("offset", off), storage.P("n", n))
	}

	if end := off + n; end > st.size {
		st.size = end
	}

	return len(p), nil
}
