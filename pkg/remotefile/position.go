package remotefile

import (
	"github.com/javi11/remotefile/pkg/storage"
)

// Position moves the cursor and returns its new absolute value. A negative
// result clamps to 0. Moving past the cached size grows it, so a later write
// there is accounted for.
//
// The size used for End is the one observed at open time plus local writes;
// concurrent writers through other handles are not seen.
func (f *RemoteFile) Position(offset int64, whence storage.Whence) (int64, error) {
	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindPosition, "position", storage.ErrNotOpen, storage.P("offset", offset), storage.P("whence", whence))
	}

	var next int64
	switch whence {
	case storage.Set:
		next = offset
	case storage.Current:
		next = st.cursor + offset
	case storage.End:
		next = st.size + offset
	default:
		return st.cursor, f.fail(storage.KindPosition, "position", storage.ErrInvalidWhence, storage.P("offset", offset), storage.P("whence", whence))
	}

	if next < 0 {
		next = 0
	}
	st.cursor = next
	if st.cursor > st.size {
		st.size = st.cursor
	}

	return st.cursor, nil
}

// Seek implements io.Seeker on top of Position.
func (f *RemoteFile) Seek(offset int64, whence int) (int64, error) {
	return f.Position(offset, storage.Whence(whence))
}

// Resize always fails: the endpoints offer no truncate or extend primitive.
func (f *RemoteFile) Resize(size int64) error {
	return f.fail(storage.KindResize, "resize", storage.ErrResizeUnsupported, storage.P("size", size))
}
