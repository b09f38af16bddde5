package storage

import (
	"fmt"
	"io"
	"io/fs"
)

// Whence selects the origin of a relative position.
type Whence int

// The values match io.SeekStart, io.SeekCurrent and io.SeekEnd so a File can
// also be used as an io.Seeker.
const (
	Set     Whence = io.SeekStart
	Current Whence = io.SeekCurrent
	End     Whence = io.SeekEnd
)

func (w Whence) String() string {
	switch w {
	case Set:
		return "SET"
	case Current:
		return "CURRENT"
	case End:
		return "END"
	default:
		return fmt.Sprintf("Whence(%d)", int(w))
	}
}

// PosBuffer is one request of a vectored read: fill Data with the bytes found
// at Offset.
type PosBuffer struct {
	Offset int64
	Data   []byte
}

// Size returns the number of bytes requested.
func (b PosBuffer) Size() int64 {
	return int64(len(b.Data))
}

// File is the contract every storage backend handle satisfies.
type File interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.WriterAt
	io.Seeker
	io.Closer

	Open(name string, flags Flags, perm fs.FileMode) error
	Create(name string, exclusive bool, perm fs.FileMode) error
	Abort()

	ReadV(segs []PosBuffer) (int64, error)
	ReadVContiguous(bufs [][]byte) (int64, error)
	Prefetch(segs []PosBuffer) bool

	Position(offset int64, whence Whence) (int64, error)
	Resize(size int64) error
	Size() (int64, error)
	Name() string
}
