// Package endpoint declares the contract of a remote storage endpoint client:
// opening a session on a named object and moving bytes over it.
package endpoint

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// OpenFlags are the endpoint open-mode bits. The values follow the XRootD
// client so that they read the same in diagnostics.
type OpenFlags uint16

const (
	Delete   OpenFlags = 0x0002 // replace an existing object
	New      OpenFlags = 0x0008 // create a new object
	Read     OpenFlags = 0x0010 // read-only session
	Update   OpenFlags = 0x0020 // read-write session
	MakePath OpenFlags = 0x0080 // create missing intermediate path components
)

// Has reports whether all bits of other are set in f.
func (f OpenFlags) Has(other OpenFlags) bool {
	return f&other == other
}

func (f OpenFlags) String() string {
	if f == 0 {
		return "None"
	}

	var out []string
	names := []string{"Delete", "New", "Read", "Update", "MakePath"}
	for i, flag := range []OpenFlags{Delete, New, Read, Update, MakePath} {
		if f&flag != 0 {
			out = append(out, names[i])
		}
	}
	return strings.Join(out, "|")
}

// Hex renders the flags the way open failures report them.
func (f OpenFlags) Hex() string {
	return fmt.Sprintf("0x%x", uint16(f))
}

// Chunk is one piece of a vectored read. The chunk reads len(Buffer) bytes
// found at Offset into Buffer.
type Chunk struct {
	Offset int64
	Buffer []byte
}

// Length returns the number of bytes the chunk requests.
func (c Chunk) Length() int {
	return len(c.Buffer)
}

// StatInfo is the metadata returned by Session.Stat.
type StatInfo struct {
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
}

// Client opens sessions on a remote endpoint.
type Client interface {
	// Open opens name with the given mode bits and permissions.
	Open(ctx context.Context, name string, flags OpenFlags, perm fs.FileMode) (Session, error)
}

// Session is one open object on a remote endpoint. Every method is a blocking
// round trip. Errors are *Status values.
type Session interface {
	Close(ctx context.Context) error

	// Stat returns the object metadata. force bypasses any cached answer.
	Stat(ctx context.Context, force bool) (StatInfo, error)

	// Read reads up to len(p) bytes at off. A short count at end of object is
	// not an error.
	Read(ctx context.Context, off int64, p []byte) (int, error)

	// Write writes all of p at off.
	Write(ctx context.Context, off int64, p []byte) error

	// VectorRead fills every chunk and returns the aggregate number of bytes
	// transferred.
	VectorRead(ctx context.Context, chunks []Chunk) (int64, error)

	// DataServer describes the server the session is connected to.
	DataServer() string
}
