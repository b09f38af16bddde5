// Package aferofs exposes remote files as an afero.Fs, so code written
// against afero can read and write endpoint objects through RemoteFile
// handles. Objects have no directories or metadata; those operations fail
// with errors.ErrUnsupported.
package aferofs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/javi11/remotefile/pkg/remotefile"
	"github.com/javi11/remotefile/pkg/storage"
	"github.com/spf13/afero"
)

var (
	_ afero.Fs   = (*Fs)(nil)
	_ afero.File = (*File)(nil)
)

// Fs is an afero.Fs whose names are endpoint URLs.
type Fs struct {
	client endpoint.Client
	opts   []remotefile.Option
}

// New returns an Fs opening every file through client. opts are applied to
// each RemoteFile handle.
func New(client endpoint.Client, opts ...remotefile.Option) *Fs {
	return &Fs{client: client, opts: opts}
}

// Flags translates os.OpenFile flags to storage flags. O_CREATE without
// O_EXCL replaces an existing object; O_APPEND is passed through and
// rejected when the handle opens.
func Flags(flag int) storage.Flags {
	var f storage.Flags

	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		f = storage.OpenWrite
	case os.O_RDWR:
		f = storage.OpenRead | storage.OpenWrite
	default:
		f = storage.OpenRead
	}

	if flag&os.O_CREATE != 0 {
		f |= storage.OpenCreate
	}
	if flag&os.O_TRUNC != 0 {
		f |= storage.OpenTruncate
	}
	if flag&os.O_EXCL != 0 {
		f |= storage.OpenExclusive
	}
	if flag&os.O_APPEND != 0 {
		f |= storage.OpenAppend
	}

	return f
}

func (a *Fs) Create(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (a *Fs) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name through a new RemoteFile. A missing object is reported
// as an *fs.PathError holding fs.ErrNotExist, the form os.IsNotExist and
// afero.Exists recognise.
func (a *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	rf, err := remotefile.OpenFile(a.client, name, Flags(flag), perm, a.opts...)
	if err != nil {
		if endpoint.IsCode(err, endpoint.CodeNotFound) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return nil, err
	}
	return &File{RemoteFile: rf}, nil
}

// Stat opens name for reading to learn its size.
func (a *Fs) Stat(name string) (os.FileInfo, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Stat()
}

func (a *Fs) Name() string {
	return "RemoteFileFs"
}

func (a *Fs) Mkdir(name string, _ os.FileMode) error {
	return unsupported("mkdir", name)
}

func (a *Fs) MkdirAll(name string, _ os.FileMode) error {
	return unsupported("mkdirall", name)
}

func (a *Fs) Remove(name string) error {
	return unsupported("remove", name)
}

func (a *Fs) RemoveAll(name string) error {
	return unsupported("removeall", name)
}

func (a *Fs) Rename(oldname, _ string) error {
	return unsupported("rename", oldname)
}

func (a *Fs) Chmod(name string, _ os.FileMode) error {
	return unsupported("chmod", name)
}

func (a *Fs) Chown(name string, _, _ int) error {
	return unsupported("chown", name)
}

func (a *Fs) Chtimes(name string, _, _ time.Time) error {
	return unsupported("chtimes", name)
}

// File is an afero.File backed by a RemoteFile.
type File struct {
	*remotefile.RemoteFile
}

// Stat reports the cached size of the open file.
func (f *File) Stat() (os.FileInfo, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	return &fileInfo{name: path.Base(f.Name()), size: size}, nil
}

// Truncate maps to Resize, which remote files do not support.
func (f *File) Truncate(size int64) error {
	return f.Resize(size)
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Sync is a no-op. Endpoints that stage writes upload them on Close.
func (f *File) Sync() error {
	return nil
}

func (f *File) Readdir(int) ([]os.FileInfo, error) {
	return nil, unsupported("readdir", f.Name())
}

func (f *File) Readdirnames(int) ([]string, error) {
	return nil, unsupported("readdirnames", f.Name())
}

func unsupported(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: errors.ErrUnsupported}
}

type fileInfo struct {
	name string
	size int64
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() os.FileMode  { return 0o644 }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return nil }
