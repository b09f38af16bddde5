package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a storage failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindOpen
	KindRead
	KindWrite
	KindPosition
	KindResize
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "FileOpenError"
	case KindRead:
		return "FileReadError"
	case KindWrite:
		return "FileWriteError"
	case KindPosition:
		return "FilePositionError"
	case KindResize:
		return "FileResizeError"
	default:
		return "FileError"
	}
}

// Param is a named diagnostic value attached to an Error, such as an offset
// or a requested length.
type Param struct {
	Key   string
	Value any
}

// P builds a Param.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

// Error is the failure reported by storage backends. It carries the failed
// operation, the logical file name, the parameters of the call and, when a
// session to a remote endpoint exists, the server the session is connected to.
type Error struct {
	Kind       Kind
	Op         string
	Name       string
	Params     []Param
	Connection string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
		fmt.Fprintf(&b, "(name='%s'", e.Name)
		for _, p := range e.Params {
			fmt.Fprintf(&b, ", %s=%v", p.Key, p.Value)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Connection != "" {
		b.WriteString(" (current server connection: ")
		b.WriteString(e.Connection)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels (ErrFileOpen, ErrFileRead, ...) against any
// Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Name == "" && t.Err == nil && t.Kind == e.Kind
}

// Param returns the value of the named parameter.
func (e *Error) Param(key string) (any, bool) {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// KindOf returns the Kind of the first Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Kind sentinels, usable with errors.Is.
var (
	ErrFileOpen     = &Error{Kind: KindOpen}
	ErrFileRead     = &Error{Kind: KindRead}
	ErrFileWrite    = &Error{Kind: KindWrite}
	ErrFilePosition = &Error{Kind: KindPosition}
	ErrFileResize   = &Error{Kind: KindResize}
)

// Conditions carried as the cause of an Error when no endpoint status exists.
var (
	ErrNotOpen           = errors.New("file is not open")
	ErrNoName            = errors.New("cannot open a file without a name")
	ErrNoAccessMode      = errors.New("file must be opened at least for read or write")
	ErrAppendUnsupported = errors.New("append mode not supported")
	ErrTooLarge          = errors.New("too many bytes, limit is 0x7fffffff")
	ErrNegativeOffset    = errors.New("negative offset")
	ErrInvalidWhence     = errors.New("incorrect 'whence' parameter")
	ErrResizeUnsupported = errors.New("resize not implemented")
)
