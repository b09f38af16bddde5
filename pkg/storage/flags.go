// Package storage declares the generic file contract shared by every storage
// backend: open flags, seek origins, positioned buffers and the error
// taxonomy used to report failures.
package storage

import "strings"

// Flags is the bitset passed to a backend when opening a file.
type Flags int

const (
	OpenRead      Flags = 1 << iota // open for reading
	OpenWrite                       // open for writing
	OpenCreate                      // create the file if it does not exist
	OpenTruncate                    // truncate the file when opened for writing
	OpenExclusive                   // with OpenCreate, the file must not exist
	OpenAppend                      // append every write to the end of the file
)

// Has reports whether all bits of other are set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// Any reports whether at least one bit of other is set in f.
func (f Flags) Any(other Flags) bool {
	return f&other != 0
}

func (f Flags) String() string {
	if f == 0 {
		return "0"
	}

	var out []string
	names := []string{"OpenRead", "OpenWrite", "OpenCreate", "OpenTruncate", "OpenExclusive", "OpenAppend"}
	for i, flag := range []Flags{OpenRead, OpenWrite, OpenCreate, OpenTruncate, OpenExclusive, OpenAppend} {
		if f&flag != 0 {
			out = append(out, names[i])
		}
	}
	return strings.Join(out, "|")
}
