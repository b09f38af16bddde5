package remotefile

import (
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/javi11/remotefile/pkg/storage"
)

// ReadV performs a vectored read of segs and returns the total number of bytes
// transferred as reported by the endpoint. Segments longer than the chunk
// bound are split transparently; the whole request is one endpoint call.
func (f *RemoteFile) ReadV(segs []storage.PosBuffer) (int64, error) {
	st, ok := f.state.(*openState)
	if !ok {
		return 0, f.fail(storage.KindRead, "readv", storage.ErrNotOpen, storage.P("n", len(segs)))
	}

	switch len(segs) {
	case 0:
		return 0, nil
	case 1:
		got, err := f.readAt(segs[0].Data, segs[0].Offset)
		return int64(got), err
	}

	for _, seg := range segs {
		if seg.Offset < 0 {
			return 0, f.fail(storage.KindRead, "readv", storage.ErrNegativeOffset, storage.P("offset", seg.Offset), storage.P("n", len(segs)))
		}
	}

	chunks, size := SplitChunks(segs, f.maxChunk)

	ctx := f.logContext()
	f.log.DebugContext(ctx, "Vector read", "segments", len(segs), "chunks", len(chunks), "size", size)

	got, err := st.sess.VectorRead(ctx, chunks)
	if err != nil {
		return 0, f.fail(storage.KindRead, "readv", err, storage.P("size", size), storage.P("n", len(segs)))
	}

	return got, nil
}

// ReadVContiguous is the legacy vectored read over plain buffers. The buffers
// are laid out back to back from offset 0: buffer i starts where buffer i-1
// ends. It converts to positioned segments and calls ReadV.
func (f *RemoteFile) ReadVContiguous(bufs [][]byte) (int64, error) {
	segs := make([]storage.PosBuffer, len(bufs))

	var off int64
	for i, b := range bufs {
		segs[i] = storage.PosBuffer{Offset: off, Data: b}
		off += int64(len(b))
	}

	return f.ReadV(segs)
}

// SplitChunks flattens segs into endpoint chunks no longer than maxChunk bytes.
// A longer segment becomes consecutive maxChunk pieces followed by the
// remainder, each pointing at its sub-slice of the segment buffer. Order and
// byte coverage are preserved. It also returns the total requested size.
func SplitChunks(segs []storage.PosBuffer, maxChunk int) ([]endpoint.Chunk, int64) {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkSize
	}

	chunks := make([]endpoint.Chunk, 0, len(segs))

	var size int64
	for _, seg := range segs {
		off := seg.Offset
		buf := seg.Data
		size += int64(len(buf))

		for len(buf) > maxChunk {
			chunks = append(chunks, endpoint.Chunk{Offset: off, Buffer: buf[:maxChunk:maxChunk]})
			off += int64(maxChunk)
			buf = buf[maxChunk:]
		}
		chunks = append(chunks, endpoint.Chunk{Offset: off, Buffer: buf})
	}

	return chunks, size
}

// Prefetch is not supported: the endpoint clients keep no read-ahead buffers
// to fill. It always returns false.
func (f *RemoteFile) Prefetch(_ []storage.PosBuffer) bool {
	return false
}
