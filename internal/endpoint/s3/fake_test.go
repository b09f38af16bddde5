package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// fakeAPI is an in-memory object store. failures queues errors returned by
// the next calls of an operation before it behaves normally.
type fakeAPI struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	failures map[string][]error
	calls    map[string]int
}

func newFakeAPI(buckets ...string) *fakeAPI {
	f := &fakeAPI{
		buckets:  map[string]map[string][]byte{},
		failures: map[string][]error{},
		calls:    map[string]int{},
	}
	for _, b := range buckets {
		f.buckets[b] = map[string][]byte{}
	}
	return f
}

func (f *fakeAPI) put(bucket, key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket][key] = []byte(data)
}

func (f *fakeAPI) get(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.buckets[bucket][key]
	return data, ok
}

func (f *fakeAPI) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// begin records a call and returns a queued failure, if any. It must be
// called with f.mu held.
func (f *fakeAPI) begin(op string) error {
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		f.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *fakeAPI) object(bucket, key string) ([]byte, error) {
	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, errResponse("NoSuchBucket", http.StatusNotFound)
	}
	data, ok := objects[key]
	if !ok {
		return nil, errResponse("NoSuchKey", http.StatusNotFound)
	}
	return data, nil
}

func (f *fakeAPI) StatObject(_ context.Context, bucket, key string) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("stat"); err != nil {
		return minio.ObjectInfo{}, err
	}
	data, err := f.object(bucket, key)
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Unix(1700000000, 0)}, nil
}

func (f *fakeAPI) GetRange(_ context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("get"); err != nil {
		return nil, err
	}
	data, err := f.object(bucket, key)
	if err != nil {
		return nil, err
	}
	if off >= int64(len(data)) {
		return nil, errResponse("InvalidRange", http.StatusRequestedRangeNotSatisfiable)
	}
	end := min(off+length, int64(len(data)))
	return io.NopCloser(bytes.NewReader(bytes.Clone(data[off:end]))), nil
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("put"); err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errResponse("IncompleteBody", http.StatusBadRequest)
	}
	objects, ok := f.buckets[bucket]
	if !ok {
		return errResponse("NoSuchBucket", http.StatusNotFound)
	}
	objects[key] = data
	return nil
}

func (f *fakeAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("bucket exists"); err != nil {
		return false, err
	}
	_, ok := f.buckets[bucket]
	return ok, nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("make bucket"); err != nil {
		return err
	}
	if _, ok := f.buckets[bucket]; ok {
		return errResponse("BucketAlreadyOwnedByYou", http.StatusConflict)
	}
	f.buckets[bucket] = map[string][]byte{}
	return nil
}

func errResponse(code string, status int) error {
	return minio.ErrorResponse{Code: code, StatusCode: status, Message: code}
}
