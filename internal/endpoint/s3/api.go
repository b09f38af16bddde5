package s3

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// objectAPI is the subset of the object-store API the endpoint uses.
type objectAPI interface {
	StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error)
	// GetRange returns length bytes of key starting at off.
	GetRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

type minioAPI struct {
	client *minio.Client
}

func (m *minioAPI) StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error) {
	return m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
}

func (m *minioAPI) GetRange(ctx context.Context, bucket, key string, off, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+length-1); err != nil {
		return nil, err
	}
	return m.client.GetObject(ctx, bucket, key, opts)
}

func (m *minioAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

func (m *minioAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m *minioAPI) MakeBucket(ctx context.Context, bucket, region string) error {
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}
