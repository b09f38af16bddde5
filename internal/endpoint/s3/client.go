// Package s3 implements an endpoint client for S3-compatible object stores on
// top of minio-go. Names have the form s3://bucket/key.
package s3

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/javi11/remotefile/internal/config"
	errs "github.com/javi11/remotefile/internal/errors"
	"github.com/javi11/remotefile/internal/httpclient"
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const Scheme = "s3"

const (
	defaultMaxObjectSize = 5 << 30

	retryDelay    = 100 * time.Millisecond
	retryMaxDelay = 2 * time.Second
)

var _ endpoint.Client = (*Client)(nil)

// Client opens sessions on objects of one object store.
type Client struct {
	api      objectAPI
	server   string
	region   string
	attempts uint
	workers  int
	maxSize  int64
	buckets  *lru.Cache[string, bool]
	log      *slog.Logger
}

// New connects a client to the object store described by cfg. workers bounds
// the parallel range requests of one vectored read.
func New(cfg config.S3EndpointConfig, workers int, log *slog.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: httpclient.NewTransport(cfg.RequestTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client for %s: %w", cfg.Endpoint, err)
	}

	return newClient(&minioAPI{client: mc}, mc.EndpointURL().Host, cfg, workers, log)
}

func newClient(api objectAPI, server string, cfg config.S3EndpointConfig, workers int, log *slog.Logger) (*Client, error) {
	size := cfg.BucketCacheSize
	if size <= 0 {
		size = 128
	}
	buckets, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket cache: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	maxSize := cfg.MaxObjectSize
	if maxSize <= 0 {
		maxSize = defaultMaxObjectSize
	}

	return &Client{
		api:      api,
		server:   server,
		region:   cfg.Region,
		attempts: max(cfg.RetryAttempts, 1),
		workers:  max(workers, 1),
		maxSize:  maxSize,
		buckets:  buckets,
		log:      log.With("component", "s3-endpoint", "server", server),
	}, nil
}

// Open opens the object named by an s3://bucket/key URL.
//
// Objects have no random writes: a session opened with Update stages the
// object in memory and uploads it on Close. With Delete the stage starts
// empty; otherwise the current content is fetched on the first write.
func (c *Client) Open(ctx context.Context, name string, flags endpoint.OpenFlags, _ fs.FileMode) (endpoint.Session, error) {
	bucket, key, err := parseName(name)
	if err != nil {
		return nil, err
	}

	writable := flags.Has(endpoint.Update)
	if !writable && !flags.Has(endpoint.Read) {
		return nil, endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "no access mode in "+flags.String(), nil)
	}

	if flags.Has(endpoint.New) {
		if err := c.ensureBucket(ctx, bucket, flags.Has(endpoint.MakePath)); err != nil {
			return nil, err
		}
	}

	info, err := c.stat(ctx, bucket, key)
	exists := err == nil
	if err != nil && !isNotFound(err) {
		return nil, toStatus("open", err)
	}

	switch {
	case flags.Has(endpoint.New) && !flags.Has(endpoint.Delete) && exists:
		return nil, endpoint.NewStatus(endpoint.CodeAlreadyExists, int(syscall.EEXIST), "open", errs.ErrObjectExists)
	case !flags.Has(endpoint.New) && !exists:
		return nil, toStatus("open", err)
	}

	s := &session{
		client:   c,
		bucket:   bucket,
		key:      key,
		writable: writable,
	}

	if exists {
		s.size = info.Size
		s.modTime = info.LastModified
	}

	if writable && (flags.Has(endpoint.Delete) || !exists) {
		s.stage = []byte{}
		s.staged = true
		s.dirty = true
		s.size = 0
		s.modTime = time.Now()
	}

	c.log.DebugContext(ctx, "Opened object", "bucket", bucket, "key", key, "flags", flags.String(), "size", s.size)

	return s, nil
}

// ensureBucket checks that bucket exists, creating it when create is set.
// Known buckets are remembered.
func (c *Client) ensureBucket(ctx context.Context, bucket string, create bool) error {
	if _, ok := c.buckets.Get(bucket); ok {
		return nil
	}

	var found bool
	err := c.retry(ctx, "bucket exists", func() error {
		var err error
		found, err = c.api.BucketExists(ctx, bucket)
		return classify(err)
	})
	if err != nil {
		return toStatus("bucket exists", err)
	}

	if !found {
		if !create {
			return endpoint.NewStatus(endpoint.CodeNotFound, int(syscall.ENOENT), "open", errs.ErrBucketMissing)
		}

		err := c.retry(ctx, "make bucket", func() error {
			return classify(c.api.MakeBucket(ctx, bucket, c.region))
		})
		if err != nil && toStatus("", err).Code != endpoint.CodeAlreadyExists {
			return toStatus("make bucket", err)
		}

		c.log.InfoContext(ctx, "Created bucket", "bucket", bucket)
	}

	c.buckets.Add(bucket, true)
	return nil
}

func (c *Client) stat(ctx context.Context, bucket, key string) (minio.ObjectInfo, error) {
	var info minio.ObjectInfo
	err := c.retry(ctx, "stat", func() error {
		var err error
		info, err = c.api.StatObject(ctx, bucket, key)
		return classify(err)
	})
	return info, err
}

// retry runs fn until it succeeds, fails permanently or attempts run out.
func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(errs.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.WarnContext(ctx, "Retrying object store request", "op", op, "attempt", n+1, "error", err)
		}),
	)
}

func parseName(name string) (bucket, key string, err error) {
	u, err := url.Parse(name)
	if err != nil {
		return "", "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "invalid name", err)
	}
	if u.Scheme != Scheme {
		return "", "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), fmt.Sprintf("scheme %q not served by s3 endpoint", u.Scheme), nil)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "name must be s3://bucket/key", nil)
	}

	return bucket, key, nil
}
