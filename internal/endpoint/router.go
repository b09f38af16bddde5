// Package endpoint wires the configured endpoint clients behind one
// endpoint.Client that dispatches on the URL scheme of each name.
package endpoint

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"syscall"

	"github.com/javi11/remotefile/internal/config"
	"github.com/javi11/remotefile/internal/endpoint/local"
	"github.com/javi11/remotefile/internal/endpoint/s3"
	"github.com/javi11/remotefile/pkg/endpoint"
)

var _ endpoint.Client = (*Router)(nil)

// Router implements endpoint.Client by scheme.
type Router struct {
	mu      sync.RWMutex
	clients map[string]endpoint.Client
	log     *slog.Logger
}

// NewRouter returns an empty router.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		clients: map[string]endpoint.Client{},
		log:     log.With("component", "endpoint-router"),
	}
}

// FromConfig builds a router holding every endpoint enabled in cfg.
func FromConfig(ctx context.Context, cfg config.EndpointConfig, log *slog.Logger) (*Router, error) {
	r := NewRouter(log)

	if cfg.Local.Enabled {
		r.Register(local.SchemeFile, local.NewOS(cfg.Local.Root, log))
	}
	if cfg.Mem.Enabled {
		r.Register(local.SchemeMem, local.NewMem(log))
	}
	if cfg.S3.Enabled {
		c, err := s3.New(cfg.S3, cfg.VectorReadWorkers, log)
		if err != nil {
			return nil, err
		}
		r.Register(s3.Scheme, c)
	}

	r.log.DebugContext(ctx, "Endpoints configured", "schemes", r.Schemes())

	return r, nil
}

// Register serves scheme names with client, replacing any previous client.
func (r *Router) Register(scheme string, client endpoint.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[scheme] = client
}

// Schemes returns the registered schemes in sorted order.
func (r *Router) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.clients))
	for s := range r.clients {
		schemes = append(schemes, s)
	}
	slices.Sort(schemes)
	return schemes
}

// Open delegates to the client registered for the scheme of name.
func (r *Router) Open(ctx context.Context, name string, flags endpoint.OpenFlags, perm fs.FileMode) (endpoint.Session, error) {
	u, err := url.Parse(name)
	if err != nil {
		return nil, endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), "invalid name", err)
	}

	r.mu.RLock()
	client, ok := r.clients[u.Scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, endpoint.NewStatus(endpoint.CodeInvalidArgs, int(syscall.EINVAL), fmt.Sprintf("no endpoint for scheme %q", u.Scheme), nil)
	}

	return client.Open(ctx, name, flags, perm)
}
