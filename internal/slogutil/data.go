package slogutil

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// ctxAttrs holds the attributes carried by a context, keyed by attribute key
// so that a later With replaces an earlier value.
type ctxAttrs map[string]slog.Attr

type ctxAttrsKey struct{}

func attrsFrom(ctx context.Context) ctxAttrs {
	d, _ := ctx.Value(ctxAttrsKey{}).(ctxAttrs)
	return d
}

// With returns a context carrying the given key-value pairs. Every record
// logged through a Handler with that context gets them added.
func With(ctx context.Context, kvargs ...any) context.Context {
	if len(kvargs) == 0 {
		return ctx
	}

	d := maps.Clone(attrsFrom(ctx))
	if d == nil {
		d = ctxAttrs{}
	}

	var r slog.Record
	r.Add(kvargs...)
	r.Attrs(func(a slog.Attr) bool {
		d[a.Key] = a
		return true
	})

	return context.WithValue(ctx, ctxAttrsKey{}, d)
}

// Attrs returns the attributes carried by ctx, sorted by key.
func Attrs(ctx context.Context) []slog.Attr {
	d := attrsFrom(ctx)
	if len(d) == 0 {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(d))
	for _, k := range slices.Sorted(maps.Keys(d)) {
		attrs = append(attrs, d[k])
	}
	return attrs
}

type ctxAttrsHook struct{}

func (ctxAttrsHook) Run(ctx context.Context, r *slog.Record) {
	r.AddAttrs(Attrs(ctx)...)
}
