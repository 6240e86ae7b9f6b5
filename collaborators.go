package hxbridge

import (
	"context"
	"path"
	"strings"
)

// Record is a plain serializable domain record.
type Record = map[string]any

// DataSource is the data-access layer components load records from.
type DataSource interface {
	Get(ctx context.Context, key string) (Record, error)
	List(ctx context.Context, filter map[string]string) ([]Record, error)
}

// Notifier shows errors that block further use of a panel until something
// outside it is fixed (credentials, missing configuration). It is separate
// from in-panel notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) error {
	return f(ctx, n)
}

// ResourceResolver turns a logical resource name into a location the
// surface can load.
type ResourceResolver interface {
	Resolve(name string) string
}

// ResolverFunc adapts a function to ResourceResolver.
type ResolverFunc func(name string) string

// Resolve calls f.
func (f ResolverFunc) Resolve(name string) string {
	return f(name)
}

// IdentityResolver returns names unchanged.
type IdentityResolver struct{}

// Resolve returns name.
func (IdentityResolver) Resolve(name string) string {
	return name
}

// PrefixResolver joins names onto a base path, leaving absolute URLs alone.
//
//	PrefixResolver{Base: "/static"}.Resolve("table.css") // "/static/table.css"
type PrefixResolver struct {
	Base string
}

// Resolve joins name onto Base.
func (r PrefixResolver) Resolve(name string) string {
	if strings.Contains(name, "://") || strings.HasPrefix(name, "/") {
		return name
	}
	base := r.Base
	if base == "" {
		base = "/"
	}
	return path.Join(base, name)
}
