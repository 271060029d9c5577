package activity

import "context"

// RequestMeta identifies the HTTP request an activity originated from.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type metaKey struct{}

// WithRequestMeta returns a context carrying meta.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request meta stored in ctx, or the zero value.
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	return meta
}
