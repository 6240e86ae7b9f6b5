package hxbridge

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/pthm/hxbridge"

// Option configures a Panel, Bridge or Surface. Options that do not apply
// to the receiver are ignored.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	notifier Notifier
	resolver ResourceResolver
	title    string
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		tracer:   otel.Tracer(instrumentationName),
		resolver: IdentityResolver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithNotifier sets the channel for critical, attention-demanding errors.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithResolver sets how the Composer turns resource names into locations.
func WithResolver(r ResourceResolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithTitle sets the document title emitted by the Composer.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}
