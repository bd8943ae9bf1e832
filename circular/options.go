package circular

import "log/slog"

// DefaultMaxPasses bounds WithUntilAcyclic when no positive budget is given.
const DefaultMaxPasses = 10

type Option func(o *options)

type options struct {
	logger    *slog.Logger
	maxPasses int
}

// WithLogger sets the logger that receives skipped removals and pass summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithUntilAcyclic makes Resolve repeat detection and breaking until no cycle remains
// or maxPasses passes have run. A non-positive maxPasses uses DefaultMaxPasses.
func WithUntilAcyclic(maxPasses int) Option {
	return func(o *options) {
		if maxPasses <= 0 {
			maxPasses = DefaultMaxPasses
		}
		o.maxPasses = maxPasses
	}
}

func getOptions(opts []Option) *options {
	o := &options{
		logger:    slog.New(slog.DiscardHandler),
		maxPasses: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
