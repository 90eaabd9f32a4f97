package graph

import (
	"time"

	"github.com/rs/zerolog"
)

// Recorder receives evaluation measurements. observability.Metrics implements it.
type Recorder interface {
	ObserveEvaluation(nodes, points int, elapsed time.Duration)
	OperatorFailed(typ string)
	CacheHit()
	CacheMiss()
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(int, int, time.Duration) {}
func (nopRecorder) OperatorFailed(string)                     {}
func (nopRecorder) CacheHit()                                 {}
func (nopRecorder) CacheMiss()                                {}

type options struct {
	log      zerolog.Logger
	recorder Recorder
}

// Option configures a Graph or Cache.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func newOptions(opts []Option) options {
	o := options{log: zerolog.Nop(), recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
