package synth

import (
	"io"
	"log/slog"
	"time"

	"peptidesynth/internal/history"
	"peptidesynth/internal/observability"
)

// Clock supplies timestamps for documents and history rows.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Option customises a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock    Clock
	logger   *slog.Logger
	recorder observability.Recorder
	tracer   observability.Tracer
	history  history.Store
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:    ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: observability.NoopRecorder{},
		tracer:   observability.NoopTracer{},
		history:  history.Discard{},
	}
}

// WithClock overrides the timestamp source.
func WithClock(c Clock) Option {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger; the service tags its lines with component=synth.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r observability.Recorder) Option {
	return func(o *serviceOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(t observability.Tracer) Option {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithHistory records every successful run in h.
func WithHistory(h history.Store) Option {
	return func(o *serviceOptions) {
		if h != nil {
			o.history = h
		}
	}
}
