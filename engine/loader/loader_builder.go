package loader

import (
	"context"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithMaxActive is an option builder that sets how many requests may load at once.
//
// Parameters:
//   - n: the limit; values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the limit to a loader
func WithMaxActive(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.maxActive = n
		}
	}
}

// WithWorkers is an option builder that sets the worker pool size. Defaults to the
// max active request count.
//
// Parameters:
//   - n: the number of pool workers
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = n
	}
}

// WithCacheTTL is an option builder that sets how long fetched bytes stay in the content cache.
//
// Parameters:
//   - ttl: the time to live; values at or below zero are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the TTL to a loader
func WithCacheTTL(ttl time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if ttl > 0 {
			l.cacheTTL = ttl
		}
	}
}

// WithDecodeOptions is an option builder that passes reader options to every decode.
//
// Parameters:
//   - options: the tileio reader options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the decode options to a loader
func WithDecodeOptions(options ...tileio.ReaderBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.decodeOptions = append(l.decodeOptions, options...)
	}
}

// WithContext is an option builder that sets the parent context of every fetch.
// Cancelling it has the same effect on fetches as Close.
func WithContext(ctx context.Context) LoaderBuilderOption {
	return func(l *loader) {
		if ctx != nil {
			l.ctx = ctx
		}
	}
}

// WithLogger is an option builder that sets the logger used for decode failures.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
