package service

import (
	"github.com/okian/edulog/internal/adapters/repository"
	"github.com/okian/edulog/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recency workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the partition queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the duplicate-id window. 0 keeps every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithSeparator sets the submission log separator.
func WithSeparator(sep rune) Option {
	return func(s *Service) {
		if sep != 0 {
			s.separator = sep
		}
	}
}

// WithEncodedAnswers enables answer decoding in the loader.
func WithEncodedAnswers(enabled bool) Option {
	return func(s *Service) {
		s.encodedAnswers = enabled
	}
}

// WithSentinel sets the label exported for first occurrences.
func WithSentinel(label string) Option {
	return func(s *Service) {
		if label != "" {
			s.sentinel = label
		}
	}
}

// WithLegacyFallback exports positions instead of the sentinel.
func WithLegacyFallback(enabled bool) Option {
	return func(s *Service) {
		s.legacy = enabled
	}
}

// WithStore replaces the in-memory report store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
