package csvio

import "github.com/okian/edulog/internal/domain/dedupe"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithSeparator sets the submission log field separator.
func WithSeparator(sep rune) Option {
	return func(r *Reader) {
		if sep != 0 {
			r.sep = sep
		}
	}
}

// WithDeduper replaces the default unbounded deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(r *Reader) {
		if d != nil {
			r.deduper = d
		}
	}
}

// WithEncodedAnswers makes the reader URL-unquote and base64-decode the
// answer column before the blank check.
func WithEncodedAnswers(enabled bool) Option {
	return func(r *Reader) {
		r.decodeAnswers = enabled
	}
}

// WriterOption applies a configuration option to the Writer.
type WriterOption func(*Writer)

// WithSentinel sets the label written for first occurrences.
func WithSentinel(label string) WriterOption {
	return func(w *Writer) {
		if label != "" {
			w.sentinel = label
		}
	}
}

// WithLegacyFallback writes the position instead of the sentinel for first
// occurrences.
func WithLegacyFallback(enabled bool) WriterOption {
	return func(w *Writer) {
		w.legacy = enabled
	}
}

// WithTimeLayout sets the layout used for the time column.
func WithTimeLayout(layout string) WriterOption {
	return func(w *Writer) {
		if layout != "" {
			w.timeLayout = layout
		}
	}
}
