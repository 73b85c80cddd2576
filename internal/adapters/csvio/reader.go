// Package csvio reads the submission log, the defect presence matrix and
// the defect catalog, and writes the recency report.
package csvio

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/edulog/internal/domain/dedupe"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/pkg/metrics"
)

// Drop reasons reported in LoadStats and metrics.
const (
	ReasonMissingField = "missing_field"
	ReasonDuplicate    = "duplicate"
	ReasonBlankAnswer  = "blank_answer"
	ReasonUndecodable  = "undecodable"
)

var submissionHeader = []string{"id", "user", "item", "time", "answer", "correct"}

var catalogHeader = []string{"id", "name", "severity", "category", "description"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadStats summarizes what the submission reader accepted and dropped.
type LoadStats struct {
	Read    int
	Loaded  int
	Dropped map[string]int
}

// DroppedTotal returns the number of dropped rows over all reasons.
func (s LoadStats) DroppedTotal() int {
	n := 0
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// Reader parses the three input tables.
type Reader struct {
	sep           rune
	deduper       dedupe.Deduper
	decodeAnswers bool
}

// NewReader creates a reader. The submission log defaults to ';'.
func NewReader(opts ...Option) *Reader {
	r := &Reader{sep: ';'}
	for _, opt := range opts {
		opt(r)
	}
	if r.deduper == nil {
		r.deduper = dedupe.NewInMemoryDeduper()
	}
	return r
}

func newCSV(src io.Reader, sep rune) *csv.Reader {
	cr := csv.NewReader(src)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// Submissions reads the submission log. Rows with missing fields, repeated
// ids or blank answers are dropped and counted. An unparseable timestamp
// or correctness flag fails the whole read with ErrMalformedRow.
func (r *Reader) Submissions(ctx context.Context, src io.Reader) ([]model.Submission, LoadStats, error) {
	stats := LoadStats{Dropped: map[string]int{}}
	if src == nil {
		return nil, stats, ErrNilReader
	}
	cr := newCSV(src, r.sep)

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read submission header: %w", err)
	}
	if err := checkHeader(header, submissionHeader); err != nil {
		return nil, stats, err
	}

	drop := func(reason string) {
		stats.Dropped[reason]++
		metrics.RecordSubmissionDropped(reason)
	}

	var subs []model.Submission
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w: %w", line, ErrMalformedRow, err)
		}
		stats.Read++

		if len(rec) < len(submissionHeader) || hasBlank(rec[:len(submissionHeader)], 4) {
			drop(ReasonMissingField)
			continue
		}

		id := strings.TrimSpace(rec[0])
		ts, err := parseTime(rec[3])
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w: time %q", line, ErrMalformedRow, rec[3])
		}
		correct, err := parseBool(rec[5])
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w: correct %q", line, ErrMalformedRow, rec[5])
		}

		answer := rec[4]
		if r.decodeAnswers {
			decoded, err := decodeAnswer(answer)
			if err != nil {
				drop(ReasonUndecodable)
				continue
			}
			answer = decoded
		}
		if strings.TrimSpace(answer) == "" {
			drop(ReasonBlankAnswer)
			continue
		}

		if r.deduper.SeenAndRecord(ctx, id) {
			drop(ReasonDuplicate)
			metrics.RecordDuplicate()
			continue
		}

		subs = append(subs, model.Submission{
			ID:      id,
			User:    strings.TrimSpace(rec[1]),
			Item:    strings.TrimSpace(rec[2]),
			Time:    ts,
			Answer:  answer,
			Correct: correct,
			Order:   len(subs),
		})
		metrics.RecordSubmissionLoaded()
	}

	stats.Loaded = len(subs)
	return subs, stats, nil
}

// DefectMatrix reads the ','-separated presence table keyed by submission
// id. A positive count marks the defect present. Returned defect lists are
// ascending. A repeated submission id keeps its first row; the later rows
// are counted in dups.
func (r *Reader) DefectMatrix(ctx context.Context, src io.Reader) (out map[string][]model.DefectID, dups int, err error) {
	if src == nil {
		return nil, 0, ErrNilReader
	}
	cr := newCSV(src, ',')

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read defect header: %w", err)
	}
	width := len(header)
	if width < 1 || !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")), "submission id") {
		return nil, 0, fmt.Errorf("%w: first column must be %q", ErrBadHeader, "submission id")
	}
	cols := make([]model.DefectID, width-1)
	seen := make(map[model.DefectID]struct{}, width-1)
	for i, h := range header[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: defect column %q", ErrBadHeader, h)
		}
		if _, ok := seen[model.DefectID(id)]; ok {
			return nil, 0, fmt.Errorf("%w: repeated defect column %d", ErrBadHeader, id)
		}
		seen[model.DefectID(id)] = struct{}{}
		cols[i] = model.DefectID(id)
	}

	out = make(map[string][]model.DefectID)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w: %w", line, ErrMalformedRow, err)
		}
		if len(rec) != width {
			return nil, 0, fmt.Errorf("line %d: %w: %d fields, want %d", line, ErrMalformedRow, len(rec), width)
		}

		var present []model.DefectID
		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			n, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w: count %q", line, ErrMalformedRow, cell)
			}
			if n > 0 {
				present = append(present, cols[i])
			}
		}
		id := strings.TrimSpace(rec[0])
		if _, ok := out[id]; ok {
			dups++
			continue
		}
		sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })
		out[id] = present
	}
	return out, dups, nil
}

// Catalog reads the ','-separated defect vocabulary.
func (r *Reader) Catalog(ctx context.Context, src io.Reader) (*model.Catalog, error) {
	if src == nil {
		return nil, ErrNilReader
	}
	cr := newCSV(src, ',')

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	if err := checkHeader(header, catalogHeader); err != nil {
		return nil, err
	}

	var defects []model.Defect
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ErrMalformedRow, err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: %w: %d fields", line, ErrMalformedRow, len(rec))
		}

		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: id %q", line, ErrMalformedRow, rec[0])
		}
		sev, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil || sev < model.MinSeverity || sev > model.MaxSeverity {
			return nil, fmt.Errorf("line %d: %w: severity %q", line, ErrMalformedRow, rec[2])
		}
		d := model.Defect{ID: model.DefectID(id), Name: strings.TrimSpace(rec[1]), Severity: sev}
		if len(rec) > 3 {
			d.Category = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			d.Description = strings.TrimSpace(rec[4])
		}
		defects = append(defects, d)
	}
	return model.NewCatalog(defects), nil
}

func checkHeader(got, want []string) error {
	if len(got) < len(want) {
		return fmt.Errorf("%w: got %v, want %v", ErrBadHeader, got, want)
	}
	for i, w := range want {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(got[i], "\ufeff")), w) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, got[i], w)
		}
	}
	return nil
}

// hasBlank reports whether any field except skip is empty. The answer
// column is checked separately so blank answers get their own reason.
func hasBlank(fields []string, skip int) bool {
	for i, f := range fields {
		if i != skip && strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown time format %q", s)
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func decodeAnswer(s string) (string, error) {
	unquoted, err := url.QueryUnescape(s)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(unquoted, " ", "+"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
