package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
	"github.com/okian/edulog/internal/domain/split"
)

// DefaultSentinel is written in the last encountered column for first
// occurrences.
const DefaultSentinel = "first"

// ReportHeader is the header row of the recency report.
var ReportHeader = []string{
	"submission id", "user", "item", "time",
	"defect id", "defect name", "severity", "position", "last encountered",
}

// Writer renders reports as ','-separated text.
type Writer struct {
	sentinel   string
	legacy     bool
	timeLayout string
}

// NewWriter creates a report writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{sentinel: DefaultSentinel, timeLayout: time.RFC3339}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LastEncountered renders the recency cell of row.
func (w *Writer) LastEncountered(row *model.RecencyRow) string {
	v := recency.ValueOf(row)
	if w.legacy {
		return strconv.Itoa(v.Legacy(row.Position))
	}
	return v.Format(w.sentinel)
}

// Report writes rows in the given order under ReportHeader.
func (w *Writer) Report(dst io.Writer, rows []model.RecencyRow) error {
	if dst == nil {
		return ErrNilWriter
	}
	cw := csv.NewWriter(dst)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	rec := make([]string, len(ReportHeader))
	for i := range rows {
		r := &rows[i]
		rec[0] = r.SubmissionID
		rec[1] = r.User
		rec[2] = r.Item
		rec[3] = r.Time.Format(w.timeLayout)
		rec[4] = strconv.Itoa(int(r.Defect))
		rec[5] = r.DefectName
		rec[6] = strconv.Itoa(r.Severity)
		rec[7] = strconv.Itoa(r.Position)
		rec[8] = w.LastEncountered(r)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write report row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Split writes a user,partition assignment.
func (w *Writer) Split(dst io.Writer, rows []split.Row) error {
	if dst == nil {
		return ErrNilWriter
	}
	cw := csv.NewWriter(dst)
	if err := cw.Write([]string{"user", "partition"}); err != nil {
		return fmt.Errorf("write split header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.User, r.Partition}); err != nil {
			return fmt.Errorf("write split row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
