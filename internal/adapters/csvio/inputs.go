package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/edulog/internal/domain/model"
)

// LogTimeLayout is the time format written to generated submission logs.
const LogTimeLayout = "2006-01-02 15:04:05"

// SubmissionLog writes subs in the layout Reader.Submissions accepts.
func (w *Writer) SubmissionLog(dst io.Writer, subs []model.Submission, sep rune) error {
	if dst == nil {
		return ErrNilWriter
	}
	cw := csv.NewWriter(dst)
	if sep != 0 {
		cw.Comma = sep
	}
	if err := cw.Write(submissionHeader); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}
	for i := range subs {
		s := &subs[i]
		correct := "0"
		if s.Correct {
			correct = "1"
		}
		rec := []string{s.ID, s.User, s.Item, s.Time.Format(LogTimeLayout), s.Answer, correct}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write log row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DefectMatrix writes the presence table of subs with one column per
// catalog defect.
func (w *Writer) DefectMatrix(dst io.Writer, subs []model.Submission, catalog *model.Catalog) error {
	if dst == nil {
		return ErrNilWriter
	}
	ids := catalog.IDs()
	cw := csv.NewWriter(dst)

	header := make([]string, 0, len(ids)+1)
	header = append(header, "submission id")
	for _, id := range ids {
		header = append(header, strconv.Itoa(int(id)))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}

	rec := make([]string, len(header))
	for i := range subs {
		s := &subs[i]
		rec[0] = s.ID
		for j, id := range ids {
			rec[j+1] = "0"
			if s.Has(id) {
				rec[j+1] = "1"
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write matrix row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Catalog writes the defect vocabulary.
func (w *Writer) Catalog(dst io.Writer, catalog *model.Catalog) error {
	if dst == nil {
		return ErrNilWriter
	}
	cw := csv.NewWriter(dst)
	if err := cw.Write(catalogHeader); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for _, id := range catalog.IDs() {
		d, _ := catalog.Get(id)
		rec := []string{strconv.Itoa(int(d.ID)), d.Name, strconv.Itoa(d.Severity), d.Category, d.Description}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write catalog row %d: %w", id, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
