package recency

import (
	"github.com/okian/edulog/internal/domain/model"
)

// Tracker keeps, for one student, the position of the last occurrence of
// every defect. Feeding submissions in chronological order yields the same
// values as Compute over each truncated history, in a single pass.
type Tracker struct {
	pos  int
	last map[model.DefectID]int
}

// NewTracker returns a tracker positioned before the first submission.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[model.DefectID]int)}
}

// Position returns the position the next observed submission will get.
func (t *Tracker) Position() int { return t.pos }

// Observe advances the tracker by one submission and returns the recency of
// each defect present in it, in the order of defects.
func (t *Tracker) Observe(defects []model.DefectID) []Value {
	out := make([]Value, len(defects))
	for i, d := range defects {
		if prev, ok := t.last[d]; ok {
			out[i] = SinceLast(t.pos - prev)
		} else {
			out[i] = FirstOccurrence()
		}
	}
	// Update after computing so repeated ids within one submission do not
	// see themselves.
	for _, d := range defects {
		t.last[d] = t.pos
	}
	t.pos++
	return out
}

// Rows computes the recency rows of a chronologically ordered partition.
// Defects missing from the catalog are skipped and counted in unknown.
func Rows(p *model.Partition, catalog *model.Catalog) (rows []model.RecencyRow, unknown int) {
	t := NewTracker()
	for i := range p.Submissions {
		s := &p.Submissions[i]
		pos := t.Position()
		values := t.Observe(s.Defects)
		for j, d := range s.Defects {
			def, ok := catalog.Get(d)
			if !ok {
				unknown++
				continue
			}
			since, _ := values[j].Since()
			rows = append(rows, model.RecencyRow{
				SubmissionID: s.ID,
				User:         s.User,
				Item:         s.Item,
				Time:         s.Time,
				Defect:       d,
				DefectName:   def.Name,
				Severity:     def.Severity,
				Position:     pos,
				First:        values[j].IsFirst(),
				Since:        since,
			})
		}
	}
	return rows, unknown
}

// ValueOf recovers the Value stored in a row.
func ValueOf(r *model.RecencyRow) Value {
	if r.First {
		return FirstOccurrence()
	}
	return SinceLast(r.Since)
}
