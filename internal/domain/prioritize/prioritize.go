// Package prioritize orders the defects of one submission by how much
// attention each deserves, using the defect itself, the student's history
// and the task.
package prioritize

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
	"github.com/okian/edulog/internal/domain/stats"
)

// Heuristic names one way of scoring a defect. Higher scores rank first.
type Heuristic string

// Available heuristics.
const (
	// Severity is the catalog severity, 1 to 5.
	Severity Heuristic = "severity"
	// Frequency is the share of the student's submissions with the defect.
	Frequency Heuristic = "frequency"
	// Characteristic is the absolute Z-score of the student's frequency
	// against all students.
	Characteristic Heuristic = "characteristic"
	// Encountered is the recency level of the defect at the submission,
	// 1 for a first occurrence up to 5 for the previous submission.
	Encountered Heuristic = "encountered"
	// Task is the share of the task's submissions with the defect.
	Task Heuristic = "task"
)

// Heuristics lists every heuristic.
var Heuristics = []Heuristic{Severity, Frequency, Characteristic, Encountered, Task}

// ParseHeuristic resolves a heuristic name, case-insensitively.
func ParseHeuristic(s string) (Heuristic, error) {
	h := Heuristic(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Heuristics {
		if h == known {
			return h, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHeuristic, s)
}

// Ranked is one defect of a prioritized submission.
type Ranked struct {
	Rank      int
	Defect    model.DefectID
	Name      string
	Severity  int
	Primary   float64
	Secondary float64
}

// Prioritizer holds the per-student, per-task and per-submission context
// derived from one dataset.
type Prioritizer struct {
	catalog     *model.Catalog
	col         map[model.DefectID]int
	submissions map[string]*model.Submission
	recency     map[string][]recency.Value // aligned with Submission.Defects

	frequency      *stats.Matrix
	characteristic *stats.Matrix
	task           *stats.Matrix
}

// New derives the prioritization context of ds.
func New(ds *model.Dataset) *Prioritizer {
	p := &Prioritizer{
		catalog:     ds.Catalog,
		col:         make(map[model.DefectID]int),
		submissions: make(map[string]*model.Submission, len(ds.Submissions)),
		recency:     make(map[string][]recency.Value, len(ds.Submissions)),
		frequency:   stats.Frequencies(ds),
		task:        stats.TaskFrequencies(ds),
	}
	p.characteristic = stats.ZScores(p.frequency)
	for i, d := range p.frequency.Defects {
		p.col[d] = i
	}

	parts := ds.Partitions()
	for i := range parts {
		t := recency.NewTracker()
		subs := parts[i].Submissions
		for j := range subs {
			s := &subs[j]
			p.submissions[s.ID] = s
			p.recency[s.ID] = t.Observe(s.Defects)
		}
	}
	return p
}

// Score returns heuristic h for the idx-th defect of submission s.
func (p *Prioritizer) Score(h Heuristic, s *model.Submission, idx int) float64 {
	d := s.Defects[idx]
	switch h {
	case Severity:
		def, _ := p.catalog.Get(d)
		return float64(def.Severity)
	case Frequency:
		return p.cell(p.frequency, s.User, d)
	case Characteristic:
		return math.Abs(p.cell(p.characteristic, s.User, d))
	case Encountered:
		values := p.recency[s.ID]
		if idx >= len(values) {
			return 0
		}
		return float64(recency.Discretize(values[idx]))
	case Task:
		return p.cell(p.task, s.Item, d)
	}
	return 0
}

func (p *Prioritizer) cell(m *stats.Matrix, key string, d model.DefectID) float64 {
	row := m.Row(key)
	c, ok := p.col[d]
	if row == nil || !ok {
		return 0
	}
	return row[c]
}

// Rank orders the catalog defects of one submission by primary, breaking
// ties with secondary and then by ascending defect id.
func (p *Prioritizer) Rank(submissionID string, primary, secondary Heuristic) ([]Ranked, error) {
	for _, h := range []Heuristic{primary, secondary} {
		if _, err := ParseHeuristic(string(h)); err != nil {
			return nil, err
		}
	}
	s, ok := p.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubmission, submissionID)
	}

	out := make([]Ranked, 0, len(s.Defects))
	for i, d := range s.Defects {
		def, ok := p.catalog.Get(d)
		if !ok {
			continue
		}
		out = append(out, Ranked{
			Defect:    d,
			Name:      def.Name,
			Severity:  def.Severity,
			Primary:   p.Score(primary, s, i),
			Secondary: p.Score(secondary, s, i),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Primary != b.Primary {
			return a.Primary > b.Primary
		}
		if a.Secondary != b.Secondary {
			return a.Secondary > b.Secondary
		}
		return a.Defect < b.Defect
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
