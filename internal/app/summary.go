package service

import (
	"context"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
	"github.com/okian/edulog/internal/domain/stats"
)

// Summary collects descriptive statistics of the loaded dataset.
type Summary struct {
	Students    int
	Submissions int
	Defects     int
	Correct     int

	// DefectGini measures how unevenly occurrences spread over the catalog.
	DefectGini float64
	// StudentGini measures how unevenly occurrences spread over students.
	StudentGini float64

	Severity     [model.MaxSeverity + 1]int
	Top          []stats.DefectCount
	Frequencies  *stats.Matrix
	ZScores      *stats.Matrix
	CoDefects    []model.DefectID
	CoOccurrence [][]int

	// Levels counts report rows per recency level. Empty until Compute ran.
	Levels [recency.LevelLast + 1]int
}

// Summarize computes the dataset summary. topN <= 0 ranks every defect.
func (s *Service) Summarize(topN int) (*Summary, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Students:    len(ds.Users()),
		Submissions: len(ds.Submissions),
		Defects:     ds.Catalog.Len(),
		Severity:    stats.SeverityHistogram(ds),
		Top:         stats.TopDefects(ds, 0),
		Frequencies: stats.Frequencies(ds),
	}
	sum.ZScores = stats.ZScores(sum.Frequencies)
	sum.CoDefects, sum.CoOccurrence = stats.CoOccurrence(ds)

	counts := make([]float64, len(sum.Top))
	for i, d := range sum.Top {
		counts[i] = float64(d.Count)
	}
	sum.DefectGini = stats.Gini(counts)

	perStudent := make(map[string]float64)
	for i := range ds.Submissions {
		sub := &ds.Submissions[i]
		if sub.Correct {
			sum.Correct++
		}
		for _, d := range sub.Defects {
			if _, ok := ds.Catalog.Get(d); ok {
				perStudent[sub.User]++
			}
		}
	}
	studentCounts := make([]float64, 0, sum.Students)
	for _, u := range ds.Users() {
		studentCounts = append(studentCounts, perStudent[u])
	}
	sum.StudentGini = stats.Gini(studentCounts)

	if s.isComputed() {
		rows := s.store.Rows(context.Background())
		for i := range rows {
			sum.Levels[recency.Discretize(recency.ValueOf(&rows[i]))]++
		}
	}

	if topN > 0 && topN < len(sum.Top) {
		sum.Top = sum.Top[:topN]
	}
	return sum, nil
}
