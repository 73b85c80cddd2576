// Package stats computes descriptive statistics over a submission log:
// per-student defect frequencies, their Z-scores, defect co-occurrence and
// severity distribution.
package stats

import (
	"math"
	"sort"

	"github.com/okian/edulog/internal/domain/model"
)

// Matrix is a dense key × defect table. Keys are student ids or task ids,
// ascending.
type Matrix struct {
	Keys    []string
	Defects []model.DefectID
	Values  [][]float64 // Values[key][defect]
}

// Row returns the values for key, or nil when the key is unknown.
func (m *Matrix) Row(key string) []float64 {
	i := sort.SearchStrings(m.Keys, key)
	if i < len(m.Keys) && m.Keys[i] == key {
		return m.Values[i]
	}
	return nil
}

// Frequencies returns, per student, the share of their submissions that
// contain each catalog defect.
func Frequencies(ds *model.Dataset) *Matrix {
	return shares(ds, ds.Users(), func(s *model.Submission) string { return s.User })
}

// TaskFrequencies returns, per task, the share of its submissions that
// contain each catalog defect.
func TaskFrequencies(ds *model.Dataset) *Matrix {
	seen := make(map[string]struct{})
	var items []string
	for i := range ds.Submissions {
		item := ds.Submissions[i].Item
		if _, ok := seen[item]; !ok {
			seen[item] = struct{}{}
			items = append(items, item)
		}
	}
	sort.Strings(items)
	return shares(ds, items, func(s *model.Submission) string { return s.Item })
}

func shares(ds *model.Dataset, keys []string, keyOf func(*model.Submission) string) *Matrix {
	defects := ds.Catalog.IDs()
	col := columnIndex(defects)
	row := make(map[string]int, len(keys))
	for i, k := range keys {
		row[k] = i
	}

	counts := make([][]float64, len(keys))
	for i := range counts {
		counts[i] = make([]float64, len(defects))
	}
	totals := make([]int, len(keys))

	for i := range ds.Submissions {
		s := &ds.Submissions[i]
		r := row[keyOf(s)]
		totals[r]++
		for _, d := range s.Defects {
			if c, ok := col[d]; ok {
				counts[r][c]++
			}
		}
	}

	for r := range counts {
		if totals[r] == 0 {
			continue
		}
		for c := range counts[r] {
			counts[r][c] /= float64(totals[r])
		}
	}
	return &Matrix{Keys: keys, Defects: defects, Values: counts}
}

// ZScores standardizes each defect column of m using the population mean
// and standard deviation. Columns without variance become zero.
func ZScores(m *Matrix) *Matrix {
	out := &Matrix{Keys: m.Keys, Defects: m.Defects, Values: make([][]float64, len(m.Values))}
	for r := range m.Values {
		out.Values[r] = make([]float64, len(m.Defects))
	}
	n := float64(len(m.Values))
	if n == 0 {
		return out
	}

	for c := range m.Defects {
		var sum float64
		for r := range m.Values {
			sum += m.Values[r][c]
		}
		mean := sum / n

		var sq float64
		for r := range m.Values {
			d := m.Values[r][c] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		if std == 0 {
			continue
		}
		for r := range m.Values {
			out.Values[r][c] = (m.Values[r][c] - mean) / std
		}
	}
	return out
}

// CoOccurrence counts, for every pair of catalog defects, the submissions
// containing both. The diagonal holds each defect's occurrence count.
func CoOccurrence(ds *model.Dataset) (defects []model.DefectID, counts [][]int) {
	defects = ds.Catalog.IDs()
	col := columnIndex(defects)
	counts = make([][]int, len(defects))
	for i := range counts {
		counts[i] = make([]int, len(defects))
	}

	present := make([]int, 0, 8)
	for i := range ds.Submissions {
		present = present[:0]
		for _, d := range ds.Submissions[i].Defects {
			if c, ok := col[d]; ok {
				present = append(present, c)
			}
		}
		for _, a := range present {
			for _, b := range present {
				counts[a][b]++
			}
		}
	}
	return defects, counts
}

// SeverityHistogram counts defect occurrences per severity level. Index 0
// is unused; levels run from model.MinSeverity to model.MaxSeverity.
func SeverityHistogram(ds *model.Dataset) [model.MaxSeverity + 1]int {
	var hist [model.MaxSeverity + 1]int
	for i := range ds.Submissions {
		for _, d := range ds.Submissions[i].Defects {
			def, ok := ds.Catalog.Get(d)
			if !ok || def.Severity < model.MinSeverity || def.Severity > model.MaxSeverity {
				continue
			}
			hist[def.Severity]++
		}
	}
	return hist
}

// DefectCount is one line of a defect ranking.
type DefectCount struct {
	Rank     int
	Defect   model.DefectID
	Name     string
	Severity int
	Count    int
}

// TopDefects ranks catalog defects by occurrence count (desc, id asc).
// n <= 0 returns the full ranking.
func TopDefects(ds *model.Dataset, n int) []DefectCount {
	defects, co := CoOccurrence(ds)
	ranking := make([]DefectCount, len(defects))
	for i, id := range defects {
		def, _ := ds.Catalog.Get(id)
		ranking[i] = DefectCount{Defect: id, Name: def.Name, Severity: def.Severity, Count: co[i][i]}
	}
	return rank(ranking, n)
}

func rank(ranking []DefectCount, n int) []DefectCount {
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Defect < ranking[j].Defect
	})
	if n > 0 && n < len(ranking) {
		ranking = ranking[:n]
	}
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

// Gini returns the Gini coefficient of values: 0 for a perfectly even
// distribution, approaching 1 when one entry holds everything. Negative
// inputs are shifted by the minimum. The input is not modified.
func Gini(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	xs := append([]float64(nil), values...)

	var sum float64
	for _, x := range xs {
		sum += x
	}
	if sum == 0 {
		return 0
	}

	sort.Float64s(xs)
	if xs[0] < 0 {
		shift := xs[0]
		sum = 0
		for i := range xs {
			xs[i] -= shift
			sum += xs[i]
		}
		if sum == 0 {
			return 0
		}
	}

	n := float64(len(xs))
	var acc float64
	for i, x := range xs {
		acc += (2*float64(i+1) - n - 1) * x
	}
	return acc / (n * sum)
}

func columnIndex(defects []model.DefectID) map[model.DefectID]int {
	col := make(map[model.DefectID]int, len(defects))
	for i, d := range defects {
		col[d] = i
	}
	return col
}
