package recency

// Discretization levels, from least to most recent.
const (
	LevelNever    = 1 // first occurrence
	LevelDistant  = 2 // 10 or more submissions ago
	LevelModerate = 3 // 5 to 9
	LevelRecent   = 4 // 2 to 4
	LevelLast     = 5 // previous submission
)

// Thresholds on the distance, descending, separating levels 2..5.
var thresholds = [...]int{10, 5, 2}

// Discretize maps a recency value onto the 1..5 priority scale used by the
// encountered-before prioritization.
func Discretize(v Value) int {
	n, ok := v.Since()
	if !ok {
		return LevelNever
	}
	level := LevelDistant
	for _, th := range thresholds {
		if n >= th {
			return level
		}
		level++
	}
	return LevelLast
}
