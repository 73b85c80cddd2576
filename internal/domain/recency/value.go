// Package recency computes how many submissions separate a defect's
// occurrence from its previous occurrence in the same student's history.
package recency

import "strconv"

// Value is either FirstOccurrence or SinceLast(n) with n >= 1.
// The zero Value is FirstOccurrence.
type Value struct {
	since int
}

// FirstOccurrence is the sentinel for a defect never seen earlier in the history.
func FirstOccurrence() Value { return Value{} }

// SinceLast is the distance n (n >= 1) to the previous occurrence.
func SinceLast(n int) Value {
	if n < 1 {
		panic("recency: SinceLast requires n >= 1, got " + strconv.Itoa(n))
	}
	return Value{since: n}
}

// IsFirst reports whether v is the first-occurrence sentinel.
func (v Value) IsFirst() bool { return v.since == 0 }

// Since returns the distance and true, or 0 and false for a first occurrence.
func (v Value) Since() (int, bool) {
	if v.IsFirst() {
		return 0, false
	}
	return v.since, true
}

// Legacy collapses v to a plain integer by back-filling a first occurrence
// with the submission's own position.
// The result is ambiguous: a defect first seen at position 4 and one last
// seen 4 submissions ago both map to 4.
func (v Value) Legacy(position int) int {
	if v.IsFirst() {
		return position
	}
	return v.since
}

// Format renders v for tabular export, using label for the sentinel.
func (v Value) Format(label string) string {
	if v.IsFirst() {
		return label
	}
	return strconv.Itoa(v.since)
}

func (v Value) String() string {
	if v.IsFirst() {
		return "FirstOccurrence"
	}
	return "SinceLast(" + strconv.Itoa(v.since) + ")"
}
