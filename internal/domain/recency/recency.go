package recency

import "fmt"

// Compute returns the recency of a defect at history[target].
//
// history is the chronological presence sequence of one defect for one
// student, truncated at the target submission, so target is normally the
// last index. The defect must be present at target.
func Compute(history []bool, target int) (Value, error) {
	if target < 0 || target >= len(history) {
		return Value{}, fmt.Errorf("target %d outside history of length %d: %w", target, len(history), ErrInvalidArgument)
	}
	if !history[target] {
		return Value{}, fmt.Errorf("defect not present at target %d: %w", target, ErrInvalidArgument)
	}

	last := -1
	for i := 0; i < target; i++ {
		if history[i] {
			last = i
		}
	}
	if last < 0 {
		return FirstOccurrence(), nil
	}
	return SinceLast(target - last), nil
}
