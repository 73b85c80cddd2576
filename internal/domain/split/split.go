// Package split assigns students to train, validation and test partitions.
// Students are never divided: every submission of a student lands in the
// same partition.
package split

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// ErrInvalidRatios is returned for negative ratios or ratios summing past one.
var ErrInvalidRatios = errors.New("invalid split ratios")

const epsilon = 1e-9

// Partition names.
const (
	Train = "train"
	Val   = "val"
	Test  = "test"
)

// Ratios are the fractions of students per partition. Students past
// Train+Val+Test are left unassigned.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios is an 80/0/20 split.
var DefaultRatios = Ratios{Train: 0.8, Val: 0, Test: 0.2}

// Validate checks that all ratios are non-negative and sum to at most one.
func (r Ratios) Validate() error {
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("%w: negative ratio in %+v", ErrInvalidRatios, r)
	}
	if sum := r.Train + r.Val + r.Test; sum > 1+epsilon {
		return fmt.Errorf("%w: ratios sum to %.4f", ErrInvalidRatios, sum)
	}
	return nil
}

// Assignment is the result of a split.
type Assignment struct {
	Train []string
	Val   []string
	Test  []string

	lookup map[string]string
}

// Of returns the partition of user, or "" when the user is unassigned.
func (a *Assignment) Of(user string) string {
	return a.lookup[user]
}

// Row is one line of the exported assignment.
type Row struct {
	User      string
	Partition string
}

// Rows lists every assigned user in ascending order.
func (a *Assignment) Rows() []Row {
	rows := make([]Row, 0, len(a.lookup))
	for u, p := range a.lookup {
		rows = append(rows, Row{User: u, Partition: p})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].User < rows[j].User })
	return rows
}

// Users deterministically splits the distinct users. The same users,
// ratios and seed always give the same assignment regardless of input
// order or duplicates.
func Users(users []string, r Ratios, seed uint64) (*Assignment, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	uniq := make(map[string]struct{}, len(users))
	all := make([]string, 0, len(users))
	for _, u := range users {
		if _, ok := uniq[u]; ok {
			continue
		}
		uniq[u] = struct{}{}
		all = append(all, u)
	}
	sort.Strings(all)

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	n := float64(len(all))
	trainPivot := clamp(int(n*r.Train), len(all))
	valPivot := clamp(int(n*(r.Train+r.Val)), len(all))
	testPivot := clamp(int(n*(r.Train+r.Val+r.Test)), len(all))

	a := &Assignment{
		Train:  all[:trainPivot],
		Val:    all[trainPivot:valPivot],
		Test:   all[valPivot:testPivot],
		lookup: make(map[string]string, testPivot),
	}
	for _, u := range a.Train {
		a.lookup[u] = Train
	}
	for _, u := range a.Val {
		a.lookup[u] = Val
	}
	for _, u := range a.Test {
		a.lookup[u] = Test
	}
	return a, nil
}

func clamp(v, hi int) int {
	if v > hi {
		return hi
	}
	return v
}
