// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// DefectID identifies a defect in the catalog.
type DefectID int

// Submission is one student's answer to a task.
type Submission struct {
	ID      string     // submission id, unique within a log
	User    string     // student identifier
	Item    string     // task identifier
	Time    time.Time  // submission timestamp
	Answer  string     // decoded answer text
	Correct bool       // correctness flag
	Order   int        // ingestion order, breaks timestamp ties
	Defects []DefectID // defects present, ascending
}

// Has reports whether defect d is present in the submission.
func (s *Submission) Has(d DefectID) bool {
	i := sort.Search(len(s.Defects), func(i int) bool { return s.Defects[i] >= d })
	return i < len(s.Defects) && s.Defects[i] == d
}

// Before orders submissions chronologically, ties by ingestion order.
func Before(a, b *Submission) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	return a.Order < b.Order
}

// Partition is one student's complete history in chronological order.
type Partition struct {
	User        string
	Submissions []Submission
}

// Flags returns the presence sequence of defect d across the partition,
// truncated after position upto (inclusive). A negative upto means the
// whole history.
func (p *Partition) Flags(d DefectID, upto int) []bool {
	n := len(p.Submissions)
	if upto >= 0 && upto < n {
		n = upto + 1
	}
	flags := make([]bool, n)
	for i := 0; i < n; i++ {
		flags[i] = p.Submissions[i].Has(d)
	}
	return flags
}

// Dataset is the immutable input of one analysis run.
type Dataset struct {
	Catalog     *Catalog
	Submissions []Submission
}

// Partitions groups submissions by user and sorts each history
// chronologically. Users come back in ascending order.
func (d *Dataset) Partitions() []Partition {
	byUser := make(map[string][]Submission)
	for _, s := range d.Submissions {
		byUser[s.User] = append(byUser[s.User], s)
	}

	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	parts := make([]Partition, 0, len(users))
	for _, u := range users {
		subs := byUser[u]
		sort.SliceStable(subs, func(i, j int) bool { return Before(&subs[i], &subs[j]) })
		parts = append(parts, Partition{User: u, Submissions: subs})
	}
	return parts
}

// Users returns the distinct users in ascending order.
func (d *Dataset) Users() []string {
	seen := make(map[string]struct{})
	var users []string
	for _, s := range d.Submissions {
		if _, ok := seen[s.User]; ok {
			continue
		}
		seen[s.User] = struct{}{}
		users = append(users, s.User)
	}
	sort.Strings(users)
	return users
}
