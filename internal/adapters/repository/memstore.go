package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/pkg/metrics"
)

// MemoryStore keeps rows in a slice and builds lookup indexes lazily on the
// first read after a write.
type MemoryStore struct {
	mu           sync.Mutex
	rows         []model.RecencyRow
	indexed      bool
	bySubmission map[string][]int
	byStudent    map[string][]int
	capacityHint int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.rows = make([]model.RecencyRow, 0, s.capacityHint)
	return s
}

// Add appends rows and invalidates the indexes.
func (s *MemoryStore) Add(_ context.Context, rows []model.RecencyRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, rows...)
	s.indexed = false
	metrics.UpdateReportRows(len(s.rows))
	return nil
}

// reindex sorts rows and rebuilds the lookup maps. Caller holds mu.
func (s *MemoryStore) reindex() {
	if s.indexed {
		return
	}
	sort.SliceStable(s.rows, func(i, j int) bool {
		a, b := &s.rows[i], &s.rows[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Defect < b.Defect
	})

	s.bySubmission = make(map[string][]int)
	s.byStudent = make(map[string][]int)
	for i := range s.rows {
		r := &s.rows[i]
		s.bySubmission[r.SubmissionID] = append(s.bySubmission[r.SubmissionID], i)
		s.byStudent[r.User] = append(s.byStudent[r.User], i)
	}
	s.indexed = true
}

func (s *MemoryStore) pick(idx []int) []model.RecencyRow {
	out := make([]model.RecencyRow, len(idx))
	for i, j := range idx {
		out[i] = s.rows[j]
	}
	return out
}

// Rows returns a sorted copy of every row.
func (s *MemoryStore) Rows(_ context.Context) []model.RecencyRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reindex()
	out := make([]model.RecencyRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// BySubmission returns the rows of one submission ordered by defect id.
func (s *MemoryStore) BySubmission(_ context.Context, submissionID string) ([]model.RecencyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reindex()
	idx, ok := s.bySubmission[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission %q: %w", submissionID, ErrNotFound)
	}
	return s.pick(idx), nil
}

// ByStudent returns the rows of one student in history order.
func (s *MemoryStore) ByStudent(_ context.Context, user string) ([]model.RecencyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reindex()
	idx, ok := s.byStudent[user]
	if !ok {
		return nil, fmt.Errorf("student %q: %w", user, ErrNotFound)
	}
	return s.pick(idx), nil
}

// TopDefects ranks the defects seen in the report.
func (s *MemoryStore) TopDefects(_ context.Context, n int) ([]DefectEntry, error) {
	if n < 1 {
		return nil, fmt.Errorf("limit %d: %w", n, ErrInvalidLimit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byDefect := make(map[model.DefectID]*DefectEntry)
	sinceSum := make(map[model.DefectID]int)
	for i := range s.rows {
		r := &s.rows[i]
		e, ok := byDefect[r.Defect]
		if !ok {
			e = &DefectEntry{Defect: r.Defect, Name: r.DefectName, Severity: r.Severity}
			byDefect[r.Defect] = e
		}
		e.Occurrences++
		if r.First {
			e.First++
		} else {
			sinceSum[r.Defect] += r.Since
		}
	}

	entries := make([]DefectEntry, 0, len(byDefect))
	for id, e := range byDefect {
		if repeats := e.Occurrences - e.First; repeats > 0 {
			e.MeanSince = float64(sinceSum[id]) / float64(repeats)
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Occurrences != entries[j].Occurrences {
			return entries[i].Occurrences > entries[j].Occurrences
		}
		return entries[i].Defect < entries[j].Defect
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Count returns the number of rows held.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Students returns the number of distinct students in the report.
func (s *MemoryStore) Students(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reindex()
	return len(s.byStudent)
}

// Reset drops every row.
func (s *MemoryStore) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = s.rows[:0]
	s.indexed = false
	metrics.UpdateReportRows(0)
}
