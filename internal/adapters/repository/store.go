// Package repository holds computed recency rows and answers lookups over
// them.
package repository

import (
	"context"

	"github.com/okian/edulog/internal/domain/model"
)

// DefectEntry is one line of the defect ranking.
type DefectEntry struct {
	Rank        int
	Defect      model.DefectID
	Name        string
	Severity    int
	Occurrences int
	First       int     // occurrences that were a student's first
	MeanSince   float64 // mean distance over repeat occurrences, 0 if none
}

// Store provides read/write access to the report.
type Store interface {
	// Add appends rows. Safe for concurrent use by workers.
	Add(ctx context.Context, rows []model.RecencyRow) error

	// Rows returns every row ordered by user, position and defect id.
	Rows(ctx context.Context) []model.RecencyRow

	// BySubmission returns the rows of one submission.
	// Returns ErrNotFound if the submission has no rows.
	BySubmission(ctx context.Context, submissionID string) ([]model.RecencyRow, error)

	// ByStudent returns the rows of one student in history order.
	// Returns ErrNotFound if the student has no rows.
	ByStudent(ctx context.Context, user string) ([]model.RecencyRow, error)

	// TopDefects ranks defects by occurrences desc, id asc.
	TopDefects(ctx context.Context, n int) ([]DefectEntry, error)

	// Count returns the number of rows held.
	Count(ctx context.Context) int

	// Students returns the number of distinct students with rows.
	Students(ctx context.Context) int

	// Reset drops every row.
	Reset(ctx context.Context)
}
