package model

import "time"

// RecencyRow is one (submission, defect) pair of the output table.
type RecencyRow struct {
	SubmissionID string
	User         string
	Item         string
	Time         time.Time
	Defect       DefectID
	DefectName   string
	Severity     int
	Position     int  // chronological rank within the student's history
	First        bool // no earlier occurrence of the defect
	Since        int  // submissions since the last occurrence; 0 when First
}
