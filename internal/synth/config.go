package synth

import (
	"fmt"
	"time"
)

// Config describes the generated log.
type Config struct {
	Students    int       // number of students
	Submissions int       // submissions per student
	Items       int       // distinct tasks
	DefectRate  float64   // probability of each defect per submission
	CorrectRate float64   // probability that a submission is correct
	Seed        uint64    // PRNG seed, equal seeds give equal logs
	Start       time.Time // timestamp of the earliest submission
	Workers     int       // concurrent student generators
}

// DefaultConfig returns a small but non-trivial configuration.
func DefaultConfig() Config {
	return Config{
		Students:    50,
		Submissions: 20,
		Items:       10,
		DefectRate:  0.15,
		CorrectRate: 0.4,
		Seed:        1,
		Start:       time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC),
		Workers:     4,
	}
}

func (c *Config) validate() error {
	switch {
	case c.Students < 1:
		return fmt.Errorf("%w: students must be positive", ErrInvalidConfig)
	case c.Submissions < 1:
		return fmt.Errorf("%w: submissions must be positive", ErrInvalidConfig)
	case c.Items < 1:
		return fmt.Errorf("%w: items must be positive", ErrInvalidConfig)
	case c.DefectRate < 0 || c.DefectRate > 1:
		return fmt.Errorf("%w: defect rate %v outside [0,1]", ErrInvalidConfig, c.DefectRate)
	case c.CorrectRate < 0 || c.CorrectRate > 1:
		return fmt.Errorf("%w: correct rate %v outside [0,1]", ErrInvalidConfig, c.CorrectRate)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}
