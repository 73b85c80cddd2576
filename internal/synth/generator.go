// Package synth generates reproducible synthetic submission logs.
package synth

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/edulog/internal/adapters/csvio"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/pkg/logger"
)

// Output file names written by WriteFiles.
const (
	SubmissionsFile = "submissions.csv"
	DefectsFile     = "defects.csv"
	CatalogFile     = "catalog.csv"
)

const (
	minGap = 30 * time.Second
	maxGap = 2 * time.Hour
)

var answers = []string{
	"def f(x): return x",
	"for i in range(n): print(i)",
	"while True: pass",
	"x = [i * i for i in xs]",
	"if a = b: return",
	"total += value",
}

// Catalog returns the fixed defect vocabulary used by generated logs.
func Catalog() *model.Catalog {
	return model.NewCatalog([]model.Defect{
		{ID: 1, Name: "missing_return", Severity: 4, Category: "logic", Description: "function ends without returning a value"},
		{ID: 2, Name: "wrong_operator", Severity: 5, Category: "logic", Description: "comparison written as assignment"},
		{ID: 3, Name: "off_by_one", Severity: 4, Category: "logic", Description: "loop bound misses the last element"},
		{ID: 4, Name: "unused_variable", Severity: 1, Category: "style", Description: "assigned, never read"},
		{ID: 5, Name: "shadowed_name", Severity: 2, Category: "style", Description: "local name hides a builtin"},
		{ID: 6, Name: "infinite_loop", Severity: 5, Category: "runtime", Description: "loop condition never changes"},
		{ID: 7, Name: "bare_except", Severity: 3, Category: "runtime", Description: "exception handler catches everything"},
		{ID: 8, Name: "magic_number", Severity: 1, Category: "style", Description: "unnamed numeric literal"},
	})
}

// Log is a generated dataset together with its catalog.
type Log struct {
	Catalog     *model.Catalog
	Submissions []model.Submission
}

// Generate builds a log of cfg.Students students with cfg.Submissions
// submissions each. Each student draws from its own stream derived from
// the seed, so the output does not depend on cfg.Workers.
func Generate(ctx context.Context, cfg Config) (*Log, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	done := logger.Step(ctx, logger.Named("synth"), "generating submissions")

	catalog := Catalog()
	ids := catalog.IDs()
	perStudent := make([][]model.Submission, cfg.Students)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Students {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			subs, err := student(&cfg, i, ids)
			if err != nil {
				return fmt.Errorf("student %d: %w", i, err)
			}
			perStudent[i] = subs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Submission, 0, cfg.Students*cfg.Submissions)
	for _, subs := range perStudent {
		out = append(out, subs...)
	}
	for i := range out {
		out[i].ID = fmt.Sprintf("sub-%06d", i+1)
		out[i].Order = i
	}

	done(logger.Int("students", cfg.Students), logger.Int("submissions", len(out)))
	return &Log{Catalog: catalog, Submissions: out}, nil
}

func student(cfg *Config, index int, ids []model.DefectID) ([]model.Submission, error) {
	src := rand.NewChaCha8(streamSeed(cfg.Seed, index))
	rng := rand.New(src)

	id, err := uuid.NewRandomFromReader(src)
	if err != nil {
		return nil, err
	}
	user := id.String()

	subs := make([]model.Submission, cfg.Submissions)
	at := cfg.Start.Add(time.Duration(rng.Int64N(int64(24 * time.Hour))))
	for j := range subs {
		at = at.Add(minGap + time.Duration(rng.Int64N(int64(maxGap-minGap))))
		s := model.Submission{
			User:    user,
			Item:    fmt.Sprintf("item-%03d", rng.IntN(cfg.Items)+1),
			Time:    at.Truncate(time.Second),
			Answer:  answers[rng.IntN(len(answers))],
			Correct: rng.Float64() < cfg.CorrectRate,
		}
		for _, d := range ids {
			if rng.Float64() < cfg.DefectRate {
				s.Defects = append(s.Defects, d)
			}
		}
		subs[j] = s
	}
	return subs, nil
}

func streamSeed(seed uint64, index int) [32]byte {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[0:], seed)
	binary.LittleEndian.PutUint64(b[8:], uint64(index))
	binary.LittleEndian.PutUint64(b[16:], 0x65647563) // "educ"
	return b
}

// WriteFiles writes the submission log, the defect matrix and the catalog
// into dir and returns their paths.
func (l *Log) WriteFiles(dir string, sep rune) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	w := csvio.NewWriter()

	files := []struct {
		name  string
		write func(*os.File) error
	}{
		{SubmissionsFile, func(f *os.File) error { return w.SubmissionLog(f, l.Submissions, sep) }},
		{DefectsFile, func(f *os.File) error { return w.DefectMatrix(f, l.Submissions, l.Catalog) }},
		{CatalogFile, func(f *os.File) error { return w.Catalog(f, l.Catalog) }},
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		if err := file.write(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
