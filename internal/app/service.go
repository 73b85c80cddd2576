// Package service loads submission logs, runs the recency pipeline and
// answers the lookups behind the CLI and the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/edulog/internal/adapters/csvio"
	"github.com/okian/edulog/internal/adapters/mq/queue"
	"github.com/okian/edulog/internal/adapters/mq/worker"
	"github.com/okian/edulog/internal/adapters/repository"
	"github.com/okian/edulog/internal/domain/dedupe"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/prioritize"
	"github.com/okian/edulog/internal/domain/split"
	"github.com/okian/edulog/pkg/logger"
	"github.com/okian/edulog/pkg/metrics"
)

// Sources names the three input files.
type Sources struct {
	Submissions string
	Defects     string
	Catalog     string
}

// Service owns one dataset and the report computed from it.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	dataset *model.Dataset

	workerCount    int
	queueSize      int
	dedupeSize     int
	separator      rune
	encodedAnswers bool
	sentinel       string
	legacy         bool

	load     csvio.LoadStats
	noMatrix int
	dupRows  int
	unknown  int64
	computed bool
	took     time.Duration

	prioritizer *prioritize.Prioritizer

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		separator:   ';',
		sentinel:    csvio.DefaultSentinel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Load reads the three input files concurrently.
func (s *Service) Load(ctx context.Context, src Sources) (*model.Dataset, error) {
	open := func(path string) (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return f, nil
	}

	subs, err := open(src.Submissions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = subs.Close() }()
	defects, err := open(src.Defects)
	if err != nil {
		return nil, err
	}
	defer func() { _ = defects.Close() }()
	catalog, err := open(src.Catalog)
	if err != nil {
		return nil, err
	}
	defer func() { _ = catalog.Close() }()

	return s.LoadFrom(ctx, subs, defects, catalog)
}

// LoadFrom parses the three inputs concurrently and joins defects onto
// submissions. Submissions without a matrix row carry no defects.
func (s *Service) LoadFrom(ctx context.Context, subsSrc, defectsSrc, catalogSrc io.Reader) (*model.Dataset, error) {
	done := logger.Step(ctx, s.logger, "loading dataset")

	reader := csvio.NewReader(
		csvio.WithSeparator(s.separator),
		csvio.WithEncodedAnswers(s.encodedAnswers),
		csvio.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
	)

	var (
		subs    []model.Submission
		stats   csvio.LoadStats
		matrix  map[string][]model.DefectID
		dupRows int
		catalog *model.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, stats, err = reader.Submissions(gctx, subsSrc)
		if err != nil {
			return fmt.Errorf("submissions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matrix, dupRows, err = reader.DefectMatrix(gctx, defectsSrc)
		if err != nil {
			return fmt.Errorf("defect matrix: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		catalog, err = reader.Catalog(gctx, catalogSrc)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("loader", "load_failed")
		return nil, err
	}

	noMatrix := 0
	for i := range subs {
		d, ok := matrix[subs[i].ID]
		if !ok {
			noMatrix++
			continue
		}
		subs[i].Defects = d
	}
	if noMatrix > 0 {
		s.logger.Warn(ctx, "submissions without a defect row", logger.Int("count", noMatrix))
	}
	if dupRows > 0 {
		s.logger.Warn(ctx, "repeated defect rows ignored", logger.Int("count", dupRows))
	}
	for reason, n := range stats.Dropped {
		s.logger.Info(ctx, "dropped submissions", logger.String("reason", reason), logger.Int("count", n))
	}

	ds := &model.Dataset{Catalog: catalog, Submissions: subs}
	users := len(ds.Users())
	metrics.UpdateStudents(users)

	s.mu.Lock()
	s.dataset = ds
	s.load = stats
	s.noMatrix = noMatrix
	s.dupRows = dupRows
	s.computed = false
	s.prioritizer = nil
	s.mu.Unlock()
	s.store.Reset(ctx)

	done(logger.Int("submissions", len(subs)), logger.Int("students", users), logger.Int("defects", catalog.Len()))
	return ds, nil
}

// Dataset returns the loaded dataset.
func (s *Service) Dataset() (*model.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, ErrNotLoaded
	}
	return s.dataset, nil
}

// Compute partitions the dataset per student and runs the partitions
// through the queue and worker pool. The returned rows are ordered by
// user, position and defect id whatever the worker count.
func (s *Service) Compute(ctx context.Context) ([]model.RecencyRow, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	done := logger.Step(ctx, s.logger, "computing recency")

	s.store.Reset(ctx)
	parts := ds.Partitions()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var unknown atomic.Int64
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	computer := worker.RecencyComputer{Catalog: ds.Catalog, Logger: s.logger, Unknown: &unknown}
	pool := worker.NewPool(s.workerCount, q, computer, s.store)
	pool.Start(runCtx)

	var produceErr error
	for i := range parts {
		if err := q.Enqueue(runCtx, parts[i]); err != nil {
			produceErr = err
			break
		}
	}
	_ = q.Close()
	if produceErr != nil {
		cancel()
	}

	if err := pool.Wait(); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	if produceErr != nil {
		return nil, fmt.Errorf("compute: %w", produceErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	if got := pool.Processed(); got != int64(len(parts)) {
		return nil, fmt.Errorf("compute: processed %d of %d partitions", got, len(parts))
	}

	rows := s.store.Rows(ctx)

	s.mu.Lock()
	s.computed = true
	s.unknown = unknown.Load()
	s.took = time.Since(start)
	s.mu.Unlock()

	done(logger.Int("students", len(parts)), logger.Int("rows", len(rows)), logger.Int64("unknown_defects", unknown.Load()))
	return rows, nil
}

// Export writes the computed report.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	if !s.isComputed() {
		return ErrNotComputed
	}
	writer := csvio.NewWriter(csvio.WithSentinel(s.sentinel), csvio.WithLegacyFallback(s.legacy))
	return writer.Report(w, s.store.Rows(ctx))
}

// ExportFile writes the computed report to path.
func (s *Service) ExportFile(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.Export(ctx, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Split assigns the loaded students to train, validation and test.
func (s *Service) Split(r split.Ratios, seed uint64) (*split.Assignment, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return split.Users(ds.Users(), r, seed)
}

// Prioritize ranks the defects of one submission by primary, then
// secondary. The context is derived from the loaded dataset on first use.
func (s *Service) Prioritize(ctx context.Context, submissionID string, primary, secondary prioritize.Heuristic) ([]prioritize.Ranked, error) {
	s.mu.Lock()
	if s.dataset == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.prioritizer == nil {
		done := logger.Step(ctx, s.logger, "deriving prioritization context")
		s.prioritizer = prioritize.New(s.dataset)
		done()
	}
	p := s.prioritizer
	s.mu.Unlock()

	return p.Rank(submissionID, primary, secondary)
}

func (s *Service) isComputed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.computed
}

// BySubmission returns the report rows of one submission.
func (s *Service) BySubmission(ctx context.Context, submissionID string) ([]model.RecencyRow, error) {
	return s.store.BySubmission(ctx, submissionID)
}

// ByStudent returns the report rows of one student.
func (s *Service) ByStudent(ctx context.Context, user string) ([]model.RecencyRow, error) {
	return s.store.ByStudent(ctx, user)
}

// TopDefects ranks the defects in the report.
func (s *Service) TopDefects(ctx context.Context, n int) ([]repository.DefectEntry, error) {
	return s.store.TopDefects(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"loaded":      s.dataset != nil,
		"computed":    s.computed,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.dataset != nil {
		stats["submissions"] = len(s.dataset.Submissions)
		stats["defects"] = s.dataset.Catalog.Len()
		stats["dropped"] = s.load.Dropped
		stats["withoutDefectRow"] = s.noMatrix
		stats["duplicateDefectRows"] = s.dupRows
	}
	if s.computed {
		stats["students"] = s.store.Students(ctx)
		stats["rows"] = s.store.Count(ctx)
		stats["unknownDefects"] = s.unknown
		stats["computeMillis"] = s.took.Milliseconds()
	}
	return stats
}
