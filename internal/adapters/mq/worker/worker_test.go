package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/edulog/internal/adapters/mq/queue"
	worker "github.com/okian/edulog/internal/adapters/mq/worker"
	model "github.com/okian/edulog/internal/domain/model"
	logging "github.com/okian/edulog/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockSink struct {
	mu   sync.Mutex
	rows []model.RecencyRow
	fail map[string]error
}

func newMockSink() *mockSink {
	return &mockSink{fail: make(map[string]error)}
}

func (s *mockSink) Add(_ context.Context, rows []model.RecencyRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if err, ok := s.fail[r.User]; ok {
			return err
		}
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *mockSink) byUser(user string) []model.RecencyRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RecencyRow
	for _, r := range s.rows {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out
}

type failingComputer struct{ err error }

func (f failingComputer) Compute(context.Context, *model.Partition) ([]model.RecencyRow, error) {
	return nil, f.err
}

func catalog() *model.Catalog {
	return model.NewCatalog([]model.Defect{
		{ID: 1, Name: "missing_return", Severity: 3},
		{ID: 2, Name: "wrong_operator", Severity: 5},
	})
}

func partition(user string, defects ...[]model.DefectID) model.Partition {
	t0 := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	p := model.Partition{User: user}
	for i, d := range defects {
		p.Submissions = append(p.Submissions, model.Submission{
			ID:      fmt.Sprintf("%s-%d", user, i),
			User:    user,
			Time:    t0.Add(time.Duration(i) * time.Minute),
			Defects: d,
		})
	}
	return p
}

func TestRecencyComputer(t *testing.T) {
	convey.Convey("Given a recency computer", t, func() {
		_ = logging.Init()
		c := worker.RecencyComputer{Catalog: catalog(), Logger: logging.Get()}

		convey.Convey("When computing a partition", func() {
			p := partition("u1", []model.DefectID{1}, nil, []model.DefectID{1, 2, 9})
			rows, err := c.Compute(context.Background(), &p)

			convey.Convey("Then rows follow the history and unknown defects are skipped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 3)
				convey.So(rows[0].First, convey.ShouldBeTrue)
				convey.So(rows[1].Defect, convey.ShouldEqual, model.DefectID(1))
				convey.So(rows[1].Since, convey.ShouldEqual, 2)
				convey.So(rows[2].First, convey.ShouldBeTrue)
				convey.So(rows[2].DefectName, convey.ShouldEqual, "wrong_operator")
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			p := partition("u1", []model.DefectID{1})
			_, err := c.Compute(ctx, &p)

			convey.Convey("Then it returns the context error", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a closed queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		sink := newMockSink()
		ctx := context.Background()

		convey.So(q.Enqueue(ctx, partition("u1", []model.DefectID{2}, []model.DefectID{2})), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("When it runs", func() {
			w := worker.NewInMemoryWorker(q, worker.RecencyComputer{Catalog: catalog()}, sink, worker.WithName("test-worker"))
			w.Run(ctx)

			convey.Convey("Then it drains the queue and stops", func() {
				rows := sink.byUser("u1")
				convey.So(len(rows), convey.ShouldEqual, 2)
				convey.So(rows[1].Since, convey.ShouldEqual, 1)

				select {
				case <-w.Done():
				default:
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the computer fails", func() {
			var got []error
			w := worker.NewInMemoryWorker(q, failingComputer{err: errors.New("boom")}, sink,
				worker.WithErrorHandler(func(err error) { got = append(got, err) }))
			w.Run(ctx)

			convey.Convey("Then the error is reported and nothing is stored", func() {
				convey.So(len(got), convey.ShouldEqual, 1)
				convey.So(got[0].Error(), convey.ShouldContainSubstring, "boom")
				convey.So(sink.byUser("u1"), convey.ShouldBeEmpty)
			})
		})
	})

	convey.Convey("Given a worker on an open queue", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, worker.RecencyComputer{Catalog: catalog()}, newMockSink())
		go w.Run(context.Background())

		convey.Convey("When shutting down", func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it should shutdown gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool with several workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		sink := newMockSink()
		pool := worker.NewPool(4, q, worker.RecencyComputer{Catalog: catalog()}, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.So(pool.Size(), convey.ShouldEqual, 4)
		pool.Start(ctx)

		convey.Convey("When many partitions are processed", func() {
			const students = 50
			for i := 0; i < students; i++ {
				p := partition(fmt.Sprintf("u%02d", i), []model.DefectID{1}, []model.DefectID{1, 2}, []model.DefectID{1})
				convey.So(q.Enqueue(ctx, p), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			err := pool.Wait()

			convey.Convey("Then every partition is stored once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(students))
				for i := 0; i < students; i++ {
					rows := sink.byUser(fmt.Sprintf("u%02d", i))
					convey.So(len(rows), convey.ShouldEqual, 4)
				}
			})
		})

		convey.Convey("When the sink fails for one student", func() {
			sink.mu.Lock()
			sink.fail["bad"] = errors.New("disk full")
			sink.mu.Unlock()

			convey.So(q.Enqueue(ctx, partition("good", []model.DefectID{1})), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, partition("bad", []model.DefectID{1})), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			err := pool.Wait()

			convey.Convey("Then the pool reports the first error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "disk full")
				convey.So(pool.Processed(), convey.ShouldEqual, int64(1))
				convey.So(len(sink.byUser("good")), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then it should shutdown gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNewPoolDefaultSize(t *testing.T) {
	_ = logging.Init()
	pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.RecencyComputer{Catalog: catalog()}, newMockSink())
	if pool.Size() < 1 {
		t.Errorf("expected at least one worker, got %d", pool.Size())
	}
}
