package recency_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
	. "github.com/smartystreets/goconvey/convey"
)

func flags(bits ...int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b != 0
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		history []bool
		target  int
		want    recency.Value
	}{
		{"single submission", flags(1), 0, recency.FirstOccurrence()},
		{"gap of four", flags(0, 0, 0, 1, 0, 0, 0, 1), 7, recency.SinceLast(4)},
		{"previous submission", flags(1, 1), 1, recency.SinceLast(1)},
		{"first after misses", flags(0, 0, 0, 1), 3, recency.FirstOccurrence()},
		{"scenario at 5", flags(1, 0, 0, 1, 0, 1), 5, recency.SinceLast(2)},
		{"scenario at 3", flags(1, 0, 0, 1), 3, recency.SinceLast(3)},
		{"scenario at 0", flags(1), 0, recency.FirstOccurrence()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := recency.Compute(tt.history, tt.target)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeInvalidArgument(t *testing.T) {
	tests := []struct {
		name    string
		history []bool
		target  int
	}{
		{"empty history", nil, 0},
		{"negative target", flags(1), -1},
		{"target past end", flags(1, 1), 2},
		{"defect absent at target", flags(1, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recency.Compute(tt.history, tt.target)
			if !errors.Is(err, recency.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestValue(t *testing.T) {
	Convey("Given recency values", t, func() {
		first := recency.FirstOccurrence()
		four := recency.SinceLast(4)

		Convey("The zero value is the sentinel", func() {
			So(recency.Value{}.IsFirst(), ShouldBeTrue)
			So(first, ShouldEqual, recency.Value{})
		})

		Convey("Since distinguishes sentinel from a distance", func() {
			n, ok := first.Since()
			So(ok, ShouldBeFalse)
			So(n, ShouldEqual, 0)

			n, ok = four.Since()
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, 4)
		})

		Convey("Legacy back-fills the sentinel with the position", func() {
			So(first.Legacy(4), ShouldEqual, 4)
			So(four.Legacy(9), ShouldEqual, 4)
		})

		Convey("Format uses the label for the sentinel", func() {
			So(first.Format("first"), ShouldEqual, "first")
			So(four.Format("first"), ShouldEqual, "4")
			So(four.String(), ShouldEqual, "SinceLast(4)")
			So(first.String(), ShouldEqual, "FirstOccurrence")
		})

		Convey("SinceLast rejects non-positive distances", func() {
			So(func() { recency.SinceLast(0) }, ShouldPanic)
		})
	})
}

func TestComputeProperties(t *testing.T) {
	Convey("Given a defect seen at k and again only at target t", t, func() {
		history := flags(0, 1, 0, 0, 0, 0, 1)

		Convey("Recency is t-k regardless of other defects", func() {
			v, err := recency.Compute(history, 6)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, recency.SinceLast(5))
		})

		Convey("Recomputing yields identical results", func() {
			a, errA := recency.Compute(history, 6)
			b, errB := recency.Compute(history, 6)
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(a, ShouldEqual, b)
		})

		Convey("The input is not modified", func() {
			before := append([]bool(nil), history...)
			_, _ = recency.Compute(history, 6)
			So(history, ShouldResemble, before)
		})
	})
}

func TestTrackerMatchesCompute(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	defects := [][]model.DefectID{
		{1, 3},
		{},
		{1},
		{2, 3},
		{1, 2},
		{3},
		{1, 2, 3},
	}
	p := model.Partition{User: "u1"}
	for i, ds := range defects {
		p.Submissions = append(p.Submissions, model.Submission{
			ID:      "s" + string(rune('a'+i)),
			User:    "u1",
			Time:    base.Add(time.Duration(i) * time.Minute),
			Order:   i,
			Defects: ds,
		})
	}

	tr := recency.NewTracker()
	for pos, s := range p.Submissions {
		got := tr.Observe(s.Defects)
		for j, d := range s.Defects {
			want, err := recency.Compute(p.Flags(d, pos), pos)
			if err != nil {
				t.Fatalf("pos %d defect %d: %v", pos, d, err)
			}
			if got[j] != want {
				t.Errorf("pos %d defect %d: tracker %v, compute %v", pos, d, got[j], want)
			}
		}
	}
	if tr.Position() != len(defects) {
		t.Errorf("expected position %d, got %d", len(defects), tr.Position())
	}
}

func TestRows(t *testing.T) {
	Convey("Given a partition and a catalog", t, func() {
		catalog := model.NewCatalog([]model.Defect{
			{ID: 1, Name: "unused-variable", Severity: 2},
			{ID: 2, Name: "redundant-if", Severity: 4},
		})
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		p := model.Partition{User: "u1", Submissions: []model.Submission{
			{ID: "a", User: "u1", Item: "t1", Time: base, Defects: []model.DefectID{1}},
			{ID: "b", User: "u1", Item: "t1", Time: base.Add(time.Minute), Defects: []model.DefectID{1, 2, 9}},
			{ID: "c", User: "u1", Item: "t2", Time: base.Add(2 * time.Minute)},
			{ID: "d", User: "u1", Item: "t2", Time: base.Add(3 * time.Minute), Defects: []model.DefectID{2}},
		}}

		rows, unknown := recency.Rows(&p, catalog)

		Convey("Then only catalog defects produce rows", func() {
			So(unknown, ShouldEqual, 1)
			So(len(rows), ShouldEqual, 4)
		})

		Convey("Then rows carry positions and values", func() {
			So(rows[0].SubmissionID, ShouldEqual, "a")
			So(rows[0].First, ShouldBeTrue)
			So(rows[0].Position, ShouldEqual, 0)

			So(rows[1].SubmissionID, ShouldEqual, "b")
			So(rows[1].Defect, ShouldEqual, model.DefectID(1))
			So(recency.ValueOf(&rows[1]), ShouldEqual, recency.SinceLast(1))

			So(rows[2].Defect, ShouldEqual, model.DefectID(2))
			So(rows[2].First, ShouldBeTrue)
			So(rows[2].DefectName, ShouldEqual, "redundant-if")
			So(rows[2].Severity, ShouldEqual, 4)

			So(rows[3].SubmissionID, ShouldEqual, "d")
			So(rows[3].Position, ShouldEqual, 3)
			So(recency.ValueOf(&rows[3]), ShouldEqual, recency.SinceLast(2))
		})
	})
}

func TestDiscretize(t *testing.T) {
	tests := []struct {
		in   recency.Value
		want int
	}{
		{recency.FirstOccurrence(), recency.LevelNever},
		{recency.SinceLast(25), recency.LevelDistant},
		{recency.SinceLast(10), recency.LevelDistant},
		{recency.SinceLast(9), recency.LevelModerate},
		{recency.SinceLast(5), recency.LevelModerate},
		{recency.SinceLast(4), recency.LevelRecent},
		{recency.SinceLast(2), recency.LevelRecent},
		{recency.SinceLast(1), recency.LevelLast},
	}
	for _, tt := range tests {
		if got := recency.Discretize(tt.in); got != tt.want {
			t.Errorf("Discretize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
