package model_test

import (
	"testing"
	"time"

	"github.com/okian/edulog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSubmission_Has(t *testing.T) {
	Convey("Given a submission with ascending defects", t, func() {
		s := model.Submission{Defects: []model.DefectID{2, 5, 9}}

		Convey("Then present defects are found", func() {
			So(s.Has(2), ShouldBeTrue)
			So(s.Has(5), ShouldBeTrue)
			So(s.Has(9), ShouldBeTrue)
		})

		Convey("And absent ones are not", func() {
			So(s.Has(1), ShouldBeFalse)
			So(s.Has(6), ShouldBeFalse)
			So(s.Has(10), ShouldBeFalse)
			So((&model.Submission{}).Has(1), ShouldBeFalse)
		})
	})
}

func TestPartition_Flags(t *testing.T) {
	Convey("Given a partition of four submissions", t, func() {
		p := model.Partition{User: "u1", Submissions: []model.Submission{
			{ID: "s1", Defects: []model.DefectID{1}},
			{ID: "s2"},
			{ID: "s3", Defects: []model.DefectID{1, 2}},
			{ID: "s4", Defects: []model.DefectID{2}},
		}}

		Convey("Then a negative bound returns the whole history", func() {
			So(p.Flags(1, -1), ShouldResemble, []bool{true, false, true, false})
			So(p.Flags(2, -1), ShouldResemble, []bool{false, false, true, true})
		})

		Convey("And a bound truncates after that position", func() {
			So(p.Flags(1, 0), ShouldResemble, []bool{true})
			So(p.Flags(2, 2), ShouldResemble, []bool{false, false, true})
		})

		Convey("And a bound past the end is ignored", func() {
			So(len(p.Flags(1, 10)), ShouldEqual, 4)
		})
	})
}

func TestDataset_Partitions(t *testing.T) {
	Convey("Given submissions out of order", t, func() {
		at := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
		ds := &model.Dataset{Submissions: []model.Submission{
			{ID: "b2", User: "ub", Time: at.Add(time.Minute), Order: 0},
			{ID: "z", User: "ua", Time: at, Order: 1},
			{ID: "a", User: "ua", Time: at, Order: 2},
			{ID: "b1", User: "ub", Time: at, Order: 3},
			{ID: "early", User: "ua", Time: at.Add(-time.Hour), Order: 4},
		}}

		parts := ds.Partitions()

		Convey("Then users come back ascending", func() {
			So(len(parts), ShouldEqual, 2)
			So(parts[0].User, ShouldEqual, "ua")
			So(parts[1].User, ShouldEqual, "ub")
			So(ds.Users(), ShouldResemble, []string{"ua", "ub"})
		})

		Convey("And histories are chronological with ties in ingestion order", func() {
			ids := func(p model.Partition) []string {
				out := make([]string, len(p.Submissions))
				for i, s := range p.Submissions {
					out[i] = s.ID
				}
				return out
			}
			So(ids(parts[0]), ShouldResemble, []string{"early", "z", "a"})
			So(ids(parts[1]), ShouldResemble, []string{"b1", "b2"})
		})

		Convey("And Before prefers the lower order on equal times", func() {
			So(model.Before(&ds.Submissions[1], &ds.Submissions[2]), ShouldBeTrue)
			So(model.Before(&ds.Submissions[2], &ds.Submissions[1]), ShouldBeFalse)
		})
	})
}
