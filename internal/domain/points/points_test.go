package points_test

import (
	"testing"
	"time"

	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/points"
	. "github.com/smartystreets/goconvey/convey"
)

func testView() *model.CatalogView {
	return &model.CatalogView{
		ProjectID: "proj",
		Version:   1,
		Skills: map[string]model.Skill{
			"kata": {ProjectID: "proj", SkillID: "kata", SubjectID: "practice", PointIncrement: 10, MaxOccurrences: 3, Version: 0},
			"review": {ProjectID: "proj", SkillID: "review", SubjectID: "practice", PointIncrement: 20, MaxOccurrences: 1, Version: 0},
			"talk": {ProjectID: "proj", SkillID: "talk", SubjectID: "community", PointIncrement: 50, MaxOccurrences: 2, Version: 1},
		},
		Subjects: map[string]model.Subject{
			"practice":  {ProjectID: "proj", SubjectID: "practice", SkillIDs: []string{"kata", "review"}},
			"community": {ProjectID: "proj", SubjectID: "community", SkillIDs: []string{"talk"}},
		},
		Levels: []int{0, 50, 100, 200},
	}
}

func event(skillID string, pts int, day int) model.SkillEvent {
	return model.SkillEvent{
		EventID:   skillID + string(rune('a'+day)),
		ProjectID: "proj",
		UserID:    "user1",
		SkillID:   skillID,
		Points:    pts,
		TS:        time.Date(2026, 3, day+1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given events across two subjects", t, func() {
		view := testView()
		events := []model.SkillEvent{
			event("kata", 10, 0),
			event("kata", 10, 1),
			event("talk", 50, 2),
			event("review", 20, 3),
		}

		Convey("When aggregating without a subject filter", func() {
			totals := points.Aggregate(events, view, "")

			Convey("Then totals roll up per skill, per subject, and overall", func() {
				So(totals.Total, ShouldEqual, 90)
				So(totals.BySubject["practice"], ShouldEqual, 40)
				So(totals.BySubject["community"], ShouldEqual, 50)
				So(totals.SkillTotal("kata"), ShouldEqual, 20)
				So(totals.BySkill["kata"].Occurrences, ShouldEqual, 2)
			})

			Convey("And aggregation is idempotent", func() {
				again := points.Aggregate(events, view, "")
				So(again.Total, ShouldEqual, totals.Total)
				So(again.BySubject, ShouldResemble, totals.BySubject)
				So(again.BySkill, ShouldResemble, totals.BySkill)
			})

			Convey("And adding a qualifying event never decreases the total", func() {
				more := append(append([]model.SkillEvent{}, events...), event("talk", 50, 4))
				So(points.Aggregate(more, view, "").Total, ShouldBeGreaterThanOrEqualTo, totals.Total)
			})
		})

		Convey("When aggregating with a subject filter", func() {
			totals := points.Aggregate(events, view, "practice")

			Convey("Then only that subject's skills contribute", func() {
				So(totals.Total, ShouldEqual, 40)
				So(totals.BySubject, ShouldNotContainKey, "community")
			})
		})
	})

	Convey("Given more completions than a skill counts", t, func() {
		view := testView()
		events := []model.SkillEvent{
			event("review", 20, 0),
			event("review", 20, 1),
			event("review", 20, 2),
		}

		Convey("Then the per-skill cap keeps only the earliest occurrences", func() {
			totals := points.Aggregate(events, view, "")
			So(totals.SkillTotal("review"), ShouldEqual, 20)
			So(totals.BySkill["review"].Occurrences, ShouldEqual, 1)
			So(totals.BySkill["review"].Completed(), ShouldBeTrue)
		})
	})

	Convey("Given events for skills outside the catalog view", t, func() {
		view := testView()
		events := []model.SkillEvent{
			event("kata", 10, 0),
			event("future-skill", 100, 1), // introduced in a later version
		}

		Convey("Then unknown skills are ignored entirely", func() {
			totals := points.Aggregate(events, view, "")
			So(totals.Total, ShouldEqual, 10)
			So(totals.BySkill, ShouldNotContainKey, "future-skill")
		})
	})

	Convey("Given no events", t, func() {
		totals := points.Aggregate(nil, testView(), "")

		Convey("Then totals are zero, not an error", func() {
			So(totals.Total, ShouldEqual, 0)
			So(totals.BySkill, ShouldBeEmpty)
		})
	})
}
