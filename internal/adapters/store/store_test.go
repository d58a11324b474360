package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/ascent/internal/adapters/store"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(id, skillID string, ts time.Time) model.SkillEvent {
	return model.SkillEvent{
		EventID: id, ProjectID: "proj", UserID: "user1",
		SkillID: skillID, Points: 10, TS: ts,
	}
}

func TestEventStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given events appended out of timestamp order", t, func() {
		s := store.NewEventStore()
		So(s.Append(ctx, event("e2", "kata", base.Add(2*time.Hour))), ShouldBeNil)
		So(s.Append(ctx, event("e1", "kata", base.Add(time.Hour))), ShouldBeNil)
		So(s.Append(ctx, event("e3", "talk", base.Add(3*time.Hour))), ShouldBeNil)

		Convey("Then fetches come back ascending by timestamp", func() {
			got, err := s.FetchEvents(ctx, "proj", "user1")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].EventID, ShouldEqual, "e1")
			So(got[1].EventID, ShouldEqual, "e2")
			So(got[2].EventID, ShouldEqual, "e3")
		})

		Convey("Then a skill filter narrows the result", func() {
			got, err := s.FetchEvents(ctx, "proj", "user1", "talk")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].EventID, ShouldEqual, "e3")
		})

		Convey("Then the user shows up in the project's user list", func() {
			users, err := s.Users(ctx, "proj")
			So(err, ShouldBeNil)
			So(users, ShouldResemble, []string{"user1"})
		})

		Convey("When an event is removed by id", func() {
			So(s.RemoveEvent(ctx, "proj", "user1", "e2"), ShouldBeNil)

			got, err := s.FetchEvents(ctx, "proj", "user1")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)

			Convey("And removing it again is not an error", func() {
				So(s.RemoveEvent(ctx, "proj", "user1", "e2"), ShouldBeNil)
			})
		})
	})

	Convey("Given an expired context", t, func() {
		s := store.NewEventStore()
		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()

		Convey("Then fetches surface an upstream timeout", func() {
			_, err := s.FetchEvents(expired, "proj", "user1")
			So(errors.Is(err, fault.ErrUpstreamTimeout), ShouldBeTrue)
		})
	})

	Convey("Given a recorded rejection", t, func() {
		s := store.NewEventStore()
		r := model.Rejection{
			ID: "rej1", ProjectID: "proj", UserID: "user1",
			SkillID: "ghost", Reason: "unknown skill", TS: base,
		}
		So(s.AddRejection(ctx, r), ShouldBeNil)

		Convey("Then it is listed until dismissed", func() {
			got, err := s.Rejections(ctx, "proj", "user1")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)

			So(s.RemoveRejection(ctx, "proj", "user1", "rej1"), ShouldBeNil)

			got, err = s.Rejections(ctx, "proj", "user1")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then dismissing an unknown id is not found", func() {
			err := s.RemoveRejection(ctx, "proj", "user1", "ghost")
			So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestCatalogStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded project at max version 2", t, func() {
		s := store.NewCatalogStore()
		s.SeedProject(model.ProjectCatalog{
			ProjectID: "proj", Name: "Project", MaxVersion: 2,
			Skills: []model.Skill{{ProjectID: "proj", SkillID: "kata", Version: 1}},
		})

		Convey("Then the default version is the highest published one", func() {
			v, err := s.FetchDefaultVersion(ctx, "proj")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2)
		})

		Convey("Then fetching a published version succeeds", func() {
			pc, err := s.FetchCatalog(ctx, "proj", 1)
			So(err, ShouldBeNil)
			So(pc.ProjectID, ShouldEqual, "proj")
		})

		Convey("Then an unpublished version is not found", func() {
			_, err := s.FetchCatalog(ctx, "proj", 7)
			So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then an unknown project is not found", func() {
			_, err := s.FetchCatalog(ctx, "ghost", 1)
			So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given seeded global badges", t, func() {
		s := store.NewCatalogStore()
		s.SeedGlobalBadges(model.Badge{Scope: model.ScopeGlobal, BadgeID: "polyglot"})

		badges, err := s.FetchGlobalBadges(ctx)
		So(err, ShouldBeNil)
		So(len(badges), ShouldEqual, 1)
		So(badges[0].BadgeID, ShouldEqual, "polyglot")
	})
}
