package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	catalogs map[string]*model.ProjectCatalog
	defaults map[string]int
	fetches  int
}

func (f *fakeStore) FetchCatalog(_ context.Context, projectID string, version int) (*model.ProjectCatalog, error) {
	f.fetches++
	c, ok := f.catalogs[projectID]
	if !ok {
		return nil, fault.NotFound("project", projectID)
	}
	if version > c.MaxVersion {
		return nil, fault.NotFound("catalog version", projectID)
	}
	return c, nil
}

func (f *fakeStore) FetchDefaultVersion(_ context.Context, projectID string) (int, error) {
	if _, ok := f.catalogs[projectID]; !ok {
		return 0, fault.NotFound("project", projectID)
	}
	if v, ok := f.defaults[projectID]; ok {
		return v, nil
	}
	return -1, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		catalogs: map[string]*model.ProjectCatalog{
			"proj": {
				ProjectID:  "proj",
				MaxVersion: 2,
				Skills: []model.Skill{
					{SkillID: "alpha", SubjectID: "basics", PointIncrement: 10, MaxOccurrences: 1, Version: 0},
					{SkillID: "beta", SubjectID: "basics", PointIncrement: 10, MaxOccurrences: 1, Version: 1},
					{SkillID: "gamma", SubjectID: "basics", PointIncrement: 10, MaxOccurrences: 1, Version: 2},
				},
				Subjects:     []model.Subject{{SubjectID: "basics", SkillIDs: []string{"alpha", "beta", "gamma"}}},
				SubjectOrder: []string{"basics"},
				Badges: []model.Badge{
					{Scope: model.ScopeProject, ProjectID: "proj", BadgeID: "starter", Version: 0},
					{Scope: model.ScopeProject, ProjectID: "proj", BadgeID: "veteran", Version: 2},
				},
				Edges: []model.DependencyEdge{
					{SkillID: "beta", PrereqSkillID: "alpha"},
					{SkillID: "gamma", PrereqSkillID: "beta"},
				},
				Levels: []int{0, 50, 100},
			},
		},
		defaults: map[string]int{"proj": 2},
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	Convey("Given a resolver over a two-version project", t, func() {
		store := newFakeStore()
		r := catalog.New(store)

		Convey("When resolving with the default version", func() {
			view, err := r.Resolve(ctx, "proj", catalog.DefaultVersion)

			Convey("Then the project's configured default wins", func() {
				So(err, ShouldBeNil)
				So(view.Version, ShouldEqual, 2)
				So(view.Skills, ShouldContainKey, "gamma")
			})
		})

		Convey("When resolving an earlier version", func() {
			view, err := r.Resolve(ctx, "proj", 1)
			So(err, ShouldBeNil)

			Convey("Then later skills are excluded entirely", func() {
				So(view.Skills, ShouldContainKey, "alpha")
				So(view.Skills, ShouldContainKey, "beta")
				So(view.Skills, ShouldNotContainKey, "gamma")
				So(view.Subjects["basics"].SkillIDs, ShouldResemble, []string{"alpha", "beta"})
			})

			Convey("And later badges are excluded", func() {
				So(len(view.Badges), ShouldEqual, 1)
				So(view.Badges[0].BadgeID, ShouldEqual, "starter")
			})

			Convey("And edges touching excluded skills are dropped", func() {
				So(len(view.Edges), ShouldEqual, 1)
				So(view.Edges[0].SkillID, ShouldEqual, "beta")
			})
		})

		Convey("When resolving a version with no snapshot", func() {
			_, err := r.Resolve(ctx, "proj", 9)

			Convey("Then it fails with a not-found kind", func() {
				So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When resolving an unknown project", func() {
			_, err := r.Resolve(ctx, "ghost", catalog.DefaultVersion)
			So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
		})

		Convey("When resolving a malformed version", func() {
			_, err := r.Resolve(ctx, "proj", -7)
			So(errors.Is(err, fault.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given a resolver without a project default", t, func() {
		store := newFakeStore()
		delete(store.defaults, "proj")
		r := catalog.New(store, catalog.WithFallbackVersion(1))

		Convey("Then the injected deployment fallback applies", func() {
			view, err := r.Resolve(ctx, "proj", catalog.DefaultVersion)
			So(err, ShouldBeNil)
			So(view.Version, ShouldEqual, 1)
		})
	})

	Convey("Given a caching resolver", t, func() {
		store := newFakeStore()
		r := catalog.New(store, catalog.WithCacheSize(16))

		_, err := r.Resolve(ctx, "proj", 2)
		So(err, ShouldBeNil)
		fetchesAfterFirst := store.fetches

		Convey("When resolving the same version again", func() {
			_, err := r.Resolve(ctx, "proj", 2)
			So(err, ShouldBeNil)

			Convey("Then the store is not consulted again", func() {
				So(store.fetches, ShouldEqual, fetchesAfterFirst)
			})
		})

		Convey("When the project is invalidated", func() {
			r.Invalidate("proj")
			_, err := r.Resolve(ctx, "proj", 2)
			So(err, ShouldBeNil)

			Convey("Then the next resolve reads through", func() {
				So(store.fetches, ShouldEqual, fetchesAfterFirst+1)
			})
		})
	})
}
