package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/ascent/internal/adapters/http/api"
	"github.com/okian/ascent/internal/adapters/identity"
	"github.com/okian/ascent/internal/adapters/store"
	service "github.com/okian/ascent/internal/app"
	"github.com/okian/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	cs := store.NewCatalogStore()
	cs.SeedProject(model.ProjectCatalog{
		ProjectID: "web", Name: "Web Development", MaxVersion: 0,
		Skills: []model.Skill{
			{ProjectID: "web", SkillID: "html", SubjectID: "basics", Name: "HTML", PointIncrement: 10, MaxOccurrences: 3},
			{ProjectID: "web", SkillID: "css", SubjectID: "basics", Name: "CSS", PointIncrement: 20, MaxOccurrences: 1},
		},
		Subjects: []model.Subject{
			{ProjectID: "web", SubjectID: "basics", Name: "Basics", SkillIDs: []string{"html", "css"}},
		},
		SubjectOrder: []string{"basics"},
		Levels:       []int{0, 20, 40},
	})

	es := store.NewEventStore()
	ctx := context.Background()
	_ = es.Append(ctx, model.SkillEvent{EventID: "e1", ProjectID: "web", UserID: "user1", SkillID: "html", Points: 10, TS: now.AddDate(0, 0, -2)})
	_ = es.Append(ctx, model.SkillEvent{EventID: "e2", ProjectID: "web", UserID: "user1", SkillID: "css", Points: 20, TS: now.AddDate(0, 0, -1)})

	svc := service.New(cs, es,
		service.WithClock(func() time.Time { return now }),
		service.WithWorkerCount(1),
	)
	So(svc.Start(ctx), ShouldBeNil)
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, identity.NewResolver()).Register(mux)
	api.RegisterHealth(mux)
	return api.IdentityMiddleware(mux)
}

func do(h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(api.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given the API over a seeded service", t, func() {
		h := newHandler(t)

		Convey("Then the level endpoint returns the computed level", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/level", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var got map[string]int
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got["skillsLevel"], ShouldEqual, 1) // 30 points vs cutoffs [0,20,40]
		})

		Convey("Then the overall summary includes subjects", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/summary", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"subjects"`)
			So(rec.Body.String(), ShouldContainSubstring, `"basics"`)
		})

		Convey("Then a subject summary honours includeSkills", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/subjects/basics/summary?includeSkills=true", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"skillId":"html"`)
		})

		Convey("Then an unknown project maps to 404", func() {
			rec := do(h, http.MethodGet, "/api/projects/ghost/summary", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then a malformed version maps to 400", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/summary?version=banana", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then asking about another user without elevation maps to 403", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/summary?userId=user1", "user2", "")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Then an unauthenticated request maps to 403", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/summary", "", "")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Then rank and leaderboard answer for the caller", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/rank", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"position":1`)

			rec = do(h, http.MethodGet, "/api/projects/web/leaderboard?type=topTen", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"isItMe":true`)
		})

		Convey("Then an unknown leaderboard type maps to 400", func() {
			rec := do(h, http.MethodGet, "/api/projects/web/leaderboard?type=worstEver", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then the metric registry is exposed on healthz", func() {
			rec := do(h, http.MethodGet, "/healthz", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestReportEndpoints(t *testing.T) {
	Convey("Given the API over a seeded service", t, func() {
		h := newHandler(t)

		Convey("Then reporting a completion is acknowledged with 202", func() {
			rec := do(h, http.MethodPost, "/api/projects/web/skills/html", "user1", `{"eventId":"r1"}`)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"enqueued"`)

			Convey("And the same event id reports a duplicate", func() {
				rec = do(h, http.MethodPost, "/api/projects/web/skills/html", "user1", `{"eventId":"r1"}`)
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"duplicate"`)
			})
		})

		Convey("Then a bad performedOn maps to 400", func() {
			rec := do(h, http.MethodPost, "/api/projects/web/skills/html", "user1", `{"performedOn":"yesterday"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then dismissing an unknown rejection maps to 404", func() {
			rec := do(h, http.MethodDelete, "/api/projects/web/rejections/nope", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then the client version check answers upToDate", func() {
			rec := do(h, http.MethodPost, "/api/projects/web/skillsClientVersion", "user1", `{"skillsClientVersion":"1.0.0"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"upToDate":true`)
		})

		Convey("Then a visited skill is recorded", func() {
			rec := do(h, http.MethodPut, "/api/projects/web/skills/visited/css", "user1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then a page visit is accepted", func() {
			rec := do(h, http.MethodPost, "/api/pageVisit", "user1", `{"path":"/progress"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}
