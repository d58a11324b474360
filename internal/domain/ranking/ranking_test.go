package ranking_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

var overall = ranking.Scope{ProjectID: "proj"}

func seeded(totals map[string]int) *ranking.Engine {
	e := ranking.New()
	for user, pts := range totals {
		e.SetPoints(overall, user, pts)
	}
	return e
}

func TestStanding(t *testing.T) {
	Convey("Given four users with distinct totals", t, func() {
		e := seeded(map[string]int{"ann": 300, "bob": 200, "cal": 100, "dee": 50})

		Convey("Then positions follow points descending", func() {
			So(e.Standing(overall, "ann").Position, ShouldEqual, 1)
			So(e.Standing(overall, "cal").Position, ShouldEqual, 3)
			So(e.Standing(overall, "dee").Position, ShouldEqual, 4)
			So(e.Standing(overall, "ann").TotalUsers, ShouldEqual, 4)
		})

		Convey("When a user's total changes", func() {
			e.SetPoints(overall, "dee", 250)

			Convey("Then ranks shift immediately", func() {
				So(e.Standing(overall, "dee").Position, ShouldEqual, 2)
				So(e.Standing(overall, "bob").Position, ShouldEqual, 3)
			})
		})

		Convey("When a user the index has never seen asks for a rank", func() {
			s := e.Standing(overall, "zoe")

			Convey("Then they rank behind everyone, counted as a participant", func() {
				So(s.Position, ShouldEqual, 5)
				So(s.TotalUsers, ShouldEqual, 5)
				So(s.Points, ShouldEqual, 0)
			})
		})
	})

	Convey("Given two users tied on points", t, func() {
		e := seeded(map[string]int{"zed": 100, "amy": 100})

		Convey("Then the tie always breaks by userID ascending, query after query", func() {
			for i := 0; i < 5; i++ {
				So(e.Standing(overall, "amy").Position, ShouldEqual, 1)
				So(e.Standing(overall, "zed").Position, ShouldEqual, 2)
			}
		})
	})

	Convey("Given a user with zero points on a default engine", t, func() {
		e := seeded(map[string]int{"ann": 100})
		e.SetPoints(overall, "idle", 0)

		Convey("Then the zero-point user is still ranked", func() {
			So(e.Standing(overall, "idle").Position, ShouldEqual, 2)
			So(e.Count(overall), ShouldEqual, 2)
		})
	})

	Convey("Given an engine configured to drop zero-point users", t, func() {
		e := ranking.New(ranking.WithRankZeroPointUsers(false))
		e.SetPoints(overall, "ann", 100)
		e.SetPoints(overall, "idle", 0)

		Convey("Then the zero-point user is not on the board", func() {
			So(e.Count(overall), ShouldEqual, 1)
		})

		Convey("When a ranked user drops back to zero", func() {
			e.SetPoints(overall, "ann", 0)
			So(e.Count(overall), ShouldEqual, 0)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given twenty ranked users", t, func() {
		e := ranking.New()
		for i := 1; i <= 20; i++ {
			e.SetPoints(overall, fmt.Sprintf("user%02d", i), i*10)
		}

		Convey("When requesting the top ten", func() {
			p, err := e.Leaderboard(overall, "user15", ranking.ModeTopTen, 10)
			So(err, ShouldBeNil)

			Convey("Then the ten highest totals come back in order", func() {
				So(len(p.Rows), ShouldEqual, 10)
				So(p.Rows[0].UserID, ShouldEqual, "user20")
				So(p.Rows[0].Rank, ShouldEqual, 1)
				So(p.Rows[9].UserID, ShouldEqual, "user11")
				So(p.TotalUsers, ShouldEqual, 20)
			})

			Convey("And the requesting user is flagged", func() {
				for _, r := range p.Rows {
					So(r.IsMe, ShouldEqual, r.UserID == "user15")
				}
			})
		})

		Convey("When requesting the window around a mid-pack user", func() {
			p, err := e.Leaderboard(overall, "user10", ranking.ModeTenAroundMe, 10)
			So(err, ShouldBeNil)

			Convey("Then the window contains the user roughly centered", func() {
				So(len(p.Rows), ShouldEqual, 10)
				found := false
				for _, r := range p.Rows {
					if r.UserID == "user10" {
						found = true
						So(r.IsMe, ShouldBeTrue)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the user sits near the bottom", func() {
			p, err := e.Leaderboard(overall, "user01", ranking.ModeTenAroundMe, 10)
			So(err, ShouldBeNil)

			Convey("Then the window clamps to the board's tail", func() {
				So(len(p.Rows), ShouldEqual, 10)
				So(p.Rows[len(p.Rows)-1].UserID, ShouldEqual, "user01")
			})
		})

		Convey("When the mode is unknown", func() {
			_, err := e.Leaderboard(overall, "user01", "bestEver", 10)
			So(errors.Is(err, fault.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given fewer users than the page size", t, func() {
		e := seeded(map[string]int{"ann": 30, "bob": 20})

		p, err := e.Leaderboard(overall, "ann", ranking.ModeTopTen, 10)
		So(err, ShouldBeNil)
		So(len(p.Rows), ShouldEqual, 2)
	})

	Convey("Given tied users on the leaderboard", t, func() {
		e := seeded(map[string]int{"zed": 100, "amy": 100, "bob": 100})

		Convey("Then repeated queries keep the userID-ascending order", func() {
			for i := 0; i < 5; i++ {
				p, err := e.Leaderboard(overall, "", ranking.ModeTopTen, 10)
				So(err, ShouldBeNil)
				So(p.Rows[0].UserID, ShouldEqual, "amy")
				So(p.Rows[1].UserID, ShouldEqual, "bob")
				So(p.Rows[2].UserID, ShouldEqual, "zed")
			}
		})
	})
}

func TestDistribution(t *testing.T) {
	thresholds := []int{0, 50, 100, 200}

	Convey("Given users at several levels", t, func() {
		e := seeded(map[string]int{"ann": 250, "bob": 150, "cal": 60, "dee": 10})

		Convey("Then a mid-pack user sees the gap to the next user above", func() {
			d := e.Distribution(overall, "bob", thresholds)
			So(d.MyLevel, ShouldEqual, 2)
			So(d.MyPoints, ShouldEqual, 150)
			So(d.PointsToPassNextUser, ShouldEqual, 100)
		})

		Convey("Then the top user has nobody to pass", func() {
			d := e.Distribution(overall, "ann", thresholds)
			So(d.PointsToPassNextUser, ShouldEqual, -1)
		})

		Convey("Then users per level is zero-filled across the table", func() {
			counts := e.UsersPerLevel(overall, thresholds)
			So(len(counts), ShouldEqual, 4)
			So(counts[0].NumUsers, ShouldEqual, 1) // dee
			So(counts[1].NumUsers, ShouldEqual, 1) // cal
			So(counts[2].NumUsers, ShouldEqual, 1) // bob
			So(counts[3].NumUsers, ShouldEqual, 1) // ann
		})
	})

	Convey("Given an empty scope", t, func() {
		e := ranking.New()

		Convey("Then distribution is the zero state", func() {
			d := e.Distribution(ranking.Scope{ProjectID: "ghost"}, "ann", thresholds)
			So(d.MyLevel, ShouldEqual, 0)
			So(d.PointsToPassNextUser, ShouldEqual, -1)
		})

		Convey("Then users per level is still a full zero-filled table", func() {
			counts := e.UsersPerLevel(ranking.Scope{ProjectID: "ghost"}, thresholds)
			So(len(counts), ShouldEqual, 4)
			for _, c := range counts {
				So(c.NumUsers, ShouldEqual, 0)
			}
		})
	})
}
