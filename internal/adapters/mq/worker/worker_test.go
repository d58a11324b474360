package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/ascent/internal/adapters/mq/queue"
	"github.com/okian/ascent/internal/adapters/mq/worker"
	"github.com/okian/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingApplier struct {
	mu      sync.Mutex
	applied []string
	fail    map[string]error
}

func (a *recordingApplier) Apply(_ context.Context, ev model.SkillEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.fail[ev.EventID]; ok {
		return err
	}
	a.applied = append(a.applied, ev.EventID)
	return nil
}

func (a *recordingApplier) appliedIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.applied))
	copy(out, a.applied)
	return out
}

func ev(id string) model.SkillEvent {
	return model.SkillEvent{EventID: id, ProjectID: "proj", UserID: "user1", SkillID: "kata", Points: 10, TS: time.Now().UTC()}
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool draining a queue", t, func() {
		q := queue.New(queue.WithCapacity(16))
		applier := &recordingApplier{}
		pool := worker.NewPool(3, q, applier)
		pool.Start(ctx)

		Convey("When events are enqueued and the pool shuts down", func() {
			for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
				So(q.Enqueue(ctx, ev(id)), ShouldBeTrue)
			}
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then every event was applied exactly once", func() {
				got := applier.appliedIDs()
				So(len(got), ShouldEqual, 5)
				seen := map[string]int{}
				for _, id := range got {
					seen[id]++
				}
				for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
					So(seen[id], ShouldEqual, 1)
				}
			})
		})

		Convey("When one event fails to apply", func() {
			applier.fail = map[string]error{"bad": errors.New("unknown skill")}
			So(q.Enqueue(ctx, ev("good")), ShouldBeTrue)
			So(q.Enqueue(ctx, ev("bad")), ShouldBeTrue)
			So(q.Enqueue(ctx, ev("also-good")), ShouldBeTrue)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the failure does not stall the others", func() {
				got := applier.appliedIDs()
				So(got, ShouldContain, "good")
				So(got, ShouldContain, "also-good")
				So(got, ShouldNotContain, "bad")
			})
		})
	})
}
