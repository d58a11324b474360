package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/ascent/internal/adapters/mq/queue"
	"github.com/okian/ascent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(id string) model.SkillEvent {
	return model.SkillEvent{EventID: id, ProjectID: "proj", UserID: "user1", SkillID: "kata", Points: 10, TS: time.Now().UTC()}
}

func TestQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.New(queue.WithCapacity(2))

		Convey("Then events enqueue until the buffer fills", func() {
			So(q.Enqueue(ctx, ev("e1")), ShouldBeTrue)
			So(q.Enqueue(ctx, ev("e2")), ShouldBeTrue)
			So(q.Enqueue(ctx, ev("e3")), ShouldBeFalse)
			So(q.Len(), ShouldEqual, 2)
		})

		Convey("Then dequeued events arrive in enqueue order", func() {
			So(q.Enqueue(ctx, ev("e1")), ShouldBeTrue)
			So(q.Enqueue(ctx, ev("e2")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			var got []string
			for e := range q.Dequeue(ctx) {
				got = append(got, e.EventID)
			}
			So(got, ShouldResemble, []string{"e1", "e2"})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue refuses new events", func() {
				So(q.Enqueue(ctx, ev("late")), ShouldBeFalse)
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
