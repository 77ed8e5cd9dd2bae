package queue_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/adapters/mq/queue"
)

func TestEnqueueDequeue(t *testing.T) {
	Convey("Given a bounded in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		ctx := context.Background()

		Convey("When signals are enqueued", func() {
			for i := 0; i < 3; i++ {
				ok := q.Enqueue(ctx, queue.Signal{ID: "sig-" + strconv.Itoa(i)})
				So(ok, ShouldBeTrue)
			}

			Convey("Then Len reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 3)
			})

			Convey("And Dequeue yields them in order", func() {
				out := q.Dequeue(ctx)
				for i := 0; i < 3; i++ {
					select {
					case s := <-out:
						So(s.ID, ShouldEqual, "sig-"+strconv.Itoa(i))
					case <-time.After(time.Second):
						So("timed out waiting for signal", ShouldBeEmpty)
					}
				}
			})
		})

		Convey("When the queue fills", func() {
			for i := 0; i < 4; i++ {
				So(q.Enqueue(ctx, queue.Signal{ID: strconv.Itoa(i)}), ShouldBeTrue)
			}

			Convey("Then further enqueues shed instead of blocking", func() {
				So(q.Enqueue(ctx, queue.Signal{ID: "overflow"}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 4)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Signal{ID: "before"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and close is idempotent", func() {
				So(q.Enqueue(ctx, queue.Signal{ID: "after"}), ShouldBeFalse)
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the dequeue channel drains then closes", func() {
				out := q.Dequeue(ctx)

				s, ok := <-out
				So(ok, ShouldBeTrue)
				So(s.ID, ShouldEqual, "before")

				select {
				case _, ok := <-out:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("timed out waiting for close", ShouldBeEmpty)
				}
			})
		})

		Convey("When the dequeue context is cancelled", func() {
			cancelCtx, cancel := context.WithCancel(ctx)
			out := q.Dequeue(cancelCtx)
			cancel()

			So(q.Enqueue(ctx, queue.Signal{ID: "sig"}), ShouldBeTrue)

			Convey("Then the consumer channel closes, delivering at most the in-flight signal", func() {
				closed := false
				deliveries := 0
				deadline := time.After(time.Second)
				for !closed {
					select {
					case _, ok := <-out:
						if !ok {
							closed = true
							break
						}
						deliveries++
					case <-deadline:
						closed = true
					}
				}
				So(deliveries, ShouldBeLessThanOrEqualTo, 1)
			})
		})
	})
}
