package dedupe_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/supplyline/internal/domain/dedupe"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.New()
		ctx := context.Background()

		Convey("When recording a new id", func() {
			seen := d.SeenAndRecord(ctx, "sig-1")

			Convey("Then it was not seen before", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again reports a duplicate", func() {
				So(d.SeenAndRecord(ctx, "sig-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an id", func() {
			d.SeenAndRecord(ctx, "sig-1")
			d.Unrecord(ctx, "sig-1")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sig-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "never-seen")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth id arrives", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, "sig-"+strconv.Itoa(i))
			}

			Convey("Then the oldest id is evicted FIFO", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sig-0"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "sig-3"), ShouldBeTrue)
			})
		})

		Convey("When an id is unrecorded before its slot is reused", func() {
			d.SeenAndRecord(ctx, "a")
			d.Unrecord(ctx, "a")
			for i := 0; i < 3; i++ {
				d.SeenAndRecord(ctx, "b"+strconv.Itoa(i))
			}

			Convey("Then eviction does not corrupt the size", func() {
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given a deduper hit from many goroutines", t, func() {
		d := dedupe.New()
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		firstSeen := 0
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, "sig-"+strconv.Itoa(i)) {
						mu.Lock()
						firstSeen++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is admitted exactly once", func() {
			So(firstSeen, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
