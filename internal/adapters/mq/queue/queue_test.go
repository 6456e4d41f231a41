package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lorkus/scholarledger/internal/adapters/mq/queue"
	"github.com/lorkus/scholarledger/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) model.SyncJob {
	return model.SyncJob{ID: id, Username: "player-" + id, ScholarPct: 50, Currency: "USD", RequestedAt: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When a job is enqueued", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)

			Convey("Then it is pending and can be dequeued", func() {
				So(q.Len(ctx), ShouldEqual, 1)
				got := <-q.Dequeue(ctx)
				So(got.ID, ShouldEqual, "a")
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)
			So(q.Enqueue(ctx, job("b")), ShouldBeNil)
			err := q.Enqueue(ctx, job("c"))

			Convey("Then ErrFull is returned", func() {
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := q.Enqueue(cctx, job("a"))

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, job("b")), queue.ErrClosed), ShouldBeTrue)
			})

			Convey("Then pending jobs drain before the channel closes", func() {
				var ids []string
				for j := range q.Dequeue(ctx) {
					ids = append(ids, j.ID)
				}
				So(ids, ShouldResemble, []string{"a"})
			})

			Convey("Then closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})

	Convey("Given concurrent producers and consumers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		const producers, perProducer = 10, 100

		var consumed sync.WaitGroup
		seen := make(chan string, producers*perProducer)
		for i := 0; i < 4; i++ {
			consumed.Add(1)
			go func() {
				defer consumed.Done()
				for j := range q.Dequeue(ctx) {
					seen <- j.ID
				}
			}()
		}

		var produced sync.WaitGroup
		for p := 0; p < producers; p++ {
			produced.Add(1)
			go func(p int) {
				defer produced.Done()
				for n := 0; n < perProducer; n++ {
					for q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, n))) != nil {
						time.Sleep(time.Millisecond)
					}
				}
			}(p)
		}
		produced.Wait()
		_ = q.Close()
		consumed.Wait()
		close(seen)

		Convey("Then every job is delivered exactly once", func() {
			ids := map[string]int{}
			for id := range seen {
				ids[id]++
			}
			So(len(ids), ShouldEqual, producers*perProducer)
			for _, n := range ids {
				So(n, ShouldEqual, 1)
			}
		})
	})
}
