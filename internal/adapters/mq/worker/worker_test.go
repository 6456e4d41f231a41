package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/lorkus/scholarledger/internal/adapters/mq/worker"
	"github.com/lorkus/scholarledger/internal/domain/model"
	logging "github.com/lorkus/scholarledger/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan worker.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan worker.Job, 128)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockProcessor struct {
	mu     sync.Mutex
	done   map[string]int
	errors map[string]error
	delay  time.Duration
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{done: map[string]int{}, errors: map[string]error{}}
}

func (mp *mockProcessor) Process(ctx context.Context, job worker.Job) error {
	if mp.delay > 0 {
		select {
		case <-time.After(mp.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if err, ok := mp.errors[job.Username]; ok {
		return err
	}
	mp.done[job.Username]++
	return nil
}

func (mp *mockProcessor) setError(username string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[username] = err
}

func (mp *mockProcessor) count(username string) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.done[username]
}

func (mp *mockProcessor) total() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	n := 0
	for _, c := range mp.done {
		n += c
	}
	return n
}

func syncJob(id, username string) model.SyncJob {
	return model.SyncJob{ID: id, Username: username, ScholarPct: 50, Currency: "USD", RequestedAt: time.Now()}
}

// eventually polls cond for up to a second.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := newMockQueue()
		proc := newMockProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			q.jobs <- syncJob("j1", "alice")

			convey.Convey("Then the processor receives it", func() {
				convey.So(eventually(func() bool { return proc.count("alice") == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When processing fails", func() {
			proc.setError("bob", errors.New("feed down"))
			q.jobs <- syncJob("j2", "bob")
			q.jobs <- syncJob("j3", "carol")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { return proc.count("carol") == 1 }), convey.ShouldBeTrue)
				convey.So(proc.count("bob"), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops and a second call is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue is closed", func() {
			_ = q.Close()

			convey.Convey("Then the worker exits on its own", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker with a job timeout", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := newMockQueue()
		proc := newMockProcessor()
		proc.delay = 200 * time.Millisecond
		w := worker.NewInMemoryWorker(q, proc, worker.WithJobTimeout(10*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job runs too long", func() {
			q.jobs <- syncJob("slow", "dave")
			time.Sleep(100 * time.Millisecond)

			convey.Convey("Then it is abandoned", func() {
				convey.So(proc.count("dave"), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))

		q := newMockQueue()
		proc := newMockProcessor()
		pool := worker.NewPool(4, q, proc)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many jobs are queued concurrently", func() {
			const producers, perProducer = 5, 20
			var wg sync.WaitGroup
			for p := 0; p < producers; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for n := 0; n < perProducer; n++ {
						q.jobs <- syncJob(fmt.Sprintf("%d-%d", p, n), fmt.Sprintf("player-%d-%d", p, n))
					}
				}(p)
			}
			wg.Wait()

			convey.Convey("Then every job is processed once", func() {
				convey.So(eventually(func() bool { return proc.total() == producers*perProducer }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue is closed and workers stop", func() {
				convey.So(err, convey.ShouldBeNil)
				_, open := <-q.jobs
				convey.So(open, convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given a pool created with a zero count", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))
		pool := worker.NewPool(0, newMockQueue(), newMockProcessor())

		convey.Convey("Then it defaults to a CPU-based size", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
