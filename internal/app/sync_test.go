package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorkus/scholarledger/internal/adapters/repository"
	service "github.com/lorkus/scholarledger/internal/app"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/payout"
	. "github.com/smartystreets/goconvey/convey"
)

func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_EnqueueSync(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := service.New(service.WithFeed(newFakeFeed()))

		Convey("Then sync requests are refused", func() {
			_, _, err := svc.EnqueueSync(context.Background(), service.SyncRequest{Username: "alice"})
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})

	Convey("Given a started service", t, func() {
		f := newFakeFeed()
		store := repository.NewMemoryStore(context.Background())
		defer store.Close()
		svc := startService(f, service.WithStore(store), service.WithPayoutDefaults(50, "USD"))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When the username is blank", func() {
			_, _, err := svc.EnqueueSync(ctx, service.SyncRequest{Username: "  "})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When the percentage is out of range", func() {
			pct := 120.0
			_, _, err := svc.EnqueueSync(ctx, service.SyncRequest{Username: "alice", ScholarPct: &pct})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, payout.ErrPercentOutOfRange), ShouldBeTrue)
		})

		Convey("When a sync is queued", func() {
			id, dup, err := svc.EnqueueSync(ctx, service.SyncRequest{Username: "Alice", Currency: "sps"})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(id, ShouldNotBeBlank)

			Convey("Then a season record is eventually stored", func() {
				So(eventually(2*time.Second, func() bool { return store.Count(ctx) == 1 }), ShouldBeTrue)

				rec, err := store.Latest(ctx, "alice")
				So(err, ShouldBeNil)
				So(rec.SeasonID, ShouldEqual, 150)
				So(rec.PayoutCurrency, ShouldEqual, "SPS")
				So(rec.ScholarPct, ShouldEqual, 50)
				So(*rec.OverallUSD, ShouldAlmostEqual, 16, 1e-9)
			})

			Convey("Then history re-derives totals and the split", func() {
				So(eventually(2*time.Second, func() bool { return store.Count(ctx) == 1 }), ShouldBeTrue)

				hist, err := svc.History(ctx, "ALICE")
				So(err, ShouldBeNil)
				So(hist, ShouldHaveLength, 1)
				So(hist[0].Totals.Overall.TokenAmounts["SPS"], ShouldEqual, 150)
				So(hist[0].Totals.Overall.TokenAmounts["DEC"], ShouldEqual, 1000)
				So(hist[0].Share, ShouldNotBeNil)
				So(hist[0].Share.ScholarUSD, ShouldAlmostEqual, 8, 1e-9)
			})
		})

		Convey("When the same request id is sent twice", func() {
			req := service.SyncRequest{RequestID: "req-1", Username: "alice"}
			id1, dup1, err1 := svc.EnqueueSync(ctx, req)
			id2, dup2, err2 := svc.EnqueueSync(ctx, req)

			Convey("Then the second is acknowledged as a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
				So(id1, ShouldEqual, "req-1")
				So(id2, ShouldEqual, "req-1")
			})
		})
	})

	Convey("Given a service whose only worker is busy and a queue of one", t, func() {
		f := newFakeFeed()
		f.block = make(chan struct{})
		f.entered = make(chan struct{}, 1)
		svc := startService(f, service.WithQueueSize(1))
		ctx := context.Background()

		Reset(func() {
			select {
			case <-f.block:
			default:
				close(f.block)
			}
			svc.Stop(context.Background())
		})

		_, _, err := svc.EnqueueSync(ctx, service.SyncRequest{Username: "alice"})
		So(err, ShouldBeNil)
		picked := false
		select {
		case <-f.entered:
			picked = true
		case <-time.After(2 * time.Second):
		}
		So(picked, ShouldBeTrue)

		Convey("When the queue fills up", func() {
			_, _, errQueued := svc.EnqueueSync(ctx, service.SyncRequest{Username: "bob"})
			_, _, errFull := svc.EnqueueSync(ctx, service.SyncRequest{RequestID: "req-full", Username: "carol"})

			Convey("Then the extra request is rejected with backpressure", func() {
				So(errQueued, ShouldBeNil)
				So(errFull, ShouldEqual, service.ErrBackpressure)
			})

			Convey("Then the rejected request id can be retried", func() {
				close(f.block)
				So(eventually(2*time.Second, func() bool {
					_, dup, err := svc.EnqueueSync(ctx, service.SyncRequest{RequestID: "req-full", Username: "carol"})
					return err == nil && !dup
				}), ShouldBeTrue)
			})
		})

	})
}

func TestService_Process(t *testing.T) {
	Convey("Given a started service with a memory store", t, func() {
		f := newFakeFeed()
		f.rewards["DEC"] = []model.RewardEvent{
			{ID: "d1", Player: "alice", Token: "DEC", Amount: 2000, Category: "wild", OccurredAt: inSeason},
		}
		store := repository.NewMemoryStore(context.Background())
		defer store.Close()
		svc := startService(f, service.WithStore(store), service.WithRewardTokens("SPS", "DEC"))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When a job is processed directly", func() {
			err := svc.Process(ctx, model.SyncJob{ID: "j1", Username: "alice", ScholarPct: 25, Currency: "USD"})

			Convey("Then every configured token is fetched and the record saved", func() {
				So(err, ShouldBeNil)
				So(f.rewardCalls(), ShouldEqual, 2)

				rec, err := store.Latest(ctx, "alice")
				So(err, ShouldBeNil)
				So(rec.Ranked.TokenAmounts["DEC"], ShouldEqual, 2000)
				So(*rec.OverallUSD, ShouldAlmostEqual, 18, 1e-9)
			})
		})

		Convey("When the job carries an invalid percentage", func() {
			err := svc.Process(ctx, model.SyncJob{ID: "j2", Username: "alice", ScholarPct: 101})

			Convey("Then the job is rejected before the feed is called", func() {
				So(errors.Is(err, payout.ErrPercentOutOfRange), ShouldBeTrue)
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(f.rewardCalls(), ShouldEqual, 0)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the stored currency is changed", func() {
			So(svc.Process(ctx, model.SyncJob{ID: "j3", Username: "alice", ScholarPct: 50, Currency: "USD"}), ShouldBeNil)
			So(svc.UpdateCurrency(ctx, "alice", 150, "dec"), ShouldBeNil)

			rec, err := store.Latest(ctx, "alice")
			So(err, ShouldBeNil)
			So(rec.PayoutCurrency, ShouldEqual, "DEC")
		})

		Convey("When changing the currency of an unknown season", func() {
			err := svc.UpdateCurrency(ctx, "alice", 99, "USD")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When history is empty", func() {
			hist, err := svc.History(ctx, "nobody")
			So(err, ShouldBeNil)
			So(hist, ShouldBeEmpty)
		})
	})
}
