package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lorkus/scholarledger/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"LEDGER_CONFIG",
	"LEDGER_ADDR",
	"LEDGER_QUEUE_SIZE",
	"LEDGER_WORKER_COUNT",
	"LEDGER_SCHOLAR_PCT",
	"LEDGER_FEED_RPS",
	"LEDGER_RANKED_CATEGORIES",
	"LEDGER_PAYOUT_CURRENCY",
	"LEDGER_DATABASE_URL",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.ScholarPct, convey.ShouldEqual, 50)
			convey.So(cfg.PayoutCurrency, convey.ShouldEqual, "USD")
			convey.So(cfg.RankedCategories, convey.ShouldResemble, []string{"modern", "wild", "survival"})
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FeedPageSize, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("LEDGER_ADDR", ":8080")
			_ = os.Setenv("LEDGER_QUEUE_SIZE", "42")
			_ = os.Setenv("LEDGER_SCHOLAR_PCT", "35.5")
			_ = os.Setenv("LEDGER_FEED_RPS", "2.5")
			_ = os.Setenv("LEDGER_RANKED_CATEGORIES", "modern, wild")
			_ = os.Setenv("LEDGER_PAYOUT_CURRENCY", "SPS")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 42)
				convey.So(cfg.ScholarPct, convey.ShouldEqual, 35.5)
				convey.So(cfg.FeedRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.RankedCategories, convey.ShouldResemble, []string{"modern", "wild"})
				convey.So(cfg.PayoutCurrency, convey.ShouldEqual, "SPS")
			})
		})

		convey.Convey("When loading with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "ledger.yaml")
			yaml := `
addr: ":7070"
worker_count: 3
price_ceilings:
  chaos: 5
point_schemes:
  - slug: league
    label: League
    mode: fixed
    rules:
      - min: 1
        max: 1
        points: 10
      - min: 2
        points: 1
`
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("LEDGER_CONFIG", path)
			_ = os.Setenv("LEDGER_WORKER_COUNT", "9")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 9)
				convey.So(cfg.PriceCeilings["chaos"], convey.ShouldEqual, 5)
				convey.So(len(cfg.PointSchemes), convey.ShouldEqual, 1)
				convey.So(cfg.PointSchemes[0].Slug, convey.ShouldEqual, "league")
				convey.So(*cfg.PointSchemes[0].Rules[0].Max, convey.ShouldEqual, 1)
				convey.So(cfg.PointSchemes[0].Rules[1].Max, convey.ShouldBeNil)
				convey.So(*cfg.PointSchemes[0].Rules[0].Points, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("LEDGER_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the scholar share is out of range", func() {
			_ = os.Setenv("LEDGER_SCHOLAR_PCT", "120")
			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
