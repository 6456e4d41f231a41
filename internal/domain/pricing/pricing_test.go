package pricing_test

import (
	"encoding/json"
	"testing"

	"github.com/lorkus/scholarledger/internal/domain/pricing"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractQuote(t *testing.T) {
	Convey("Given raw price payloads", t, func() {
		Convey("When the value is a bare number", func() {
			p, ok := pricing.ExtractQuote(0.02)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 0.02)
		})

		Convey("When the value is a numeric string", func() {
			p, ok := pricing.ExtractQuote(" 0.5 ")
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 0.5)
		})

		Convey("When the value is a json.Number", func() {
			p, ok := pricing.ExtractQuote(json.Number("1.25"))
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 1.25)
		})

		Convey("When an object carries several candidate fields", func() {
			p, ok := pricing.ExtractQuote(map[string]any{"close": 3.0, "price": 2.0, "usd": 1.0})

			Convey("Then usd wins over price and close", func() {
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 1.0)
			})
		})

		Convey("When the first candidate is not numeric", func() {
			p, ok := pricing.ExtractQuote(map[string]any{"usd": "n/a", "last": 0.7})

			Convey("Then the next numeric candidate is used", func() {
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 0.7)
			})
		})

		Convey("When an object has no candidate fields", func() {
			p, ok := pricing.ExtractQuote(map[string]any{"zeta": 9.0, "alpha": 4.0, "name": "x"})

			Convey("Then the first numeric field in key order is used", func() {
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 4.0)
			})
		})

		Convey("When the first numeric hit is zero", func() {
			_, ok := pricing.ExtractQuote(map[string]any{"usd": 0, "price": 5.0})

			Convey("Then the quote is absent", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the value is negative, boolean or missing", func() {
			_, okNeg := pricing.ExtractQuote(-1.0)
			_, okBool := pricing.ExtractQuote(true)
			_, okNil := pricing.ExtractQuote(nil)
			So(okNeg, ShouldBeFalse)
			So(okBool, ShouldBeFalse)
			So(okNil, ShouldBeFalse)
		})
	})
}

func TestSanitizer(t *testing.T) {
	Convey("Given the default sanitizer", t, func() {
		s := pricing.NewSanitizer()

		Convey("Then a price at the ceiling is kept", func() {
			p, ok := s.Sanitize("DEC", 0.01)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 0.01)
		})

		Convey("Then a price above the ceiling is discarded, not clamped", func() {
			_, ok := s.Sanitize("dec", 0.5)
			So(ok, ShouldBeFalse)
		})

		Convey("Then tokens without a ceiling pass through", func() {
			p, ok := s.Sanitize("chaos", 123.0)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 123.0)
		})
	})

	Convey("Given configured ceilings", t, func() {
		s := pricing.NewSanitizer(pricing.WithCeilings(map[string]float64{"CHAOS": 5, "hive": 0}))

		Convey("Then new ceilings apply and removed ones no longer do", func() {
			_, okChaos := s.Sanitize("chaos", 6)
			_, okHive := s.Sanitize("hive", 50)
			So(okChaos, ShouldBeFalse)
			So(okHive, ShouldBeTrue)
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a raw price payload", t, func() {
		raw := map[string]any{
			"SPS":     map[string]any{"usd": 0.012},
			"dec":     0.9,
			"voucher": "0.08",
			"broken":  map[string]any{"note": "none"},
		}
		q := pricing.NewSnapshot(raw, nil)

		Convey("Then only sane quotes survive", func() {
			So(len(q), ShouldEqual, 2)
			So(q["sps"], ShouldEqual, 0.012)
			So(q["voucher"], ShouldEqual, 0.08)
		})

		Convey("Then lookups are case-insensitive", func() {
			p, ok := q.Get("SPS")
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 0.012)
			_, ok = q.Get("DEC")
			So(ok, ShouldBeFalse)
			So(q.Or("dec"), ShouldEqual, 0)
		})
	})
}
