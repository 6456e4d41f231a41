package scoring_test

import (
	"testing"
	"time"

	"github.com/lorkus/scholarledger/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	balanced := scoring.NewRegistry().Resolve("balanced")
	events := []scoring.Event{{TournamentID: "e1"}, {TournamentID: "e2"}}

	Convey("Given two events under the balanced scheme", t, func() {
		rows := []scoring.ResultRow{
			{TournamentID: "e1", Player: "alice", Finish: finish(1)},
			{TournamentID: "e2", Player: " alice ", Finish: finish(5)},
			{TournamentID: "e1", Player: "bob", Finish: finish(2)},
			{TournamentID: "e2", Player: "bob", Finish: nil},
			{TournamentID: "e1", Player: "  "},
			{TournamentID: "other", Player: "carol", Finish: finish(1)},
		}
		totals := scoring.Score(events, rows, balanced)

		Convey("Then alice accumulates both events", func() {
			So(len(totals), ShouldEqual, 2)
			alice := totals[0]
			So(alice.Player, ShouldEqual, "alice")
			So(alice.Points, ShouldEqual, 33)
			So(alice.Events, ShouldEqual, 2)
			So(alice.Podiums, ShouldEqual, 1)
			So(*alice.BestFinish, ShouldEqual, 1)
			So(*alice.AvgFinish, ShouldEqual, 3)
		})

		Convey("Then a non-placing row counts as an event without a finish", func() {
			bob := totals[1]
			So(bob.Points, ShouldEqual, 18)
			So(bob.Events, ShouldEqual, 2)
			So(bob.Finishes, ShouldResemble, []float64{2})
		})
	})

	Convey("Given players tied on points", t, func() {
		rows := []scoring.ResultRow{
			{TournamentID: "e1", Player: "zed", Finish: finish(3)},
			{TournamentID: "e1", Player: "amy", Finish: finish(4)},
		}
		totals := scoring.Score(events, rows, balanced)

		Convey("Then the player name breaks the tie", func() {
			So(totals[0].Player, ShouldEqual, "amy")
			So(totals[1].Player, ShouldEqual, "zed")
		})
	})

	Convey("Given a player with no finishes", t, func() {
		totals := scoring.Score(nil, []scoring.ResultRow{{TournamentID: "x", Player: "dnp"}}, balanced)

		Convey("Then average and best finish stay null", func() {
			So(totals[0].AvgFinish, ShouldBeNil)
			So(totals[0].BestFinish, ShouldBeNil)
			So(totals[0].Events, ShouldEqual, 1)
		})
	})

	Convey("Given rows with uncovered finishes", t, func() {
		one := 1
		pts := 5.0
		s := scoring.Scheme{Slug: "top1", Rules: []scoring.Rule{{Min: 1, Max: &one, Points: &pts}}}
		gaps := scoring.Gaps([]scoring.ResultRow{{Player: "a", Finish: finish(1)}, {Player: "b", Finish: finish(2)}}, s)

		Convey("Then the gaps are reported", func() {
			So(len(gaps), ShouldEqual, 1)
			So(gaps[0].Player, ShouldEqual, "b")
		})
	})
}

func TestApplyCutoff(t *testing.T) {
	rows := []scoring.PlayerSeriesTotals{
		{Player: "a", Points: 40},
		{Player: "b", Points: 33},
		{Player: "c", Points: 20},
		{Player: "d", Points: 10},
	}

	Convey("Given ranked totals and a cutoff of 25", t, func() {
		lb := scoring.ApplyCutoff(rows, 25)

		Convey("Then the first two qualify", func() {
			So(lb.Qualified, ShouldEqual, 2)
		})

		Convey("Then the marker sits right after the 33 point row", func() {
			lines := lb.Lines()
			So(len(lines), ShouldEqual, 5)
			So(lines[1].Row.Points, ShouldEqual, 33)
			So(lines[2].Marker, ShouldEqual, "Cutoff at 25 pts")
			So(lines[3].Row.Player, ShouldEqual, "c")
			So(lines[3].Rank, ShouldEqual, 3)
			So(lines[3].Qualified, ShouldBeFalse)
		})
	})

	Convey("Given a cutoff nobody reaches", t, func() {
		lb := scoring.ApplyCutoff(rows, 100)
		So(lb.Qualified, ShouldEqual, 0)
		So(len(lb.Lines()), ShouldEqual, 4)
	})

	Convey("Given a disabled cutoff", t, func() {
		lb := scoring.ApplyCutoff(rows, 0)
		So(lb.Qualified, ShouldEqual, 0)
		So(len(lb.Lines()), ShouldEqual, 4)
	})
}

func TestSelectEvents(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC)
		return &v
	}
	events := []scoring.Event{
		{TournamentID: "t1", Name: "Wild Weekly #1", StartDate: day(1)},
		{TournamentID: "t2", Name: "Wild Weekly #2", StartDate: day(8)},
		{TournamentID: "t3", Name: "Modern Cup", StartDate: day(10)},
		{TournamentID: "t4", Name: "Wild Weekly #3", StartDate: day(15)},
		{TournamentID: "t5", Name: "Wild Weekly #4"},
	}

	Convey("Given a name filter", t, func() {
		got := scoring.SelectEvents(scoring.SeriesConfig{NameFilter: "wild weekly"}, events)

		Convey("Then matching events come back newest first", func() {
			ids := eventIDs(got)
			So(ids, ShouldResemble, []string{"t4", "t2", "t1", "t5"})
		})
	})

	Convey("Given a name filter whose letters appear in order but not together", t, func() {
		mixed := []scoring.Event{
			{TournamentID: "t1", Name: "Wild Weekly Cup"},
			{TournamentID: "t2", Name: "Modern Open"},
		}

		Convey("Then no event is selected", func() {
			So(scoring.SelectEvents(scoring.SeriesConfig{NameFilter: "wild cup"}, mixed), ShouldBeEmpty)
			So(scoring.SelectEvents(scoring.SeriesConfig{NameFilter: "mon"}, mixed), ShouldBeEmpty)
		})

		Convey("Then a contiguous part of the name still matches, ignoring case", func() {
			So(eventIDs(scoring.SelectEvents(scoring.SeriesConfig{NameFilter: "WEEKLY cup"}, mixed)), ShouldResemble, []string{"t1"})
		})
	})

	Convey("Given a name filter on events without names", t, func() {
		unnamed := []scoring.Event{{TournamentID: "abc-123"}, {TournamentID: "xyz-9"}}

		Convey("Then the tournament id is matched instead", func() {
			So(eventIDs(scoring.SelectEvents(scoring.SeriesConfig{NameFilter: "C-12"}, unnamed)), ShouldResemble, []string{"abc-123"})
		})
	})

	Convey("Given a date window and exclusions", t, func() {
		got := scoring.SelectEvents(scoring.SeriesConfig{
			IncludeAfter:  day(5),
			IncludeBefore: day(12),
			ExcludeIDs:    []string{"t3"},
		}, events)

		Convey("Then only the dated events inside the window remain, plus undated ones", func() {
			So(eventIDs(got), ShouldResemble, []string{"t2", "t5"})
		})
	})

	Convey("Given explicit ids and a limit", t, func() {
		got := scoring.SelectEvents(scoring.SeriesConfig{IncludeIDs: []string{"t1", "t2", "t4"}, Limit: 2}, events)

		Convey("Then the newest allowed events are kept", func() {
			So(eventIDs(got), ShouldResemble, []string{"t4", "t2"})
		})
	})
}

func TestSuggestNames(t *testing.T) {
	events := []scoring.Event{
		{TournamentID: "t1", Name: "Wild Weekly Cup"},
		{TournamentID: "t2", Name: "Wild Weekly Cup"},
		{TournamentID: "t3", Name: "Modern Open"},
		{TournamentID: "t4", Name: "Wild Cup"},
	}

	Convey("Given a filter that loosely matches some names", t, func() {
		got := scoring.SuggestNames("wild cup", events, 5)

		Convey("Then matches come back closest first without duplicates", func() {
			So(got, ShouldResemble, []string{"Wild Cup", "Wild Weekly Cup"})
		})
	})

	Convey("Given a limit of one", t, func() {
		So(scoring.SuggestNames("wild cup", events, 1), ShouldResemble, []string{"Wild Cup"})
	})

	Convey("Given an empty filter", t, func() {
		So(scoring.SuggestNames(" ", events, 5), ShouldBeNil)
	})
}

func eventIDs(events []scoring.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.TournamentID)
	}
	return ids
}
