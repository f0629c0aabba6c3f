package dispatch

import (
	"testing"

	"github.com/okian/capperchat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func capper(id, name string, win float64, picks int, specialties ...string) model.Handicapper {
	return model.Handicapper{
		ID:           id,
		Name:         name,
		Specialties:  specialties,
		CurrentStats: model.Stats{WinPercentage: win, TotalPicks: picks},
	}
}

func fixture() *model.Dataset {
	return &model.Dataset{
		Handicappers: []model.Handicapper{
			capper("h1", "Tokyo Brandon", 61.5, 1200, "NFL", "NBA"),
			capper("h2", "Gianni", 58, 800, "MLB"),
			capper("h3", "Steve Merril", 64.2, 2400, "NFL", "College Football"),
			capper("h4", "Ice Mike", 55, 300, "NHL"),
		},
		Packages: []model.Package{
			{ID: "p1", Title: "NFL Sunday", Price: 49.99},
			{ID: "p2", Title: "Daily Hoops", Price: 15},
			{ID: "p3", Title: "Puck Line", Price: 25},
			{ID: "p4", Title: "Season Pass", Price: 299},
			{ID: "p5", Title: "Diamond Picks", Price: 20},
			{ID: "p6", Title: "Weekend Special", Price: 30},
			{ID: "p7", Title: "Tip Sheet", Price: 10},
		},
	}
}

func TestRecommendation(t *testing.T) {
	Convey("Given a dataset of handicappers", t, func() {
		ds := fixture()

		Convey("When a sport is mentioned", func() {
			res := Respond(model.IntentRecommendation, ds, "best NFL capper?")
			data := res.Data.(RecommendationData)

			So(res.Reply, ShouldEqual, "I recommend Steve Merril for NFL with a 64.2% win rate and 2400 total picks.")
			So(data.Sport, ShouldEqual, "nfl")
			So(data.Capper.ID, ShouldEqual, "h3")
			So(len(data.Alternatives), ShouldEqual, 1)
			So(data.Alternatives[0].ID, ShouldEqual, "h1")
		})

		Convey("When no sport is mentioned", func() {
			res := Respond(model.IntentRecommendation, ds, "who should I follow")
			data := res.Data.(RecommendationData)

			So(res.Reply, ShouldEqual, "I recommend Steve Merril with a 64.2% win rate and 2400 total picks.")
			So(data.Sport, ShouldBeEmpty)
			So(data.Alternatives[0].ID, ShouldEqual, "h1")
			So(data.Alternatives[1].ID, ShouldEqual, "h2")
		})

		Convey("When nobody covers the sport", func() {
			ds.Handicappers = ds.Handicappers[:2]
			res := Respond(model.IntentRecommendation, ds, "top nhl guy")

			So(res.Reply, ShouldEqual, "Sorry, no cappers found for NHL. Try asking about NFL, NBA, MLB or NHL")
			So(res.Data.(NoMatchData).AvailableSports, ShouldResemble, []string{"nfl", "nba", "mlb", "nhl"})
		})

		Convey("Then the dataset order is untouched", func() {
			Respond(model.IntentRecommendation, ds, "best")
			So(ds.Handicappers[0].ID, ShouldEqual, "h1")
			So(ds.Handicappers[2].ID, ShouldEqual, "h3")
		})
	})
}

func TestPricing(t *testing.T) {
	Convey("Given a dataset of packages", t, func() {
		ds := fixture()

		Convey("When a budget is given", func() {
			res := Respond(model.IntentPricing, ds, "packages under $25")
			data := res.Data.(PricingData)

			So(res.Reply, ShouldEqual, "Packages under $25: Tip Sheet ($10), Daily Hoops ($15), Diamond Picks ($20), Puck Line ($25)")
			So(data.RequestedPrice, ShouldEqual, 25.0)
			So(data.TotalFound, ShouldEqual, 4)
		})

		Convey("When no budget is given", func() {
			res := Respond(model.IntentPricing, ds, "cheap packages")
			data := res.Data.(PricingData)

			So(data.RequestedPrice, ShouldEqual, 50.0)
			So(data.TotalFound, ShouldEqual, 5)
			So(data.Packages[4].ID, ShouldEqual, "p6")
			So(res.Reply, ShouldStartWith, "Packages under $50: Tip Sheet ($10)")
		})

		Convey("When the budget is below every price", func() {
			res := Respond(model.IntentPricing, ds, "anything for 5 dollars")

			So(res.Reply, ShouldEqual, "No packages found under $5. Our cheapest package starts at $10.")
			So(res.Data.(PricingData).RequestedPrice, ShouldEqual, 5.0)
		})

		Convey("When there are no packages at all", func() {
			ds.Packages = nil
			res := Respond(model.IntentPricing, ds, "price?")

			So(res.Reply, ShouldEqual, "No packages found under $50. No packages are available right now.")
			So(res.Data, ShouldNotBeNil)
		})

		Convey("Then package order is untouched", func() {
			Respond(model.IntentPricing, ds, "under 100")
			So(ds.Packages[0].ID, ShouldEqual, "p1")
		})
	})
}

func TestPerformance(t *testing.T) {
	Convey("Given a dataset of handicappers", t, func() {
		ds := fixture()

		res := Respond(model.IntentPerformance, ds, "stats")
		data := res.Data.(PerformanceData)

		So(res.Reply, ShouldEqual, "Top 3 performers:\n1. Steve Merril: 64.2% (2400 picks)\n2. Tokyo Brandon: 61.5% (1200 picks)\n3. Gianni: 58% (800 picks)")
		So(len(data.TopPerformers), ShouldEqual, 3)
		So(data.AverageWinRate, ShouldEqual, 61.2)
		So(ds.Handicappers[0].ID, ShouldEqual, "h1")

		Convey("When win rates tie", func() {
			ds.Handicappers = []model.Handicapper{capper("a", "A", 50, 1), capper("b", "B", 50, 1)}
			data := Respond(model.IntentPerformance, ds, "").Data.(PerformanceData)

			So(data.TopPerformers[0].ID, ShouldEqual, "a")
			So(data.TopPerformers[1].ID, ShouldEqual, "b")
		})
	})
}

func TestComparison(t *testing.T) {
	Convey("Given a dataset of handicappers", t, func() {
		ds := fixture()

		Convey("When two names are mentioned", func() {
			res := Respond(model.IntentComparison, ds, "compare gianni vs tokyo brandon")

			So(res.Reply, ShouldEqual, "Comparison: Tokyo Brandon: 61.5% win rate, 1200 picks | Gianni: 58% win rate, 800 picks")
			So(len(res.Data.(ComparisonData).ComparedCappers), ShouldEqual, 2)
		})

		Convey("When fewer than two names are mentioned", func() {
			res := Respond(model.IntentComparison, ds, "compare Gianni")

			So(res.Reply, ShouldEqual, "Here's a comparison of our top 3: Steve Merril: 64.2% vs Tokyo Brandon: 61.5% vs Gianni: 58%")
			So(len(res.Data.(ComparisonData).ComparedCappers), ShouldEqual, 3)
		})

		Convey("When no names are mentioned", func() {
			res := Respond(model.IntentComparison, ds, "which capper is sharper?")
			compared := res.Data.(ComparisonData).ComparedCappers

			So(res.Reply, ShouldEqual, "Here's a comparison of our top 3: Steve Merril: 64.2% vs Tokyo Brandon: 61.5% vs Gianni: 58%")
			So(len(compared), ShouldEqual, 3)
			So(compared[0].ID, ShouldEqual, "h3")
			So(compared[2].ID, ShouldEqual, "h2")
		})
	})
}

func TestGeneral(t *testing.T) {
	Convey("Given intents without a dedicated handler", t, func() {
		for _, in := range []model.Intent{model.IntentGeneral, model.IntentUnknown, "greeting"} {
			res := Respond(in, fixture(), "hello")
			data := res.Data.(GeneralData)

			So(res.Reply, ShouldNotBeEmpty)
			So(data.Suggestions, ShouldResemble, Suggestions)
			So(data.AvailableIntents, ShouldResemble, []string{"recommendation", "pricing", "performance", "comparison"})
		}

		So(HasHandler(model.IntentPricing), ShouldBeTrue)
		So(HasHandler(model.IntentGeneral), ShouldBeFalse)
	})

	Convey("Given a nil dataset", t, func() {
		for _, in := range []model.Intent{model.IntentRecommendation, model.IntentPricing, model.IntentPerformance, model.IntentComparison} {
			res := Respond(in, nil, "x")
			So(res.Reply, ShouldNotBeEmpty)
			So(res.Data, ShouldNotBeNil)
		}
	})
}
