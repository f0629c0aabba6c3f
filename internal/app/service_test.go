package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/capperchat/internal/adapters/repository"
	"github.com/okian/capperchat/internal/adapters/search"
	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/internal/domain/dispatch"
	"github.com/okian/capperchat/internal/domain/model"
)

func testDataset() *model.Dataset {
	return &model.Dataset{
		Handicappers: []model.Handicapper{
			{ID: "cap-001", Name: "Mike Johnson", Specialties: []string{"NFL", "NCAAF"},
				CurrentStats: model.Stats{WinPercentage: 64.2, TotalPicks: 350}},
			{ID: "cap-002", Name: "Sarah Chen", Specialties: []string{"NBA"},
				CurrentStats: model.Stats{WinPercentage: 68.5, TotalPicks: 280}},
		},
		Packages: []model.Package{
			{ID: "pkg-001", CapperID: "cap-001", Title: "NFL Weekly", Sport: "NFL", Price: 29.99},
			{ID: "pkg-002", CapperID: "cap-002", Title: "NBA Monthly", Sport: "NBA", Price: 79},
		},
		IntentExamples: map[string][]string{"refund": {"money back"}},
	}
}

type fakeClassifier struct {
	result model.IntentResult
	calls  int
	last   []model.ConversationTurn
}

func (f *fakeClassifier) Classify(_ context.Context, message string, history []model.ConversationTurn) model.IntentResult {
	f.calls++
	f.last = history
	r := f.result
	r.Query = message
	return r
}

type fakeSearcher struct {
	kind    search.Kind
	opts    search.Options
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, kind search.Kind, _ string, opts search.Options) ([]search.Result, error) {
	f.kind, f.opts = kind, opts
	return f.results, f.err
}

func fixedClock() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithClock(fixedClock),
		service.WithRequestIDs(func() string { return "req-1" }),
	}
	return service.New(repository.NewMemoryStore(testDataset()), append(base, opts...)...)
}

func TestChat(t *testing.T) {
	Convey("Given a service without a classifier", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("A keyword hit is answered with high confidence", func() {
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "  Who is the best NBA capper?  "})
			So(err, ShouldBeNil)
			So(resp.Intent, ShouldEqual, model.IntentRecommendation)
			So(resp.Confidence, ShouldEqual, model.ConfidenceHigh)
			So(resp.Source, ShouldEqual, service.SourceKeyword)
			So(resp.Reply, ShouldStartWith, "I recommend Sarah Chen for NBA")
			So(resp.RequestID, ShouldEqual, "req-1")
			So(resp.Timestamp, ShouldEqual, fixedClock())
			So(resp.Classification, ShouldBeNil)
		})

		Convey("A miss falls back to the help reply", func() {
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "hello there"})
			So(err, ShouldBeNil)
			So(resp.Intent, ShouldEqual, model.IntentGeneral)
			So(resp.Confidence, ShouldEqual, model.ConfidenceLow)
			So(resp.Source, ShouldEqual, service.SourceDefault)
			_, ok := resp.Data.(dispatch.GeneralData)
			So(ok, ShouldBeTrue)
		})

		Convey("Dataset keywords resolve to their intent", func() {
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "can I get my money back"})
			So(err, ShouldBeNil)
			So(resp.Intent, ShouldEqual, model.Intent("refund"))
			So(resp.Confidence, ShouldEqual, model.ConfidenceLow)
			So(resp.Source, ShouldEqual, service.SourceKeyword)
		})

		Convey("Blank messages are rejected", func() {
			_, err := svc.Chat(ctx, service.ChatRequest{Message: " \t\n"})
			So(errors.Is(err, service.ErrEmptyMessage), ShouldBeTrue)
		})
	})

	Convey("Given a service with a classifier", t, func() {
		ctx := context.Background()
		clf := &fakeClassifier{result: model.IntentResult{
			Intent: model.IntentPerformance, Confidence: model.ConfidenceMedium, Validated: true, Attempt: 1,
		}}
		svc := newService(service.WithClassifier(clf))

		Convey("Keyword hits skip the classifier", func() {
			_, err := svc.Chat(ctx, service.ChatRequest{Message: "compare them"})
			So(err, ShouldBeNil)
			So(clf.calls, ShouldEqual, 0)
		})

		Convey("Misses go to the classifier with history", func() {
			history := []model.ConversationTurn{{Role: model.RoleUser, Content: "hi"}}
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "who has been hot lately", History: history})
			So(err, ShouldBeNil)
			So(clf.calls, ShouldEqual, 1)
			So(clf.last, ShouldResemble, history)
			So(resp.Intent, ShouldEqual, model.IntentPerformance)
			So(resp.Confidence, ShouldEqual, model.ConfidenceMedium)
			So(resp.Source, ShouldEqual, service.SourceModel)
			So(resp.Classification, ShouldNotBeNil)
			So(resp.Reply, ShouldStartWith, "Top 3 performers:")
		})

		Convey("Degraded classifications are reported as fallback", func() {
			clf.result = model.IntentResult{Intent: model.IntentGeneral, Confidence: model.ConfidenceLow, Attempt: 10}
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "who has been hot lately"})
			So(err, ShouldBeNil)
			So(resp.Source, ShouldEqual, service.SourceFallback)
			So(resp.Intent, ShouldEqual, model.IntentGeneral)
		})

		Convey("Stats count requests by source", func() {
			_, _ = svc.Chat(ctx, service.ChatRequest{Message: "best capper"})
			_, _ = svc.Chat(ctx, service.ChatRequest{Message: "who has been hot lately"})
			stats := svc.GetStats(ctx)
			So(stats["chatRequests"], ShouldEqual, int64(2))
			So(stats["classifierEnabled"], ShouldEqual, true)
			bySource := stats["bySource"].(map[string]int64)
			So(bySource[service.SourceKeyword], ShouldEqual, int64(1))
			So(bySource[service.SourceModel], ShouldEqual, int64(1))
		})
	})

	Convey("Long messages are truncated before matching", t, func() {
		clf := &fakeClassifier{result: model.IntentResult{Intent: model.IntentGeneral, Confidence: model.ConfidenceLow, Validated: true}}
		svc := newService(service.WithClassifier(clf), service.WithMaxMessageLength(10))
		// The only keyword sits past the limit.
		resp, err := svc.Chat(context.Background(), service.ChatRequest{Message: strings.Repeat("x", 20) + " best"})
		So(err, ShouldBeNil)
		So(resp.Source, ShouldEqual, service.SourceModel)
		So(clf.calls, ShouldEqual, 1)
	})

	Convey("An empty dataset makes chat unavailable", t, func() {
		svc := service.New(repository.NewMemoryStore(&model.Dataset{}))
		_, err := svc.Chat(context.Background(), service.ChatRequest{Message: "best capper"})
		So(errors.Is(err, service.ErrDatasetUnavailable), ShouldBeTrue)
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("Lists come back in dataset order", func() {
			So(len(svc.Handicappers(ctx)), ShouldEqual, 2)
			So(svc.Packages(ctx)[1].ID, ShouldEqual, "pkg-002")
		})

		Convey("Lookups return ErrNotFound for unknown ids", func() {
			h, err := svc.Handicapper(ctx, "cap-002")
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "Sarah Chen")

			_, err = svc.Handicapper(ctx, "cap-999")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			_, err = svc.Package(ctx, "pkg-999")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			_, err = svc.PackagesByCapper(ctx, "cap-999")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("Packages by capper are filtered", func() {
			pkgs, err := svc.PackagesByCapper(ctx, "cap-001")
			So(err, ShouldBeNil)
			So(len(pkgs), ShouldEqual, 1)
			So(pkgs[0].ID, ShouldEqual, "pkg-001")
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()

		Convey("Without a searcher search is unavailable", func() {
			svc := newService()
			So(svc.SearchEnabled(), ShouldBeFalse)
			_, err := svc.Search(ctx, service.SearchRequest{Kind: "all", Query: "q"})
			So(errors.Is(err, service.ErrSearchUnavailable), ShouldBeTrue)
		})

		Convey("With a searcher", func() {
			fs := &fakeSearcher{results: []search.Result{{ID: "cap-001", Score: 0.9}}}
			svc := newService(service.WithSearcher(fs))

			Convey("requests are validated", func() {
				_, err := svc.Search(ctx, service.SearchRequest{Kind: "teams", Query: "q"})
				So(errors.Is(err, service.ErrInvalidKind), ShouldBeTrue)
				_, err = svc.Search(ctx, service.SearchRequest{Kind: "all", Query: " "})
				So(errors.Is(err, service.ErrEmptyQuery), ShouldBeTrue)
			})

			Convey("options are passed through", func() {
				limit := 40.0
				res, err := svc.Search(ctx, service.SearchRequest{
					Kind: "packages", Query: "cheap nfl", Sports: []string{"nfl"}, MaxPrice: &limit, TopK: 5,
				})
				So(err, ShouldBeNil)
				So(len(res), ShouldEqual, 1)
				So(fs.kind, ShouldEqual, search.KindPackage)
				So(*fs.opts.MaxPrice, ShouldEqual, 40.0)
				So(fs.opts.TopK, ShouldEqual, 5)
			})

			Convey("searcher errors propagate", func() {
				boom := errors.New("index down")
				fs.err = boom
				_, err := svc.Search(ctx, service.SearchRequest{Kind: "all", Query: "q"})
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}
