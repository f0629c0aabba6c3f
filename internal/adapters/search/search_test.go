package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/capperchat/internal/adapters/vector"
	"github.com/okian/capperchat/internal/domain/transform"
	"github.com/okian/capperchat/pkg/metrics"
)

type fixedEmbedder struct {
	vec []float32
	dim int
	err error
}

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vec, e.err }
func (e fixedEmbedder) Dimension() int                                   { return e.dim }

type recordingIndex struct {
	last    vector.Query
	matches []vector.Match
	err     error
}

func (r *recordingIndex) Upsert(context.Context, []vector.Vector) error { return nil }
func (r *recordingIndex) DeleteAll(context.Context) error               { return nil }
func (r *recordingIndex) Query(_ context.Context, q vector.Query) ([]vector.Match, error) {
	r.last = q
	return r.matches, r.err
}

func embeddingObservations() uint64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() == "capperchat_embedding_latency_milliseconds" && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestBuildFilter(t *testing.T) {
	Convey("BuildFilter", t, func() {
		Convey("handicapper searches constrain type, sports and win rate", func() {
			f := BuildFilter(KindHandicapper, Options{Sports: []string{"nfl", " nba "}, MinWinRate: 60})
			So(f[transform.MetaType]["$eq"], ShouldEqual, transform.TypeHandicapper)
			So(f[transform.MetaSports]["$in"], ShouldResemble, []string{"NFL", "NBA"})
			So(f[transform.MetaWinPercentage]["$gte"], ShouldEqual, 60.0)
		})

		Convey("zero win rate and no sports add nothing", func() {
			f := BuildFilter(KindHandicapper, Options{})
			So(len(f), ShouldEqual, 1)
		})

		Convey("package searches constrain price and package type", func() {
			limit := 30.0
			f := BuildFilter(KindPackage, Options{MaxPrice: &limit, PackageType: "weekly", Sports: []string{"mlb"}})
			So(f[transform.MetaType]["$eq"], ShouldEqual, transform.TypePackage)
			So(f[transform.MetaPrice]["$lte"], ShouldEqual, 30.0)
			So(f[transform.MetaPackageType]["$eq"], ShouldEqual, "weekly")
			So(f[transform.MetaSports]["$in"], ShouldResemble, []string{"MLB"})
		})

		Convey("a zero max price is still a constraint", func() {
			zero := 0.0
			f := BuildFilter(KindPackage, Options{MaxPrice: &zero})
			So(f[transform.MetaPrice]["$lte"], ShouldEqual, 0.0)
		})

		Convey("win rate is ignored for packages", func() {
			f := BuildFilter(KindPackage, Options{MinWinRate: 70})
			_, ok := f[transform.MetaWinPercentage]
			So(ok, ShouldBeFalse)
		})

		Convey("all has no filter", func() {
			So(BuildFilter(KindAll, Options{Sports: []string{"nfl"}}), ShouldBeNil)
		})
	})
}

func TestParseKind(t *testing.T) {
	Convey("ParseKind accepts singular, plural and empty", t, func() {
		k, err := ParseKind("Handicappers")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, KindHandicapper)
		k, _ = ParseKind("package")
		So(k, ShouldEqual, KindPackage)
		k, _ = ParseKind("")
		So(k, ShouldEqual, KindAll)
		_, err = ParseKind("teams")
		So(errors.Is(err, ErrInvalidKind), ShouldBeTrue)
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a searcher", t, func() {
		ctx := context.Background()
		idx := &recordingIndex{matches: []vector.Match{
			{ID: "cap-002", Score: 0.91, Metadata: map[string]any{"type": "handicapper", "name": "B"}},
			{ID: "cap-001", Score: 0.95, Metadata: map[string]any{"type": "handicapper", "name": "A"}},
		}}
		s := New(fixedEmbedder{vec: []float32{1, 0, 0}, dim: 3}, idx)

		Convey("results keep provider order and carry metadata", func() {
			res, err := s.Search(ctx, KindHandicapper, "best nfl capper", Options{Sports: []string{"nfl"}})
			So(err, ShouldBeNil)
			So(len(res), ShouldEqual, 2)
			So(res[0].ID, ShouldEqual, "cap-002")
			So(res[1].Type(), ShouldEqual, "handicapper")
			So(idx.last.TopK, ShouldEqual, DefaultTopK)
			So(idx.last.IncludeMetadata, ShouldBeTrue)
			So(idx.last.Filter[transform.MetaSports]["$in"], ShouldResemble, []string{"NFL"})
		})

		Convey("topK is passed through", func() {
			_, err := s.Search(ctx, KindAll, "anything", Options{TopK: 3})
			So(err, ShouldBeNil)
			So(idx.last.TopK, ShouldEqual, 3)
			So(idx.last.Filter, ShouldBeNil)
		})

		Convey("embedding latency is left to the embedder", func() {
			before := embeddingObservations()
			_, err := s.Search(ctx, KindAll, "anything", Options{})
			So(err, ShouldBeNil)
			So(embeddingObservations(), ShouldEqual, before)
		})

		Convey("results serialize flat", func() {
			res, _ := s.Search(ctx, KindAll, "q", Options{})
			raw, err := json.Marshal(res[0])
			So(err, ShouldBeNil)
			var flat map[string]any
			So(json.Unmarshal(raw, &flat), ShouldBeNil)
			So(flat["id"], ShouldEqual, "cap-002")
			So(flat["score"], ShouldEqual, 0.91)
			So(flat["name"], ShouldEqual, "B")
		})

		Convey("empty queries and unknown kinds are rejected", func() {
			_, err := s.Search(ctx, KindAll, "  ", Options{})
			So(errors.Is(err, ErrEmptyQuery), ShouldBeTrue)
			_, err = s.Search(ctx, Kind("team"), "q", Options{})
			So(errors.Is(err, ErrInvalidKind), ShouldBeTrue)
		})

		Convey("index errors propagate wrapped", func() {
			boom := errors.New("503 from index")
			idx.err = boom
			_, err := s.Search(ctx, KindAll, "q", Options{})
			So(errors.Is(err, ErrQueryFailed), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Embedding problems stop the search", t, func() {
		idx := &recordingIndex{}
		_, err := New(fixedEmbedder{err: errors.New("quota")}, idx).Search(context.Background(), KindAll, "q", Options{})
		So(errors.Is(err, ErrEmbedFailed), ShouldBeTrue)

		_, err = New(fixedEmbedder{vec: []float32{1, 2}, dim: 3}, idx).Search(context.Background(), KindAll, "q", Options{})
		So(errors.Is(err, ErrBadDimension), ShouldBeTrue)
	})

	Convey("Against the in-memory index filters are honored", t, func() {
		ctx := context.Background()
		mem := vector.NewMemory(2)
		So(mem.Upsert(ctx, []vector.Vector{
			{ID: "cap-1", Values: []float32{1, 0}, Metadata: map[string]any{"type": "handicapper", "sports": []string{"NFL"}, "winPercentage": 64.0}},
			{ID: "cap-2", Values: []float32{1, 0.1}, Metadata: map[string]any{"type": "handicapper", "sports": []string{"NBA"}, "winPercentage": 70.0}},
			{ID: "pkg-1", Values: []float32{1, 0}, Metadata: map[string]any{"type": "package", "sports": []string{"NFL"}, "price": 25.0}},
		}), ShouldBeNil)
		s := New(fixedEmbedder{vec: []float32{1, 0}, dim: 2}, mem)

		res, err := s.Search(ctx, KindHandicapper, "nfl", Options{Sports: []string{"nfl"}})
		So(err, ShouldBeNil)
		So(len(res), ShouldEqual, 1)
		So(res[0].ID, ShouldEqual, "cap-1")

		limit := 20.0
		res, err = s.Search(ctx, KindPackage, "cheap", Options{MaxPrice: &limit})
		So(err, ShouldBeNil)
		So(len(res), ShouldEqual, 0)
	})
}
