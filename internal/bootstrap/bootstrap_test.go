package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/capperchat/internal/adapters/vector"
	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/internal/config"
)

// fakeOpenAI answers every embeddings call with the same 4-dim vector.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /embeddings", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3, 0.4}}},
		})
	})
	return httptest.NewServer(mux)
}

func baseConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.DataPath = filepath.Join("..", "..", "data", "sample-data.json")
	return cfg
}

func TestBuild(t *testing.T) {
	Convey("With no providers configured", t, func() {
		ctx := context.Background()
		cfg := baseConfig()
		c, err := Build(ctx, cfg, nil)
		So(err, ShouldBeNil)
		So(c.Provider, ShouldBeNil)
		So(c.Index, ShouldBeNil)

		Convey("the service runs keyword-only without search", func() {
			svc := c.Service(cfg, LoadDataset(ctx, cfg, nil), nil)
			So(svc.SearchEnabled(), ShouldBeFalse)
			resp, err := svc.Chat(ctx, service.ChatRequest{Message: "xyzzy"})
			So(err, ShouldBeNil)
			So(resp.Source, ShouldEqual, service.SourceDefault)
		})

		Convey("there is no memory index to seed", func() {
			seeded, err := c.SeedMemoryIndex(ctx, cfg, LoadDataset(ctx, cfg, nil), nil)
			So(err, ShouldBeNil)
			So(seeded, ShouldBeFalse)
		})

		Convey("ingestion is unavailable", func() {
			_, err := c.Ingester(cfg, nil)
			So(errors.Is(err, service.ErrIngestUnavailable), ShouldBeTrue)
		})

		So(c.Close(), ShouldBeNil)
	})

	Convey("With openai and the memory index", t, func() {
		ctx := context.Background()
		srv := fakeOpenAI(t)
		defer srv.Close()

		cfg := baseConfig()
		cfg.LLMProvider = config.ProviderOpenAI
		cfg.LLMAPIKey = "sk-test"
		cfg.LLMBaseURL = srv.URL
		cfg.VectorProvider = config.ProviderMemory
		cfg.EmbeddingDimension = 4
		cfg.IngestWorkerCount = 2
		So(cfg.Validate(), ShouldBeNil)

		c, err := Build(ctx, cfg, nil)
		So(err, ShouldBeNil)
		So(c.Provider, ShouldNotBeNil)
		So(c.Cache, ShouldNotBeNil)
		_, isMemory := c.Index.(*vector.Memory)
		So(isMemory, ShouldBeTrue)

		Convey("the server seeds the memory index before searching", func() {
			ds := LoadDataset(ctx, cfg, nil)
			svc := c.Service(cfg, ds, nil)

			before, err := svc.Search(ctx, service.SearchRequest{Kind: "handicapper", Query: "nfl"})
			So(err, ShouldBeNil)
			So(before, ShouldBeEmpty)

			seeded, err := c.SeedMemoryIndex(ctx, cfg, ds, nil)
			So(err, ShouldBeNil)
			So(seeded, ShouldBeTrue)
			So(c.Index.(*vector.Memory).Count(), ShouldBeGreaterThan, 0)

			after, err := svc.Search(ctx, service.SearchRequest{Kind: "handicapper", Query: "nfl"})
			So(err, ShouldBeNil)
			So(after, ShouldNotBeEmpty)
		})

		Convey("the sample dataset ingests and is searchable", func() {
			ds := LoadDataset(ctx, cfg, nil)
			in, err := c.Ingester(cfg, nil)
			So(err, ShouldBeNil)
			report, err := in.Run(ctx, ds, true)
			So(err, ShouldBeNil)
			So(report.Upserted, ShouldBeGreaterThan, 0)
			So(report.Upserted, ShouldEqual, report.Embedded)

			svc := c.Service(cfg, ds, nil)
			So(svc.SearchEnabled(), ShouldBeTrue)
			results, err := svc.Search(ctx, service.SearchRequest{Kind: "package", Query: "cheap nfl picks", TopK: 3})
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 3)
			for _, r := range results {
				So(r.Type(), ShouldEqual, "package")
			}
		})
	})

	Convey("A model backend without a key fails to build", t, func() {
		cfg := baseConfig()
		cfg.LLMProvider = config.ProviderOpenAI
		cfg.LLMAPIKey = ""
		_, err := Build(context.Background(), cfg, nil)
		So(err, ShouldNotBeNil)
	})
}

func TestLoadDataset(t *testing.T) {
	Convey("A missing dataset loads as empty", t, func() {
		cfg := baseConfig()
		cfg.DataPath = filepath.Join(t.TempDir(), "missing.json")
		So(LoadDataset(context.Background(), cfg, nil).Empty(), ShouldBeTrue)
	})

	Convey("An empty dataset loads as empty", t, func() {
		path := filepath.Join(t.TempDir(), "empty.json")
		So(os.WriteFile(path, []byte(`{"handicappers":[],"packages":[]}`), 0o600), ShouldBeNil)
		cfg := baseConfig()
		cfg.DataPath = path
		So(LoadDataset(context.Background(), cfg, nil).Empty(), ShouldBeTrue)
	})

	Convey("The sample dataset loads", t, func() {
		ds := LoadDataset(context.Background(), baseConfig(), nil)
		So(len(ds.Handicappers), ShouldBeGreaterThan, 0)
	})
}
