package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/capperchat/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

// fakeService answers "pricing" for anything mentioning price and "general"
// otherwise.
func fakeService() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Message == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Sorry"}`))
			return
		}
		resp := chatResponse{Intent: "general", Confidence: "low", Source: "default"}
		if strings.Contains(req.Message, "price") {
			resp = chatResponse{Intent: "pricing", Confidence: "high", Source: "keyword"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := fakeService()
		defer srv.Close()
		cfg := &Config{BaseURL: srv.URL, Rounds: 2, Workers: 3, Timeout: time.Second}

		Convey("Outcomes are tallied by intent and source", func() {
			cases := []Case{
				{Query: "what is the price", Expected: "pricing"},
				{Query: "hello", Expected: "general"},
				{Query: "who is best", Expected: "recommendation"},
				{Query: "fail", Expected: "general"},
			}
			var out bytes.Buffer
			report, err := Run(context.Background(), cfg, cases, &out)
			So(err, ShouldBeNil)
			So(report.Sent, ShouldEqual, 8)
			So(report.Failed, ShouldEqual, 2)
			So(report.Matched, ShouldEqual, 4)
			So(report.ByIntent["pricing"], ShouldEqual, 2)
			So(report.ByIntent["general"], ShouldEqual, 4)
			So(report.BySource["keyword"], ShouldEqual, 2)
			So(len(report.Mismatches), ShouldEqual, 2)
			So(report.Accuracy(), ShouldAlmostEqual, 200.0/3.0, 0.01)
			So(out.String(), ShouldContainSubstring, "mismatches:")
			So(out.String(), ShouldContainSubstring, `"who is best" expected recommendation got general`)
		})

		Convey("Empty case lists are rejected", func() {
			_, err := Run(context.Background(), cfg, nil, io.Discard)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("An unreachable service fails fast", t, func() {
		srv := fakeService()
		url := srv.URL
		srv.Close()
		_, err := Run(context.Background(), &Config{BaseURL: url, Timeout: time.Second}, DefaultCases(), io.Discard)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "not reachable")
	})
}

func TestCases(t *testing.T) {
	Convey("The default cases cover all five intents", t, func() {
		seen := map[string]bool{}
		for _, c := range DefaultCases() {
			seen[c.Expected] = true
		}
		So(len(seen), ShouldEqual, 5)
	})

	Convey("FilterCases keeps one intent", t, func() {
		got := FilterCases(DefaultCases(), " Pricing ")
		So(len(got), ShouldBeGreaterThan, 0)
		for _, c := range got {
			So(c.Expected, ShouldEqual, "pricing")
		}
		So(len(FilterCases(DefaultCases(), "")), ShouldEqual, len(DefaultCases()))
	})
}

func TestSummarize(t *testing.T) {
	Convey("Percentiles come from successful requests", t, func() {
		var outcomes []Outcome
		for i := 1; i <= 100; i++ {
			outcomes = append(outcomes, Outcome{
				Case:    Case{Expected: "general"},
				Intent:  "general",
				Latency: time.Duration(i) * time.Millisecond,
			})
		}
		r := Summarize(outcomes)
		So(r.P50, ShouldEqual, 50*time.Millisecond)
		So(r.P95, ShouldEqual, 95*time.Millisecond)
		So(r.Accuracy(), ShouldEqual, 100.0)
	})
}

func TestPrintReport(t *testing.T) {
	Convey("A report prints its counts and sorted tallies", t, func() {
		r := Report{
			Sent:     4,
			Matched:  3,
			ByIntent: map[string]int{"pricing": 3, "general": 1},
			BySource: map[string]int{"keyword": 4},
			Mismatches: []Outcome{
				{Case: Case{Query: "hi", Expected: "pricing"}, Intent: "general", Source: "keyword"},
			},
		}
		var out bytes.Buffer
		PrintReport(&out, r)

		s := out.String()
		So(s, ShouldContainSubstring, "sent: 4  failed: 0  matched: 3 (75.0%)")
		So(strings.Index(s, "general"), ShouldBeLessThan, strings.Index(s, "pricing"))
		So(s, ShouldContainSubstring, `"hi" expected pricing got general (keyword)`)
	})
}
