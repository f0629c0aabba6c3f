package probe

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/capperchat/pkg/logger"
)

// Run sends every case Rounds times and aggregates the outcomes. The report
// is also written to out.
func Run(ctx context.Context, cfg *Config, cases []Case, out io.Writer) (Report, error) {
	log := logger.Get().Named("probe")
	if len(cases) == 0 {
		return Report{}, fmt.Errorf("no cases to run")
	}
	rounds := cfg.Rounds
	if rounds < 1 {
		rounds = DefaultRounds
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Ping(ctx); err != nil {
		return Report{}, fmt.Errorf("service not reachable at %s: %w", cfg.BaseURL, err)
	}
	log.Info(ctx, "probe starting",
		logger.String("url", cfg.BaseURL),
		logger.Int("cases", len(cases)),
		logger.Int("rounds", rounds),
		logger.Int("workers", workers))

	start := time.Now()
	jobs := make(chan Case, workers)
	results := make(chan Outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- send(ctx, client, c)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for r := 0; r < rounds; r++ {
			for _, c := range cases {
				select {
				case <-ctx.Done():
					return
				case jobs <- c:
				}
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []Outcome
	for o := range results {
		if cfg.Verbose {
			log.Info(ctx, "response",
				logger.String("query", o.Case.Query),
				logger.String("intent", o.Intent),
				logger.String("source", o.Source),
				logger.Duration("latency", o.Latency),
				logger.Bool("matched", o.Matched()))
		}
		outcomes = append(outcomes, o)
	}

	report := Summarize(outcomes)
	report.Duration = time.Since(start)
	PrintReport(out, report)
	return report, ctx.Err()
}

func send(ctx context.Context, client *Client, c Case) Outcome {
	start := time.Now()
	resp, status, err := client.Chat(ctx, c.Query)
	return Outcome{
		Case:       c,
		Intent:     resp.Intent,
		Confidence: resp.Confidence,
		Source:     resp.Source,
		Status:     status,
		Latency:    time.Since(start),
		Err:        err,
	}
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Report {
	r := Report{ByIntent: map[string]int{}, BySource: map[string]int{}}
	latencies := make([]time.Duration, 0, len(outcomes))
	for _, o := range outcomes {
		r.Sent++
		if o.Err != nil {
			r.Failed++
			continue
		}
		latencies = append(latencies, o.Latency)
		r.ByIntent[o.Intent]++
		r.BySource[o.Source]++
		if o.Matched() {
			r.Matched++
		} else {
			r.Mismatches = append(r.Mismatches, o)
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	r.P50 = percentile(latencies, 50)
	r.P95 = percentile(latencies, 95)
	return r
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	return sorted[idx-1]
}

// PrintReport writes a human-readable report.
func PrintReport(w io.Writer, r Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "Probe finished in %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  sent: %d  failed: %d  matched: %d (%.1f%%)\n", r.Sent, r.Failed, r.Matched, r.Accuracy())
	fmt.Fprintf(&b, "  latency p50: %s  p95: %s\n", r.P50.Round(time.Millisecond), r.P95.Round(time.Millisecond))

	b.WriteString("  intents:\n")
	for _, k := range sortedKeys(r.ByIntent) {
		fmt.Fprintf(&b, "    %-16s %d\n", k, r.ByIntent[k])
	}
	b.WriteString("  sources:\n")
	for _, k := range sortedKeys(r.BySource) {
		fmt.Fprintf(&b, "    %-16s %d\n", k, r.BySource[k])
	}
	if len(r.Mismatches) > 0 {
		b.WriteString("  mismatches:\n")
		for i, m := range r.Mismatches {
			if i == maxMismatchesShown {
				fmt.Fprintf(&b, "    ... %d more\n", len(r.Mismatches)-i)
				break
			}
			fmt.Fprintf(&b, "    %q expected %s got %s (%s)\n", m.Case.Query, m.Case.Expected, m.Intent, m.Source)
		}
	}
	_, _ = io.WriteString(w, b.String())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
