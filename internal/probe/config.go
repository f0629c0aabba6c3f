// Package probe fires canned chat queries at a running service and reports
// how they were classified.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // Times each query is sent
	Workers int           // Concurrent requests
	Timeout time.Duration // Per-request timeout
	Filter  string        // Only run groups whose expected intent matches
	Verbose bool          // Log every response
}

// Case is a query and the intent it should resolve to.
type Case struct {
	Query    string `json:"query"`
	Expected string `json:"expected"`
}

// chatRequest mirrors POST /chat.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the part of the reply the probe inspects.
type chatResponse struct {
	Reply      string `json:"reply"`
	Intent     string `json:"intent"`
	Confidence string `json:"confidence"`
	Source     string `json:"source"`
	RequestID  string `json:"requestId"`
}

// Outcome is the result of one request.
type Outcome struct {
	Case       Case
	Intent     string
	Confidence string
	Source     string
	Status     int
	Latency    time.Duration
	Err        error
}

// Matched reports whether the service returned the expected intent.
func (o Outcome) Matched() bool {
	return o.Err == nil && o.Intent == o.Case.Expected
}

// Report aggregates a run.
type Report struct {
	Sent       int
	Failed     int
	Matched    int
	ByIntent   map[string]int
	BySource   map[string]int
	Mismatches []Outcome
	P50        time.Duration
	P95        time.Duration
	Duration   time.Duration
}

// Accuracy is the share of successful requests that matched.
func (r Report) Accuracy() float64 {
	ok := r.Sent - r.Failed
	if ok <= 0 {
		return 0
	}
	return float64(r.Matched) / float64(ok) * percentageMultiplier
}
