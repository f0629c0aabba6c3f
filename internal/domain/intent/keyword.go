// Package intent resolves a user message to an intent, first through a fixed
// keyword table and then, when configured, through a generative model.
package intent

import (
	"sort"
	"strings"

	"github.com/okian/capperchat/internal/domain/model"
)

type keywordEntry struct {
	intent   model.Intent
	keywords []string
}

// defaultKeywords is scanned in order; the first hit wins, so "best $20
// package" resolves to recommendation.
var defaultKeywords = []keywordEntry{ //nolint:gochecknoglobals // fixed table
	{model.IntentRecommendation, []string{"recommend", "best", "top", "good", "suggest", "who should", "which capper"}},
	{model.IntentPricing, []string{"price", "cost", "cheap", "budget", "how much", "$", "under", "packages"}},
	{model.IntentPerformance, []string{"win rate", "performance", "stats", "record", "wins", "track record"}},
	{model.IntentComparison, []string{"compare", "vs", "versus", "better", "difference", "which is better"}},
}

// DefaultKeywords returns a copy of the built-in table keyed by intent.
func DefaultKeywords() map[model.Intent][]string {
	out := make(map[model.Intent][]string, len(defaultKeywords))
	for _, e := range defaultKeywords {
		out[e.intent] = append([]string(nil), e.keywords...)
	}
	return out
}

// Resolve returns the first intent whose keyword occurs in message, or
// model.IntentUnknown. Custom keywords extend the defaults: for a built-in
// intent they are tried after its own keywords, and new intents are tried
// after all built-ins in name order.
func Resolve(message string, custom map[string][]string) model.Intent {
	cleaned := strings.ToLower(strings.TrimSpace(message))
	if cleaned == "" {
		return model.IntentUnknown
	}

	for _, e := range mergeKeywords(custom) {
		for _, kw := range e.keywords {
			if strings.Contains(cleaned, kw) {
				return e.intent
			}
		}
	}
	return model.IntentUnknown
}

func mergeKeywords(custom map[string][]string) []keywordEntry {
	table := make([]keywordEntry, 0, len(defaultKeywords)+len(custom))
	index := make(map[model.Intent]int, len(defaultKeywords))
	for i, e := range defaultKeywords {
		table = append(table, keywordEntry{intent: e.intent, keywords: lowerAll(e.keywords)})
		index[e.intent] = i
	}
	if len(custom) == 0 {
		return table
	}

	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		extra := lowerAll(custom[name])
		if len(extra) == 0 {
			continue
		}
		key := model.Intent(name)
		if i, ok := index[key]; ok {
			table[i].keywords = append(table[i].keywords, extra...)
			continue
		}
		index[key] = len(table)
		table = append(table, keywordEntry{intent: key, keywords: extra})
	}
	return table
}

// lowerAll lowercases keywords and drops blank ones, which would otherwise
// match every message.
func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, strings.ToLower(kw))
	}
	return out
}
