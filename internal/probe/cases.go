package probe

import "strings"

// DefaultCases covers every intent, mixing keyword hits with phrasings that
// need the model classifier.
func DefaultCases() []Case {
	groups := []struct {
		expected string
		queries  []string
	}{
		{"recommendation", []string{
			"Who's the best NFL handicapper?",
			"Recommend a good capper for basketball",
			"I need help finding a baseball expert",
			"Who should I follow for NHL picks?",
			"Looking for someone good at college football",
		}},
		{"pricing", []string{
			"How much does it cost?",
			"Show me cheap packages",
			"What packages are under $30?",
			"I have a budget of $50",
			"Do you have any deals?",
		}},
		{"performance", []string{
			"What are the win rates?",
			"Show me performance stats",
			"Who has the hottest streak right now?",
			"How did the cappers do last week?",
		}},
		{"comparison", []string{
			"Compare Mike Johnson vs Sarah Chen",
			"Difference between these two cappers",
			"Mike or Sarah for football?",
			"Which handicapper performs better in playoffs?",
		}},
		{"general", []string{
			"Hello",
			"How does this work?",
			"What is a handicapper?",
			"How do I sign up?",
			"Thanks for the info",
		}},
	}

	var out []Case
	for _, g := range groups {
		for _, q := range g.queries {
			out = append(out, Case{Query: q, Expected: g.expected})
		}
	}
	return out
}

// FilterCases keeps cases whose expected intent equals intent. An empty
// intent keeps everything.
func FilterCases(cases []Case, intent string) []Case {
	intent = strings.ToLower(strings.TrimSpace(intent))
	if intent == "" {
		return cases
	}
	var out []Case
	for _, c := range cases {
		if c.Expected == intent {
			out = append(out, c)
		}
	}
	return out
}
