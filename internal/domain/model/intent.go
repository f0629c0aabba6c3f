package model

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentPricing        Intent = "pricing"
	IntentPerformance    Intent = "performance"
	IntentComparison     Intent = "comparison"
	IntentGeneral        Intent = "general"

	// IntentUnknown is returned by the keyword matcher when nothing matched.
	// It is never a valid classifier output.
	IntentUnknown Intent = "Unknown"
)

// ClassifierIntents lists the five categories a model may return, in the
// order they are described to it.
var ClassifierIntents = []Intent{ //nolint:gochecknoglobals // fixed vocabulary
	IntentRecommendation,
	IntentPerformance,
	IntentPricing,
	IntentComparison,
	IntentGeneral,
}

// Valid reports whether i is one of the five classifier categories.
func (i Intent) Valid() bool {
	for _, c := range ClassifierIntents {
		if i == c {
			return true
		}
	}
	return false
}

// Confidence is a coarse certainty level.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is high, medium or low.
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// IntentResult is the outcome of a model classification. It is produced per
// request and never persisted.
type IntentResult struct {
	Query      string     `json:"query"`
	Intent     Intent     `json:"intent"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Validated  bool       `json:"validated"`
	Attempt    int        `json:"attempt"`
	Error      string     `json:"error,omitempty"`
}
