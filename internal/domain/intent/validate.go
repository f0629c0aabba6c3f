package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/capperchat/internal/domain/model"
)

// Validation failure codes, used as metric labels.
const (
	reasonUnparseable   = "unparseable"
	reasonMissingIntent = "missing_intent"
	reasonBadIntent     = "invalid_intent"
	reasonBadConfidence = "invalid_confidence"
	reasonQueryMismatch = "query_mismatch"
)

// Output is the JSON object a model is asked to produce.
type Output struct {
	Query      string `json:"query"`
	Intent     string `json:"intent"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ParseOutput decodes model output, tolerating markdown code fences and
// prose around the object.
func ParseOutput(raw string) (Output, error) {
	s := stripFences(raw)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var out Output
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Output{}, fmt.Errorf("decode classification: %w", err)
	}
	return out, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Validate checks a parsed output against the original query. The echoed
// query must match exactly so a model that rewrote the input is rejected.
func Validate(out Output, original string) (bool, string) {
	_, reason := validate(out, original)
	return reason == "", reason
}

func validate(out Output, original string) (code, reason string) {
	switch {
	case out.Intent == "":
		return reasonMissingIntent, "missing intent field"
	case !model.Intent(out.Intent).Valid():
		return reasonBadIntent, "invalid intent: " + out.Intent
	case !model.Confidence(out.Confidence).Valid():
		return reasonBadConfidence, "invalid or missing confidence level"
	case out.Query != original:
		return reasonQueryMismatch, "does not match original query"
	}
	return "", ""
}
