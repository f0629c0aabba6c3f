package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/capperchat/internal/domain/model"
)

var intentDefinitions = map[model.Intent]string{ //nolint:gochecknoglobals // prompt vocabulary
	model.IntentRecommendation: "User wants to get suggestions for handicappers/cappers/tipsters or packages",
	model.IntentPerformance:    "User is asking about statistics, hot streaks, win rates or track records of a handicappers/cappers/tipsters",
	model.IntentPricing:        "User is asking about cost, package pricing, budget or payment options",
	model.IntentComparison:     "User is comparing multiple handicappers or packages",
	model.IntentGeneral:        "User is asking a general question which does not have clear intent",
}

var fewShotExamples = map[model.Intent][]string{ //nolint:gochecknoglobals // prompt vocabulary
	model.IntentRecommendation: {"Who's the best NFL handicapper?", "Recommend me a good capper for basketball"},
	model.IntentPerformance:    {"What's Tokyo Brandon's win rate?", "How is Gianni doing this season?"},
	model.IntentPricing:        {"How much is Tokyo Brandon's packages?", "Show me cheap packages for this hockey season"},
	model.IntentComparison:     {"Compare Tokyo Brandon and Gianni", "Is Steve Merril or Gianni the sharper capper?"},
	model.IntentGeneral:        {"Hello", "How does this work?"},
}

// Definition returns the description given to the model for an intent.
func Definition(i model.Intent) string { return intentDefinitions[i] }

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an intent classification system for a sports betting handicapper platform. ")
	b.WriteString("Your job is to determine the user's intention and classify it based on the outlined intents.\n\n")

	b.WriteString("INTENT CATEGORIES:\n")
	names := make([]string, 0, len(model.ClassifierIntents))
	for _, i := range model.ClassifierIntents {
		fmt.Fprintf(&b, "- %s: %s\n", i, intentDefinitions[i])
		names = append(names, string(i))
	}

	b.WriteString("\nCRITICAL REQUIREMENTS:\n")
	b.WriteString("1. You MUST return ONLY valid JSON\n")
	fmt.Fprintf(&b, "2. You MUST use one of these exact intent values: %s\n", strings.Join(names, ", "))
	b.WriteString("3. You MUST include a confidence level: high, medium, or low\n")
	b.WriteString("4. Return ONLY a raw JSON object with no formatting, markdown, code blocks or explanations\n")

	b.WriteString("\nCONFIDENCE GUIDELINES:\n")
	b.WriteString("- high: Clear intent defined (e.g. \"Who's the best NFL handicapper?\")\n")
	b.WriteString("- medium: Intent is clear but could be a mix of multiple classifications (e.g. \"Who's the best cheap NBA handicapper?\")\n")
	b.WriteString("- low: Unclear what the user's intent is (e.g. \"Tell me about Brandon\")\n")

	b.WriteString("\nJSON FORMAT:\n")
	b.WriteString(jsonTemplate("original user query", "one of the valid intents"))
	return b.String()
}

func userPrompt(message string, history []model.ConversationTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this query: %s\n", jsonString(message))

	if len(history) > 0 {
		b.WriteString("\nRecent context:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}

	b.WriteString("\nExample classifications:\n")
	for _, i := range model.ClassifierIntents {
		fmt.Fprintf(&b, "%s: %s\n", i, strings.Join(fewShotExamples[i], ", "))
	}

	b.WriteString("\nReturn ONLY valid JSON in this exact format:\n")
	b.WriteString(jsonTemplate(message, "selected intent"))
	return b.String()
}

// jsonString quotes s as a JSON string literal.
func jsonString(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func jsonTemplate(query, intent string) string {
	return fmt.Sprintf(`{
  "query": %s,
  "intent": %s,
  "confidence": "high, medium or low",
  "reasoning": "brief explanation of why you chose this intent"
}
`, jsonString(query), jsonString(intent))
}

// BuildPrompt assembles the classification request: system instructions,
// the last turns of history as chat messages, then the query itself.
func BuildPrompt(message string, history []model.ConversationTurn, turns, maxTokens int) model.Prompt {
	recent := lastTurns(history, turns)

	msgs := make([]model.ConversationTurn, 0, len(recent)+1)
	msgs = append(msgs, recent...)
	msgs = append(msgs, model.ConversationTurn{Role: model.RoleUser, Content: userPrompt(message, recent)})

	return model.Prompt{
		System:    systemPrompt(),
		Messages:  msgs,
		MaxTokens: maxTokens,
		JSON:      true,
	}
}

// lastTurns keeps the last n user or assistant turns with content. Any
// other role is dropped so callers cannot add system instructions.
func lastTurns(history []model.ConversationTurn, n int) []model.ConversationTurn {
	if n <= 0 {
		return nil
	}
	kept := make([]model.ConversationTurn, 0, len(history))
	for _, t := range history {
		if t.Role != model.RoleUser && t.Role != model.RoleAssistant {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
