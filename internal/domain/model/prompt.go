package model

// Prompt is a provider-neutral generation request.
type Prompt struct {
	System   string
	Messages []ConversationTurn
	// MaxTokens caps the completion length; zero leaves the provider default.
	MaxTokens int
	// JSON asks the provider for a bare JSON object.
	JSON bool
}
