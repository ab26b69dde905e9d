package chat

// Token estimation uses a fixed characters-per-token ratio rather than a real
// tokenizer. The numbers only feed the summarization trigger, so a stable,
// deterministic approximation beats an exact count.

const (
	// charsPerToken approximates generation cost at 1 token per 4 characters.
	charsPerToken = 4

	// messageOverheadTokens models per-turn formatting cost (role markers,
	// separators) added on top of the content estimate.
	messageOverheadTokens = 4
)

// EstimateTokens returns a monotonic, non-negative token estimate for text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// CostOfMessages sums the estimated cost of each message rendered as
// "role: content", plus a fixed per-message overhead.
func CostOfMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(string(m.Role)+": "+m.Content) + messageOverheadTokens
	}
	return total
}
