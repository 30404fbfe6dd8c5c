package output

import (
	"fmt"
	"unicode/utf8"
)

// DefaultBudget is the default context window size, in tokens, that MCP
// responses are fitted to.
const DefaultBudget = 32000

// CharsPerToken is the approximate character-to-token ratio for
// structured, code-heavy text.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(utf8.RuneCountInString(text))/CharsPerToken + 0.5)
}

// FitsBudget reports whether text is estimated to fit in budget tokens. A
// budget of zero or less uses DefaultBudget.
func FitsBudget(text string, budget int) bool {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return EstimateTokens(text) <= budget
}

// FormatTokenCount formats a token count for display. Counts of 1000 and
// more are formatted as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}
