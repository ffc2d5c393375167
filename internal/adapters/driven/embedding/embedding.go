// Package embedding holds shared behaviour for the embedding gateway
// adapters: provider-independent input truncation.
package embedding

// TruncationBudget is the maximum number of characters sent to an
// embedding provider in one input. Oversized inputs are cut here rather
// than rejected, so callers may pass arbitrarily long text.
const TruncationBudget = 8000

// Truncate cuts text to the truncation budget.
func Truncate(text string) string {
	if len(text) <= TruncationBudget {
		return text
	}
	return text[:TruncationBudget]
}
