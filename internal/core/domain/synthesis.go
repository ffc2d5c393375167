package domain

// OperationAction is the kind of document mutation the model requested.
type OperationAction string

// Synthesis operation actions.
const (
	ActionCreate OperationAction = "create"
	ActionModify OperationAction = "modify"
	ActionDelete OperationAction = "delete"
)

// Valid reports whether a is a known action value.
func (a OperationAction) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete:
		return true
	}
	return false
}

// SynthesisOperation is one document mutation from the model's structured
// response. The response is an untrusted command batch: every DocumentID
// is validated against the loaded snapshot before being applied, and
// unknown references are ignored rather than treated as errors.
type SynthesisOperation struct {
	// Action is create, modify or delete.
	Action OperationAction

	// DocumentID targets an existing document for modify/delete.
	// Empty for create.
	DocumentID string

	// Title is the document title after the operation.
	Title string

	// Content is the document content after the operation.
	Content string

	// Reasoning is the model's optional explanation for the change.
	Reasoning string

	// Applied records whether the engine accepted the operation.
	Applied bool
}

// PriorityRecommendation is the model's suggested priority for one signal.
type PriorityRecommendation struct {
	// SignalID identifies the signal.
	SignalID string

	// Priority is the recommended value.
	Priority Priority
}

// Usage is token accounting passed through from the LLM gateway.
type Usage struct {
	// InputTokens is the prompt token count.
	InputTokens int

	// OutputTokens is the completion token count.
	OutputTokens int
}

// RunResult is the outcome of one synthesis run.
//
// A run with a nil CommitID is a no-op: either the workspace has no
// signals at all, or every signal is already linked to a commit. Both
// are terminal successes, not errors.
type RunResult struct {
	// CommitID is the new commit, nil for a no-op run.
	CommitID *string

	// Summary is the commit summary, or a fixed no-op message.
	Summary string

	// Operations are the mutations the model returned, in order,
	// including ones the engine rejected (Applied=false).
	Operations []SynthesisOperation

	// PriorityRecommendations are the applied priority updates.
	PriorityRecommendations []PriorityRecommendation

	// ProcessedCount is how many signals were linked to the commit.
	ProcessedCount int

	// Usage is token accounting for the run's LLM call.
	Usage Usage
}

// No-op run summaries.
const (
	// SummaryNoSignals is returned when the workspace has no signals.
	SummaryNoSignals = "No signals to process."

	// SummaryNoNewSignals is returned when every signal is already
	// linked to a commit.
	SummaryNoNewSignals = "No new signals to process."
)
