package domain

import "time"

// Priority is the urgency assigned to a signal, either by the model
// or by a human reviewer.
type Priority string

// Signal priorities, highest first.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// SignalStatus is the lifecycle state of a signal.
type SignalStatus string

// Signal lifecycle states.
const (
	SignalOpen      SignalStatus = "open"
	SignalResolved  SignalStatus = "resolved"
	SignalDismissed SignalStatus = "dismissed"
)

// Valid reports whether s is a known status value.
func (s SignalStatus) Valid() bool {
	switch s {
	case SignalOpen, SignalResolved, SignalDismissed:
		return true
	}
	return false
}

// Signal is an atomic observation captured from user activity.
// Content is immutable once created; only priority, status and review
// fields change afterwards. Signals are owned by their workspace and
// referenced, never owned, by commits.
type Signal struct {
	// ID is the unique identifier for the signal.
	ID string

	// WorkspaceID is the owning workspace.
	WorkspaceID string

	// AuthorID identifies the user whose activity produced the signal.
	AuthorID string

	// ConversationID is the optional source conversation.
	ConversationID string

	// MessageID is the optional source message within the conversation.
	MessageID string

	// Content is the observation text. Immutable after creation.
	Content string

	// Embedding is the vector representation of Content.
	// Nil when embedding failed or has not run; embedding a signal is
	// best-effort and never blocks capture.
	Embedding []float32

	// AIPriority is the model-assigned priority. Empty when unset.
	AIPriority Priority

	// HumanPriority is the reviewer-assigned priority, tracked
	// independently of AIPriority. Empty when unset.
	HumanPriority Priority

	// Status is the lifecycle state.
	Status SignalStatus

	// ReviewedAt is stamped when a reviewer sets the priority and
	// cleared when the priority is cleared.
	ReviewedAt *time.Time

	// CreatedAt is when the signal was captured.
	CreatedAt time.Time
}

// EffectivePriority returns the human priority when set, falling back
// to the model-assigned one.
func (s *Signal) EffectivePriority() Priority {
	if s.HumanPriority != "" {
		return s.HumanPriority
	}
	return s.AIPriority
}
