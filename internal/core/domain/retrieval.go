package domain

// ContextResult is one grounding document returned by retrieval.
type ContextResult struct {
	// Title is the document (or chunk) title.
	Title string

	// Content is the retrievable text.
	Content string

	// Similarity is the cosine similarity to the query, in (floor, 1].
	Similarity float64
}

// Digest is a natural-language rollup of recent synthesis activity.
type Digest struct {
	// WorkspaceID is the workspace the digest covers.
	WorkspaceID string

	// Summary is the model-written narrative over the window.
	Summary string

	// Themes are short labels for recurring topics in the window.
	Themes []string

	// CommitCount is how many commits the window covered.
	CommitCount int

	// Alignment is the calibrated similarity between the window's
	// activity and the current world model, in [0,1].
	Alignment float64

	// Usage is token accounting for the digest's LLM call.
	Usage Usage
}
