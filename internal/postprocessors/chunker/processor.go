// Package chunker splits oversized document content into retrievable,
// re-embeddable fragments.
package chunker

import (
	"fmt"
	"strings"
)

// DefaultThreshold is the content size in characters above which a
// document is chunked instead of embedded whole.
const DefaultThreshold = 8000

// DefaultMaxChunkSize is the upper bound on a single chunk's content.
// It sits under the embedding truncation budget so no chunk is ever
// silently cut by the embedding gateway.
const DefaultMaxChunkSize = 6000

// Part is one fragment of a split document.
type Part struct {
	// Title is the parent title tagged with the part number.
	Title string

	// Content is the fragment text, always at most the max chunk size.
	Content string

	// Index is the zero-based position within the parent.
	Index int
}

// Chunker splits document content on paragraph boundaries.
// Splitting is pure and deterministic: the same input always yields the
// same boundaries and count, so chunk regeneration is restartable.
type Chunker struct {
	threshold int
	maxSize   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithThreshold sets the content size above which documents are chunked.
func WithThreshold(threshold int) Option {
	return func(c *Chunker) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// WithMaxChunkSize sets the upper bound on a chunk's content size.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		threshold: DefaultThreshold,
		maxSize:   DefaultMaxChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	// A threshold below the chunk size would produce single-chunk splits.
	if c.threshold < c.maxSize {
		c.threshold = c.maxSize
	}

	return c
}

// ShouldChunk reports whether content exceeds the chunking threshold.
func (c *Chunker) ShouldChunk(content string) bool {
	return len(content) > c.threshold
}

// Chunk splits content into ordered parts. Boundaries fall on paragraph
// breaks where possible; a single paragraph larger than the max chunk
// size is hard-split so every part stays under the embeddable budget.
func (c *Chunker) Chunk(title, content string) []Part {
	if content == "" {
		return nil
	}

	paragraphs := strings.Split(content, "\n\n")

	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		// Oversized paragraph: flush what we have, then hard-split it.
		if len(para) > c.maxSize {
			flush()
			for start := 0; start < len(para); start += c.maxSize {
				end := start + c.maxSize
				if end > len(para) {
					end = len(para)
				}
				pieces = append(pieces, para[start:end])
			}
			continue
		}

		// +2 for the paragraph separator we re-insert on join.
		if current.Len() > 0 && current.Len()+2+len(para) > c.maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	parts := make([]Part, 0, len(pieces))
	for i, piece := range pieces {
		parts = append(parts, Part{
			Title:   fmt.Sprintf("%s (part %d)", title, i+1),
			Content: piece,
			Index:   i,
		})
	}

	return parts
}

// BuildChunkEmbeddingText normalises a chunk's text before embedding by
// prefixing the parent title, so similarity scores are comparable across
// chunks from different documents.
func BuildChunkEmbeddingText(parentTitle, chunkContent string) string {
	parentTitle = strings.TrimSpace(parentTitle)
	if parentTitle == "" {
		return chunkContent
	}
	return parentTitle + "\n\n" + chunkContent
}
