package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/logger"
)

// Ensure DigestService implements the interface.
var _ driving.DigestService = (*DigestService)(nil)

// DefaultDigestWindow is how many recent commits a digest covers when
// the caller does not say.
const DefaultDigestWindow = 10

const digestSchemaName = "digest"

var digestSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "themes": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["summary", "themes"],
  "additionalProperties": false
}`)

const digestSystemPrompt = `You summarise recent changes to a team's living knowledge base. You receive the summaries of the most recent change batches, newest first.

Write a short narrative of what the team has been learning and deciding, and list the recurring themes as short labels.`

const digestMaxTokens = 1024

// DigestService writes a natural-language rollup of recent commits and
// scores how aligned that activity is with the current world model.
type DigestService struct {
	commitStore      driven.CommitStore
	docStore         driven.DocumentStore
	llmService       driven.LLMService
	embeddingService driven.EmbeddingService
}

// NewDigestService creates a new digest service.
// The embeddingService parameter is optional (can be nil); the digest
// then carries the neutral alignment score.
func NewDigestService(
	commitStore driven.CommitStore,
	docStore driven.DocumentStore,
	llmService driven.LLMService,
	embeddingService driven.EmbeddingService,
) *DigestService {
	return &DigestService{
		commitStore:      commitStore,
		docStore:         docStore,
		llmService:       llmService,
		embeddingService: embeddingService,
	}
}

// Generate summarises the most recent window commits for the workspace.
func (s *DigestService) Generate(ctx context.Context, workspaceID string, window int) (*domain.Digest, error) {
	logger.Section("Digest Generation")
	if window <= 0 {
		window = DefaultDigestWindow
	}

	commits, err := s.commitStore.ListCommits(ctx, workspaceID, window)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 {
		return &domain.Digest{
			WorkspaceID: workspaceID,
			Summary:     "No synthesis activity yet.",
			Alignment:   domain.NeutralAlignment,
		}, nil
	}
	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	var prompt strings.Builder
	prompt.WriteString("# Recent change batches\n\n")
	for _, commit := range commits {
		fmt.Fprintf(&prompt, "- [%s] %s (%d signals)\n",
			commit.CreatedAt.Format("2006-01-02"), commit.Summary, commit.SignalCount)
	}

	result, err := s.llmService.Complete(ctx, driven.CompletionRequest{
		System:     digestSystemPrompt,
		Prompt:     prompt.String(),
		SchemaName: digestSchemaName,
		Schema:     digestSchema,
		MaxTokens:  digestMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("digest completion: %w", err)
	}

	var wire struct {
		Summary string   `json:"summary"`
		Themes  []string `json:"themes"`
	}
	if err := json.Unmarshal(result.JSON, &wire); err != nil {
		return nil, fmt.Errorf("parse digest response: %w", err)
	}

	return &domain.Digest{
		WorkspaceID: workspaceID,
		Summary:     wire.Summary,
		Themes:      wire.Themes,
		CommitCount: len(commits),
		Alignment:   s.scoreAlignment(ctx, workspaceID, commits),
		Usage: domain.Usage{
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
		},
	}, nil
}

// scoreAlignment embeds the window's commit summaries and scores them
// against the centroid of the world model's embeddings. Scoring is
// best-effort: any failure yields the neutral score.
func (s *DigestService) scoreAlignment(ctx context.Context, workspaceID string, commits []domain.Commit) float64 {
	if s.embeddingService == nil {
		return domain.NeutralAlignment
	}

	summaries := make([]string, len(commits))
	for i, commit := range commits {
		summaries[i] = commit.Summary
	}
	observation, err := s.embeddingService.Embed(ctx, strings.Join(summaries, "\n"))
	if err != nil {
		logger.Warn("Window embedding failed: %v", err)
		return domain.NeutralAlignment
	}

	docs, err := s.docStore.ListByScope(ctx, workspaceID, domain.ScopeSynthesis, nil)
	if err != nil {
		logger.Warn("World model load failed: %v", err)
		return domain.NeutralAlignment
	}
	var vectors [][]float32
	for _, doc := range docs {
		if len(doc.Embedding) > 0 {
			vectors = append(vectors, doc.Embedding)
		}
	}

	return domain.AlignmentScore(observation, centroid(vectors))
}

// centroid averages equal-length vectors, skipping mismatched ones.
// Returns nil when no usable vector exists.
func centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	sum := make([]float64, dims)
	count := 0
	for _, vec := range vectors {
		if len(vec) != dims {
			continue
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	out := make([]float32, dims)
	for i := range sum {
		out[i] = float32(sum[i] / float64(count))
	}
	return out
}
