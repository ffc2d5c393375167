package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/logger"
	"github.com/driftline/driftline/internal/postprocessors/chunker"
)

// Ensure SynthesisService implements the interface.
var _ driving.SynthesisService = (*SynthesisService)(nil)

// defaultSynthesisMaxTokens caps one synthesis completion.
const defaultSynthesisMaxTokens = 4096

const synthesisSchemaName = "synthesis_batch"

// synthesisSchema constrains the model to a batch of document operations
// plus a commit summary and optional priority recommendations.
var synthesisSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "operations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "action": {"type": "string", "enum": ["create", "modify", "delete"]},
          "documentId": {"type": "string"},
          "title": {"type": "string"},
          "content": {"type": "string"},
          "reasoning": {"type": "string"}
        },
        "required": ["action"],
        "additionalProperties": false
      }
    },
    "commitSummary": {"type": "string"},
    "priorityRecommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "signalId": {"type": "string"},
          "priority": {"type": "string", "enum": ["critical", "high", "medium", "low"]}
        },
        "required": ["signalId", "priority"],
        "additionalProperties": false
      }
    }
  },
  "required": ["operations", "commitSummary"],
  "additionalProperties": false
}`)

const synthesisSystemPrompt = `You maintain a set of living documents that together model what a team knows, decides and prefers. You receive the current documents and a batch of new observations (signals).

Fold the new signals into the documents:
- Modify an existing document when a signal refines or contradicts it.
- Create a new document for a genuinely new topic.
- Delete a document only when signals show it is obsolete.
- Prefer small, surgical edits over rewrites. Keep documents focused on one topic each.
- When modifying or deleting, reference the document by the exact id given.

Also write a one-paragraph commitSummary of what changed and why, and optionally recommend a priority for signals that clearly warrant attention.`

// SynthesisService folds pending signals into the workspace's world
// model, producing at most one commit per run.
type SynthesisService struct {
	signalStore      driven.SignalStore
	docStore         driven.DocumentStore
	commitStore      driven.CommitStore
	llmService       driven.LLMService
	embeddingService driven.EmbeddingService
	chunker          *chunker.Chunker
}

// NewSynthesisService creates a new synthesis service.
// The llmService and embeddingService parameters are optional (can be
// nil): a nil LLM makes runs fail with domain.ErrLLMUnavailable, a nil
// embedder leaves written documents unembedded.
func NewSynthesisService(
	signalStore driven.SignalStore,
	docStore driven.DocumentStore,
	commitStore driven.CommitStore,
	llmService driven.LLMService,
	embeddingService driven.EmbeddingService,
	chunk *chunker.Chunker,
) *SynthesisService {
	if chunk == nil {
		chunk = chunker.New()
	}
	return &SynthesisService{
		signalStore:      signalStore,
		docStore:         docStore,
		commitStore:      commitStore,
		llmService:       llmService,
		embeddingService: embeddingService,
		chunker:          chunk,
	}
}

// Run executes one synthesis pass. The ordering is deliberate: version
// snapshots and document mutations happen first, the commit insert is
// the atomic commit point, and signal links plus priority updates follow.
// A failure before the insert leaves no commit and keeps every signal
// unprocessed, so the run is retryable end to end.
func (s *SynthesisService) Run(ctx context.Context, workspaceID string, trigger domain.Trigger) (*domain.RunResult, error) {
	logger.Section("Synthesis Run")
	logger.Debug("Workspace: %s, trigger: %s", workspaceID, trigger)

	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace is required", domain.ErrInvalidInput)
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("%w: unknown trigger %q", domain.ErrInvalidInput, trigger)
	}

	all, err := s.signalStore.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	if len(all) == 0 {
		logger.Info("No signals, nothing to do")
		return &domain.RunResult{Summary: domain.SummaryNoSignals}, nil
	}

	unprocessed, err := s.signalStore.ListUnprocessed(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed signals: %w", err)
	}
	if len(unprocessed) == 0 {
		logger.Info("All %d signals already processed", len(all))
		return &domain.RunResult{Summary: domain.SummaryNoNewSignals}, nil
	}
	logger.Info("Processing %d of %d signals", len(unprocessed), len(all))

	if s.llmService == nil {
		return nil, domain.ErrLLMUnavailable
	}

	docs, err := s.docStore.ListByScope(ctx, workspaceID, domain.ScopeSynthesis, nil)
	if err != nil {
		return nil, fmt.Errorf("load world model: %w", err)
	}
	head, err := s.commitStore.Head(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load head commit: %w", err)
	}

	result, err := s.llmService.Complete(ctx, driven.CompletionRequest{
		System:     synthesisSystemPrompt,
		Prompt:     buildSynthesisPrompt(docs, unprocessed),
		SchemaName: synthesisSchemaName,
		Schema:     synthesisSchema,
		MaxTokens:  defaultSynthesisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis completion: %w", err)
	}

	batch, err := parseSynthesisBatch(result.JSON)
	if err != nil {
		return nil, fmt.Errorf("parse synthesis response: %w", err)
	}
	logger.Debug("Model returned %d operations", len(batch.Operations))

	// The model's output is an untrusted command batch: every referenced
	// document must exist in the snapshot loaded for this run.
	snapshot := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		snapshot[doc.ID] = doc
	}

	commitID := uuid.New().String()
	operations := make([]domain.SynthesisOperation, 0, len(batch.Operations))
	for _, op := range batch.Operations {
		applied, err := s.applyOperation(ctx, workspaceID, commitID, snapshot, &op)
		if err != nil {
			return nil, err
		}
		op.Applied = applied
		operations = append(operations, op)
	}

	summary := strings.TrimSpace(batch.CommitSummary)
	if summary == "" {
		summary = fmt.Sprintf("Synthesised %d signals.", len(unprocessed))
	}

	var parentID *string
	if head != nil {
		id := head.ID
		parentID = &id
	}
	commit := &domain.Commit{
		ID:          commitID,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Summary:     summary,
		Trigger:     trigger,
		SignalCount: len(unprocessed),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.commitStore.InsertCommit(ctx, commit); err != nil {
		return nil, fmt.Errorf("insert commit: %w", err)
	}

	signalIDs := make([]string, len(unprocessed))
	for i, sig := range unprocessed {
		signalIDs[i] = sig.ID
	}
	if err := s.commitStore.LinkSignals(ctx, commitID, signalIDs); err != nil {
		return nil, fmt.Errorf("link signals: %w", err)
	}

	recommendations := s.applyPriorities(ctx, batch.PriorityRecommendations, signalIDs)

	logger.Info("Commit %s: %d operations, %d signals", commitID, len(operations), len(signalIDs))
	return &domain.RunResult{
		CommitID:                &commitID,
		Summary:                 summary,
		Operations:              operations,
		PriorityRecommendations: recommendations,
		ProcessedCount:          len(unprocessed),
		Usage: domain.Usage{
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
		},
	}, nil
}

// applyOperation executes one validated operation against the document
// store and records its version snapshot. It returns false (with no
// error) for operations the engine refuses: unknown actions, unknown
// document references and empty creates.
func (s *SynthesisService) applyOperation(
	ctx context.Context,
	workspaceID, commitID string,
	snapshot map[string]domain.Document,
	op *domain.SynthesisOperation,
) (bool, error) {
	switch op.Action {
	case domain.ActionCreate:
		title := strings.TrimSpace(op.Title)
		if title == "" || op.Content == "" {
			logger.Debug("Skipping create without title or content")
			return false, nil
		}
		now := time.Now().UTC()
		content := op.Content
		doc := &domain.Document{
			ID:          uuid.New().String(),
			WorkspaceID: workspaceID,
			Scope:       domain.ScopeSynthesis,
			Title:       title,
			Content:     &content,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := writeDocumentContent(ctx, s.docStore, s.embeddingService, s.chunker, doc, false); err != nil {
			return false, fmt.Errorf("apply create: %w", err)
		}
		snapshot[doc.ID] = *doc
		return true, s.saveVersion(ctx, commitID, doc.ID, domain.ChangeCreated, doc.Title, content)

	case domain.ActionModify:
		doc, ok := snapshot[op.DocumentID]
		if !ok {
			logger.Debug("Skipping modify of unknown document %q", op.DocumentID)
			return false, nil
		}
		if title := strings.TrimSpace(op.Title); title != "" {
			doc.Title = title
		}
		content := op.Content
		doc.Content = &content
		if err := writeDocumentContent(ctx, s.docStore, s.embeddingService, s.chunker, &doc, false); err != nil {
			return false, fmt.Errorf("apply modify: %w", err)
		}
		snapshot[doc.ID] = doc
		return true, s.saveVersion(ctx, commitID, doc.ID, domain.ChangeModified, doc.Title, content)

	case domain.ActionDelete:
		doc, ok := snapshot[op.DocumentID]
		if !ok {
			logger.Debug("Skipping delete of unknown document %q", op.DocumentID)
			return false, nil
		}
		if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
			return false, fmt.Errorf("apply delete: %w", err)
		}
		delete(snapshot, doc.ID)
		// The snapshot keeps the pre-delete text replayable.
		return true, s.saveVersion(ctx, commitID, doc.ID, domain.ChangeDeleted, doc.Title, doc.Text())

	default:
		logger.Debug("Skipping unknown action %q", op.Action)
		return false, nil
	}
}

func (s *SynthesisService) saveVersion(ctx context.Context, commitID, documentID string, kind domain.ChangeKind, title, content string) error {
	err := s.commitStore.SaveVersion(ctx, &domain.DocumentVersion{
		ID:         uuid.New().String(),
		CommitID:   commitID,
		DocumentID: documentID,
		ChangeKind: kind,
		Title:      title,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save version: %w", err)
	}
	return nil
}

// applyPriorities records recommendations for signals in this run's
// batch. Recommendations for other signals are ignored and individual
// write failures are non-fatal: the commit already exists.
func (s *SynthesisService) applyPriorities(
	ctx context.Context,
	recommendations []domain.PriorityRecommendation,
	signalIDs []string,
) []domain.PriorityRecommendation {
	inBatch := make(map[string]bool, len(signalIDs))
	for _, id := range signalIDs {
		inBatch[id] = true
	}

	applied := make([]domain.PriorityRecommendation, 0, len(recommendations))
	for _, rec := range recommendations {
		if !inBatch[rec.SignalID] || !rec.Priority.Valid() {
			logger.Debug("Skipping priority recommendation for %q", rec.SignalID)
			continue
		}
		if err := s.signalStore.SetAIPriority(ctx, rec.SignalID, rec.Priority); err != nil {
			logger.Warn("Priority update for %s failed: %v", rec.SignalID, err)
			continue
		}
		applied = append(applied, rec)
	}
	return applied
}

// buildSynthesisPrompt renders the current world model and the pending
// signals into one prompt. Document and signal IDs are included verbatim
// so the model can reference them in operations and recommendations.
func buildSynthesisPrompt(docs []domain.Document, signals []domain.Signal) string {
	var b strings.Builder

	b.WriteString("# Current documents\n\n")
	if len(docs) == 0 {
		b.WriteString("(none yet)\n\n")
	}
	for _, doc := range docs {
		fmt.Fprintf(&b, "## %s\nid: %s\n\n%s\n\n", doc.Title, doc.ID, doc.Text())
	}

	b.WriteString("# New signals\n\n")
	for _, sig := range signals {
		fmt.Fprintf(&b, "- id: %s | author: %s", sig.ID, sig.AuthorID)
		if p := sig.EffectivePriority(); p != "" {
			fmt.Fprintf(&b, " | priority: %s", p)
		}
		fmt.Fprintf(&b, "\n  %s\n", sig.Content)
	}

	return b.String()
}

// synthesisBatch mirrors the structured-output schema.
type synthesisBatch struct {
	Operations              []domain.SynthesisOperation
	CommitSummary           string
	PriorityRecommendations []domain.PriorityRecommendation
}

func parseSynthesisBatch(raw json.RawMessage) (*synthesisBatch, error) {
	var wire struct {
		Operations []struct {
			Action     string `json:"action"`
			DocumentID string `json:"documentId"`
			Title      string `json:"title"`
			Content    string `json:"content"`
			Reasoning  string `json:"reasoning"`
		} `json:"operations"`
		CommitSummary           string `json:"commitSummary"`
		PriorityRecommendations []struct {
			SignalID string `json:"signalId"`
			Priority string `json:"priority"`
		} `json:"priorityRecommendations"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	batch := &synthesisBatch{CommitSummary: wire.CommitSummary}
	for _, op := range wire.Operations {
		batch.Operations = append(batch.Operations, domain.SynthesisOperation{
			Action:     domain.OperationAction(op.Action),
			DocumentID: op.DocumentID,
			Title:      op.Title,
			Content:    op.Content,
			Reasoning:  op.Reasoning,
		})
	}
	for _, rec := range wire.PriorityRecommendations {
		batch.PriorityRecommendations = append(batch.PriorityRecommendations, domain.PriorityRecommendation{
			SignalID: rec.SignalID,
			Priority: domain.Priority(rec.Priority),
		})
	}
	return batch, nil
}
