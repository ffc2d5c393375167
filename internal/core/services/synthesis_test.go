package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/adapters/driven/storage/memory"
	"github.com/driftline/driftline/internal/core/domain"
)

// synthesisFixture wires a synthesis service onto in-memory stores.
type synthesisFixture struct {
	signals  *memory.SignalStore
	docs     *memory.DocumentStore
	commits  *memory.CommitStore
	llm      *mockLLMService
	embedder *mockEmbeddingService
	svc      *SynthesisService
}

func newSynthesisFixture(llm *mockLLMService) *synthesisFixture {
	commits := memory.NewCommitStore()
	f := &synthesisFixture{
		signals:  memory.NewSignalStore(commits),
		docs:     memory.NewDocumentStore(),
		commits:  commits,
		llm:      llm,
		embedder: &mockEmbeddingService{embedding: []float32{0.1, 0.2, 0.3}},
	}
	f.svc = NewSynthesisService(f.signals, f.docs, f.commits, llm, f.embedder, nil)
	return f
}

func (f *synthesisFixture) addSignal(t *testing.T, id, content string) {
	t.Helper()
	require.NoError(t, f.signals.Append(context.Background(), &domain.Signal{
		ID: id, WorkspaceID: "ws-1", AuthorID: "alice",
		Content: content, Status: domain.SignalOpen,
	}))
}

func (f *synthesisFixture) addWorldDoc(t *testing.T, id, title, content string) {
	t.Helper()
	require.NoError(t, f.docs.SaveDocument(context.Background(), &domain.Document{
		ID: id, WorkspaceID: "ws-1", Scope: domain.ScopeSynthesis,
		Title: title, Content: &content, Embedding: []float32{1, 0, 0},
	}))
}

func opsResponse(ops ...string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"operations":[%s],"commitSummary":"Folded new observations."}`,
		joinOps(ops)))
}

func joinOps(ops []string) string {
	out := ""
	for i, op := range ops {
		if i > 0 {
			out += ","
		}
		out += op
	}
	return out
}

func TestSynthesisService_Run_NoSignals(t *testing.T) {
	f := newSynthesisFixture(&mockLLMService{})

	result, err := f.svc.Run(context.Background(), "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	assert.Nil(t, result.CommitID)
	assert.Equal(t, domain.SummaryNoSignals, result.Summary)
	assert.Empty(t, f.llm.requests, "no-op runs must not call the model")
}

func TestSynthesisService_Run_NoNewSignals(t *testing.T) {
	f := newSynthesisFixture(&mockLLMService{})
	f.addSignal(t, "s1", "already handled")
	require.NoError(t, f.commits.LinkSignals(context.Background(), "c-prev", []string{"s1"}))

	result, err := f.svc.Run(context.Background(), "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	assert.Nil(t, result.CommitID)
	assert.Equal(t, domain.SummaryNoNewSignals, result.Summary)
	assert.Empty(t, f.llm.requests)
}

func TestSynthesisService_Run_CreateCommit(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: opsResponse(
			`{"action":"create","title":"Team Rituals","content":"Standups moved to async.","reasoning":"new topic"}`),
		inputTokens:  120,
		outputTokens: 40,
	})
	f.addSignal(t, "s1", "alice prefers async standups")

	result, err := f.svc.Run(ctx, "ws-1", domain.TriggerConversationEnd)
	require.NoError(t, err)
	require.NotNil(t, result.CommitID)
	assert.Equal(t, "Folded new observations.", result.Summary)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 120, result.Usage.InputTokens)
	assert.Equal(t, 40, result.Usage.OutputTokens)
	require.Len(t, result.Operations, 1)
	assert.True(t, result.Operations[0].Applied)

	// The document exists in the synthesis scope, embedded.
	docs, err := f.docs.ListByScope(ctx, "ws-1", domain.ScopeSynthesis, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Team Rituals", docs[0].Title)
	assert.NotEmpty(t, docs[0].Embedding)

	// The commit is the new head with a created version and the signal linked.
	head, err := f.commits.Head(ctx, "ws-1")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, *result.CommitID, head.ID)
	assert.Nil(t, head.ParentID)
	assert.Equal(t, domain.TriggerConversationEnd, head.Trigger)
	assert.Equal(t, 1, head.SignalCount)

	versions, err := f.commits.ListVersions(ctx, head.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, domain.ChangeCreated, versions[0].ChangeKind)
	assert.Equal(t, "Standups moved to async.", versions[0].Content)

	linked, err := f.commits.ListLinkedSignalIDs(ctx, head.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, linked)
}

func TestSynthesisService_Run_SecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: opsResponse(`{"action":"create","title":"T","content":"C"}`),
	})
	f.addSignal(t, "s1", "one observation")

	first, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	require.NotNil(t, first.CommitID)

	second, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	assert.Nil(t, second.CommitID)
	assert.Equal(t, domain.SummaryNoNewSignals, second.Summary)
	assert.Len(t, f.llm.requests, 1, "the second run must not reach the model")
}

func TestSynthesisService_Run_ModifyAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: opsResponse(
			`{"action":"modify","documentId":"doc-keep","title":"","content":"Deploys now happen on Tuesdays."}`,
			`{"action":"delete","documentId":"doc-stale"}`),
	})
	f.addWorldDoc(t, "doc-keep", "Deploy Cadence", "Deploys happen on Fridays.")
	f.addWorldDoc(t, "doc-stale", "Old Tooling", "The team uses Jenkins.")
	f.addSignal(t, "s1", "deploys moved to tuesdays, jenkins retired")

	result, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	require.NotNil(t, result.CommitID)
	require.Len(t, result.Operations, 2)
	assert.True(t, result.Operations[0].Applied)
	assert.True(t, result.Operations[1].Applied)

	// Modify kept the existing title when the model sent an empty one.
	kept, err := f.docs.GetDocument(ctx, "doc-keep")
	require.NoError(t, err)
	assert.Equal(t, "Deploy Cadence", kept.Title)
	assert.Equal(t, "Deploys now happen on Tuesdays.", kept.Text())

	_, err = f.docs.GetDocument(ctx, "doc-stale")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The delete version preserves the pre-delete text for replay.
	versions, err := f.commits.ListVersions(ctx, *result.CommitID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, domain.ChangeModified, versions[0].ChangeKind)
	assert.Equal(t, domain.ChangeDeleted, versions[1].ChangeKind)
	assert.Equal(t, "The team uses Jenkins.", versions[1].Content)
}

func TestSynthesisService_Run_IgnoresUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: opsResponse(
			`{"action":"modify","documentId":"no-such-doc","content":"hallucinated"}`,
			`{"action":"delete","documentId":"also-missing"}`,
			`{"action":"create","title":"","content":""}`),
	})
	f.addSignal(t, "s1", "an observation")

	result, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)
	// The run still commits: rejected operations never abort the batch.
	require.NotNil(t, result.CommitID)
	require.Len(t, result.Operations, 3)
	for i, op := range result.Operations {
		assert.False(t, op.Applied, "operation %d should be rejected", i)
	}

	versions, err := f.commits.ListVersions(ctx, *result.CommitID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestSynthesisService_Run_ChainsCommits(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: opsResponse(`{"action":"create","title":"T","content":"C"}`),
	})

	f.addSignal(t, "s1", "first")
	first, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)

	f.addSignal(t, "s2", "second")
	second, err := f.svc.Run(ctx, "ws-1", domain.TriggerScheduled)
	require.NoError(t, err)

	head, err := f.commits.GetCommit(ctx, *second.CommitID)
	require.NoError(t, err)
	require.NotNil(t, head.ParentID)
	assert.Equal(t, *first.CommitID, *head.ParentID)
}

func TestSynthesisService_Run_ConflictOnRacedHead(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(nil)
	// While our run is inside the model call, a competing run commits.
	llm := &mockLLMService{
		response: opsResponse(`{"action":"create","title":"T","content":"C"}`),
		onComplete: func() {
			_ = f.commits.InsertCommit(ctx, &domain.Commit{ID: "rival", WorkspaceID: "ws-1"})
		},
	}
	f.llm = llm
	f.svc = NewSynthesisService(f.signals, f.docs, f.commits, llm, f.embedder, nil)
	f.addSignal(t, "s1", "an observation")

	_, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.ErrorIs(t, err, domain.ErrSynthesisConflict)

	// The losing run linked nothing: its signals stay queued for a retry.
	unprocessed, err := f.signals.ListUnprocessed(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, unprocessed, 1)
}

func TestSynthesisService_Run_ConflictOnRacedSignalLink(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(nil)
	llm := &mockLLMService{
		response: opsResponse(`{"action":"create","title":"T","content":"C"}`),
		onComplete: func() {
			_ = f.commits.LinkSignals(ctx, "rival", []string{"s1"})
		},
	}
	f.llm = llm
	f.svc = NewSynthesisService(f.signals, f.docs, f.commits, llm, f.embedder, nil)
	f.addSignal(t, "s1", "an observation")

	_, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.ErrorIs(t, err, domain.ErrSynthesisConflict)

	// The signal belongs to the rival commit only.
	linked, err := f.commits.ListLinkedSignalIDs(ctx, "rival")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, linked)
}

func TestSynthesisService_Run_NilLLM(t *testing.T) {
	commits := memory.NewCommitStore()
	signals := memory.NewSignalStore(commits)
	docs := memory.NewDocumentStore()
	svc := NewSynthesisService(signals, docs, commits, nil, nil, nil)

	require.NoError(t, signals.Append(context.Background(), &domain.Signal{
		ID: "s1", WorkspaceID: "ws-1", AuthorID: "alice", Content: "x", Status: domain.SignalOpen,
	}))

	_, err := svc.Run(context.Background(), "ws-1", domain.TriggerManual)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestSynthesisService_Run_InvalidTrigger(t *testing.T) {
	f := newSynthesisFixture(&mockLLMService{})

	_, err := f.svc.Run(context.Background(), "ws-1", domain.Trigger("cron"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSynthesisService_Run_PriorityRecommendations(t *testing.T) {
	ctx := context.Background()
	f := newSynthesisFixture(&mockLLMService{
		response: json.RawMessage(`{
			"operations":[{"action":"create","title":"T","content":"C"}],
			"commitSummary":"s",
			"priorityRecommendations":[
				{"signalId":"s1","priority":"high"},
				{"signalId":"not-in-batch","priority":"low"},
				{"signalId":"s2","priority":"urgent"}
			]
		}`),
	})
	f.addSignal(t, "s1", "first")
	f.addSignal(t, "s2", "second")

	result, err := f.svc.Run(ctx, "ws-1", domain.TriggerManual)
	require.NoError(t, err)

	// Only the in-batch recommendation with a known priority applies.
	require.Len(t, result.PriorityRecommendations, 1)
	assert.Equal(t, "s1", result.PriorityRecommendations[0].SignalID)

	sig, err := f.signals.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, sig.AIPriority)

	sig, err = f.signals.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, sig.AIPriority)
}

func TestSynthesisService_Run_MalformedResponse(t *testing.T) {
	f := newSynthesisFixture(&mockLLMService{
		response: json.RawMessage(`{"operations": "not an array"}`),
	})
	f.addSignal(t, "s1", "an observation")

	_, err := f.svc.Run(context.Background(), "ws-1", domain.TriggerManual)
	require.Error(t, err)

	// Nothing committed, nothing linked.
	head, headErr := f.commits.Head(context.Background(), "ws-1")
	require.NoError(t, headErr)
	assert.Nil(t, head)
	unprocessed, listErr := f.signals.ListUnprocessed(context.Background(), "ws-1")
	require.NoError(t, listErr)
	assert.Len(t, unprocessed, 1)
}
