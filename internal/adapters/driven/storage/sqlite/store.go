package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/driftline/driftline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all storage interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.driftline/data/driftline.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".driftline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "driftline.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SignalStore returns a SignalStore interface backed by this store.
func (s *Store) SignalStore() driven.SignalStore {
	return &signalStore{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// CommitStore returns a CommitStore interface backed by this store.
func (s *Store) CommitStore() driven.CommitStore {
	return &commitStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// nullStr converts an optional string to its SQL form.
func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// strFromNull converts a nullable column back to an optional string.
func strFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// ==================== Signal Store ====================

// signalStore implements driven.SignalStore.
type signalStore struct {
	store *Store
}

var _ driven.SignalStore = (*signalStore)(nil)

const signalColumns = `id, workspace_id, author_id, conversation_id, message_id,
	content, embedding, ai_priority, human_priority, status, reviewed_at, created_at`

// Append persists a new signal.
func (s *signalStore) Append(ctx context.Context, signal *domain.Signal) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO signals (`+signalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		signal.ID, signal.WorkspaceID, signal.AuthorID, signal.ConversationID, signal.MessageID,
		signal.Content, float32SliceToBytes(signal.Embedding),
		string(signal.AIPriority), string(signal.HumanPriority), string(signal.Status),
		nullTime(signal.ReviewedAt), signal.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("inserting signal: %w", err)
	}
	return nil
}

// Get retrieves a signal by ID.
func (s *signalStore) Get(ctx context.Context, id string) (*domain.Signal, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = ?`, id)
	sig, err := scanSignal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning signal: %w", err)
	}
	return sig, nil
}

// List returns all non-dismissed signals for the workspace, newest first.
func (s *signalStore) List(ctx context.Context, workspaceID string) ([]domain.Signal, error) {
	return s.query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE workspace_id = ? AND status != ?
		ORDER BY created_at DESC, rowid DESC`,
		workspaceID, string(domain.SignalDismissed))
}

// ListUnprocessed returns non-dismissed signals not yet linked to any
// commit, newest first. The subquery runs against committed state, so a
// signal linked by a concurrent run never shows up twice.
func (s *signalStore) ListUnprocessed(ctx context.Context, workspaceID string) ([]domain.Signal, error) {
	return s.query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE workspace_id = ? AND status != ?
		  AND id NOT IN (SELECT signal_id FROM commit_signals)
		ORDER BY created_at DESC, rowid DESC`,
		workspaceID, string(domain.SignalDismissed))
}

func (s *signalStore) query(ctx context.Context, query string, args ...any) ([]domain.Signal, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		sig, err := scanSignal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		signals = append(signals, *sig)
	}
	return signals, rows.Err()
}

// SetHumanPriority sets or clears the reviewer priority and review stamp.
func (s *signalStore) SetHumanPriority(ctx context.Context, id string, priority *domain.Priority, reviewedAt *time.Time) error {
	value := ""
	if priority != nil {
		value = string(*priority)
	}
	return s.update(ctx,
		`UPDATE signals SET human_priority = ?, reviewed_at = ? WHERE id = ?`,
		value, nullTime(reviewedAt), id)
}

// SetAIPriority records the model-recommended priority.
func (s *signalStore) SetAIPriority(ctx context.Context, id string, priority domain.Priority) error {
	return s.update(ctx, `UPDATE signals SET ai_priority = ? WHERE id = ?`, string(priority), id)
}

// SetStatus transitions the signal's lifecycle state.
func (s *signalStore) SetStatus(ctx context.Context, id string, status domain.SignalStatus) error {
	return s.update(ctx, `UPDATE signals SET status = ? WHERE id = ?`, string(status), id)
}

func (s *signalStore) update(ctx context.Context, query string, args ...any) error {
	result, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating signal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func scanSignal(scan func(...any) error) (*domain.Signal, error) {
	var sig domain.Signal
	var embedding []byte
	var aiPriority, humanPriority, status string
	var reviewedAt sql.NullTime

	if err := scan(&sig.ID, &sig.WorkspaceID, &sig.AuthorID, &sig.ConversationID, &sig.MessageID,
		&sig.Content, &embedding, &aiPriority, &humanPriority, &status, &reviewedAt, &sig.CreatedAt); err != nil {
		return nil, err
	}

	sig.Embedding = bytesToFloat32Slice(embedding)
	sig.AIPriority = domain.Priority(aiPriority)
	sig.HumanPriority = domain.Priority(humanPriority)
	sig.Status = domain.SignalStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sig.ReviewedAt = &t
	}
	return &sig, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, workspace_id, scope, owner_id, title, content,
	file_ref, parent_id, chunk_index, embedding, created_at, updated_at`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			file_ref = excluded.file_ref,
			chunk_index = excluded.chunk_index,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`,
		doc.ID, doc.WorkspaceID, string(doc.Scope), nullStr(doc.OwnerID), doc.Title, nullStr(doc.Content),
		nullStr(doc.FileRef), nullStr(doc.ParentID), doc.ChunkIndex, float32SliceToBytes(doc.Embedding),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? OR parent_id = ?`, id, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByScope returns non-chunk documents in a scope, newest first.
func (s *documentStore) ListByScope(ctx context.Context, workspaceID string, scope domain.Scope, ownerID *string) ([]domain.Document, error) {
	return s.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE workspace_id = ? AND scope = ? AND parent_id IS NULL AND owner_id IS ?
		ORDER BY created_at DESC, rowid DESC`,
		workspaceID, string(scope), nullStr(ownerID))
}

// ListChunks returns the chunks of a parent document ordered by index.
func (s *documentStore) ListChunks(ctx context.Context, parentID string) ([]domain.Document, error) {
	return s.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE parent_id = ?
		ORDER BY chunk_index ASC`, parentID)
}

// DeleteChunks removes all chunks of a parent document.
func (s *documentStore) DeleteChunks(ctx context.Context, parentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		`DELETE FROM documents WHERE parent_id = ?`, parentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// SearchSimilar scans every embedded row in the filter and ranks by
// cosine similarity in Go. Rows without an embedding never match.
func (s *documentStore) SearchSimilar(ctx context.Context, query driven.SimilarityQuery) ([]driven.DocumentHit, error) {
	docs, err := s.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE workspace_id = ? AND scope = ? AND owner_id IS ? AND embedding IS NOT NULL`,
		query.WorkspaceID, string(query.Scope), nullStr(query.OwnerID))
	if err != nil {
		return nil, err
	}

	hits := make([]driven.DocumentHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, driven.DocumentHit{
			Document:   doc,
			Similarity: domain.CosineSimilarity(query.Embedding, doc.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

func (s *documentStore) query(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var scope string
	var ownerID, content, fileRef, parentID sql.NullString
	var embedding []byte

	if err := scan(&doc.ID, &doc.WorkspaceID, &scope, &ownerID, &doc.Title, &content,
		&fileRef, &parentID, &doc.ChunkIndex, &embedding, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}

	doc.Scope = domain.Scope(scope)
	doc.OwnerID = strFromNull(ownerID)
	doc.Content = strFromNull(content)
	doc.FileRef = strFromNull(fileRef)
	doc.ParentID = strFromNull(parentID)
	doc.Embedding = bytesToFloat32Slice(embedding)
	return &doc, nil
}

// ==================== Commit Store ====================

// commitStore implements driven.CommitStore.
type commitStore struct {
	store *Store
}

var _ driven.CommitStore = (*commitStore)(nil)

const commitColumns = `id, workspace_id, parent_id, summary, trigger_kind, signal_count, created_at`

// Head returns the most recently inserted commit for the workspace.
// Insertion order (rowid) decides, so equal timestamps cannot tie.
func (s *commitStore) Head(ctx context.Context, workspaceID string) (*domain.Commit, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+commitColumns+` FROM commits
		WHERE workspace_id = ?
		ORDER BY rowid DESC LIMIT 1`, workspaceID)
	commit, err := scanCommit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning head commit: %w", err)
	}
	return commit, nil
}

// GetCommit retrieves a commit by ID.
func (s *commitStore) GetCommit(ctx context.Context, id string) (*domain.Commit, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+commitColumns+` FROM commits WHERE id = ?`, id)
	commit, err := scanCommit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning commit: %w", err)
	}
	return commit, nil
}

// InsertCommit writes a new commit, atomically verifying that the
// workspace head still equals the commit's parent. The head check and
// the insert are one statement, so no interleaving can slip between them.
func (s *commitStore) InsertCommit(ctx context.Context, commit *domain.Commit) error {
	result, err := s.store.db.ExecContext(ctx, `
		INSERT INTO commits (`+commitColumns+`)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE (SELECT id FROM commits WHERE workspace_id = ? ORDER BY rowid DESC LIMIT 1) IS ?`,
		commit.ID, commit.WorkspaceID, nullStr(commit.ParentID), commit.Summary,
		string(commit.Trigger), commit.SignalCount, commit.CreatedAt,
		commit.WorkspaceID, nullStr(commit.ParentID),
	)
	if err != nil {
		return fmt.Errorf("inserting commit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking commit insert: %w", err)
	}
	if affected == 0 {
		return domain.ErrSynthesisConflict
	}
	return nil
}

// LinkSignals links signals to a commit in one transaction. The primary
// key on signal_id rejects a signal already claimed by any commit, in
// which case the whole batch rolls back.
func (s *commitStore) LinkSignals(ctx context.Context, commitID string, signalIDs []string) error {
	if len(signalIDs) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, signalID := range signalIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commit_signals (signal_id, commit_id) VALUES (?, ?)`,
			signalID, commitID); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrSynthesisConflict
			}
			return fmt.Errorf("linking signal %s: %w", signalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing links: %w", err)
	}
	return nil
}

// SaveVersion appends one document version snapshot.
func (s *commitStore) SaveVersion(ctx context.Context, version *domain.DocumentVersion) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, commit_id, document_id, change_kind, title, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		version.ID, version.CommitID, version.DocumentID, string(version.ChangeKind),
		version.Title, version.Content, version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving version: %w", err)
	}
	return nil
}

// ListCommits returns the newest commits for a workspace, newest first.
// A non-positive limit returns all commits.
func (s *commitStore) ListCommits(ctx context.Context, workspaceID string, limit int) ([]domain.Commit, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+commitColumns+` FROM commits
		WHERE workspace_id = ?
		ORDER BY rowid DESC LIMIT ?`, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying commits: %w", err)
	}
	defer rows.Close()

	var commits []domain.Commit
	for rows.Next() {
		commit, err := scanCommit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		commits = append(commits, *commit)
	}
	return commits, rows.Err()
}

// ListVersions returns the version snapshots written by one commit, in
// write order.
func (s *commitStore) ListVersions(ctx context.Context, commitID string) ([]domain.DocumentVersion, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, commit_id, document_id, change_kind, title, content, created_at
		FROM document_versions
		WHERE commit_id = ?
		ORDER BY rowid ASC`, commitID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.DocumentVersion
	for rows.Next() {
		var v domain.DocumentVersion
		var kind string
		if err := rows.Scan(&v.ID, &v.CommitID, &v.DocumentID, &kind, &v.Title, &v.Content, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		v.ChangeKind = domain.ChangeKind(kind)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ListLinkedSignalIDs returns the IDs of signals folded into a commit.
func (s *commitStore) ListLinkedSignalIDs(ctx context.Context, commitID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT signal_id FROM commit_signals
		WHERE commit_id = ?
		ORDER BY rowid ASC`, commitID)
	if err != nil {
		return nil, fmt.Errorf("querying commit signals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning signal id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCommit(scan func(...any) error) (*domain.Commit, error) {
	var commit domain.Commit
	var parentID sql.NullString
	var trigger string

	if err := scan(&commit.ID, &commit.WorkspaceID, &parentID, &commit.Summary,
		&trigger, &commit.SignalCount, &commit.CreatedAt); err != nil {
		return nil, err
	}

	commit.ParentID = strFromNull(parentID)
	commit.Trigger = domain.Trigger(trigger)
	return &commit, nil
}
