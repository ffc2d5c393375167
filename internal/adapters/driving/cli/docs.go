package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driving"
)

var (
	docsScope   string
	docsOwner   string
	docsTitle   string
	docsContent string
	docsFileRef string
	docsJSON    bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage workspace documents",
	Long:  `Create, list, view, update and delete documents across scopes.`,
}

var docsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document",
	Long: `Creates a document in the given scope. Content above the chunk
threshold is split and each chunk embedded. Creation fails outright when
embedding fails; a hand-created document must be retrievable immediately.`,
	RunE: runDocsCreate,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in a scope",
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Print a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update [doc-id]",
	Short: "Update a document's title and content",
	Long: `Replaces the document text and regenerates chunks and embeddings.
An embedding failure here is non-fatal; the text is saved unembedded.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsUpdate,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCreateCmd.Flags().StringVarP(&docsTitle, "title", "t", "", "document title (required)")
	docsCreateCmd.Flags().StringVarP(&docsContent, "content", "c", "", "document content")
	docsCreateCmd.Flags().StringVar(&docsFileRef, "file-ref", "", "blob storage reference for file-backed documents")
	docsCreateCmd.Flags().StringVarP(&docsScope, "scope", "s", string(domain.ScopeShared), "document scope (personal|shared|org)")
	docsCreateCmd.Flags().StringVarP(&docsOwner, "owner", "o", "", "owner user ID (required for personal scope)")
	_ = docsCreateCmd.MarkFlagRequired("title")

	docsListCmd.Flags().StringVarP(&docsScope, "scope", "s", string(domain.ScopeShared), "document scope")
	docsListCmd.Flags().StringVarP(&docsOwner, "owner", "o", "", "owner user ID (personal scope)")
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")

	docsUpdateCmd.Flags().StringVarP(&docsTitle, "title", "t", "", "new title (empty keeps the current one)")
	docsUpdateCmd.Flags().StringVarP(&docsContent, "content", "c", "", "new content")

	docsCmd.AddCommand(docsCreateCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsUpdateCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsCreate(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	input := driving.NewDocument{
		WorkspaceID: resolveWorkspace(),
		Scope:       domain.Scope(docsScope),
		Title:       docsTitle,
	}
	if docsOwner != "" {
		input.OwnerID = &docsOwner
	}
	if docsContent != "" {
		input.Content = &docsContent
	}
	if docsFileRef != "" {
		input.FileRef = &docsFileRef
	}

	doc, err := documentService.Create(context.Background(), input)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	cmd.Printf("Created document %s\n", doc.ID)
	return nil
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var owner *string
	if docsOwner != "" {
		owner = &docsOwner
	}

	docs, err := documentService.ListByScope(
		context.Background(), resolveWorkspace(), domain.Scope(docsScope), owner)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in scope %s.\n", docsScope)
		return nil
	}

	cmd.Printf("Documents in scope %s:\n\n", docsScope)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Updated: %s\n", docs[i].UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Scope:    %s\n", doc.Scope)
	if doc.OwnerID != nil {
		cmd.Printf("  Owner:    %s\n", *doc.OwnerID)
	}
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if doc.FileRef != nil {
		cmd.Printf("  File:     %s\n", *doc.FileRef)
	}
	if doc.Content != nil {
		cmd.Println()
		cmd.Println(*doc.Content)
	}
	return nil
}

func runDocsUpdate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()

	// Update replaces content wholesale; keep the current text when the
	// caller only renames.
	var content *string
	if cmd.Flags().Changed("content") {
		content = &docsContent
	} else {
		existing, err := documentService.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		content = existing.Content
	}

	doc, err := documentService.Update(ctx, args[0], docsTitle, content)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	cmd.Printf("Updated document %s\n", doc.ID)
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
