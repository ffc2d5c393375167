// Package cli provides the command-line interface for Driftline.
// Commands are thin adapters: they parse flags, call driving-port
// services, and format output. All domain behaviour lives in
// internal/core/services.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/adapters/driven/ai"
	configfile "github.com/driftline/driftline/internal/adapters/driven/config/file"
	"github.com/driftline/driftline/internal/adapters/driven/storage/sqlite"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/core/services"
	"github.com/driftline/driftline/internal/logger"
)

// version is set by main at startup (ldflags in release builds).
var version = "dev"

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// defaultWorkspace is used when neither the --workspace flag nor the
// workspace.id config key is set.
const defaultWorkspace = "default"

// Persistent flags.
var (
	verboseFlag   bool
	workspaceFlag string
	configDirFlag string
	dataDirFlag   string
)

// Services wired by initServices. Tests inject fakes directly.
var (
	configStore      driven.ConfigStore
	store            *sqlite.Store
	signalService    driving.SignalService
	synthesisService driving.SynthesisService
	retrievalService driving.RetrievalService
	documentService  driving.DocumentService
	digestService    driving.DigestService
	historyService   driving.CommitHistory
)

var rootCmd = &cobra.Command{
	Use:   "driftline",
	Short: "Capture signals and synthesise living workspace documents",
	Long: `Driftline captures atomic observations ("signals") from conversations
and folds them into a small set of living world-model documents per
workspace, recording every change in a linear commit history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "workspace ID (default: config workspace.id)")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "config directory (default: ~/.driftline)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: ~/.driftline/data)")
}

// Execute runs the root command.
func Execute() error {
	defer closeStore()
	return rootCmd.Execute()
}

// initServices wires the production adapters into the core services.
// Idempotent: tests that pre-populate the service variables skip wiring.
func initServices() error {
	if signalService != nil {
		return nil
	}

	var err error
	configStore, err = configfile.NewConfigStore(configDirFlag)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	store, err = sqlite.NewStore(dataDirFlag)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	// Providers are optional: a misconfigured or absent provider logs a
	// warning and the affected features degrade rather than blocking
	// every command.
	embedder, err := ai.CreateEmbeddingService(configStore)
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
	}
	llm, err := ai.CreateLLMService(configStore)
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
	}

	var retrievalOpts []services.RetrievalOption
	if floor := configStore.GetFloat(driven.ConfigKeySimilarityFloor); floor > 0 {
		retrievalOpts = append(retrievalOpts, services.WithSimilarityFloor(floor))
	}

	signalService = services.NewSignalService(store.SignalStore(), embedder)
	documentService = services.NewDocumentService(store.DocumentStore(), embedder, nil)
	retrievalService = services.NewRetrievalService(store.DocumentStore(), embedder, retrievalOpts...)
	synthesisService = services.NewSynthesisService(
		store.SignalStore(), store.DocumentStore(), store.CommitStore(), llm, embedder, nil)
	digestService = services.NewDigestService(store.CommitStore(), store.DocumentStore(), llm, embedder)
	historyService = services.NewHistoryService(store.CommitStore())

	return nil
}

// resolveWorkspace returns the active workspace: flag, then config,
// then the built-in default.
func resolveWorkspace() string {
	if workspaceFlag != "" {
		return workspaceFlag
	}
	if configStore != nil {
		if ws := configStore.GetString(driven.ConfigKeyWorkspace); ws != "" {
			return ws
		}
	}
	return defaultWorkspace
}

// closeStore releases the SQLite handle, best-effort.
func closeStore() {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
	}
}
