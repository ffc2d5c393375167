package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/adapters/driven/ai"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the Driftline configuration file.

Well-known keys:
  workspace.id                 active workspace
  retrieval.similarity_floor   retrieval relevance cutoff (0-1)
  scheduler.enabled            toggle scheduled synthesis
  scheduler.interval_minutes   minutes between scheduled runs
  embedding.provider/model     embedding provider (openai|ollama)
  llm.provider/model           LLM provider (anthropic|openai)`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately.
Values parse as bool, int or float where possible, string otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate provider configuration",
	Long:  `Creates the configured embedding and LLM services and pings them.`,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", configStore.Path())
	for _, key := range []string{
		driven.ConfigKeyWorkspace,
		driven.ConfigKeySimilarityFloor,
		driven.ConfigKeySchedulerEnabled,
		driven.ConfigKeySchedulerInterval,
		ai.KeyEmbeddingProvider,
		ai.KeyEmbeddingModel,
		ai.KeyLLMProvider,
		ai.KeyLLMModel,
	} {
		if val, ok := configStore.Get(key); ok {
			cmd.Printf("  %s = %v\n", key, val)
		} else {
			cmd.Printf("  %s = (not set)\n", key)
		}
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %s is not set", args[0])
	}

	cmd.Printf("%v\n", val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("Embedding provider... ")
	if err := ai.ValidateEmbeddingConfig(configStore); err != nil {
		cmd.Printf("FAILED: %v\n", err)
	} else if configStore.GetString(ai.KeyEmbeddingProvider) == "" {
		cmd.Println("not configured")
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM provider... ")
	if err := ai.ValidateLLMConfig(configStore); err != nil {
		cmd.Printf("FAILED: %v\n", err)
	} else if configStore.GetString(ai.KeyLLMProvider) == "" {
		cmd.Println("not configured")
	} else {
		cmd.Println("OK")
	}

	return nil
}

// parseConfigValue converts CLI input to the natural TOML type.
// Numbers are tried before bools so "1" stays an integer.
func parseConfigValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
