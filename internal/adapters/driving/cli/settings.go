package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show application settings",
	Long: `Print the settings read from ~/.chatd/config.toml, with defaults for
any key that is not set.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	cmd.Printf("  Host: %s\n", orDefault(settings.LLM.Host, "(OLLAMA_HOST or local default)"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	cmd.Printf("  Concurrency: %d\n", settings.Embedding.Concurrency)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunks per question: %d\n", settings.Retrieval.K)
	cmd.Printf("  Context characters: %d\n", settings.Retrieval.ContextChars)
	cmd.Printf("  Chunk size: %d\n", settings.Retrieval.ChunkSize)
	cmd.Printf("  Vector store: %s\n", settings.VectorBackend.Description())
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Bundled path: %s\n", orDefault(settings.Server.BundledPath, "(default)"))
	cmd.Printf("  Data directory: %s\n", orDefault(settings.Server.DataDir, "(default)"))
	cmd.Println()

	cmd.Println("[History]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.HistoryEnabled))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Edit ~/.chatd/config.toml to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
