package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded chat turns",
	Long: `Print the most recent chat turns, oldest first. Recording can be
turned off with history.enabled = false in the config file.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of turns")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded turns")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNoChatService
	}
	ctx := cmd.Context()

	if historyClear {
		if err := chatService.ClearHistory(ctx); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		cmd.Println("History cleared.")
		return nil
	}

	entries, err := chatService.History(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("No history.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		header := fmt.Sprintf("[%s] %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Role)
		if e.Document != "" {
			header += " (" + e.Document + ")"
		}
		cmd.Printf("%s:\n%s\n\n", header, e.Content)
	}
	return nil
}
