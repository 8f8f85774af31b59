package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryDoc string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise a document",
	Long: `Ask the model for a short summary of a document, based on its file
name and section headings.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryDoc, "doc", "d", "", "document to summarise")
	_ = summaryCmd.MarkFlagRequired("doc")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := prepare(ctx, cmd, ""); err != nil {
		return err
	}
	if err := loadDocument(ctx, cmd, summaryDoc); err != nil {
		return err
	}

	summary, err := chatService.Summarise(ctx)
	if err != nil {
		return fmt.Errorf("summarising: %w", err)
	}
	if !summary.Success {
		return fmt.Errorf("the model could not summarise %s", summaryDoc)
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.Content)
	return nil
}
