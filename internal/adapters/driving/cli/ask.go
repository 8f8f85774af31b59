package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askDoc string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Ask the model one question and stream the answer to stdout.

With --doc the question is answered from the given document.`,
	Example: `  chatd ask "What is a goroutine?"
  chatd ask --doc report.pdf "What were the Q3 results?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDoc, "doc", "d", "", "document to ground the answer in")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := prepare(ctx, cmd, ""); err != nil {
		return err
	}

	if askDoc != "" {
		if err := loadDocument(ctx, cmd, askDoc); err != nil {
			return err
		}
	}

	return streamAnswer(ctx, cmd, strings.Join(args, " "))
}
