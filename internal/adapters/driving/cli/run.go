package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [model]",
	Short: "Pull and warm up a model",
	Long: `Download a model if needed and load it into memory so the first
question is answered quickly. Without an argument the configured model is
used. When the server cannot be reached for the download, a local copy of
the model is used if there is one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	var model string
	if len(args) == 1 {
		model = args[0]
	}

	if err := prepare(cmd.Context(), cmd, model); err != nil {
		return err
	}

	cmd.Printf("Model %s is ready.\n", chatService.Model())
	if chatService.Status().Offline {
		cmd.Println("Offline: using the local copy.")
	}
	return nil
}
