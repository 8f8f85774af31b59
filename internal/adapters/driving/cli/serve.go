package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the model server",
	Long: `Make an Ollama server available.

An already running server is reused. Otherwise the system ollama binary
is started, falling back to the bundled one. A server started here runs
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNoChatService
	}

	ctx := cmd.Context()
	st, err := chatService.Serve(ctx)
	if err != nil {
		return fmt.Errorf("starting model server: %w", err)
	}

	if !st.Owned() {
		cmd.Println("A model server is already running.")
		return nil
	}

	cmd.Printf("Model server started (%s). Press ctrl+c to stop.\n", st)
	<-ctx.Done()

	if err := chatService.Stop(); err != nil {
		return fmt.Errorf("stopping model server: %w", err)
	}
	cmd.Println("Model server stopped.")
	return nil
}
