package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model [name]",
	Short: "Show or set the chat model",
	Long: `Without an argument, print the current chat model. With a name,
switch to that model and save it as the default.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModel,
}

func init() {
	rootCmd.AddCommand(modelCmd)
}

func runModel(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNoChatService
	}

	if len(args) == 0 {
		cmd.Printf("Current model: %s\n", chatService.Model())
		return nil
	}

	name := args[0]
	if err := chatService.SetModel(name); err != nil {
		return fmt.Errorf("setting model: %w", err)
	}
	if settingsService != nil {
		if err := settingsService.SetModel(name); err != nil {
			return fmt.Errorf("saving model: %w", err)
		}
	}

	cmd.Printf("Model set to %s\n", name)
	return nil
}
