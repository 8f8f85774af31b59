// Package cli provides the command-line interface for chatd.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatd/internal/core/ports/driving"
	"github.com/custodia-labs/chatd/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var verbose bool

var (
	chatService     driving.ChatService
	settingsService driving.SettingsService
	docWatcher      DocumentWatcher
)

// errNoChatService is returned by commands run before SetChatService.
var errNoChatService = errors.New("chat service not configured")

// DocumentWatcher reports writes to the document given to --watch.
type DocumentWatcher interface {
	Watch(ctx context.Context, path string) (<-chan struct{}, <-chan error)
}

var rootCmd = &cobra.Command{
	Use:   "chatd",
	Short: "Chat with a local model about your documents",
	Long: `chatd talks to a locally hosted Ollama model. Load a text, Markdown,
PDF, DOCX, ODT or HTML file and its most relevant passages are added to
every question, so answers stay grounded in the document.

Nothing leaves your machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

// SetChatService sets the chat service used by every command.
func SetChatService(svc driving.ChatService) {
	chatService = svc
}

// SetSettingsService sets the settings service used to persist choices.
func SetSettingsService(svc driving.SettingsService) {
	settingsService = svc
}

// SetDocumentWatcher sets the watcher used by chat --watch.
func SetDocumentWatcher(w DocumentWatcher) {
	docWatcher = w
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
