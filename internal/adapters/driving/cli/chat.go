package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/chatd/internal/adapters/driving/tui"
	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/logger"
)

var (
	chatDoc   string
	chatWatch bool
)

// isTerminal reports whether stdin and stdout are both terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Chat with the local model. On a terminal this opens the full-screen
chat; otherwise each line read from stdin is sent as a question and the
answer is written to stdout.

Commands (both modes):
  /load <path>   chat about a document
  /reset         forget the conversation and the document

Keys (terminal):
  enter          send
  esc            stop the answer
  pgup/pgdown    scroll
  ctrl+c         quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatDoc, "doc", "d", "", "document to chat about")
	chatCmd.Flags().BoolVarP(&chatWatch, "watch", "w", false, "reload the document when it changes")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNoChatService
	}
	if chatWatch && chatDoc == "" {
		return errors.New("--watch requires --doc")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var changes <-chan struct{}
	if chatWatch {
		if docWatcher == nil {
			return errors.New("document watcher not configured")
		}
		var errs <-chan error
		changes, errs = docWatcher.Watch(ctx, chatDoc)
		go func() {
			for err := range errs {
				logger.Warn("watching %s: %v", chatDoc, err)
			}
		}()
	}

	if isTerminal() {
		return runChatTUI(ctx, changes)
	}
	return runChatLines(ctx, cmd, changes)
}

func runChatTUI(ctx context.Context, changes <-chan struct{}) error {
	app, err := tui.NewApp(&tui.Ports{Chat: chatService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(ctx)
	if chatDoc != "" {
		app.WithDocument(chatDoc)
	}
	if changes != nil {
		app.WithWatch(chatDoc, changes)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runChatLines answers one question per input line.
func runChatLines(ctx context.Context, cmd *cobra.Command, changes <-chan struct{}) error {
	if err := prepare(ctx, cmd, ""); err != nil {
		return err
	}
	if chatDoc != "" {
		if err := loadDocument(ctx, cmd, chatDoc); err != nil {
			return err
		}
	}

	if changes != nil {
		svc, doc := chatService, chatDoc
		go func() {
			for range changes {
				logger.Info("%s changed, reloading", doc)
				res := <-svc.LoadDocument(ctx, doc)
				if !res.Success && !domain.IsCancelled(res.Err) {
					logger.Warn("reloading %s: %v", doc, res.Err)
				}
			}
		}()
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := chatLine(ctx, cmd, line); err != nil {
			cmd.PrintErrln("Error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func chatLine(ctx context.Context, cmd *cobra.Command, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/load":
		if arg == "" {
			return errors.New("usage: /load <path>")
		}
		return loadDocument(ctx, cmd, arg)
	case "/reset":
		if err := chatService.Reset(ctx); err != nil {
			return err
		}
		cmd.PrintErrln("Conversation cleared.")
		return nil
	default:
		return streamAnswer(ctx, cmd, line)
	}
}
