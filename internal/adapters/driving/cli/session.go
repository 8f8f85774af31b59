package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/logger"
)

// prepare makes a model server available and the current model ready,
// printing pull progress to stderr.
func prepare(ctx context.Context, cmd *cobra.Command, model string) error {
	if chatService == nil {
		return errNoChatService
	}

	st, err := chatService.Serve(ctx)
	if err != nil {
		return fmt.Errorf("starting model server: %w", err)
	}
	logger.Debug("model server: %s", st)

	var last string
	err = chatService.RunModel(ctx, model, func(p domain.PullProgress) {
		if line := p.Describe(); line != last {
			cmd.PrintErrln(line)
			last = line
		}
	})
	if err != nil {
		return fmt.Errorf("preparing model: %w", err)
	}
	return nil
}

// loadDocument loads path and reports the outcome.
func loadDocument(ctx context.Context, cmd *cobra.Command, path string) error {
	res := <-chatService.LoadDocument(ctx, path)
	if !res.Success {
		return fmt.Errorf("loading %s: %w", path, res.Err)
	}
	cmd.PrintErrf("Loaded %s (%d chunks)\n", res.FileName, res.Chunks)
	return nil
}

// streamAnswer prints an answer to stdout as it arrives. A cancelled answer is not
// an error.
func streamAnswer(ctx context.Context, cmd *cobra.Command, question string) error {
	out := cmd.OutOrStdout()
	events, errs := chatService.SendChat(ctx, question)
	for ev := range events {
		fmt.Fprint(out, ev.Content)
	}
	fmt.Fprintln(out)

	if err := <-errs; err != nil && !domain.IsCancelled(err) {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}
