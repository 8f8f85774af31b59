// Command chatd chats with a local Ollama model about a document.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/chatd/internal/adapters/driven/ai"
	"github.com/custodia-labs/chatd/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chatd/internal/adapters/driven/process"
	"github.com/custodia-labs/chatd/internal/adapters/driven/watcher"
	"github.com/custodia-labs/chatd/internal/adapters/driving/cli"
	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/services"
	"github.com/custodia-labs/chatd/internal/logger"
	"github.com/custodia-labs/chatd/internal/normalisers"
	"github.com/custodia-labs/chatd/internal/segmenter"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	adapters, err := ai.Init(*settings, ai.Options{})
	if err != nil {
		return err
	}
	defer adapters.Close()

	seg := segmenter.New(segmenter.WithChunkSize(settings.Retrieval.ChunkSize))
	parser := normalisers.DefaultRegistry(seg)

	launcher := process.NewLauncher(process.Config{})
	session := services.NewSessionService(adapters.ModelServer, launcher, services.SessionConfig{
		Attempts: serveAttempts(settings.Server),
	})

	chatService := services.NewChatService(
		session,
		parser,
		adapters.Embedding,
		adapters.VectorStore,
		services.NewPromptAssembler(adapters.Prompts, settings.Retrieval.ContextChars),
		adapters.Transcripts,
		services.ChatConfig{Model: settings.LLM.Model, K: settings.Retrieval.K},
	)
	defer func() {
		if err := chatService.Stop(); err != nil {
			logger.Warn("stopping model server: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetChatService(chatService)
	cli.SetSettingsService(settingsService)
	cli.SetDocumentWatcher(watcher.New(0))

	return cli.Execute(ctx)
}

// serveAttempts tries the system server first, then the bundled one.
func serveAttempts(cfg domain.ServerSettings) []services.ServeAttempt {
	return []services.ServeAttempt{
		{
			Type: domain.ServeSystem,
			Spec: func() (domain.LaunchSpec, error) {
				return process.SystemSpec(), nil
			},
		},
		{
			Type: domain.ServePackaged,
			Spec: func() (domain.LaunchSpec, error) {
				path := cfg.BundledPath
				if path == "" {
					p, err := process.DefaultBundledPath()
					if err != nil {
						return domain.LaunchSpec{}, err
					}
					path = p
				}
				dataDir := cfg.DataDir
				if dataDir == "" {
					d, err := process.DefaultDataDir()
					if err != nil {
						return domain.LaunchSpec{}, err
					}
					dataDir = d
				}
				return process.PackagedSpec(path, dataDir)
			},
		},
	}
}
