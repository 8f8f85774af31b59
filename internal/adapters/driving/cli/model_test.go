package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

func TestModelCmd_Show(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "model")

	require.NoError(t, err)
	assert.Contains(t, out, "Current model: mistral")
}

func TestModelCmd_SetPersists(t *testing.T) {
	chat, settings := setupTestServices(t)

	out, err := executeCommand(t, "model", "llama3")

	require.NoError(t, err)
	assert.Contains(t, out, "Model set to llama3")
	assert.Equal(t, "llama3", chat.Model())
	assert.Equal(t, []string{"llama3"}, settings.savedModels)
}

func TestModelCmd_WithoutSettings(t *testing.T) {
	chat, _ := setupTestServices(t)
	settingsService = nil

	_, err := executeCommand(t, "model", "llama3")

	require.NoError(t, err)
	assert.Equal(t, "llama3", chat.Model())
}

func TestHistoryCmd(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.Local)

	t.Run("prints turns", func(t *testing.T) {
		chat, _ := setupTestServices(t)
		chat.history = []domain.TranscriptEntry{
			{Role: domain.RoleUser, Content: "What is it?", CreatedAt: created},
			{Role: domain.RoleAssistant, Content: "A guide.", Document: "guide.md", CreatedAt: created},
		}

		out, err := executeCommand(t, "history", "-n", "5")

		require.NoError(t, err)
		assert.Equal(t, []int{5}, chat.limits)
		assert.Contains(t, out, "[2024-05-01 12:30] user:\nWhat is it?")
		assert.Contains(t, out, "[2024-05-01 12:30] assistant (guide.md):\nA guide.")
	})

	t.Run("default limit", func(t *testing.T) {
		chat, _ := setupTestServices(t)

		out, err := executeCommand(t, "history")

		require.NoError(t, err)
		assert.Equal(t, []int{20}, chat.limits)
		assert.Contains(t, out, "No history.")
	})

	t.Run("clear", func(t *testing.T) {
		chat, _ := setupTestServices(t)

		out, err := executeCommand(t, "history", "--clear")

		require.NoError(t, err)
		assert.Equal(t, 1, chat.cleared)
		assert.Empty(t, chat.limits)
		assert.Contains(t, out, "History cleared.")
	})

	t.Run("store error", func(t *testing.T) {
		chat, _ := setupTestServices(t)
		chat.historyErr = assert.AnError

		_, err := executeCommand(t, "history")

		require.ErrorIs(t, err, assert.AnError)
	})
}
