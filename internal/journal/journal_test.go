package journal

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func commitMessages(t *testing.T, path string) []string {
	t.Helper()

	repo, err := git.PlainOpen(path)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	require.NoError(t, err)

	var messages []string
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		messages = append(messages, c.Message)
		return nil
	}))
	return messages
}

func TestJournalCommitsEachIteration(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "journal")
	j, err := Open(dir, testLogger(t))
	require.NoError(t, err)

	j.OnIteration(model.ProgressEvent{Iteration: 1, SuccessRate: 0.25, Instructions: "first draft", Passed: 1, Total: 4})
	j.OnIteration(model.ProgressEvent{Iteration: 2, SuccessRate: 0.5, Instructions: "second draft", Passed: 2, Total: 4})

	messages := commitMessages(t, dir)
	require.Len(t, messages, 2)
	require.Contains(t, messages[0], "iteration 2")
	require.Contains(t, messages[1], "iteration 1")

	content, err := os.ReadFile(filepath.Join(dir, "instructions.txt"))
	require.NoError(t, err)
	require.Equal(t, "second draft\n", string(content))
}

func TestOpenReusesExistingRepository(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "journal")

	first, err := Open(dir, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, first.Record(model.ProgressEvent{Iteration: 1, Instructions: "draft", Total: 1}))

	second, err := Open(dir, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, second.Record(model.ProgressEvent{Iteration: 2, Instructions: "draft two", Total: 1}))

	require.Len(t, commitMessages(t, dir), 2)
}
