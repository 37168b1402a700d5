// Package journal keeps an audit trail of instruction revisions as commits
// in a local git repository: one commit per completed iteration, so any past
// candidate can be recovered or diffed after the run.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
)

const instructionsFile = "instructions.txt"

// Journal records iteration snapshots into a git repository.
type Journal struct {
	repo *git.Repository
	path string
	log  *logger.Logger
}

// Open opens the journal repository at path, initializing it if missing.
func Open(path string, log *logger.Logger) (*Journal, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open journal repository: %w", err)
	}

	return &Journal{repo: repo, path: path, log: log.WithComponent("journal")}, nil
}

// Record writes the iteration's instructions and commits them.
func (j *Journal) Record(event model.ProgressEvent) error {
	target := filepath.Join(j.path, instructionsFile)
	if err := os.WriteFile(target, []byte(event.Instructions+"\n"), 0o644); err != nil {
		return err
	}

	wt, err := j.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(instructionsFile); err != nil {
		return err
	}

	msg := fmt.Sprintf("iteration %d: success rate %.2f (%d/%d passed)",
		event.Iteration, event.SuccessRate, event.Passed, event.Total)
	_, err = wt.Commit(msg, &git.CommitOptions{
		// Identical consecutive candidates still get their own commit so the
		// log stays one-commit-per-iteration.
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "agentshift",
			Email: "agentshift@localhost",
			When:  time.Now(),
		},
	})
	return err
}

// OnIteration implements the engine's progress sink. Journal failures are
// logged, never surfaced: an audit trail must not alter the run's outcome.
func (j *Journal) OnIteration(event model.ProgressEvent) {
	if err := j.Record(event); err != nil {
		j.log.Error(err, "failed to record iteration")
	}
}
