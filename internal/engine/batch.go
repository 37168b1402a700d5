package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mpelletier/agentshift/internal/model"
)

// Failure tags attached to verdicts the engine synthesizes when a case never
// reached the scorer.
const (
	TagExecutionError = "execution_error"
	TagScoringError   = "scoring_error"
	TagTimeout        = "timeout"
)

// runBatch executes the candidate instructions over every reference case
// with a bounded concurrency window, then scores the completed batch. Per
// case, execution or scoring failures become failed verdicts; the batch as a
// whole fails only when not a single case produced a real verdict.
func (e *Engine) runBatch(ctx context.Context, req *Request, instructions string) ([]model.CaseVerdict, map[string]string, error) {
	parallel := req.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}
	caseTimeout := req.CaseTimeout
	if caseTimeout <= 0 {
		caseTimeout = defaultCaseTimeout
	}

	// Results are write-once per case id; no id is written twice within an
	// iteration, so the mutex only orders distinct writers.
	var mu sync.Mutex
	outputs := make(map[string]string, len(req.Cases))
	execErrs := make(map[string]error)

	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for _, ref := range req.Cases {
		g.Go(func() error {
			caseCtx, cancel := context.WithTimeout(ctx, caseTimeout)
			defer cancel()

			out, err := req.Target.Execute(caseCtx, instructions, ref.Input)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				execErrs[ref.ID] = err
			} else {
				outputs[ref.ID] = out
			}
			// Execution failures become data, never group errors: one bad
			// case must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Scoring starts only once the whole batch has executed.
	verdicts := make([]model.CaseVerdict, 0, len(req.Cases))
	scored := 0
	for _, ref := range req.Cases {
		if execErr, failed := execErrs[ref.ID]; failed {
			verdicts = append(verdicts, failedVerdict(ref.ID, execTag(execErr), execErr))
			continue
		}

		verdict, err := req.Scorer.Score(ctx, ref, outputs[ref.ID])
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			verdicts = append(verdicts, failedVerdict(ref.ID, TagScoringError, err))
			continue
		}
		verdicts = append(verdicts, verdict)
		scored++
	}

	if scored == 0 {
		return nil, nil, fmt.Errorf("no case produced a verdict (%d execution failures, %d scoring failures)",
			len(execErrs), len(req.Cases)-len(execErrs))
	}

	return verdicts, outputs, nil
}

func execTag(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return TagTimeout
	}
	return TagExecutionError
}

func failedVerdict(caseID, tag string, err error) model.CaseVerdict {
	return model.CaseVerdict{
		CaseID:      caseID,
		Score:       0,
		Passed:      false,
		Feedback:    err.Error(),
		FailureTags: []string{tag},
	}
}

// ScoreBatch runs a single execute-and-score pass without the convergence
// loop, for one-shot evaluation of a candidate instruction set. It needs no
// policy or reviser.
func (e *Engine) ScoreBatch(ctx context.Context, req Request, instructions string) ([]model.CaseVerdict, float64, error) {
	if len(req.Cases) == 0 {
		return nil, 0, fmt.Errorf("at least one reference case is required")
	}
	if req.Scorer == nil {
		return nil, 0, fmt.Errorf("scorer is required")
	}
	if req.Target.Provider == nil {
		return nil, 0, fmt.Errorf("target agent has no provider")
	}

	verdicts, _, err := e.runBatch(ctx, &req, instructions)
	if err != nil {
		return nil, 0, err
	}
	return verdicts, model.SuccessRate(verdicts), nil
}
